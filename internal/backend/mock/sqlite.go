package mock

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"docchat/internal/model"

	_ "modernc.org/sqlite"
)

// SQLiteRepository persists the simulated backend's state to a local SQLite
// file, so dev fixtures survive restarts. It implements Repository.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository opens (or creates) the database at path and runs
// migrations.
func NewSQLiteRepository(path string) (*SQLiteRepository, error) {
	// WAL mode for concurrent access, busy timeout for write contention
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	repo := &SQLiteRepository{db: db}
	if err := repo.migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return repo, nil
}

func (r *SQLiteRepository) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS conversations (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			type TEXT NOT NULL,
			last_message TEXT,
			message_count INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS messages (
			id TEXT PRIMARY KEY,
			conversation_id TEXT NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			sources TEXT,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id, created_at)`,
		`CREATE TABLE IF NOT EXISTS documents (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			file_name TEXT NOT NULL,
			file_type TEXT NOT NULL,
			file_size INTEGER NOT NULL,
			status TEXT NOT NULL,
			chunk_count INTEGER,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
	}

	for _, stmt := range stmts {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// timeLayout is RFC3339 in UTC with a fixed-width 9-digit fraction.
// RFC3339Nano trims trailing sub-second zeros, so ".1Z" would sort after
// ".123456789Z"; the padded form keeps lexicographic ORDER BY equal to
// chronological order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func encodeTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func decodeTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

func (r *SQLiteRepository) InsertConversation(ctx context.Context, c model.Conversation) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO conversations (id, title, type, last_message, message_count, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Title, string(c.Type), c.LastMessage, c.MessageCount,
		encodeTime(c.CreatedAt), encodeTime(c.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to insert conversation: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetConversation(ctx context.Context, id string) (model.Conversation, bool, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, title, type, last_message, message_count, created_at, updated_at
		 FROM conversations WHERE id = ?`, id)

	c, err := scanConversation(row)
	if err == sql.ErrNoRows {
		return model.Conversation{}, false, nil
	}
	if err != nil {
		return model.Conversation{}, false, fmt.Errorf("failed to get conversation: %w", err)
	}
	return c, true, nil
}

func (r *SQLiteRepository) UpdateConversation(ctx context.Context, c model.Conversation) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE conversations SET title = ?, last_message = ?, message_count = ?, updated_at = ?
		 WHERE id = ?`,
		c.Title, c.LastMessage, c.MessageCount, encodeTime(c.UpdatedAt), c.ID)
	if err != nil {
		return fmt.Errorf("failed to update conversation: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteConversation(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM conversations WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete conversation: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, `DELETE FROM messages WHERE conversation_id = ?`, id); err != nil {
		return false, fmt.Errorf("failed to delete conversation messages: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *SQLiteRepository) ListConversations(ctx context.Context, convType model.ConversationType) ([]model.Conversation, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, title, type, last_message, message_count, created_at, updated_at
		 FROM conversations
		 WHERE (? = '' OR type = ?)
		 ORDER BY updated_at DESC, id ASC`,
		string(convType), string(convType))
	if err != nil {
		return nil, fmt.Errorf("failed to query conversations: %w", err)
	}
	defer rows.Close()

	var out []model.Conversation
	for rows.Next() {
		c, err := scanConversation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan conversation: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) InsertMessage(ctx context.Context, conversationID string, m model.Message) error {
	var sources sql.NullString
	if len(m.Sources) > 0 {
		data, err := json.Marshal(m.Sources)
		if err != nil {
			return fmt.Errorf("failed to encode sources: %w", err)
		}
		sources = sql.NullString{String: string(data), Valid: true}
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO messages (id, conversation_id, role, content, sources, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		m.ID, conversationID, string(m.Role), m.Content, sources, encodeTime(m.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ListMessages(ctx context.Context, conversationID string) ([]model.Message, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, role, content, sources, created_at
		 FROM messages WHERE conversation_id = ?
		 ORDER BY created_at ASC, id ASC`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var out []model.Message
	for rows.Next() {
		var m model.Message
		var role, createdAt string
		var sources sql.NullString

		if err := rows.Scan(&m.ID, &role, &m.Content, &sources, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		m.Role = model.Role(role)
		m.CreatedAt = decodeTime(createdAt)
		if sources.Valid && sources.String != "" {
			if err := json.Unmarshal([]byte(sources.String), &m.Sources); err != nil {
				return nil, fmt.Errorf("failed to decode sources: %w", err)
			}
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) InsertDocument(ctx context.Context, d model.Document) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO documents (id, title, file_name, file_type, file_size, status, chunk_count, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.Title, d.FileName, d.FileType, d.FileSize, string(d.Status),
		nullableInt(d.ChunkCount), encodeTime(d.CreatedAt), encodeTime(d.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to insert document: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetDocument(ctx context.Context, id string) (model.Document, bool, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, title, file_name, file_type, file_size, status, chunk_count, created_at, updated_at
		 FROM documents WHERE id = ?`, id)

	d, err := scanDocument(row)
	if err == sql.ErrNoRows {
		return model.Document{}, false, nil
	}
	if err != nil {
		return model.Document{}, false, fmt.Errorf("failed to get document: %w", err)
	}
	return d, true, nil
}

func (r *SQLiteRepository) UpdateDocument(ctx context.Context, d model.Document) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE documents SET title = ?, status = ?, chunk_count = ?, updated_at = ? WHERE id = ?`,
		d.Title, string(d.Status), nullableInt(d.ChunkCount), encodeTime(d.UpdatedAt), d.ID)
	if err != nil {
		return fmt.Errorf("failed to update document: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteDocument(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete document: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *SQLiteRepository) ListDocuments(ctx context.Context, status model.DocumentStatus, search string) ([]model.Document, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, title, file_name, file_type, file_size, status, chunk_count, created_at, updated_at
		 FROM documents
		 WHERE (? = '' OR status = ?)
		   AND (? = '' OR lower(title) LIKE '%' || lower(?) || '%' OR lower(file_name) LIKE '%' || lower(?) || '%')
		 ORDER BY created_at DESC, id ASC`,
		string(status), string(status), search, search, search)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	var out []model.Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// Close closes the database connection
func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanConversation(row rowScanner) (model.Conversation, error) {
	var c model.Conversation
	var convType, createdAt, updatedAt string
	var lastMessage sql.NullString

	err := row.Scan(&c.ID, &c.Title, &convType, &lastMessage, &c.MessageCount, &createdAt, &updatedAt)
	if err != nil {
		return model.Conversation{}, err
	}
	c.Type = model.ConversationType(convType)
	if lastMessage.Valid {
		c.LastMessage = lastMessage.String
	}
	c.CreatedAt = decodeTime(createdAt)
	c.UpdatedAt = decodeTime(updatedAt)
	return c, nil
}

func scanDocument(row rowScanner) (model.Document, error) {
	var d model.Document
	var status, createdAt, updatedAt string
	var chunkCount sql.NullInt64

	err := row.Scan(&d.ID, &d.Title, &d.FileName, &d.FileType, &d.FileSize, &status, &chunkCount, &createdAt, &updatedAt)
	if err != nil {
		return model.Document{}, err
	}
	d.Status = model.DocumentStatus(status)
	if chunkCount.Valid {
		n := int(chunkCount.Int64)
		d.ChunkCount = &n
	}
	d.CreatedAt = decodeTime(createdAt)
	d.UpdatedAt = decodeTime(updatedAt)
	return d, nil
}

func nullableInt(p *int) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}

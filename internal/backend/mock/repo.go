package mock

import (
	"context"
	"sort"
	"strings"
	"sync"

	"docchat/internal/model"
)

// Repository is the store behind the simulated backend. It is injected so
// tests can instantiate isolated instances instead of sharing ambient
// global state.
type Repository interface {
	InsertConversation(ctx context.Context, c model.Conversation) error
	GetConversation(ctx context.Context, id string) (model.Conversation, bool, error)
	UpdateConversation(ctx context.Context, c model.Conversation) error
	DeleteConversation(ctx context.Context, id string) (bool, error)
	ListConversations(ctx context.Context, convType model.ConversationType) ([]model.Conversation, error)

	InsertMessage(ctx context.Context, conversationID string, m model.Message) error
	ListMessages(ctx context.Context, conversationID string) ([]model.Message, error)

	InsertDocument(ctx context.Context, d model.Document) error
	GetDocument(ctx context.Context, id string) (model.Document, bool, error)
	UpdateDocument(ctx context.Context, d model.Document) error
	DeleteDocument(ctx context.Context, id string) (bool, error)
	ListDocuments(ctx context.Context, status model.DocumentStatus, search string) ([]model.Document, error)

	Close() error
}

// MemoryRepository keeps everything in process memory behind a mutex.
// Last write wins; there is no isolation between concurrent operations.
type MemoryRepository struct {
	mu            sync.RWMutex
	conversations map[string]model.Conversation
	messages      map[string][]model.Message
	documents     map[string]model.Document
}

// NewMemoryRepository creates an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		conversations: make(map[string]model.Conversation),
		messages:      make(map[string][]model.Message),
		documents:     make(map[string]model.Document),
	}
}

func (r *MemoryRepository) InsertConversation(ctx context.Context, c model.Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conversations[c.ID] = c
	return nil
}

func (r *MemoryRepository) GetConversation(ctx context.Context, id string) (model.Conversation, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.conversations[id]
	return c, ok, nil
}

func (r *MemoryRepository) UpdateConversation(ctx context.Context, c model.Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conversations[c.ID] = c
	return nil
}

func (r *MemoryRepository) DeleteConversation(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.conversations[id]; !ok {
		return false, nil
	}
	delete(r.conversations, id)
	delete(r.messages, id)
	return true, nil
}

// ListConversations returns conversations ordered by UpdatedAt descending,
// optionally filtered by type.
func (r *MemoryRepository) ListConversations(ctx context.Context, convType model.ConversationType) ([]model.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.Conversation, 0, len(r.conversations))
	for _, c := range r.conversations {
		if convType != "" && c.Type != convType {
			continue
		}
		out = append(out, c)
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *MemoryRepository) InsertMessage(ctx context.Context, conversationID string, m model.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages[conversationID] = append(r.messages[conversationID], m)
	return nil
}

// ListMessages returns a conversation's messages in insertion order.
func (r *MemoryRepository) ListMessages(ctx context.Context, conversationID string) ([]model.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	msgs := r.messages[conversationID]
	out := make([]model.Message, len(msgs))
	copy(out, msgs)
	return out, nil
}

func (r *MemoryRepository) InsertDocument(ctx context.Context, d model.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.documents[d.ID] = d
	return nil
}

func (r *MemoryRepository) GetDocument(ctx context.Context, id string) (model.Document, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.documents[id]
	return d, ok, nil
}

func (r *MemoryRepository) UpdateDocument(ctx context.Context, d model.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.documents[d.ID] = d
	return nil
}

func (r *MemoryRepository) DeleteDocument(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.documents[id]; !ok {
		return false, nil
	}
	delete(r.documents, id)
	return true, nil
}

// ListDocuments returns documents ordered by CreatedAt descending. Status
// filters exactly; search is a case-insensitive substring match over title
// and file name. Filters apply before any pagination.
func (r *MemoryRepository) ListDocuments(ctx context.Context, status model.DocumentStatus, search string) ([]model.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	search = strings.ToLower(search)
	out := make([]model.Document, 0, len(r.documents))
	for _, d := range r.documents {
		if status != "" && d.Status != status {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(d.Title), search) &&
			!strings.Contains(strings.ToLower(d.FileName), search) {
			continue
		}
		out = append(out, d)
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *MemoryRepository) Close() error {
	return nil
}

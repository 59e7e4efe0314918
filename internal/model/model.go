package model

import (
	"mime"
	"path/filepath"
	"strings"
	"time"
)

// ConversationType identifies which backend capability produced a conversation.
type ConversationType string

const (
	TypeRAG   ConversationType = "rag"
	TypeAgent ConversationType = "agent"
	TypeMCP   ConversationType = "mcp"
)

// Role is the author of a message. No other values are permitted.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// DocumentStatus tracks a document through the ingestion pipeline.
// processing is the initial state; completed and failed are terminal.
type DocumentStatus string

const (
	StatusProcessing DocumentStatus = "processing"
	StatusCompleted  DocumentStatus = "completed"
	StatusFailed     DocumentStatus = "failed"
)

// Terminal reports whether no further status transitions are possible.
func (s DocumentStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Conversation is a chat thread. ID and Type are immutable after creation;
// UpdatedAt advances on every new message or metadata change.
type Conversation struct {
	ID           string           `json:"id"`
	Title        string           `json:"title"`
	Type         ConversationType `json:"type"`
	LastMessage  string           `json:"lastMessage,omitempty"`
	MessageCount int              `json:"messageCount"`
	CreatedAt    time.Time        `json:"createdAt"`
	UpdatedAt    time.Time        `json:"updatedAt"`
}

// Message is a single chat message. Sources are present only on assistant
// messages produced with retrieval enabled.
type Message struct {
	ID        string          `json:"id"`
	Role      Role            `json:"role"`
	Content   string          `json:"content"`
	Sources   []MessageSource `json:"sources,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

// MessageSource cites one retrieved chunk. DocumentTitle is a denormalized
// copy and may diverge from the live document after a rename. Similarity is
// in [0,1], higher is more relevant; ordering is a convention, not a
// guarantee.
type MessageSource struct {
	DocumentID    string  `json:"documentId"`
	DocumentTitle string  `json:"documentTitle"`
	ChunkIndex    int     `json:"chunkIndex"`
	Similarity    float64 `json:"similarity"`
}

// ConversationDetail is a conversation plus its ordered message history.
type ConversationDetail struct {
	Conversation
	Messages []Message `json:"messages"`
}

// Document is an uploaded file observed through the ingestion pipeline.
// ChunkCount is set if and only if Status is completed.
type Document struct {
	ID         string         `json:"id"`
	Title      string         `json:"title"`
	FileName   string         `json:"fileName"`
	FileType   string         `json:"fileType"`
	FileSize   int64          `json:"fileSize"`
	Status     DocumentStatus `json:"status"`
	ChunkCount *int           `json:"chunkCount,omitempty"`
	CreatedAt  time.Time      `json:"createdAt"`
	UpdatedAt  time.Time      `json:"updatedAt"`
}

// IngestStatus is the status-query payload for a document. Progress is in
// [0,100]: non-decreasing while processing, exactly 100 at completed, 0 at
// failed.
type IngestStatus struct {
	Status   DocumentStatus `json:"status"`
	Progress int            `json:"progress"`
	Message  string         `json:"message"`
}

// ChatRequest asks the backend for an assistant reply. An empty
// ConversationID starts a new conversation. UseRAG defaults to true when
// omitted; Temperature and MaxTokens are passed through opaquely.
type ChatRequest struct {
	Message        string   `json:"message"`
	ConversationID string   `json:"conversationId,omitempty"`
	UseRAG         *bool    `json:"useRAG,omitempty"`
	UseAgent       bool     `json:"useAgent,omitempty"`
	Temperature    *float64 `json:"temperature,omitempty"`
	MaxTokens      *int     `json:"maxTokens,omitempty"`
}

// RAGEnabled resolves the UseRAG default.
func (r ChatRequest) RAGEnabled() bool {
	return r.UseRAG == nil || *r.UseRAG
}

// ChatMetadata is informational only, never used for flow control.
type ChatMetadata struct {
	Model        string  `json:"model"`
	Tokens       int     `json:"tokens"`
	ResponseTime float64 `json:"responseTime"`
}

// ChatResponse carries the assistant reply. MessageID identifies the
// assistant message only; the user message id is minted by the caller at
// send time and never echoed back.
type ChatResponse struct {
	Message        string          `json:"message"`
	ConversationID string          `json:"conversationId"`
	MessageID      string          `json:"messageId"`
	Sources        []MessageSource `json:"sources,omitempty"`
	Metadata       *ChatMetadata   `json:"metadata,omitempty"`
}

// DocumentUpload is the payload for uploading a document. Title is optional;
// when empty the backend derives it from FileName.
type DocumentUpload struct {
	FileName string
	FileType string
	Title    string
	Data     []byte
}

// DefaultPageSize is the size applied when a list query omits one.
const DefaultPageSize = 20

// ConversationQuery filters and pages the conversation list.
type ConversationQuery struct {
	Page int
	Size int
	Type ConversationType
}

// DocumentQuery filters and pages the document list. Search is a
// case-insensitive substring match over title and file name.
type DocumentQuery struct {
	Page   int
	Size   int
	Status DocumentStatus
	Search string
}

// PageResult is one page of a filtered listing. Total counts all items
// matching the query, not just this page. Page is 1-indexed.
type PageResult[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
	Page  int `json:"page"`
	Size  int `json:"size"`
}

// NormalizePage applies the 1/DefaultPageSize defaults to a page request.
func NormalizePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = DefaultPageSize
	}
	return page, size
}

// Paginate slices already-filtered items into a page. Filters must be
// applied before calling so Total reflects the filtered count.
func Paginate[T any](items []T, page, size int) PageResult[T] {
	page, size = NormalizePage(page, size)

	start := (page - 1) * size
	end := start + size
	if start > len(items) {
		start = len(items)
	}
	if end > len(items) {
		end = len(items)
	}

	return PageResult[T]{
		Items: items[start:end],
		Total: len(items),
		Page:  page,
		Size:  size,
	}
}

// TitleFromFileName derives the default document title: the file name
// without its extension.
func TitleFromFileName(name string) string {
	base := filepath.Base(name)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// allowedExtensions is the document upload allow-list.
var allowedExtensions = map[string]string{
	".pdf":  "application/pdf",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".txt":  "text/plain",
	".md":   "text/markdown",
}

// AllowedFileType reports whether a file name carries an accepted document
// extension (PDF, Word, plain text, Markdown).
func AllowedFileType(fileName string) bool {
	_, ok := allowedExtensions[strings.ToLower(filepath.Ext(fileName))]
	return ok
}

// DetectFileType returns the MIME type for a file name, preferring the
// allow-list mapping and falling back to the platform MIME registry.
func DetectFileType(fileName string) string {
	ext := strings.ToLower(filepath.Ext(fileName))
	if mt, ok := allowedExtensions[ext]; ok {
		return mt
	}
	if mt := mime.TypeByExtension(ext); mt != "" {
		return mt
	}
	return "application/octet-stream"
}

package backend

import (
	"context"
	"errors"

	"docchat/internal/model"
)

// ErrEmptyMessage rejects a chat request whose message is empty after
// trimming. Validation errors are raised before any backend dispatch and
// never reach the wire.
var ErrEmptyMessage = errors.New("message must not be empty")

// Backend is the single operation surface for the chat and document APIs.
// Implementations return an envelope for every expected outcome, including
// not-found; a non-nil error signals a transport-class failure (backend
// unreachable, malformed payload) and the envelope is nil in that case.
type Backend interface {
	// SendMessage sends a chat message. An empty ConversationID starts a
	// new conversation; the response echoes or mints the conversation id.
	SendMessage(ctx context.Context, req model.ChatRequest) (*model.Response[model.ChatResponse], error)

	// ListConversations pages the conversation list, optionally filtered
	// by type.
	ListConversations(ctx context.Context, q model.ConversationQuery) (*model.Response[model.PageResult[model.Conversation]], error)

	// GetConversation returns a conversation with its ordered messages.
	GetConversation(ctx context.Context, id string) (*model.Response[model.ConversationDetail], error)

	// DeleteConversation removes a conversation and its messages.
	DeleteConversation(ctx context.Context, id string) (*model.Response[model.Empty], error)

	// UploadDocument submits a document for ingestion. The returned
	// document is in processing state; ingestion continues asynchronously.
	UploadDocument(ctx context.Context, up model.DocumentUpload) (*model.Response[model.Document], error)

	// ListDocuments pages the document list, optionally filtered by status
	// and a case-insensitive search over title and file name.
	ListDocuments(ctx context.Context, q model.DocumentQuery) (*model.Response[model.PageResult[model.Document]], error)

	// GetDocument returns a single document.
	GetDocument(ctx context.Context, id string) (*model.Response[model.Document], error)

	// DeleteDocument removes a document.
	DeleteDocument(ctx context.Context, id string) (*model.Response[model.Empty], error)

	// GetDocumentStatus reports ingestion status and progress for a
	// document. Callers poll this; there is no push channel.
	GetDocumentStatus(ctx context.Context, id string) (*model.Response[model.IngestStatus], error)
}

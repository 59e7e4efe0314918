package backend

import (
	"context"
	"strings"

	"docchat/internal/model"
)

// validating wraps a Backend and rejects malformed requests locally, before
// any dispatch. Expected backend failures still travel in the envelope; only
// caller mistakes surface as Go errors here.
type validating struct {
	next Backend
}

// Validate wraps a backend with client-side request validation.
func Validate(next Backend) Backend {
	return &validating{next: next}
}

func (v *validating) SendMessage(ctx context.Context, req model.ChatRequest) (*model.Response[model.ChatResponse], error) {
	if strings.TrimSpace(req.Message) == "" {
		return nil, ErrEmptyMessage
	}
	return v.next.SendMessage(ctx, req)
}

func (v *validating) ListConversations(ctx context.Context, q model.ConversationQuery) (*model.Response[model.PageResult[model.Conversation]], error) {
	return v.next.ListConversations(ctx, q)
}

func (v *validating) GetConversation(ctx context.Context, id string) (*model.Response[model.ConversationDetail], error) {
	return v.next.GetConversation(ctx, id)
}

func (v *validating) DeleteConversation(ctx context.Context, id string) (*model.Response[model.Empty], error) {
	return v.next.DeleteConversation(ctx, id)
}

func (v *validating) UploadDocument(ctx context.Context, up model.DocumentUpload) (*model.Response[model.Document], error) {
	return v.next.UploadDocument(ctx, up)
}

func (v *validating) ListDocuments(ctx context.Context, q model.DocumentQuery) (*model.Response[model.PageResult[model.Document]], error) {
	return v.next.ListDocuments(ctx, q)
}

func (v *validating) GetDocument(ctx context.Context, id string) (*model.Response[model.Document], error) {
	return v.next.GetDocument(ctx, id)
}

func (v *validating) DeleteDocument(ctx context.Context, id string) (*model.Response[model.Empty], error) {
	return v.next.DeleteDocument(ctx, id)
}

func (v *validating) GetDocumentStatus(ctx context.Context, id string) (*model.Response[model.IngestStatus], error) {
	return v.next.GetDocumentStatus(ctx, id)
}

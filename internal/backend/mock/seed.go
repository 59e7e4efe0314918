package mock

import (
	"context"
	"fmt"
	"time"

	"docchat/internal/model"
)

// Seed loads demo fixtures into an empty repository: two conversations with
// history and three documents, one of which is still processing. Seeding a
// non-empty repository is a no-op so persistent stores are not duplicated.
func Seed(ctx context.Context, repo Repository) error {
	existing, err := repo.ListConversations(ctx, "")
	if err != nil {
		return fmt.Errorf("failed to check for existing data: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}

	now := time.Now()
	chunks1, chunks2 := 45, 32

	documents := []model.Document{
		{
			ID:         "doc-1",
			Title:      "Spring AI reference",
			FileName:   "spring-ai-docs.pdf",
			FileType:   "application/pdf",
			FileSize:   2048000,
			Status:     model.StatusCompleted,
			ChunkCount: &chunks1,
			CreatedAt:  now.Add(-72 * time.Hour),
			UpdatedAt:  now.Add(-72 * time.Hour),
		},
		{
			ID:         "doc-2",
			Title:      "MyBatis best practices",
			FileName:   "mybatis-guide.docx",
			FileType:   "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
			FileSize:   1536000,
			Status:     model.StatusCompleted,
			ChunkCount: &chunks2,
			CreatedAt:  now.Add(-48 * time.Hour),
			UpdatedAt:  now.Add(-48 * time.Hour),
		},
		{
			ID:        "doc-3",
			Title:     "Project architecture",
			FileName:  "architecture.md",
			FileType:  "text/markdown",
			FileSize:  512000,
			Status:    model.StatusProcessing,
			CreatedAt: now.Add(-1 * time.Hour),
			UpdatedAt: now.Add(-30 * time.Minute),
		},
	}
	for _, d := range documents {
		if err := repo.InsertDocument(ctx, d); err != nil {
			return fmt.Errorf("failed to seed document %s: %w", d.ID, err)
		}
	}

	conversations := []model.Conversation{
		{
			ID:           "conv-1",
			Title:        "Spring AI questions",
			Type:         model.TypeRAG,
			LastMessage:  "Spring AI is a framework for integrating AI capabilities with a uniform API.",
			MessageCount: 2,
			CreatedAt:    now.Add(-24 * time.Hour),
			UpdatedAt:    now.Add(-1 * time.Hour),
		},
		{
			ID:           "conv-2",
			Title:        "MyBatis usage guide",
			Type:         model.TypeRAG,
			LastMessage:  "MyBatis maps SQL statements to methods through XML or annotations.",
			MessageCount: 2,
			CreatedAt:    now.Add(-48 * time.Hour),
			UpdatedAt:    now.Add(-2 * time.Hour),
		},
	}
	for _, c := range conversations {
		if err := repo.InsertConversation(ctx, c); err != nil {
			return fmt.Errorf("failed to seed conversation %s: %w", c.ID, err)
		}
	}

	seedMessages := map[string][]model.Message{
		"conv-1": {
			{
				ID:        "msg-1",
				Role:      model.RoleUser,
				Content:   "What is Spring AI?",
				CreatedAt: now.Add(-1*time.Hour - time.Minute),
			},
			{
				ID:      "msg-2",
				Role:    model.RoleAssistant,
				Content: "Spring AI is a framework for integrating AI capabilities with a uniform API.",
				Sources: []model.MessageSource{
					{DocumentID: "doc-1", DocumentTitle: "Spring AI reference", ChunkIndex: 0, Similarity: 0.95},
				},
				CreatedAt: now.Add(-1 * time.Hour),
			},
		},
		"conv-2": {
			{
				ID:        "msg-3",
				Role:      model.RoleUser,
				Content:   "How do I map a query result in MyBatis?",
				CreatedAt: now.Add(-2*time.Hour - time.Minute),
			},
			{
				ID:      "msg-4",
				Role:    model.RoleAssistant,
				Content: "MyBatis maps SQL statements to methods through XML or annotations.",
				Sources: []model.MessageSource{
					{DocumentID: "doc-2", DocumentTitle: "MyBatis best practices", ChunkIndex: 5, Similarity: 0.85},
				},
				CreatedAt: now.Add(-2 * time.Hour),
			},
		},
	}
	for convID, msgs := range seedMessages {
		for _, m := range msgs {
			if err := repo.InsertMessage(ctx, convID, m); err != nil {
				return fmt.Errorf("failed to seed message %s: %w", m.ID, err)
			}
		}
	}

	return nil
}

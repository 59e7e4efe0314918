package mock

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"docchat/internal/model"
)

// repoImpls runs a subtest against each Repository implementation, so the
// memory and SQLite stores stay behaviorally interchangeable.
func repoImpls(t *testing.T, run func(t *testing.T, repo Repository)) {
	t.Helper()

	t.Run("memory", func(t *testing.T) {
		repo := NewMemoryRepository()
		defer repo.Close()
		run(t, repo)
	})

	t.Run("sqlite", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "mock.db")
		repo, err := NewSQLiteRepository(path)
		if err != nil {
			t.Fatalf("Failed to open sqlite repository: %v", err)
		}
		defer repo.Close()
		run(t, repo)
	})
}

func TestRepositoryConversations(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	repoImpls(t, func(t *testing.T, repo Repository) {
		conv := model.Conversation{
			ID:        "conv-a",
			Title:     "First",
			Type:      model.TypeRAG,
			CreatedAt: now.Add(-2 * time.Hour),
			UpdatedAt: now.Add(-2 * time.Hour),
		}
		if err := repo.InsertConversation(ctx, conv); err != nil {
			t.Fatalf("InsertConversation failed: %v", err)
		}

		got, ok, err := repo.GetConversation(ctx, "conv-a")
		if err != nil || !ok {
			t.Fatalf("GetConversation failed: ok=%v err=%v", ok, err)
		}
		if got.Title != "First" || got.Type != model.TypeRAG {
			t.Errorf("Conversation did not round-trip: %+v", got)
		}

		conv.MessageCount = 2
		conv.LastMessage = "an answer"
		conv.UpdatedAt = now
		if err := repo.UpdateConversation(ctx, conv); err != nil {
			t.Fatalf("UpdateConversation failed: %v", err)
		}
		got, _, _ = repo.GetConversation(ctx, "conv-a")
		if got.MessageCount != 2 || got.LastMessage != "an answer" {
			t.Errorf("Update not persisted: %+v", got)
		}

		second := model.Conversation{
			ID:        "conv-b",
			Title:     "Second",
			Type:      model.TypeAgent,
			CreatedAt: now.Add(-1 * time.Hour),
			UpdatedAt: now.Add(-1 * time.Hour),
		}
		if err := repo.InsertConversation(ctx, second); err != nil {
			t.Fatalf("InsertConversation failed: %v", err)
		}

		all, err := repo.ListConversations(ctx, "")
		if err != nil {
			t.Fatalf("ListConversations failed: %v", err)
		}
		if len(all) != 2 || all[0].ID != "conv-a" {
			t.Errorf("Expected conv-a first (most recently updated), got %+v", all)
		}

		agents, err := repo.ListConversations(ctx, model.TypeAgent)
		if err != nil {
			t.Fatalf("ListConversations failed: %v", err)
		}
		if len(agents) != 1 || agents[0].ID != "conv-b" {
			t.Errorf("Type filter failed: %+v", agents)
		}

		deleted, err := repo.DeleteConversation(ctx, "conv-a")
		if err != nil || !deleted {
			t.Fatalf("DeleteConversation failed: deleted=%v err=%v", deleted, err)
		}
		if _, ok, _ := repo.GetConversation(ctx, "conv-a"); ok {
			t.Error("Conversation still present after delete")
		}
		if deleted, _ := repo.DeleteConversation(ctx, "conv-a"); deleted {
			t.Error("Second delete must report not-deleted")
		}
	})
}

func TestRepositoryMessages(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	repoImpls(t, func(t *testing.T, repo Repository) {
		conv := model.Conversation{ID: "conv-m", Title: "t", Type: model.TypeRAG, CreatedAt: now, UpdatedAt: now}
		if err := repo.InsertConversation(ctx, conv); err != nil {
			t.Fatalf("InsertConversation failed: %v", err)
		}

		msgs := []model.Message{
			{ID: "m1", Role: model.RoleUser, Content: "question", CreatedAt: now.Add(-2 * time.Second)},
			{
				ID: "m2", Role: model.RoleAssistant, Content: "answer",
				Sources: []model.MessageSource{
					{DocumentID: "doc-x", DocumentTitle: "X", ChunkIndex: 3, Similarity: 0.91},
				},
				CreatedAt: now.Add(-1 * time.Second),
			},
		}
		for _, m := range msgs {
			if err := repo.InsertMessage(ctx, "conv-m", m); err != nil {
				t.Fatalf("InsertMessage failed: %v", err)
			}
		}

		got, err := repo.ListMessages(ctx, "conv-m")
		if err != nil {
			t.Fatalf("ListMessages failed: %v", err)
		}
		if len(got) != 2 || got[0].ID != "m1" || got[1].ID != "m2" {
			t.Fatalf("Messages out of order: %+v", got)
		}
		if len(got[1].Sources) != 1 || got[1].Sources[0].DocumentID != "doc-x" {
			t.Errorf("Sources did not round-trip: %+v", got[1].Sources)
		}
		if len(got[0].Sources) != 0 {
			t.Errorf("User message must carry no sources: %+v", got[0].Sources)
		}

		// deleting the conversation removes its messages
		if _, err := repo.DeleteConversation(ctx, "conv-m"); err != nil {
			t.Fatalf("DeleteConversation failed: %v", err)
		}
		got, err = repo.ListMessages(ctx, "conv-m")
		if err != nil {
			t.Fatalf("ListMessages failed: %v", err)
		}
		if len(got) != 0 {
			t.Errorf("Expected no messages after conversation delete, got %d", len(got))
		}
	})
}

func TestRepositoryDocuments(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	repoImpls(t, func(t *testing.T, repo Repository) {
		chunks := 12
		docs := []model.Document{
			{
				ID: "d1", Title: "User guide", FileName: "guide.pdf", FileType: "application/pdf",
				FileSize: 1000, Status: model.StatusCompleted, ChunkCount: &chunks,
				CreatedAt: now.Add(-2 * time.Hour), UpdatedAt: now.Add(-2 * time.Hour),
			},
			{
				ID: "d2", Title: "Release notes", FileName: "notes.md", FileType: "text/markdown",
				FileSize: 500, Status: model.StatusProcessing,
				CreatedAt: now.Add(-1 * time.Hour), UpdatedAt: now.Add(-1 * time.Hour),
			},
		}
		for _, d := range docs {
			if err := repo.InsertDocument(ctx, d); err != nil {
				t.Fatalf("InsertDocument failed: %v", err)
			}
		}

		got, ok, err := repo.GetDocument(ctx, "d1")
		if err != nil || !ok {
			t.Fatalf("GetDocument failed: ok=%v err=%v", ok, err)
		}
		if got.ChunkCount == nil || *got.ChunkCount != 12 {
			t.Errorf("ChunkCount did not round-trip: %+v", got.ChunkCount)
		}

		got, _, _ = repo.GetDocument(ctx, "d2")
		if got.ChunkCount != nil {
			t.Errorf("Processing document must have nil ChunkCount, got %d", *got.ChunkCount)
		}

		all, err := repo.ListDocuments(ctx, "", "")
		if err != nil {
			t.Fatalf("ListDocuments failed: %v", err)
		}
		if len(all) != 2 || all[0].ID != "d2" {
			t.Errorf("Expected newest first, got %+v", all)
		}

		completed, _ := repo.ListDocuments(ctx, model.StatusCompleted, "")
		if len(completed) != 1 || completed[0].ID != "d1" {
			t.Errorf("Status filter failed: %+v", completed)
		}

		byTitle, _ := repo.ListDocuments(ctx, "", "user GUIDE")
		if len(byTitle) != 1 || byTitle[0].ID != "d1" {
			t.Errorf("Case-insensitive title search failed: %+v", byTitle)
		}

		byFile, _ := repo.ListDocuments(ctx, "", "notes.md")
		if len(byFile) != 1 || byFile[0].ID != "d2" {
			t.Errorf("File name search failed: %+v", byFile)
		}

		finished := 7
		upd := docs[1]
		upd.Status = model.StatusCompleted
		upd.ChunkCount = &finished
		upd.UpdatedAt = now
		if err := repo.UpdateDocument(ctx, upd); err != nil {
			t.Fatalf("UpdateDocument failed: %v", err)
		}
		got, _, _ = repo.GetDocument(ctx, "d2")
		if got.Status != model.StatusCompleted || got.ChunkCount == nil || *got.ChunkCount != 7 {
			t.Errorf("Document update not persisted: %+v", got)
		}

		deleted, err := repo.DeleteDocument(ctx, "d1")
		if err != nil || !deleted {
			t.Fatalf("DeleteDocument failed: deleted=%v err=%v", deleted, err)
		}
		if deleted, _ := repo.DeleteDocument(ctx, "d1"); deleted {
			t.Error("Second delete must report not-deleted")
		}
	})
}

func TestRepositorySubSecondOrdering(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	repoImpls(t, func(t *testing.T, repo Repository) {
		conv := model.Conversation{ID: "conv-s", Title: "t", Type: model.TypeRAG, CreatedAt: base, UpdatedAt: base}
		if err := repo.InsertConversation(ctx, conv); err != nil {
			t.Fatalf("InsertConversation failed: %v", err)
		}

		// the earlier timestamp's fraction is a prefix of the later one's,
		// which trips any encoding that trims trailing sub-second zeros
		msgs := []model.Message{
			{ID: "m-user", Role: model.RoleUser, Content: "q", CreatedAt: base.Add(100 * time.Millisecond)},
			{ID: "m-asst", Role: model.RoleAssistant, Content: "a", CreatedAt: base.Add(123456789 * time.Nanosecond)},
		}
		for _, m := range msgs {
			if err := repo.InsertMessage(ctx, "conv-s", m); err != nil {
				t.Fatalf("InsertMessage failed: %v", err)
			}
		}

		got, err := repo.ListMessages(ctx, "conv-s")
		if err != nil {
			t.Fatalf("ListMessages failed: %v", err)
		}
		if len(got) != 2 || got[0].ID != "m-user" || got[1].ID != "m-asst" {
			t.Fatalf("Messages misordered across sub-second timestamps: %+v", got)
		}
		if !got[0].CreatedAt.Equal(msgs[0].CreatedAt) {
			t.Errorf("Timestamp did not round-trip: got %v, want %v", got[0].CreatedAt, msgs[0].CreatedAt)
		}

		// the same property holds for conversation recency ordering
		other := model.Conversation{
			ID: "conv-t", Title: "t", Type: model.TypeRAG,
			CreatedAt: base, UpdatedAt: base.Add(100 * time.Millisecond),
		}
		if err := repo.InsertConversation(ctx, other); err != nil {
			t.Fatalf("InsertConversation failed: %v", err)
		}
		conv.UpdatedAt = base.Add(123456789 * time.Nanosecond)
		if err := repo.UpdateConversation(ctx, conv); err != nil {
			t.Fatalf("UpdateConversation failed: %v", err)
		}

		convs, err := repo.ListConversations(ctx, "")
		if err != nil {
			t.Fatalf("ListConversations failed: %v", err)
		}
		if len(convs) != 2 || convs[0].ID != "conv-s" {
			t.Errorf("Expected conv-s first (updated at .123456789 > .100), got %+v", convs)
		}
	})
}

func TestSQLitePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "mock.db")

	repo, err := NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("Failed to open sqlite repository: %v", err)
	}
	now := time.Now()
	conv := model.Conversation{ID: "conv-p", Title: "persisted", Type: model.TypeRAG, CreatedAt: now, UpdatedAt: now}
	if err := repo.InsertConversation(ctx, conv); err != nil {
		t.Fatalf("InsertConversation failed: %v", err)
	}
	if err := repo.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("Failed to reopen sqlite repository: %v", err)
	}
	defer reopened.Close()

	got, ok, err := reopened.GetConversation(ctx, "conv-p")
	if err != nil || !ok {
		t.Fatalf("Conversation lost across reopen: ok=%v err=%v", ok, err)
	}
	if got.Title != "persisted" {
		t.Errorf("Expected title 'persisted', got %q", got.Title)
	}
}

package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"
)

func TestPaginate(t *testing.T) {
	items := make([]int, 45)
	for i := range items {
		items[i] = i
	}

	t.Run("page count is ceil(N/S) and concatenation is lossless", func(t *testing.T) {
		size := 20
		var collected []int
		pages := 0
		for page := 1; ; page++ {
			result := Paginate(items, page, size)
			if result.Total != 45 {
				t.Errorf("Expected total 45, got %d", result.Total)
			}
			if len(result.Items) > size {
				t.Errorf("Page %d exceeds requested size: %d > %d", page, len(result.Items), size)
			}
			if len(result.Items) == 0 {
				break
			}
			pages++
			collected = append(collected, result.Items...)
		}

		if pages != 3 { // ceil(45/20)
			t.Errorf("Expected 3 pages, got %d", pages)
		}
		if len(collected) != len(items) {
			t.Fatalf("Expected %d items across pages, got %d", len(items), len(collected))
		}
		seen := make(map[int]bool)
		for i, v := range collected {
			if v != items[i] {
				t.Errorf("Item %d out of order: expected %d, got %d", i, items[i], v)
			}
			if seen[v] {
				t.Errorf("Duplicate item %d", v)
			}
			seen[v] = true
		}
	})

	t.Run("last page may be short", func(t *testing.T) {
		result := Paginate(items, 3, 20)
		if len(result.Items) != 5 {
			t.Errorf("Expected 5 items on last page, got %d", len(result.Items))
		}
	})

	t.Run("page beyond the end is empty, not an error", func(t *testing.T) {
		result := Paginate(items, 99, 20)
		if len(result.Items) != 0 {
			t.Errorf("Expected empty page, got %d items", len(result.Items))
		}
		if result.Total != 45 {
			t.Errorf("Total should still reflect the filtered set, got %d", result.Total)
		}
	})

	t.Run("defaults apply to zero page and size", func(t *testing.T) {
		result := Paginate(items, 0, 0)
		if result.Page != 1 || result.Size != DefaultPageSize {
			t.Errorf("Expected page 1 size %d, got page %d size %d", DefaultPageSize, result.Page, result.Size)
		}
		if len(result.Items) != DefaultPageSize {
			t.Errorf("Expected %d items, got %d", DefaultPageSize, len(result.Items))
		}
	})
}

func TestTitleFromFileName(t *testing.T) {
	tests := []struct {
		fileName string
		want     string
	}{
		{"architecture.md", "architecture"},
		{"spring-ai-docs.pdf", "spring-ai-docs"},
		{"notes", "notes"},
		{"report.final.docx", "report.final"},
		{"dir/nested/guide.txt", "guide"},
	}

	for _, tt := range tests {
		if got := TitleFromFileName(tt.fileName); got != tt.want {
			t.Errorf("TitleFromFileName(%q) = %q, want %q", tt.fileName, got, tt.want)
		}
	}
}

func TestAllowedFileType(t *testing.T) {
	allowed := []string{"a.pdf", "b.doc", "c.docx", "d.txt", "e.md", "F.PDF"}
	for _, name := range allowed {
		if !AllowedFileType(name) {
			t.Errorf("Expected %q to be allowed", name)
		}
	}

	rejected := []string{"a.exe", "b.png", "c", "d.tar.gz"}
	for _, name := range rejected {
		if AllowedFileType(name) {
			t.Errorf("Expected %q to be rejected", name)
		}
	}
}

func TestDetectFileType(t *testing.T) {
	if got := DetectFileType("notes.md"); got != "text/markdown" {
		t.Errorf("Expected text/markdown, got %q", got)
	}
	if got := DetectFileType("mystery.bin.unknownext"); got != "application/octet-stream" {
		t.Errorf("Expected fallback type, got %q", got)
	}
}

func TestChatRequestRAGDefault(t *testing.T) {
	var req ChatRequest
	if !req.RAGEnabled() {
		t.Error("UseRAG should default to true when omitted")
	}

	off := false
	req.UseRAG = &off
	if req.RAGEnabled() {
		t.Error("Explicit UseRAG=false should disable RAG")
	}
}

func TestResponseEnvelopeJSON(t *testing.T) {
	t.Run("success carries data, no error", func(t *testing.T) {
		resp := OK(Conversation{ID: "conv-1", Type: TypeRAG})
		data, err := json.Marshal(resp)
		if err != nil {
			t.Fatalf("Failed to marshal envelope: %v", err)
		}

		body := string(data)
		if !strings.Contains(body, `"success":true`) {
			t.Errorf("Expected success=true in %s", body)
		}
		if strings.Contains(body, `"error"`) {
			t.Errorf("Error must be omitted on success: %s", body)
		}
		if !strings.Contains(body, `"timestamp"`) {
			t.Errorf("Timestamp must always be present: %s", body)
		}
	})

	t.Run("failure carries a code, no data", func(t *testing.T) {
		resp := Fail[Conversation](CodeNotFound, "conversation not found")
		data, err := json.Marshal(resp)
		if err != nil {
			t.Fatalf("Failed to marshal envelope: %v", err)
		}

		body := string(data)
		if strings.Contains(body, `"data"`) {
			t.Errorf("Data must be omitted on failure: %s", body)
		}
		if !strings.Contains(body, fmt.Sprintf(`"code":%q`, CodeNotFound)) {
			t.Errorf("Expected NOT_FOUND code in %s", body)
		}
	})

	t.Run("round-trips through JSON", func(t *testing.T) {
		orig := OKMessage(Document{ID: "doc-1", Status: StatusProcessing}, "accepted")
		data, _ := json.Marshal(orig)

		var decoded Response[Document]
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("Failed to unmarshal envelope: %v", err)
		}
		if !decoded.Success || decoded.Data == nil || decoded.Data.ID != "doc-1" {
			t.Errorf("Envelope did not round-trip: %+v", decoded)
		}
		if decoded.Message != "accepted" {
			t.Errorf("Expected message 'accepted', got %q", decoded.Message)
		}
	})
}

func TestDocumentStatusTerminal(t *testing.T) {
	if StatusProcessing.Terminal() {
		t.Error("processing must not be terminal")
	}
	if !StatusCompleted.Terminal() || !StatusFailed.Terminal() {
		t.Error("completed and failed must be terminal")
	}
}

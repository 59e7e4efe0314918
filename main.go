package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"docchat/internal/backend"
	"docchat/internal/chat"
	"docchat/internal/config"
	"docchat/internal/logging"
	"docchat/internal/model"
	"docchat/internal/watcher"

	"github.com/joho/godotenv"
)

const version = "1.0.0"

func main() {
	// .env is optional; settings live in docchat.json and DOCCHAT_* vars
	godotenv.Load()

	cfg, err := config.Load("docchat.json")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	level := logging.ParseLevel(cfg.Logging.Level)
	logger := logging.NewLogger("main", level, nil)
	logger.Info("Starting docchat v%s (backend: %s)", version, cfg.Backend.Mode)

	be, err := backend.New(cfg, logging.NewLogger("backend", level, nil))
	if err != nil {
		logger.Error("Failed to initialize backend: %v", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if len(cfg.Watch.Folders) > 0 {
		w, err := watcher.NewWatcher(be, cfg.Watch.MaxFileSizeMB, logging.NewLogger("watcher", level, nil))
		if err != nil {
			logger.Error("Failed to initialize watcher: %v", err)
			os.Exit(1)
		}
		for _, folder := range cfg.Watch.Folders {
			if err := w.AddFolder(folder); err != nil {
				logger.Warn("Skipping watched folder %s: %v", folder, err)
			} else {
				logger.Info("Watching folder: %s", folder)
			}
		}
		go w.Start(ctx)
	}

	repl(ctx, be, logger)
	logger.Info("docchat stopped")
}

// repl reads lines from stdin: plain text is sent as a chat message,
// /commands drive the conversation and document operations.
func repl(ctx context.Context, be backend.Backend, logger *logging.Logger) {
	session := chat.NewSession("")
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	fmt.Println("docchat: type a message, or /help for commands")
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if !strings.HasPrefix(line, "/") {
			sendMessage(ctx, be, session, line, logger)
			continue
		}

		fields := strings.Fields(line)
		switch fields[0] {
		case "/help":
			printHelp()
		case "/new":
			session = chat.NewSession("")
			fmt.Println("started a new conversation")
		case "/list":
			listConversations(ctx, be, logger)
		case "/open":
			if len(fields) < 2 {
				fmt.Println("usage: /open <conversation-id>")
				continue
			}
			session = openConversation(ctx, be, fields[1], session, logger)
		case "/rm":
			if len(fields) < 2 {
				fmt.Println("usage: /rm <conversation-id>")
				continue
			}
			deleteConversation(ctx, be, fields[1], logger)
		case "/docs":
			search := strings.TrimSpace(strings.TrimPrefix(line, "/docs"))
			listDocuments(ctx, be, search, logger)
		case "/upload":
			if len(fields) < 2 {
				fmt.Println("usage: /upload <path> [title]")
				continue
			}
			title := strings.Join(fields[2:], " ")
			uploadDocument(ctx, be, fields[1], title, logger)
		case "/status":
			if len(fields) < 2 {
				fmt.Println("usage: /status <document-id>")
				continue
			}
			showStatus(ctx, be, fields[1], logger)
		case "/rmdoc":
			if len(fields) < 2 {
				fmt.Println("usage: /rmdoc <document-id>")
				continue
			}
			deleteDocument(ctx, be, fields[1], logger)
		case "/quit", "/exit":
			return
		default:
			fmt.Printf("unknown command: %s (try /help)\n", fields[0])
		}
	}
}

func printHelp() {
	fmt.Println(`commands:
  <text>                  send a chat message in the current conversation
  /new                    start a new conversation
  /list                   list conversations
  /open <id>              switch to a conversation
  /rm <id>                delete a conversation
  /docs [search]          list documents, optionally filtered
  /upload <path> [title]  upload a document and watch its ingestion
  /status <id>            show a document's ingestion status
  /rmdoc <id>             delete a document
  /quit                   exit`)
}

func sendMessage(ctx context.Context, be backend.Backend, session *chat.Session, text string, logger *logging.Logger) {
	echo := session.Echo(text)

	resp, err := be.SendMessage(ctx, model.ChatRequest{
		Message:        text,
		ConversationID: session.ConversationID(),
	})
	if err != nil {
		session.Discard(echo.ID)
		logger.Error("Send failed: %v", err)
		return
	}
	if !resp.Success {
		session.Discard(echo.ID)
		fmt.Printf("error: %s (%s)\n", resp.Error.Message, resp.Error.Code)
		return
	}

	_, assistant, err := session.Confirm(echo.ID, *resp.Data)
	if err != nil {
		logger.Error("Failed to reconcile response: %v", err)
		return
	}

	fmt.Printf("assistant: %s\n", assistant.Content)
	for _, src := range assistant.Sources {
		fmt.Printf("  [source] %s (chunk %d, similarity %.2f)\n", src.DocumentTitle, src.ChunkIndex, src.Similarity)
	}
}

func listConversations(ctx context.Context, be backend.Backend, logger *logging.Logger) {
	resp, err := be.ListConversations(ctx, model.ConversationQuery{Size: 50})
	if err != nil {
		logger.Error("List failed: %v", err)
		return
	}
	if !resp.Success {
		fmt.Printf("error: %s (%s)\n", resp.Error.Message, resp.Error.Code)
		return
	}

	page := resp.Data
	fmt.Printf("%d conversation(s):\n", page.Total)
	for _, c := range page.Items {
		fmt.Printf("  %s  [%s] %s (%d messages)\n", c.ID, c.Type, c.Title, c.MessageCount)
	}
}

func openConversation(ctx context.Context, be backend.Backend, id string, current *chat.Session, logger *logging.Logger) *chat.Session {
	resp, err := be.GetConversation(ctx, id)
	if err != nil {
		logger.Error("Get failed: %v", err)
		return current
	}
	if !resp.Success {
		fmt.Printf("error: %s (%s)\n", resp.Error.Message, resp.Error.Code)
		return current
	}

	detail := resp.Data
	session := chat.NewSession(detail.ID)
	session.Replace(detail.ID, detail.Messages)
	fmt.Printf("opened %q (%d messages)\n", detail.Title, len(detail.Messages))
	for _, m := range detail.Messages {
		fmt.Printf("%s: %s\n", m.Role, m.Content)
	}
	return session
}

func deleteConversation(ctx context.Context, be backend.Backend, id string, logger *logging.Logger) {
	resp, err := be.DeleteConversation(ctx, id)
	if err != nil {
		logger.Error("Delete failed: %v", err)
		return
	}
	if !resp.Success {
		fmt.Printf("error: %s (%s)\n", resp.Error.Message, resp.Error.Code)
		return
	}
	fmt.Println(resp.Message)
}

func listDocuments(ctx context.Context, be backend.Backend, search string, logger *logging.Logger) {
	resp, err := be.ListDocuments(ctx, model.DocumentQuery{Size: 50, Search: search})
	if err != nil {
		logger.Error("List failed: %v", err)
		return
	}
	if !resp.Success {
		fmt.Printf("error: %s (%s)\n", resp.Error.Message, resp.Error.Code)
		return
	}

	page := resp.Data
	fmt.Printf("%d document(s):\n", page.Total)
	for _, d := range page.Items {
		line := fmt.Sprintf("  %s  %s (%s, %d bytes, %s)", d.ID, d.Title, d.FileName, d.FileSize, d.Status)
		if d.ChunkCount != nil {
			line += fmt.Sprintf(", %d chunks", *d.ChunkCount)
		}
		fmt.Println(line)
	}
}

func uploadDocument(ctx context.Context, be backend.Backend, path, title string, logger *logging.Logger) {
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Error("Failed to read file: %v", err)
		return
	}

	fileName := filepath.Base(path)
	resp, err := be.UploadDocument(ctx, model.DocumentUpload{
		FileName: fileName,
		FileType: model.DetectFileType(fileName),
		Title:    title,
		Data:     data,
	})
	if err != nil {
		logger.Error("Upload failed: %v", err)
		return
	}
	if !resp.Success {
		fmt.Printf("error: %s (%s)\n", resp.Error.Message, resp.Error.Code)
		return
	}

	doc := resp.Data
	fmt.Printf("uploaded %s as %q (%s)\n", doc.ID, doc.Title, doc.Status)
	pollStatus(ctx, be, doc.ID, logger)
}

// pollStatus polls the status operation until the document reaches a
// terminal state. Cadence and cutoff are this caller's choice, not the
// API's.
func pollStatus(ctx context.Context, be backend.Backend, id string, logger *logging.Logger) {
	deadline := time.Now().Add(30 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := be.GetDocumentStatus(ctx, id)
		if err != nil {
			logger.Error("Status query failed: %v", err)
			return
		}
		if !resp.Success {
			fmt.Printf("error: %s (%s)\n", resp.Error.Message, resp.Error.Code)
			return
		}

		st := resp.Data
		fmt.Printf("  %s: %d%% (%s)\n", st.Status, st.Progress, st.Message)
		if st.Status.Terminal() {
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(500 * time.Millisecond):
		}
	}
	fmt.Println("  still processing; check later with /status")
}

func showStatus(ctx context.Context, be backend.Backend, id string, logger *logging.Logger) {
	resp, err := be.GetDocumentStatus(ctx, id)
	if err != nil {
		logger.Error("Status query failed: %v", err)
		return
	}
	if !resp.Success {
		fmt.Printf("error: %s (%s)\n", resp.Error.Message, resp.Error.Code)
		return
	}
	st := resp.Data
	fmt.Printf("%s: %d%% (%s)\n", st.Status, st.Progress, st.Message)
}

func deleteDocument(ctx context.Context, be backend.Backend, id string, logger *logging.Logger) {
	resp, err := be.DeleteDocument(ctx, id)
	if err != nil {
		logger.Error("Delete failed: %v", err)
		return
	}
	if !resp.Success {
		fmt.Printf("error: %s (%s)\n", resp.Error.Message, resp.Error.Code)
		return
	}
	fmt.Println(resp.Message)
}

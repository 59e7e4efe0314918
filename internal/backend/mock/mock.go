// Package mock is the simulated backend: it reproduces the live API's
// contracts against an injected local repository, with bounded artificial
// latency and a timed ingestion transition, so the rest of the application
// can be developed and tested without a live retrieval index.
package mock

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"docchat/internal/logging"
	"docchat/internal/model"

	"github.com/google/uuid"
)

// Options tunes the simulated backend.
type Options struct {
	MinLatency  time.Duration // lower bound of artificial per-call latency
	MaxLatency  time.Duration // upper bound; zero disables latency entirely
	IngestDelay time.Duration // processing -> terminal state delay for uploads
	ModelName   string        // reported in chat metadata
	Seed        int64         // rand seed; zero means time-based
}

// Backend simulates the live chat/document API in process memory.
type Backend struct {
	repo   Repository
	opts   Options
	logger *logging.Logger

	rngMu sync.Mutex
	rng   *rand.Rand

	trackMu sync.Mutex
	ingests map[string]ingestTrack

	failNext atomic.Bool
}

// ingestTrack remembers when an upload started so status queries can report
// monotonically non-decreasing progress.
type ingestTrack struct {
	start    time.Time
	deadline time.Time
}

var cannedReplies = []string{
	"That is a good question. Based on the retrieved context, here is a detailed answer.",
	"According to the indexed documents, the relevant points are:\n\n1. First, ...\n2. Second, ...\n3. Finally, ...",
	"The documents cover this from several angles. Let me walk through them one by one.",
	"Here is a summary drawn from the most relevant passages in your library.",
}

// NewBackend creates a simulated backend over the given repository.
func NewBackend(repo Repository, opts Options, logger *logging.Logger) *Backend {
	if opts.ModelName == "" {
		opts.ModelName = "deepseek-coder"
	}
	if opts.IngestDelay <= 0 {
		opts.IngestDelay = 3 * time.Second
	}
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if logger == nil {
		logger = logging.NewLogger("mock", logging.INFO, nil)
	}
	return &Backend{
		repo:    repo,
		opts:    opts,
		logger:  logger,
		rng:     rand.New(rand.NewSource(seed)),
		ingests: make(map[string]ingestTrack),
	}
}

// FailNextIngest makes the next uploaded document reach the failed terminal
// state instead of completed. Used to exercise the failure branch of the
// lifecycle.
func (b *Backend) FailNextIngest() {
	b.failNext.Store(true)
}

// SendMessage simulates a chat exchange: it stores the user message, picks
// a canned assistant reply, attaches retrieval sources when RAG is enabled
// and completed documents exist, and updates the conversation metadata.
func (b *Backend) SendMessage(ctx context.Context, req model.ChatRequest) (*model.Response[model.ChatResponse], error) {
	start := time.Now()
	if err := b.sleep(ctx); err != nil {
		return nil, err
	}

	now := time.Now()
	var conv model.Conversation
	if req.ConversationID != "" {
		c, ok, err := b.repo.GetConversation(ctx, req.ConversationID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return model.Fail[model.ChatResponse](model.CodeNotFound, "conversation not found"), nil
		}
		conv = c
	} else {
		convType := model.TypeRAG
		if req.UseAgent {
			convType = model.TypeAgent
		}
		conv = model.Conversation{
			ID:        newID("conv"),
			Title:     titleFromMessage(req.Message),
			Type:      convType,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := b.repo.InsertConversation(ctx, conv); err != nil {
			return nil, err
		}
	}

	var sources []model.MessageSource
	if req.RAGEnabled() && !req.UseAgent {
		var err error
		sources, err = b.retrieveSources(ctx)
		if err != nil {
			return nil, err
		}
	}

	userMsg := model.Message{
		ID:        newID("msg"),
		Role:      model.RoleUser,
		Content:   req.Message,
		CreatedAt: now,
	}
	if err := b.repo.InsertMessage(ctx, conv.ID, userMsg); err != nil {
		return nil, err
	}

	reply := b.pickReply()
	asstMsg := model.Message{
		ID:        newID("msg"),
		Role:      model.RoleAssistant,
		Content:   reply,
		Sources:   sources,
		CreatedAt: time.Now(),
	}
	if err := b.repo.InsertMessage(ctx, conv.ID, asstMsg); err != nil {
		return nil, err
	}

	// messageCount counts stored messages, so an exchange advances it by 2
	conv.MessageCount += 2
	conv.LastMessage = reply
	conv.UpdatedAt = asstMsg.CreatedAt
	if err := b.repo.UpdateConversation(ctx, conv); err != nil {
		return nil, err
	}

	b.logger.With("conversation_id", conv.ID).Debug("chat exchange stored")

	return model.OK(model.ChatResponse{
		Message:        reply,
		ConversationID: conv.ID,
		MessageID:      asstMsg.ID,
		Sources:        sources,
		Metadata: &model.ChatMetadata{
			Model:        b.opts.ModelName,
			Tokens:       150 + b.intn(100),
			ResponseTime: time.Since(start).Seconds(),
		},
	}), nil
}

// ListConversations pages the conversation list; the type filter applies
// before slicing.
func (b *Backend) ListConversations(ctx context.Context, q model.ConversationQuery) (*model.Response[model.PageResult[model.Conversation]], error) {
	if err := b.sleep(ctx); err != nil {
		return nil, err
	}
	items, err := b.repo.ListConversations(ctx, q.Type)
	if err != nil {
		return nil, err
	}
	return model.OK(model.Paginate(items, q.Page, q.Size)), nil
}

func (b *Backend) GetConversation(ctx context.Context, id string) (*model.Response[model.ConversationDetail], error) {
	if err := b.sleep(ctx); err != nil {
		return nil, err
	}
	conv, ok, err := b.repo.GetConversation(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return model.Fail[model.ConversationDetail](model.CodeNotFound, "conversation not found"), nil
	}
	messages, err := b.repo.ListMessages(ctx, id)
	if err != nil {
		return nil, err
	}
	return model.OK(model.ConversationDetail{
		Conversation: conv,
		Messages:     messages,
	}), nil
}

func (b *Backend) DeleteConversation(ctx context.Context, id string) (*model.Response[model.Empty], error) {
	if err := b.sleep(ctx); err != nil {
		return nil, err
	}
	deleted, err := b.repo.DeleteConversation(ctx, id)
	if err != nil {
		return nil, err
	}
	if !deleted {
		return model.Fail[model.Empty](model.CodeNotFound, "conversation not found"), nil
	}
	return model.Done("conversation deleted"), nil
}

// UploadDocument accepts a payload, stores the document in processing state
// and schedules its asynchronous transition to a terminal state. The upload
// itself only reports acceptance, never the ingestion outcome.
func (b *Backend) UploadDocument(ctx context.Context, up model.DocumentUpload) (*model.Response[model.Document], error) {
	if err := b.sleep(ctx); err != nil {
		return nil, err
	}
	if len(up.Data) == 0 {
		return model.Fail[model.Document](model.CodeFileEmpty, "file must not be empty"), nil
	}

	title := up.Title
	if title == "" {
		title = model.TitleFromFileName(up.FileName)
	}
	fileType := up.FileType
	if fileType == "" {
		fileType = model.DetectFileType(up.FileName)
	}

	now := time.Now()
	doc := model.Document{
		ID:        newID("doc"),
		Title:     title,
		FileName:  up.FileName,
		FileType:  fileType,
		FileSize:  int64(len(up.Data)),
		Status:    model.StatusProcessing,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := b.repo.InsertDocument(ctx, doc); err != nil {
		return nil, err
	}

	fail := b.failNext.Swap(false)

	b.trackMu.Lock()
	b.ingests[doc.ID] = ingestTrack{start: now, deadline: now.Add(b.opts.IngestDelay)}
	b.trackMu.Unlock()

	time.AfterFunc(b.opts.IngestDelay, func() {
		b.finishIngest(doc.ID, fail)
	})

	b.logger.With("document_id", doc.ID).Debug("document accepted for processing")
	return model.OKMessage(doc, "document accepted, processing started"), nil
}

func (b *Backend) ListDocuments(ctx context.Context, q model.DocumentQuery) (*model.Response[model.PageResult[model.Document]], error) {
	if err := b.sleep(ctx); err != nil {
		return nil, err
	}
	items, err := b.repo.ListDocuments(ctx, q.Status, q.Search)
	if err != nil {
		return nil, err
	}
	return model.OK(model.Paginate(items, q.Page, q.Size)), nil
}

func (b *Backend) GetDocument(ctx context.Context, id string) (*model.Response[model.Document], error) {
	if err := b.sleep(ctx); err != nil {
		return nil, err
	}
	doc, ok, err := b.repo.GetDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return model.Fail[model.Document](model.CodeNotFound, "document not found"), nil
	}
	return model.OK(doc), nil
}

func (b *Backend) DeleteDocument(ctx context.Context, id string) (*model.Response[model.Empty], error) {
	if err := b.sleep(ctx); err != nil {
		return nil, err
	}
	deleted, err := b.repo.DeleteDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	if !deleted {
		return model.Fail[model.Empty](model.CodeNotFound, "document not found"), nil
	}
	return model.Done("document deleted"), nil
}

// GetDocumentStatus reports ingestion progress. While processing, progress
// follows elapsed time against the configured ingest delay, capped at 99;
// completed is exactly 100, failed is 0.
func (b *Backend) GetDocumentStatus(ctx context.Context, id string) (*model.Response[model.IngestStatus], error) {
	if err := b.sleep(ctx); err != nil {
		return nil, err
	}
	doc, ok, err := b.repo.GetDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return model.Fail[model.IngestStatus](model.CodeNotFound, "document not found"), nil
	}

	var status model.IngestStatus
	switch doc.Status {
	case model.StatusCompleted:
		status = model.IngestStatus{Status: model.StatusCompleted, Progress: 100, Message: "processing complete"}
	case model.StatusFailed:
		status = model.IngestStatus{Status: model.StatusFailed, Progress: 0, Message: "processing failed"}
	default:
		status = model.IngestStatus{Status: model.StatusProcessing, Progress: b.progressFor(doc.ID), Message: "processing"}
	}
	return model.OK(status), nil
}

// finishIngest moves a processing document to its terminal state. Documents
// deleted or already terminal are left alone. The ingest track is dropped
// only after the terminal state is visible in the repository, so a racing
// status query never sees a processing document without a track.
func (b *Backend) finishIngest(id string, fail bool) {
	ctx := context.Background()

	doc, ok, err := b.repo.GetDocument(ctx, id)
	if err != nil || !ok || doc.Status != model.StatusProcessing {
		b.dropTrack(id)
		return
	}

	if fail {
		doc.Status = model.StatusFailed
	} else {
		doc.Status = model.StatusCompleted
		chunks := 10 + b.intn(50)
		doc.ChunkCount = &chunks
	}
	doc.UpdatedAt = time.Now()

	if err := b.repo.UpdateDocument(ctx, doc); err != nil {
		b.logger.With("document_id", id).Error("failed to finish ingestion: %v", err)
		return
	}
	b.dropTrack(id)
	b.logger.With("document_id", id).Debug("ingestion finished with status %s", doc.Status)
}

func (b *Backend) dropTrack(id string) {
	b.trackMu.Lock()
	delete(b.ingests, id)
	b.trackMu.Unlock()
}

// progressFor maps elapsed processing time to a percentage. Uploads without
// a track (seeded fixtures) report a fixed mid-flight value.
func (b *Backend) progressFor(id string) int {
	b.trackMu.Lock()
	track, ok := b.ingests[id]
	b.trackMu.Unlock()
	if !ok {
		return 75
	}

	total := track.deadline.Sub(track.start)
	if total <= 0 {
		return 99
	}
	pct := int(100 * time.Since(track.start) / total)
	if pct < 0 {
		pct = 0
	}
	if pct > 99 {
		pct = 99
	}
	return pct
}

// retrieveSources fabricates plausible citations from completed documents,
// in descending similarity. No completed documents means no sources.
func (b *Backend) retrieveSources(ctx context.Context) ([]model.MessageSource, error) {
	docs, err := b.repo.ListDocuments(ctx, model.StatusCompleted, "")
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, nil
	}
	if len(docs) > 3 {
		docs = docs[:3]
	}

	sources := make([]model.MessageSource, 0, len(docs))
	for i, d := range docs {
		chunkIndex := 0
		if d.ChunkCount != nil && *d.ChunkCount > 0 {
			chunkIndex = b.intn(*d.ChunkCount)
		}
		similarity := 0.95 - 0.07*float64(i) - b.float64()*0.04
		sources = append(sources, model.MessageSource{
			DocumentID:    d.ID,
			DocumentTitle: d.Title,
			ChunkIndex:    chunkIndex,
			Similarity:    similarity,
		})
	}
	return sources, nil
}

func (b *Backend) pickReply() string {
	return cannedReplies[b.intn(len(cannedReplies))]
}

// sleep waits a bounded random duration to model network latency. A zero
// MaxLatency disables the wait, which tests rely on.
func (b *Backend) sleep(ctx context.Context) error {
	if b.opts.MaxLatency <= 0 {
		return ctx.Err()
	}
	d := b.opts.MinLatency
	if span := b.opts.MaxLatency - b.opts.MinLatency; span > 0 {
		b.rngMu.Lock()
		d += time.Duration(b.rng.Int63n(int64(span)))
		b.rngMu.Unlock()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (b *Backend) intn(n int) int {
	b.rngMu.Lock()
	defer b.rngMu.Unlock()
	return b.rng.Intn(n)
}

func (b *Backend) float64() float64 {
	b.rngMu.Lock()
	defer b.rngMu.Unlock()
	return b.rng.Float64()
}

func newID(prefix string) string {
	return fmt.Sprintf("%s-%s", prefix, uuid.NewString())
}

// titleFromMessage derives a new conversation's title from its first
// message.
func titleFromMessage(message string) string {
	title := strings.TrimSpace(message)
	runes := []rune(title)
	if len(runes) > 40 {
		title = string(runes[:40]) + "..."
	}
	if title == "" {
		title = "New conversation"
	}
	return title
}

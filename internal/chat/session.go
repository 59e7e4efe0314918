// Package chat tracks a conversation's local message state across the send
// round-trip. The user message is echoed immediately under a provisional
// client-minted id; once the backend confirms, the provisional entry is
// replaced, never merged, so a failed request can be discarded cleanly.
package chat

import (
	"fmt"
	"sync"
	"time"

	"docchat/internal/model"

	"github.com/google/uuid"
)

// provisionalPrefix keeps client-minted ids out of the server id space.
const provisionalPrefix = "local-"

// Session is the local view of one conversation.
type Session struct {
	mu             sync.Mutex
	conversationID string
	messages       []model.Message
	pending        []model.Message
}

// NewSession creates a session. An empty conversationID means the backend
// will mint one on the first send.
func NewSession(conversationID string) *Session {
	return &Session{conversationID: conversationID}
}

// ConversationID returns the current conversation id, empty until the first
// exchange is confirmed.
func (s *Session) ConversationID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conversationID
}

// Echo records the user's message locally before the backend confirms it,
// under a provisional id that can never collide with a server id.
func (s *Session) Echo(content string) model.Message {
	msg := model.Message{
		ID:        provisionalPrefix + uuid.NewString(),
		Role:      model.RoleUser,
		Content:   content,
		CreatedAt: time.Now(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(s.pending, msg)
	return msg
}

// Confirm replaces a provisional echo with the authoritative exchange: a
// durable user message (client-synthesized id, since the backend never
// echoes one) and the assistant message from the response. The confirmed
// pair is returned in order.
func (s *Session) Confirm(provisionalID string, resp model.ChatResponse) (model.Message, model.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	echo, ok := s.takePending(provisionalID)
	if !ok {
		return model.Message{}, model.Message{}, fmt.Errorf("unknown provisional message id: %s", provisionalID)
	}

	user := model.Message{
		ID:        "msg-" + uuid.NewString(),
		Role:      model.RoleUser,
		Content:   echo.Content,
		CreatedAt: echo.CreatedAt,
	}
	assistant := model.Message{
		ID:        resp.MessageID,
		Role:      model.RoleAssistant,
		Content:   resp.Message,
		Sources:   resp.Sources,
		CreatedAt: time.Now(),
	}

	s.messages = append(s.messages, user, assistant)
	s.conversationID = resp.ConversationID
	return user, assistant, nil
}

// Discard drops a provisional echo after a failed send, so no orphaned
// entry survives.
func (s *Session) Discard(provisionalID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.takePending(provisionalID)
	return ok
}

// Messages returns the confirmed history followed by any still-pending
// echoes, in order.
func (s *Session) Messages() []model.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.Message, 0, len(s.messages)+len(s.pending))
	out = append(out, s.messages...)
	out = append(out, s.pending...)
	return out
}

// Replace swaps the confirmed history for an authoritative server copy,
// e.g. after fetching the conversation detail. Pending echoes are kept.
func (s *Session) Replace(conversationID string, messages []model.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conversationID = conversationID
	s.messages = make([]model.Message, len(messages))
	copy(s.messages, messages)
}

// takePending removes and returns the pending entry with the given id.
// Callers must hold the lock.
func (s *Session) takePending(id string) (model.Message, bool) {
	for i, m := range s.pending {
		if m.ID == id {
			s.pending = append(s.pending[:i], s.pending[i+1:]...)
			return m, true
		}
	}
	return model.Message{}, false
}

package calltrace

import (
	"fmt"
	"time"

	"github.com/hubenschmidt/asr-llm-tts-poc/calltrace/internal/trace"
)

const (
	tokensPerMessage  = 10
	sessionConfidence = 0.95
	unknownSender     = "unknown"
)

// Participant identifies who sent a chat message.
type Participant struct {
	Identity string `json:"identity"`
	IsLocal  bool   `json:"isLocal"`
}

// ChatMessage is one message received from the conversation. From may be
// nil when the sender is not known.
type ChatMessage struct {
	ID        string       `json:"id"`
	Timestamp int64        `json:"timestamp"` // unix ms
	Message   string       `json:"message"`
	From      *Participant `json:"from,omitempty"`
}

func (m ChatMessage) isLocal() bool {
	return m.From != nil && m.From.IsLocal
}

func (m ChatMessage) sender() string {
	if m.From == nil || m.From.Identity == "" {
		return unknownSender
	}
	return m.From.Identity
}

// Session is the in-memory state of one active conversation.
type Session struct {
	ID                string
	StartTime         time.Time
	EndTime           time.Time
	Messages          []ChatMessage
	ParticipantCount  int
	MessageCount      int
	UserMessageCount  int
	AgentMessageCount int
}

func (s *Session) add(m ChatMessage) {
	s.Messages = append(s.Messages, m)
	s.MessageCount++
	if m.isLocal() {
		s.UserMessageCount++
		return
	}
	s.AgentMessageCount++
}

// Defaults are the static model settings stamped on every session record.
type Defaults struct {
	Model       string
	Temperature float64
	MaxTokens   int
}

// record finalizes s into the trace record submitted on session end.
func (s *Session) record(d Defaults) trace.Record {
	duration := s.EndTime.Sub(s.StartTime).Milliseconds()
	if duration < 0 {
		duration = 0
	}

	exchanged := make([]trace.ExchangedMessage, 0, len(s.Messages))
	for _, m := range s.Messages {
		exchanged = append(exchanged, trace.ExchangedMessage{
			ID:        m.ID,
			Timestamp: m.Timestamp,
			Message:   m.Message,
			From:      m.sender(),
			IsLocal:   m.isLocal(),
		})
	}

	return trace.Record{
		ID:           s.ID,
		Timestamp:    s.StartTime,
		SessionID:    s.ID,
		MessageType:  trace.MessageSession,
		Message:      fmt.Sprintf("Session with %d messages", s.MessageCount),
		ResponseTime: duration,
		TokenCount:   s.MessageCount * tokensPerMessage,
		Confidence:   sessionConfidence,
		Status:       trace.StatusSuccess,
		Metadata: trace.Metadata{
			Model:             trace.Ptr(d.Model),
			Temperature:       trace.Ptr(d.Temperature),
			MaxTokens:         trace.Ptr(d.MaxTokens),
			UserID:            trace.Ptr(fmt.Sprintf("user-%d", s.EndTime.UnixMilli())),
			SessionDuration:   trace.Ptr(duration / 1000),
			ParticipantCount:  trace.Ptr(s.ParticipantCount),
			MessageCount:      trace.Ptr(s.MessageCount),
			UserMessageCount:  trace.Ptr(s.UserMessageCount),
			AgentMessageCount: trace.Ptr(s.AgentMessageCount),
			Messages:          exchanged,
		},
	}
}

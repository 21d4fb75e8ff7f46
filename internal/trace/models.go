package trace

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// MessageType classifies what a record describes.
type MessageType string

const (
	MessageUser    MessageType = "user"
	MessageAgent   MessageType = "agent"
	MessageSystem  MessageType = "system"
	MessageSession MessageType = "session"
)

// Status is the outcome of the exchange or session a record describes.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
	StatusPending Status = "pending"
)

var (
	// ErrInvalidRecord is wrapped by every validation failure.
	ErrInvalidRecord = errors.New("invalid trace record")
	// ErrDuplicateID is returned by stores when a record id is already present.
	ErrDuplicateID = errors.New("duplicate trace id")
)

// Record is one persisted telemetry entry. Records are never updated;
// corrections are appended as new records.
type Record struct {
	ID           string      `json:"id"`
	Timestamp    time.Time   `json:"timestamp"`
	SessionID    string      `json:"sessionId"`
	MessageType  MessageType `json:"messageType"`
	Message      string      `json:"message"`
	ResponseTime int64       `json:"responseTime"` // ms
	TokenCount   int         `json:"tokenCount"`
	Confidence   float64     `json:"confidence"`
	Status       Status      `json:"status"`
	Metadata     Metadata    `json:"metadata"`
}

// Metadata carries optional performance and configuration fields. A nil
// pointer means the field was not recorded, which aggregation relies on to
// tell "absent" apart from zero.
type Metadata struct {
	Model               *string  `json:"model,omitempty"`
	Temperature         *float64 `json:"temperature,omitempty"`
	MaxTokens           *int     `json:"maxTokens,omitempty"`
	UserID              *string  `json:"userId,omitempty"`
	SessionDuration     *int64   `json:"sessionDuration,omitempty"` // s
	Language            *string  `json:"language,omitempty"`
	AudioDuration       *float64 `json:"audioDuration,omitempty"` // s
	TTFT                *float64 `json:"ttft,omitempty"`          // s
	PromptTokens        *int     `json:"promptTokens,omitempty"`
	CompletionTokens    *int     `json:"completionTokens,omitempty"`
	TokensPerSecond     *float64 `json:"tokensPerSecond,omitempty"`
	EndOfUtteranceDelay *float64 `json:"endOfUtteranceDelay,omitempty"` // s
	TranscriptionDelay  *float64 `json:"transcriptionDelay,omitempty"`  // s
	ToolUsed            *string  `json:"toolUsed,omitempty"`
	ErrorMessage        *string  `json:"errorMessage,omitempty"`
	ParticipantCount    *int     `json:"participantCount,omitempty"`
	MessageCount        *int     `json:"messageCount,omitempty"`
	UserMessageCount    *int     `json:"userMessageCount,omitempty"`
	AgentMessageCount   *int     `json:"agentMessageCount,omitempty"`

	Messages []ExchangedMessage `json:"messages,omitempty"`
}

// ExchangedMessage is a serialized copy of one conversation message kept in
// a session record.
type ExchangedMessage struct {
	ID        string `json:"id"`
	Timestamp int64  `json:"timestamp"` // unix ms
	Message   string `json:"message"`
	From      string `json:"from"`
	IsLocal   bool   `json:"isLocal"`
}

// Ptr returns a pointer to v, for filling optional metadata fields.
func Ptr[T any](v T) *T {
	return &v
}

// Validate checks the record invariants.
func (r Record) Validate() error {
	switch {
	case r.ID == "":
		return fmt.Errorf("%w: id is empty", ErrInvalidRecord)
	case r.SessionID == "":
		return fmt.Errorf("%w: sessionId is empty", ErrInvalidRecord)
	case !r.MessageType.Valid():
		return fmt.Errorf("%w: unknown messageType %q", ErrInvalidRecord, r.MessageType)
	case !r.Status.Valid():
		return fmt.Errorf("%w: unknown status %q", ErrInvalidRecord, r.Status)
	case r.ResponseTime < 0:
		return fmt.Errorf("%w: responseTime %d is negative", ErrInvalidRecord, r.ResponseTime)
	case r.TokenCount < 0:
		return fmt.Errorf("%w: tokenCount %d is negative", ErrInvalidRecord, r.TokenCount)
	case math.IsNaN(r.Confidence) || r.Confidence < 0 || r.Confidence > 1:
		return fmt.Errorf("%w: confidence %v outside [0,1]", ErrInvalidRecord, r.Confidence)
	}
	return nil
}

// Valid reports whether t is one of the known message types.
func (t MessageType) Valid() bool {
	switch t {
	case MessageUser, MessageAgent, MessageSystem, MessageSession:
		return true
	}
	return false
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusSuccess, StatusError, StatusPending:
		return true
	}
	return false
}

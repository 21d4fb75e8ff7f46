// Package calltrace tracks one live conversation at a time and turns it
// into a session trace record when it ends.
package calltrace

import (
	"fmt"
	"log/slog"
	"math/rand"
	"strconv"
	"time"

	"github.com/hubenschmidt/asr-llm-tts-poc/calltrace/internal/metrics"
	"github.com/hubenschmidt/asr-llm-tts-poc/calltrace/internal/trace"
)

// Submitter accepts finished records without blocking the caller.
// *trace.Submitter satisfies it.
type Submitter interface {
	Submit(rec trace.Record)
}

// ParticipantCounter reports how many participants share the conversation.
type ParticipantCounter interface {
	NumParticipants() (int, error)
}

// Config wires a Manager to its collaborators. Only Submitter is required.
type Config struct {
	Submitter    Submitter
	Participants ParticipantCounter
	Defaults     Defaults
	Now          func() time.Time
}

// DefaultDefaults are the model settings stamped on session records when
// none are configured.
var DefaultDefaults = Defaults{Model: "gpt-4", Temperature: 0.7, MaxTokens: 1000}

// Manager owns at most one active Session. It is driven by a single
// conversation event loop and is not safe for concurrent use.
type Manager struct {
	cfg     Config
	session *Session
	live    []ChatMessage
}

// NewManager creates an idle manager.
func NewManager(cfg Config) *Manager {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Defaults == (Defaults{}) {
		cfg.Defaults = DefaultDefaults
	}
	return &Manager{cfg: cfg}
}

// Active reports whether a session is in progress.
func (m *Manager) Active() bool {
	return m.session != nil
}

// SessionID returns the active session id, or "" when idle.
func (m *Manager) SessionID() string {
	if m.session == nil {
		return ""
	}
	return m.session.ID
}

// Messages returns a copy of the running message list shown to the live view.
func (m *Manager) Messages() []ChatMessage {
	out := make([]ChatMessage, len(m.live))
	copy(out, m.live)
	return out
}

// Start begins a new session. Starting while active discards the current
// session without persisting it.
func (m *Manager) Start() string {
	now := m.cfg.Now()
	if m.session != nil {
		metrics.SessionsDiscarded.Inc()
		metrics.SessionsActive.Dec()
		slog.Warn("call trace session replaced before end, discarding",
			"session_id", m.session.ID, "messages", m.session.MessageCount)
	}
	m.session = &Session{
		ID:               newSessionID(now),
		StartTime:        now,
		ParticipantCount: m.participantCount(),
	}
	metrics.SessionsStarted.Inc()
	metrics.SessionsActive.Inc()
	slog.Info("call trace session started", "session_id", m.session.ID, "participants", m.session.ParticipantCount)
	return m.session.ID
}

// AddMessage records msg in the active session. The live message list is
// appended to whether or not a session is active.
func (m *Manager) AddMessage(msg ChatMessage) {
	m.live = append(m.live, msg)
	if m.session == nil {
		metrics.InvalidState.WithLabelValues("add_message").Inc()
		slog.Warn("message received with no active call trace session", "message_id", msg.ID)
		return
	}
	m.session.add(msg)
	metrics.Messages.WithLabelValues(senderLabel(msg)).Inc()
	slog.Debug("message added to call trace",
		"session_id", m.session.ID,
		"message_id", msg.ID,
		"from", msg.sender(),
		"is_local", msg.isLocal(),
		"total_messages", m.session.MessageCount,
	)
}

// End finalizes the active session and hands its record to the submitter.
// State is reset before submission, so the caller never waits on
// persistence. Returns false when there was nothing to finalize.
func (m *Manager) End() (trace.Record, bool) {
	if m.session == nil {
		metrics.InvalidState.WithLabelValues("end").Inc()
		slog.Info("no call trace session data to save")
		return trace.Record{}, false
	}

	sess := m.session
	sess.EndTime = m.cfg.Now()
	rec := sess.record(m.cfg.Defaults)

	m.session = nil
	m.live = nil
	metrics.SessionsActive.Dec()
	metrics.SessionsEnded.Inc()
	metrics.SessionDuration.Observe(sess.EndTime.Sub(sess.StartTime).Seconds())

	slog.Info("saving call trace",
		"session_id", sess.ID,
		"message_count", sess.MessageCount,
		"duration_ms", rec.ResponseTime,
	)
	if m.cfg.Submitter != nil {
		m.cfg.Submitter.Submit(rec)
	}
	return rec, true
}

func (m *Manager) participantCount() int {
	if m.cfg.Participants == nil {
		slog.Warn("no participant counter configured, assuming one participant")
		return 1
	}
	n, err := m.cfg.Participants.NumParticipants()
	if err != nil {
		slog.Warn("could not read participant count", "error", err)
		return 1
	}
	return n
}

func senderLabel(msg ChatMessage) string {
	if msg.isLocal() {
		return "user"
	}
	return "agent"
}

// newSessionID returns "session-<unix ms>-<9 base36 chars>".
func newSessionID(now time.Time) string {
	suffix := strconv.FormatUint(rand.Uint64(), 36)
	for len(suffix) < 9 {
		suffix = "0" + suffix
	}
	return fmt.Sprintf("session-%d-%s", now.UnixMilli(), suffix[:9])
}

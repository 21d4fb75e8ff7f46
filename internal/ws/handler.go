package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/hubenschmidt/asr-llm-tts-poc/calltrace/internal/calltrace"
	"github.com/hubenschmidt/asr-llm-tts-poc/calltrace/internal/metrics"
)

const defaultRoom = "default"

var upgrader = websocket.Upgrader{
	ReadBufferSize:  16384,
	WriteBufferSize: 16384,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// HandlerConfig holds what every conversation connection shares.
type HandlerConfig struct {
	Submitter     calltrace.Submitter
	Defaults      calltrace.Defaults
	MaxConcurrent int
}

// Handler serves conversation WebSocket connections with admission control.
// Each connection drives its own calltrace.Manager.
type Handler struct {
	cfg HandlerConfig
	sem chan struct{}

	mu      sync.Mutex
	rooms   map[string]int
	conns   map[*websocket.Conn]struct{}
	closing bool
	wg      sync.WaitGroup
}

// NewHandler creates a WebSocket handler with a concurrency limit.
func NewHandler(cfg HandlerConfig) *Handler {
	maxConc := cfg.MaxConcurrent
	if maxConc <= 0 {
		maxConc = 100
	}
	return &Handler{
		cfg:   cfg,
		sem:   make(chan struct{}, maxConc),
		rooms: map[string]int{},
		conns: map[*websocket.Conn]struct{}{},
	}
}

// Frame is a client → server conversation event.
type Frame struct {
	Type    string                 `json:"type"` // start|message|end
	Message *calltrace.ChatMessage `json:"message,omitempty"`
}

// Event is a server → client acknowledgement.
type Event struct {
	Type              string `json:"type"`
	SessionID         string `json:"session_id,omitempty"`
	MessageCount      int    `json:"message_count,omitempty"`
	UserMessageCount  int    `json:"user_message_count,omitempty"`
	AgentMessageCount int    `json:"agent_message_count,omitempty"`
	Participants      int    `json:"participants,omitempty"`
	Text              string `json:"text,omitempty"`
}

// ServeHTTP upgrades the connection and runs the conversation loop.
// Returns 503 if at max concurrent connection capacity.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	select {
	case h.sem <- struct{}{}:
		defer func() { <-h.sem }()
	default:
		http.Error(w, "at capacity", http.StatusServiceUnavailable)
		return
	}

	roomName := r.URL.Query().Get("room")
	if roomName == "" {
		roomName = defaultRoom
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	if !h.track(conn) {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"), time.Now().Add(time.Second))
		return
	}
	defer h.untrack(conn)

	h.join(roomName)
	defer h.leave(roomName)
	metrics.ConnectionsActive.Inc()
	defer metrics.ConnectionsActive.Dec()

	connID := uuid.NewString()
	slog.Info("conversation connected", "conn_id", connID, "room", roomName)
	h.runConversation(conn, connID, roomName)
	slog.Info("conversation disconnected", "conn_id", connID, "room", roomName)
}

func (h *Handler) runConversation(conn *websocket.Conn, connID, roomName string) {
	mgr := calltrace.NewManager(calltrace.Config{
		Submitter:    h.cfg.Submitter,
		Participants: roomParticipants{h: h, room: roomName},
		Defaults:     h.cfg.Defaults,
	})
	send := newEventSender(conn)

	// A dropped connection still finalizes the session in progress.
	defer func() {
		if mgr.Active() {
			slog.Info("connection closed with active session, finalizing", "conn_id", connID, "session_id", mgr.SessionID())
			mgr.End()
		}
	}()

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			slog.Info("connection closed", "conn_id", connID, "error", err)
			return
		}
		if msgType != websocket.TextMessage {
			send(Event{Type: "error", Text: "expected JSON text frames"})
			continue
		}
		var f Frame
		if err = json.Unmarshal(data, &f); err != nil {
			send(Event{Type: "error", Text: "malformed frame: " + err.Error()})
			continue
		}
		handleFrame(mgr, f, send)
	}
}

func handleFrame(mgr *calltrace.Manager, f Frame, send func(Event)) {
	switch f.Type {
	case "start":
		id := mgr.Start()
		send(Event{Type: "session_started", SessionID: id})
	case "message":
		if f.Message == nil {
			send(Event{Type: "error", Text: "message frame without message"})
			return
		}
		mgr.AddMessage(*f.Message)
		send(Event{Type: "message_added", SessionID: mgr.SessionID(), MessageCount: len(mgr.Messages())})
	case "end":
		rec, ok := mgr.End()
		if !ok {
			send(Event{Type: "session_ended"})
			return
		}
		send(Event{
			Type:              "session_ended",
			SessionID:         rec.SessionID,
			MessageCount:      deref(rec.Metadata.MessageCount),
			UserMessageCount:  deref(rec.Metadata.UserMessageCount),
			AgentMessageCount: deref(rec.Metadata.AgentMessageCount),
			Participants:      deref(rec.Metadata.ParticipantCount),
		})
	default:
		send(Event{Type: "error", Text: "unknown frame type " + f.Type})
	}
}

// Shutdown closes every open conversation connection and waits until each
// one has finalized its active session, or ctx is done. Connections
// upgraded afterwards are closed immediately.
func (h *Handler) Shutdown(ctx context.Context) error {
	h.mu.Lock()
	h.closing = true
	open := make([]*websocket.Conn, 0, len(h.conns))
	for c := range h.conns {
		open = append(open, c)
	}
	h.mu.Unlock()

	slog.Info("closing conversation connections", "count", len(open))
	for _, c := range open {
		c.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"), time.Now().Add(time.Second))
		c.Close()
	}

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Handler) track(conn *websocket.Conn) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closing {
		return false
	}
	h.conns[conn] = struct{}{}
	h.wg.Add(1)
	return true
}

func (h *Handler) untrack(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.conns, conn)
	h.mu.Unlock()
	h.wg.Done()
}

func (h *Handler) join(room string) {
	h.mu.Lock()
	h.rooms[room]++
	h.mu.Unlock()
}

func (h *Handler) leave(room string) {
	h.mu.Lock()
	h.rooms[room]--
	if h.rooms[room] <= 0 {
		delete(h.rooms, room)
	}
	h.mu.Unlock()
}

// roomParticipants reports how many connections share a room.
type roomParticipants struct {
	h    *Handler
	room string
}

func (p roomParticipants) NumParticipants() (int, error) {
	p.h.mu.Lock()
	defer p.h.mu.Unlock()
	return p.h.rooms[p.room], nil
}

func newEventSender(conn *websocket.Conn) func(Event) {
	var mu sync.Mutex
	return func(ev Event) {
		mu.Lock()
		defer mu.Unlock()

		jsonBytes, err := json.Marshal(ev)
		if err != nil {
			return
		}
		if err = conn.WriteMessage(websocket.TextMessage, jsonBytes); err != nil {
			slog.Error("write event", "error", err)
		}
	}
}

func deref(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

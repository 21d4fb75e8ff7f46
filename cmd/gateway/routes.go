package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hubenschmidt/asr-llm-tts-poc/calltrace/internal/analytics"
	"github.com/hubenschmidt/asr-llm-tts-poc/calltrace/internal/calltrace"
	"github.com/hubenschmidt/asr-llm-tts-poc/calltrace/internal/metrics"
	"github.com/hubenschmidt/asr-llm-tts-poc/calltrace/internal/trace"
)

// maxBodyBytes bounds a POSTed trace; session records carry their messages.
const maxBodyBytes = 4 << 20

type deps struct {
	store     trace.Store
	defaults  calltrace.Defaults
	wsHandler http.Handler
	now       func() time.Time
}

// registerRoutes wires all HTTP endpoints to the shared mux.
func registerRoutes(mux *http.ServeMux, d deps) {
	if d.now == nil {
		d.now = time.Now
	}
	mux.Handle("/ws/conversation", d.wsHandler)
	mux.HandleFunc("/health", handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /api/call-traces", d.handleList)
	mux.HandleFunc("POST /api/call-traces", d.handleAdd)
	mux.HandleFunc("DELETE /api/call-traces", d.handleClear)
	mux.HandleFunc("GET /api/call-traces/stats", d.handleStats)

	mux.HandleFunc("GET /api/get-call-traces", d.handleList)
	mux.HandleFunc("POST /api/add-call-trace", d.handleAdd)
	mux.HandleFunc("POST /api/clear-call-traces", d.handleClear)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

type listResponse struct {
	Success bool           `json:"success"`
	Traces  []trace.Record `json:"traces"`
}

func (d deps) handleList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, listResponse{Success: true, Traces: trace.ListOrEmpty(r.Context(), d.store)})
}

type statsResponse struct {
	Success bool `json:"success"`
	analytics.Snapshot
}

func (d deps) handleStats(w http.ResponseWriter, r *http.Request) {
	recs := trace.ListOrEmpty(r.Context(), d.store)
	c := analytics.ParseCriteria(r.URL.Query())
	filtered := analytics.FilterAt(recs, c, d.now())
	writeJSON(w, http.StatusOK, statsResponse{
		Success: true,
		Snapshot: analytics.Snapshot{
			Criteria: c,
			Total:    len(recs),
			Records:  filtered,
			Summary:  analytics.Aggregate(filtered),
		},
	})
}

// handleAdd accepts either a complete record (id, sessionId and metadata
// present) or the legacy {message, messageType, status} body, from which a
// synthetic record is built.
func (d deps) handleAdd(w http.ResponseWriter, r *http.Request) {
	var raw json.RawMessage
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&raw); err != nil {
		writeJSON(w, http.StatusBadRequest, trace.Envelope{Message: "malformed JSON body"})
		return
	}

	rec, err := d.decodeTrace(raw)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, trace.Envelope{Message: err.Error()})
		return
	}

	if err = d.store.Append(r.Context(), rec); err != nil {
		status, msg := appendFailure(err)
		if status == http.StatusInternalServerError {
			metrics.StoreErrors.WithLabelValues("append").Inc()
			slog.Error("add call trace", "id", rec.ID, "error", err)
		}
		writeJSON(w, status, trace.Envelope{Message: msg})
		return
	}

	slog.Info("call trace added", "id", rec.ID, "session_id", rec.SessionID, "message_type", rec.MessageType)
	writeJSON(w, http.StatusCreated, trace.Envelope{Success: true, Message: "Call trace added successfully", Trace: &rec})
}

func appendFailure(err error) (int, string) {
	switch {
	case errors.Is(err, trace.ErrInvalidRecord):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, trace.ErrDuplicateID):
		return http.StatusConflict, err.Error()
	default:
		return http.StatusInternalServerError, "Failed to add call trace"
	}
}

func (d deps) decodeTrace(raw json.RawMessage) (trace.Record, error) {
	var probe struct {
		ID        string          `json:"id"`
		SessionID string          `json:"sessionId"`
		Metadata  json.RawMessage `json:"metadata"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return trace.Record{}, fmt.Errorf("body must be a JSON object: %w", err)
	}

	if probe.ID != "" && probe.SessionID != "" && len(probe.Metadata) > 0 && string(probe.Metadata) != "null" {
		var rec trace.Record
		if err := json.Unmarshal(raw, &rec); err != nil {
			return trace.Record{}, fmt.Errorf("decode trace: %w", err)
		}
		return rec, nil
	}

	var legacy struct {
		Message     string            `json:"message"`
		MessageType trace.MessageType `json:"messageType"`
		Status      trace.Status      `json:"status"`
	}
	if err := json.Unmarshal(raw, &legacy); err != nil {
		return trace.Record{}, fmt.Errorf("decode legacy trace: %w", err)
	}
	return d.legacyRecord(legacy.Message, legacy.MessageType, legacy.Status), nil
}

func (d deps) legacyRecord(message string, typ trace.MessageType, status trace.Status) trace.Record {
	now := d.now()
	if message == "" {
		message = "Test message"
	}
	if typ == "" {
		typ = trace.MessageUser
	}
	if status == "" {
		status = trace.StatusSuccess
	}
	return trace.Record{
		ID:           uuid.NewString(),
		Timestamp:    now.UTC(),
		SessionID:    fmt.Sprintf("session-%d", now.UnixMilli()),
		MessageType:  typ,
		Message:      message,
		ResponseTime: 500 + rand.Int63n(2000),
		TokenCount:   10 + rand.Intn(100),
		Confidence:   0.5 + rand.Float64()*0.5,
		Status:       status,
		Metadata: trace.Metadata{
			Model:           trace.Ptr(d.defaults.Model),
			Temperature:     trace.Ptr(d.defaults.Temperature),
			MaxTokens:       trace.Ptr(d.defaults.MaxTokens),
			UserID:          trace.Ptr(fmt.Sprintf("user-%d", now.UnixMilli())),
			SessionDuration: trace.Ptr(60 + rand.Int63n(300)),
		},
	}
}

func (d deps) handleClear(w http.ResponseWriter, r *http.Request) {
	if err := d.store.Clear(r.Context()); err != nil {
		metrics.StoreErrors.WithLabelValues("clear").Inc()
		slog.Error("clear call traces", "error", err)
		writeJSON(w, http.StatusInternalServerError, trace.Envelope{Message: "Failed to clear call traces"})
		return
	}
	slog.Info("call traces cleared")
	writeJSON(w, http.StatusOK, trace.Envelope{Success: true, Message: "All call traces cleared successfully"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("encode response", "error", err)
	}
}

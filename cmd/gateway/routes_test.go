package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hubenschmidt/asr-llm-tts-poc/calltrace/internal/analytics"
	"github.com/hubenschmidt/asr-llm-tts-poc/calltrace/internal/calltrace"
	"github.com/hubenschmidt/asr-llm-tts-poc/calltrace/internal/trace"
)

var testNow = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

func newTestGateway(t *testing.T, store trace.Store) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	registerRoutes(mux, deps{
		store:     store,
		defaults:  calltrace.DefaultDefaults,
		wsHandler: http.NotFoundHandler(),
		now:       func() time.Time { return testNow },
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, method, url, body string) (*http.Response, map[string]json.RawMessage) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	var out map[string]json.RawMessage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func TestRoutes_ListEmptyStore(t *testing.T) {
	t.Parallel()

	srv := newTestGateway(t, trace.NewMemoryStore())
	for _, path := range []string{"/api/call-traces", "/api/get-call-traces"} {
		resp, body := do(t, http.MethodGet, srv.URL+path, "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.JSONEq(t, `true`, string(body["success"]))
		require.JSONEq(t, `[]`, string(body["traces"]))
	}
}

func TestRoutes_AddCompleteTrace(t *testing.T) {
	t.Parallel()

	store := trace.NewMemoryStore()
	srv := newTestGateway(t, store)

	rec := trace.SampleRecords(testNow)[0]
	payload, err := json.Marshal(rec)
	require.NoError(t, err)

	resp, body := do(t, http.MethodPost, srv.URL+"/api/call-traces", string(payload))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.JSONEq(t, string(payload), string(body["trace"]))

	resp, _ = do(t, http.MethodPost, srv.URL+"/api/add-call-trace", string(payload))
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	got, err := store.List(context.Background())
	require.NoError(t, err)
	require.Equal(t, []trace.Record{rec}, got)
}

func TestRoutes_AddLegacyTrace(t *testing.T) {
	t.Parallel()

	store := trace.NewMemoryStore()
	srv := newTestGateway(t, store)

	resp, _ := do(t, http.MethodPost, srv.URL+"/api/call-traces", `{"message":"ping","messageType":"agent"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	got, err := store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	r := got[0]
	require.Equal(t, "ping", r.Message)
	require.Equal(t, trace.MessageAgent, r.MessageType)
	require.Equal(t, trace.StatusSuccess, r.Status)
	require.Equal(t, "session-1792411200000", r.SessionID)
	require.GreaterOrEqual(t, r.ResponseTime, int64(500))
	require.Less(t, r.ResponseTime, int64(2500))
	require.GreaterOrEqual(t, r.TokenCount, 10)
	require.Less(t, r.TokenCount, 110)
	require.GreaterOrEqual(t, r.Confidence, 0.5)
	require.LessOrEqual(t, r.Confidence, 1.0)
	require.Equal(t, "gpt-4", *r.Metadata.Model)
	require.NotEmpty(t, r.ID)

	resp, _ = do(t, http.MethodPost, srv.URL+"/api/call-traces", `{}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	got, _ = store.List(context.Background())
	require.Equal(t, "Test message", got[0].Message)
	require.Equal(t, trace.MessageUser, got[0].MessageType)
}

func TestRoutes_AddRejectsInvalid(t *testing.T) {
	t.Parallel()

	srv := newTestGateway(t, trace.NewMemoryStore())

	tests := []struct {
		name string
		body string
	}{
		{name: "not json", body: `{oops`},
		{name: "not an object", body: `[1,2]`},
		{name: "unknown message type", body: `{"message":"x","messageType":"robot"}`},
		{name: "confidence out of range", body: `{"id":"a","sessionId":"s","messageType":"user","status":"success","confidence":1.5,"metadata":{}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := do(t, http.MethodPost, srv.URL+"/api/call-traces", tt.body)
			require.Equal(t, http.StatusBadRequest, resp.StatusCode)
			require.JSONEq(t, `false`, string(body["success"]))
		})
	}
}

func TestRoutes_Clear(t *testing.T) {
	t.Parallel()

	store := trace.NewMemoryStore()
	_, err := trace.Seed(context.Background(), store, trace.SampleRecords(testNow))
	require.NoError(t, err)
	srv := newTestGateway(t, store)

	resp, _ := do(t, http.MethodPost, srv.URL+"/api/clear-call-traces", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	_, body := do(t, http.MethodGet, srv.URL+"/api/call-traces", "")
	require.JSONEq(t, `[]`, string(body["traces"]))

	resp, _ = do(t, http.MethodDelete, srv.URL+"/api/call-traces", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRoutes_StatsFiltersThenAggregates(t *testing.T) {
	t.Parallel()

	store := trace.NewMemoryStore()
	_, err := trace.Seed(context.Background(), store, trace.SampleRecords(testNow))
	require.NoError(t, err)
	srv := newTestGateway(t, store)

	resp, err := http.Get(srv.URL + "/api/call-traces/stats?messageType=user&dateRange=1h")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Success  bool               `json:"success"`
		Criteria analytics.Criteria `json:"criteria"`
		Total    int                `json:"total"`
		Traces   []trace.Record     `json:"traces"`
		Stats    analytics.Summary  `json:"stats"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.True(t, out.Success)
	require.Equal(t, analytics.Criteria{MessageType: "user", Status: analytics.All, DateRange: "1h"}, out.Criteria)
	require.Equal(t, 6, out.Total)
	require.Len(t, out.Traces, 3)
	require.Equal(t, 3, out.Stats.TotalTraces)
	require.Equal(t, 3, out.Stats.UserMessages)
	require.Equal(t, 1, out.Stats.ErrorCount)
	require.Equal(t, 146, out.Stats.TotalTokens)
}

func TestRoutes_ClientRoundTrip(t *testing.T) {
	t.Parallel()

	srv := newTestGateway(t, trace.NewMemoryStore())
	client := trace.NewClient(srv.URL, 2, 5*time.Second)
	ctx := context.Background()

	rec := trace.SampleRecords(testNow)[4]
	require.NoError(t, client.Append(ctx, rec))
	require.ErrorIs(t, client.Append(ctx, rec), trace.ErrDuplicateID)

	got, err := client.List(ctx)
	require.NoError(t, err)
	require.Equal(t, []trace.Record{rec}, got)

	require.NoError(t, client.Clear(ctx))
	got, err = client.List(ctx)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestRoutes_HealthAndMetrics(t *testing.T) {
	t.Parallel()

	srv := newTestGateway(t, trace.NewMemoryStore())
	for _, path := range []string{"/health", "/metrics"} {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode, path)
	}
}

package analytics

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hubenschmidt/asr-llm-tts-poc/calltrace/internal/trace"
)

var now = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

func rec(id string, typ trace.MessageType, status trace.Status, age time.Duration) trace.Record {
	return trace.Record{
		ID:          id,
		Timestamp:   now.Add(-age),
		SessionID:   "session-001",
		MessageType: typ,
		Status:      status,
		Confidence:  0.9,
	}
}

func fixture() []trace.Record {
	return []trace.Record{
		rec("1", trace.MessageUser, trace.StatusSuccess, 10*time.Minute),
		rec("2", trace.MessageAgent, trace.StatusSuccess, 2*time.Hour),
		rec("3", trace.MessageUser, trace.StatusError, 30*time.Hour),
		rec("4", trace.MessageSystem, trace.StatusPending, 8*24*time.Hour),
		rec("5", trace.MessageSession, trace.StatusSuccess, 5*time.Minute),
	}
}

func ids(recs []trace.Record) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.ID
	}
	return out
}

func TestFilterAt(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		criteria Criteria
		want     []string
	}{
		{name: "all passes everything in order", criteria: AllCriteria(), want: []string{"1", "2", "3", "4", "5"}},
		{name: "user messages", criteria: Criteria{MessageType: "user", Status: All, DateRange: All}, want: []string{"1", "3"}},
		{name: "session records", criteria: Criteria{MessageType: "session", Status: All, DateRange: All}, want: []string{"5"}},
		{name: "errors", criteria: Criteria{MessageType: All, Status: "error", DateRange: All}, want: []string{"3"}},
		{name: "last hour", criteria: Criteria{MessageType: All, Status: All, DateRange: "1h"}, want: []string{"1", "5"}},
		{name: "last day", criteria: Criteria{MessageType: All, Status: All, DateRange: "24h"}, want: []string{"1", "2", "5"}},
		{name: "last week", criteria: Criteria{MessageType: All, Status: All, DateRange: "7d"}, want: []string{"1", "2", "3", "5"}},
		{name: "unknown range treated as all", criteria: Criteria{MessageType: All, Status: All, DateRange: "30d"}, want: []string{"1", "2", "3", "4", "5"}},
		{name: "criteria combine with and", criteria: Criteria{MessageType: "user", Status: "success", DateRange: "24h"}, want: []string{"1"}},
		{name: "no match", criteria: Criteria{MessageType: "agent", Status: "error", DateRange: All}, want: []string{}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := FilterAt(fixture(), tt.criteria, now)
			require.Equal(t, tt.want, ids(got))
		})
	}
}

func TestFilterAt_CutoffIsStrict(t *testing.T) {
	t.Parallel()

	recs := []trace.Record{
		rec("edge", trace.MessageUser, trace.StatusSuccess, time.Hour),
		rec("inside", trace.MessageUser, trace.StatusSuccess, time.Hour-time.Millisecond),
	}
	got := FilterAt(recs, Criteria{MessageType: All, Status: All, DateRange: "1h"}, now)
	require.Equal(t, []string{"inside"}, ids(got))
}

func TestFilter_Idempotent(t *testing.T) {
	t.Parallel()

	for _, c := range []Criteria{
		AllCriteria(),
		{MessageType: "user", Status: All, DateRange: "24h"},
		{MessageType: All, Status: "success", DateRange: "7d"},
	} {
		once := FilterAt(fixture(), c, now)
		twice := FilterAt(once, c, now)
		require.Equal(t, once, twice)
	}
}

func TestFilter_DoesNotMutateInput(t *testing.T) {
	t.Parallel()

	in := fixture()
	_ = Filter(in, Criteria{MessageType: "agent", Status: All, DateRange: All})
	require.Equal(t, fixture(), in)
}

func TestParseCriteria(t *testing.T) {
	t.Parallel()

	require.Equal(t, AllCriteria(), ParseCriteria(url.Values{}))
	require.Equal(t,
		Criteria{MessageType: "agent", Status: All, DateRange: "1h"},
		ParseCriteria(url.Values{"messageType": {"agent"}, "dateRange": {"1h"}, "status": {""}}),
	)
	require.Equal(t,
		Criteria{MessageType: All, Status: "pending", DateRange: All},
		CriteriaFromMap(map[string]string{"status": "pending"}),
	)
}

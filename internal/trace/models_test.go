package trace

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func validRecord(id string) Record {
	return Record{
		ID:           id,
		Timestamp:    time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC),
		SessionID:    "session-001",
		MessageType:  MessageUser,
		Message:      "latest news about research publications",
		ResponseTime: 2600,
		TokenCount:   45,
		Confidence:   0.95,
		Status:       StatusSuccess,
		Metadata: Metadata{
			Model:    Ptr("gpt-4o-mini"),
			Language: Ptr("en"),
			TTFT:     Ptr(0.66),
		},
	}
}

func TestRecordValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Record)
		errMsg string
	}{
		{name: "valid", mutate: func(*Record) {}},
		{name: "empty id", mutate: func(r *Record) { r.ID = "" }, errMsg: "id is empty"},
		{name: "empty session", mutate: func(r *Record) { r.SessionID = "" }, errMsg: "sessionId is empty"},
		{name: "unknown type", mutate: func(r *Record) { r.MessageType = "bot" }, errMsg: "unknown messageType"},
		{name: "unknown status", mutate: func(r *Record) { r.Status = "done" }, errMsg: "unknown status"},
		{name: "negative response time", mutate: func(r *Record) { r.ResponseTime = -1 }, errMsg: "responseTime"},
		{name: "negative tokens", mutate: func(r *Record) { r.TokenCount = -5 }, errMsg: "tokenCount"},
		{name: "confidence above one", mutate: func(r *Record) { r.Confidence = 1.01 }, errMsg: "confidence"},
		{name: "confidence NaN", mutate: func(r *Record) { r.Confidence = math.NaN() }, errMsg: "confidence"},
		{name: "confidence bounds inclusive", mutate: func(r *Record) { r.Confidence = 1 }},
		{name: "session type", mutate: func(r *Record) { r.MessageType = MessageSession }},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := validRecord("1")
			tt.mutate(&rec)
			err := rec.Validate()
			if tt.errMsg == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, ErrInvalidRecord)
			require.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestMetadataOmitsAbsentFields(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(Metadata{TTFT: Ptr(0.0), Language: Ptr("hi")})
	require.NoError(t, err)
	require.JSONEq(t, `{"ttft":0,"language":"hi"}`, string(data))

	var meta Metadata
	require.NoError(t, json.Unmarshal([]byte(`{"audioDuration":5.1}`), &meta))
	require.Nil(t, meta.TTFT)
	require.NotNil(t, meta.AudioDuration)
	require.InDelta(t, 5.1, *meta.AudioDuration, 1e-9)
}

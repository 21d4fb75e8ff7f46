package analytics

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hubenschmidt/asr-llm-tts-poc/calltrace/internal/trace"
)

func TestAggregate_Empty(t *testing.T) {
	t.Parallel()

	s := Aggregate(nil)
	require.Equal(t, Summary{LanguageBreakdown: map[string]int{}}, s)
}

func TestAggregate_AverageResponseTime(t *testing.T) {
	t.Parallel()

	var recs []trace.Record
	for _, ms := range []int64{1000, 2000, 3000} {
		r := rec("x", trace.MessageUser, trace.StatusSuccess, 0)
		r.ResponseTime = ms
		recs = append(recs, r)
	}
	require.Equal(t, int64(2000), Aggregate(recs).AvgResponseTime)
}

func TestAggregate_SuccessRate(t *testing.T) {
	t.Parallel()

	recs := []trace.Record{
		rec("1", trace.MessageUser, trace.StatusSuccess, 0),
		rec("2", trace.MessageUser, trace.StatusSuccess, 0),
		rec("3", trace.MessageUser, trace.StatusError, 0),
		rec("4", trace.MessageUser, trace.StatusPending, 0),
	}
	s := Aggregate(recs)
	require.InDelta(t, 50, s.SuccessRate, 1e-9)
	require.Equal(t, 2, s.SuccessCount)
	require.Equal(t, 1, s.ErrorCount)
	require.Equal(t, 1, s.PendingCount)
}

func TestAggregate_SampleSession(t *testing.T) {
	t.Parallel()

	s := Aggregate(trace.SampleRecords(now))

	require.Equal(t, 6, s.TotalTraces)
	require.Equal(t, 5, s.SuccessCount)
	require.Equal(t, 1, s.ErrorCount)
	require.Equal(t, 3, s.UserMessages)
	require.Equal(t, 3, s.AgentMessages)
	require.Zero(t, s.SystemMessages)
	require.Equal(t, int64(1617), s.AvgResponseTime)  // 9700/6
	require.InDelta(t, 0.82, s.AvgConfidence, 1e-9)   // 4.89/6 = 0.815
	require.Equal(t, 603, s.TotalTokens)
	require.InDelta(t, 83.333333, s.SuccessRate, 1e-5)
	require.Equal(t, int64(606), s.AvgTTFT)           // 3.639/6 s
	require.Equal(t, int64(40), s.TotalAudioDuration) // 39.79 s
	require.Equal(t, 3, s.ToolUsage)
	require.Equal(t, map[string]int{"en": 2, "hi": 4}, s.LanguageBreakdown)
	require.InDelta(t, 24.7, s.AvgTokensPerSecond, 1e-9) // 148.49/6
}

func TestAggregate_OptionalFieldsOnlyCountDefiningRecords(t *testing.T) {
	t.Parallel()

	withTTFT := rec("a", trace.MessageAgent, trace.StatusSuccess, 0)
	withTTFT.Metadata.TTFT = trace.Ptr(0.5)
	withTTFT.Metadata.TokensPerSecond = trace.Ptr(20.0)
	without := rec("b", trace.MessageAgent, trace.StatusSuccess, 0)
	blankLang := rec("c", trace.MessageUser, trace.StatusSuccess, 0)
	blankLang.Metadata.Language = trace.Ptr("")
	blankLang.Metadata.ToolUsed = trace.Ptr("")

	s := Aggregate([]trace.Record{withTTFT, without, blankLang})
	require.Equal(t, int64(500), s.AvgTTFT)
	require.InDelta(t, 20.0, s.AvgTokensPerSecond, 1e-9)
	require.Zero(t, s.TotalAudioDuration)
	require.Zero(t, s.ToolUsage)
	require.Equal(t, map[string]int{"unknown": 3}, s.LanguageBreakdown)
}

func TestAggregate_SessionRecordsCountOnlyInTotals(t *testing.T) {
	t.Parallel()

	s := Aggregate([]trace.Record{rec("s", trace.MessageSession, trace.StatusSuccess, 0)})
	require.Equal(t, 1, s.TotalTraces)
	require.Zero(t, s.UserMessages+s.AgentMessages+s.SystemMessages)
	require.InDelta(t, 100, s.SuccessRate, 1e-9)
}

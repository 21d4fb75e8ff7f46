package analytics

import (
	"math"

	"github.com/hubenschmidt/asr-llm-tts-poc/calltrace/internal/trace"
)

const unknownLanguage = "unknown"

// Summary is the aggregate view of a set of trace records. Every rate and
// average is 0 when nothing contributes to it.
type Summary struct {
	TotalTraces        int            `json:"totalTraces" yaml:"totalTraces"`
	SuccessCount       int            `json:"successCount" yaml:"successCount"`
	ErrorCount         int            `json:"errorCount" yaml:"errorCount"`
	PendingCount       int            `json:"pendingCount" yaml:"pendingCount"`
	UserMessages       int            `json:"userMessages" yaml:"userMessages"`
	AgentMessages      int            `json:"agentMessages" yaml:"agentMessages"`
	SystemMessages     int            `json:"systemMessages" yaml:"systemMessages"`
	AvgResponseTime    int64          `json:"avgResponseTime" yaml:"avgResponseTime"` // ms
	AvgConfidence      float64        `json:"avgConfidence" yaml:"avgConfidence"`
	TotalTokens        int            `json:"totalTokens" yaml:"totalTokens"`
	SuccessRate        float64        `json:"successRate" yaml:"successRate"` // percent
	AvgTTFT            int64          `json:"avgTTFT" yaml:"avgTTFT"`         // ms
	TotalAudioDuration int64          `json:"totalAudioDuration" yaml:"totalAudioDuration"`
	ToolUsage          int            `json:"toolUsage" yaml:"toolUsage"`
	LanguageBreakdown  map[string]int `json:"languageBreakdown" yaml:"languageBreakdown"`
	AvgTokensPerSecond float64        `json:"avgTokensPerSecond" yaml:"avgTokensPerSecond"`
}

// mean accumulates values and averages them, returning 0 when empty.
type mean struct {
	sum float64
	n   int
}

func (m *mean) add(v float64) {
	m.sum += v
	m.n++
}

func (m *mean) addOpt(v *float64) {
	if v != nil {
		m.add(*v)
	}
}

func (m mean) value() float64 {
	if m.n == 0 {
		return 0
	}
	return m.sum / float64(m.n)
}

// Aggregate computes the summary statistics of recs.
func Aggregate(recs []trace.Record) Summary {
	s := Summary{
		TotalTraces:       len(recs),
		LanguageBreakdown: map[string]int{},
	}

	var responseTime, confidence, ttft, tokensPerSecond mean
	var audio float64

	for _, r := range recs {
		switch r.Status {
		case trace.StatusSuccess:
			s.SuccessCount++
		case trace.StatusError:
			s.ErrorCount++
		case trace.StatusPending:
			s.PendingCount++
		}

		switch r.MessageType {
		case trace.MessageUser:
			s.UserMessages++
		case trace.MessageAgent:
			s.AgentMessages++
		case trace.MessageSystem:
			s.SystemMessages++
		}

		responseTime.add(float64(r.ResponseTime))
		confidence.add(r.Confidence)
		s.TotalTokens += r.TokenCount

		meta := r.Metadata
		ttft.addOpt(meta.TTFT)
		tokensPerSecond.addOpt(meta.TokensPerSecond)
		if meta.AudioDuration != nil {
			audio += *meta.AudioDuration
		}
		if meta.ToolUsed != nil && *meta.ToolUsed != "" {
			s.ToolUsage++
		}
		s.LanguageBreakdown[language(meta)]++
	}

	s.AvgResponseTime = int64(math.Round(responseTime.value()))
	s.AvgConfidence = roundTo(confidence.value(), 2)
	if s.TotalTraces > 0 {
		s.SuccessRate = float64(s.SuccessCount) / float64(s.TotalTraces) * 100
	}
	s.AvgTTFT = int64(math.Round(ttft.value() * 1000))
	s.TotalAudioDuration = int64(math.Round(audio))
	s.AvgTokensPerSecond = roundTo(tokensPerSecond.value(), 1)
	return s
}

func language(meta trace.Metadata) string {
	if meta.Language == nil || *meta.Language == "" {
		return unknownLanguage
	}
	return *meta.Language
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

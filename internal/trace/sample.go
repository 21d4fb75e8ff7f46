package trace

import (
	"context"
	"fmt"
	"time"
)

type sampleRow struct {
	id, typ, status, message, userID, language, toolUsed, errorMessage string
	ageMin                                                             int
	responseTime                                                       int64
	tokens                                                             int
	confidence                                                         float64
	sessionDuration                                                    int64
	audio, ttft, tps                                                   float64
	promptTokens, completionTokens                                     int
	eouDelay, transcriptionDelay                                       float64
}

var sampleRows = []sampleRow{
	{id: "1", ageMin: 10, typ: "user", status: "success", message: "latest news about papers or research publications",
		responseTime: 2600, tokens: 45, confidence: 0.95, userID: "user-123", sessionDuration: 300, language: "en",
		audio: 5.0, ttft: 0.66, promptTokens: 371, completionTokens: 44, tps: 27.87},
	{id: "2", ageMin: 9, typ: "agent", status: "success", message: "The latest news about papers or research publications includes works such as \"Flashattention-2: Faster attention with better parallelism and work partitioning\" by Tri Dao and \"Longnet: Scaling transformers to 1,000,000,000 tokens\" by Jiayu Ding et al.",
		responseTime: 1800, tokens: 234, confidence: 0.92, userID: "user-123", sessionDuration: 300, language: "en",
		audio: 14.54, ttft: 0.299, promptTokens: 452, completionTokens: 38, tps: 24.44, toolUsed: "LiveKit_RAG_tool"},
	{id: "3", ageMin: 8, typ: "user", status: "success", message: "तो तू सा app है क्या? जो बोलते show.",
		responseTime: 2100, tokens: 89, confidence: 0.88, userID: "user-456", sessionDuration: 180, language: "hi",
		audio: 5.0, ttft: 0.69, promptTokens: 378, completionTokens: 35, tps: 21.47, eouDelay: 0.42, transcriptionDelay: 0.37},
	{id: "4", ageMin: 7, typ: "agent", status: "success", message: "हाँ, यह एक AI-powered voice assistant app है जो आपकी बातचीत को समझ सकता है और जवाब दे सकता है।",
		responseTime: 1500, tokens: 156, confidence: 0.94, userID: "user-456", sessionDuration: 180, language: "hi",
		audio: 5.1, ttft: 0.81, promptTokens: 405, completionTokens: 21, tps: 25.83, eouDelay: 0.42, transcriptionDelay: 0.39},
	{id: "5", ageMin: 6, typ: "user", status: "error", message: "Basically तो financial data क्यों है कहीं?",
		responseTime: 500, tokens: 12, confidence: 0.45, userID: "user-789", sessionDuration: 60, language: "hi",
		audio: 5.1, ttft: 0.59, promptTokens: 452, completionTokens: 38, tps: 24.44, eouDelay: 0.42, transcriptionDelay: 0.39,
		toolUsed: "LiveKit_RAG_tool", errorMessage: "No financial data found in knowledge base"},
	{id: "6", ageMin: 5, typ: "agent", status: "success", message: "There is no information provided in the context about financial data news or trends.",
		responseTime: 1200, tokens: 67, confidence: 0.75, userID: "user-789", sessionDuration: 60, language: "hi",
		audio: 5.05, ttft: 0.59, promptTokens: 452, completionTokens: 38, tps: 24.44, toolUsed: "LiveKit_RAG_tool"},
}

// SampleRecords returns the six exchange records of the demo session
// "session-001", timestamped minutes before now, in id order.
func SampleRecords(now time.Time) []Record {
	out := make([]Record, 0, len(sampleRows))
	for _, r := range sampleRows {
		m := Metadata{
			Model:            Ptr("gpt-4o-mini"),
			Temperature:      Ptr(0.7),
			MaxTokens:        Ptr(1000),
			UserID:           Ptr(r.userID),
			SessionDuration:  Ptr(r.sessionDuration),
			Language:         Ptr(r.language),
			AudioDuration:    Ptr(r.audio),
			TTFT:             Ptr(r.ttft),
			PromptTokens:     Ptr(r.promptTokens),
			CompletionTokens: Ptr(r.completionTokens),
			TokensPerSecond:  Ptr(r.tps),
		}
		if r.eouDelay > 0 {
			m.EndOfUtteranceDelay = Ptr(r.eouDelay)
			m.TranscriptionDelay = Ptr(r.transcriptionDelay)
		}
		if r.toolUsed != "" {
			m.ToolUsed = Ptr(r.toolUsed)
		}
		if r.errorMessage != "" {
			m.ErrorMessage = Ptr(r.errorMessage)
		}
		out = append(out, Record{
			ID:           r.id,
			Timestamp:    now.Add(-time.Duration(r.ageMin) * time.Minute).UTC(),
			SessionID:    "session-001",
			MessageType:  MessageType(r.typ),
			Message:      r.message,
			ResponseTime: r.responseTime,
			TokenCount:   r.tokens,
			Confidence:   r.confidence,
			Status:       Status(r.status),
			Metadata:     m,
		})
	}
	return out
}

// Seed appends recs to an empty store so that List returns them in the
// given order. A store that already holds records is left alone; the
// returned count is the number of records written.
func Seed(ctx context.Context, s Store, recs []Record) (int, error) {
	existing, err := s.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list existing: %w", err)
	}
	if len(existing) > 0 {
		return 0, nil
	}
	for i := len(recs) - 1; i >= 0; i-- {
		if err = s.Append(ctx, recs[i]); err != nil {
			return len(recs) - 1 - i, fmt.Errorf("append %s: %w", recs[i].ID, err)
		}
	}
	return len(recs), nil
}

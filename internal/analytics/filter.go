// Package analytics filters trace records and summarizes them for display.
// Filter and Aggregate are pure functions, safe to call from any goroutine.
package analytics

import (
	"net/url"
	"time"

	"github.com/hubenschmidt/asr-llm-tts-poc/calltrace/internal/trace"
)

// All is the criterion value that matches every record.
const All = "all"

// Criteria selects records by message type, status and age. Every field
// is either All or a value to match.
type Criteria struct {
	MessageType string `json:"messageType" yaml:"messageType"`
	Status      string `json:"status" yaml:"status"`
	DateRange   string `json:"dateRange" yaml:"dateRange"`
}

// AllCriteria matches every record.
func AllCriteria() Criteria {
	return Criteria{MessageType: All, Status: All, DateRange: All}
}

// dateRanges maps the recognized date range keys to their look-back window.
// Any other key matches everything.
var dateRanges = map[string]time.Duration{
	"1h":  time.Hour,
	"24h": 24 * time.Hour,
	"7d":  7 * 24 * time.Hour,
}

// CriteriaFromMap reads criteria from a key/value mapping; missing keys
// default to All.
func CriteriaFromMap(m map[string]string) Criteria {
	c := AllCriteria()
	if v, ok := m["messageType"]; ok {
		c.MessageType = v
	}
	if v, ok := m["status"]; ok {
		c.Status = v
	}
	if v, ok := m["dateRange"]; ok {
		c.DateRange = v
	}
	return c
}

// ParseCriteria reads criteria from URL query parameters; missing or empty
// parameters default to All.
func ParseCriteria(q url.Values) Criteria {
	m := map[string]string{}
	for _, key := range []string{"messageType", "status", "dateRange"} {
		if v := q.Get(key); v != "" {
			m[key] = v
		}
	}
	return CriteriaFromMap(m)
}

// Filter returns the records matching c, in their original order.
func Filter(recs []trace.Record, c Criteria) []trace.Record {
	return FilterAt(recs, c, time.Now())
}

// FilterAt is Filter with the date range cutoff computed from now.
func FilterAt(recs []trace.Record, c Criteria, now time.Time) []trace.Record {
	var cutoff time.Time
	window, hasWindow := dateRanges[c.DateRange]
	if hasWindow {
		cutoff = now.Add(-window)
	}

	out := make([]trace.Record, 0, len(recs))
	for _, r := range recs {
		if c.MessageType != All && string(r.MessageType) != c.MessageType {
			continue
		}
		if c.Status != All && string(r.Status) != c.Status {
			continue
		}
		if hasWindow && !r.Timestamp.After(cutoff) {
			continue
		}
		out = append(out, r)
	}
	return out
}

package trace

import (
	"context"
	"log/slog"
	"sync"

	"github.com/hubenschmidt/asr-llm-tts-poc/calltrace/internal/metrics"
)

// Lister returns every stored record, newest first.
type Lister interface {
	List(ctx context.Context) ([]Record, error)
}

// Appender inserts one record at the head of the store.
type Appender interface {
	Append(ctx context.Context, rec Record) error
}

// Store is the persistence contract for trace records.
type Store interface {
	Lister
	Appender
	Clear(ctx context.Context) error
}

// ListOrEmpty lists records, degrading to an empty slice on failure.
func ListOrEmpty(ctx context.Context, l Lister) []Record {
	recs, err := l.List(ctx)
	if err != nil {
		metrics.StoreErrors.WithLabelValues("list").Inc()
		slog.Warn("list call traces failed, returning empty", "error", err)
		return []Record{}
	}
	if recs == nil {
		return []Record{}
	}
	return recs
}

// MemoryStore keeps records in process memory.
type MemoryStore struct {
	mu      sync.Mutex
	records []Record
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) List(_ context.Context) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Record, len(s.records))
	copy(out, s.records)
	return out, nil
}

func (s *MemoryStore) Append(_ context.Context, rec Record) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if containsID(s.records, rec.ID) {
		return ErrDuplicateID
	}
	s.records = append([]Record{rec}, s.records...)
	return nil
}

func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	s.records = nil
	s.mu.Unlock()
	return nil
}

func containsID(recs []Record, id string) bool {
	for i := range recs {
		if recs[i].ID == id {
			return true
		}
	}
	return false
}

package trace

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/hubenschmidt/asr-llm-tts-poc/calltrace/internal/metrics"
)

const (
	defaultSubmitBuffer  = 64
	defaultSubmitTimeout = 10 * time.Second
)

// Submitter appends finished records asynchronously via a buffered channel.
// Submit never blocks the caller; outcomes are reported through logs and
// metrics only. All methods are nil-safe (no-op on nil receiver).
type Submitter struct {
	store   Appender
	timeout time.Duration
	ch      chan Record
	done    chan struct{}

	mu     sync.RWMutex
	closed bool
}

// SubmitterOptions tunes the queue. Zero values pick defaults.
type SubmitterOptions struct {
	Buffer  int
	Timeout time.Duration
}

// NewSubmitter starts a submitter writing to store. Must call Close when done.
func NewSubmitter(store Appender, opts SubmitterOptions) *Submitter {
	if opts.Buffer <= 0 {
		opts.Buffer = defaultSubmitBuffer
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultSubmitTimeout
	}
	s := &Submitter{
		store:   store,
		timeout: opts.Timeout,
		ch:      make(chan Record, opts.Buffer),
		done:    make(chan struct{}),
	}
	go s.drain()
	return s
}

func (s *Submitter) drain() {
	defer close(s.done)
	for rec := range s.ch {
		s.handle(rec)
	}
}

func (s *Submitter) handle(rec Record) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	start := time.Now()
	err := s.store.Append(ctx, rec)
	metrics.SubmitDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.Submissions.WithLabelValues("error").Inc()
		slog.Error("failed to save call trace", "session_id", rec.SessionID, "id", rec.ID, "error", err)
		return
	}
	metrics.Submissions.WithLabelValues("success").Inc()
	slog.Info("call trace saved", "session_id", rec.SessionID, "id", rec.ID)
}

// Submit queues rec for persistence. A full queue or a closed submitter
// drops the record (at-most-once delivery).
func (s *Submitter) Submit(rec Record) {
	if s == nil {
		return
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		metrics.Submissions.WithLabelValues("dropped").Inc()
		slog.Error("call trace dropped, submitter closed", "session_id", rec.SessionID)
		return
	}
	select {
	case s.ch <- rec:
	default:
		metrics.Submissions.WithLabelValues("dropped").Inc()
		slog.Error("call trace dropped, submit queue full", "session_id", rec.SessionID)
	}
}

// Close drains pending writes and shuts down the background goroutine.
func (s *Submitter) Close() {
	if s == nil {
		return
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		<-s.done
		return
	}
	s.closed = true
	close(s.ch)
	s.mu.Unlock()
	<-s.done
}

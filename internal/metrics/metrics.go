package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "conversation_connections_active",
		Help: "Currently open conversation WebSocket connections",
	})

	SessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "calltrace_sessions_active",
		Help: "Call-trace sessions currently accumulating messages",
	})

	SessionsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "calltrace_sessions_started_total",
		Help: "Sessions started, including ones that overwrote an active session",
	})

	SessionsDiscarded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "calltrace_sessions_discarded_total",
		Help: "Active sessions replaced by a new start before being ended",
	})

	SessionsEnded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "calltrace_sessions_ended_total",
		Help: "Sessions finalized into a trace record",
	})

	SessionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "calltrace_session_duration_seconds",
		Help:    "Wall-clock length of finalized sessions",
		Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
	})

	Messages = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "calltrace_messages_total",
		Help: "Messages added to active sessions by sender",
	}, []string{"sender"})

	InvalidState = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "calltrace_invalid_state_total",
		Help: "Operations skipped because the manager was in the wrong state",
	}, []string{"op"})

	Submissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "calltrace_submissions_total",
		Help: "Trace record submissions by result",
	}, []string{"result"})

	SubmitDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "calltrace_submit_duration_seconds",
		Help:    "Latency of appending a finished session to the store",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.2, 0.5, 1.0, 2.0, 5.0},
	})

	StoreErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "calltrace_store_errors_total",
		Help: "Persistence failures by operation",
	}, []string{"op"})
)

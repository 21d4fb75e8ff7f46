package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hubenschmidt/asr-llm-tts-poc/calltrace/internal/analytics"
	"github.com/hubenschmidt/asr-llm-tts-poc/calltrace/internal/trace"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize call traces",
	Long: `Show the analytics summary of the traces matching the filters.

Examples:
  tracectl stats                         # All traces
  tracectl stats --type agent -r 1h      # Agent replies in the last hour
  tracectl stats --watch 5s              # Re-render whenever traces change
  tracectl stats -o json                 # Criteria, totals and summary as JSON`,
	RunE: runStats,
}

// Flags
var (
	statsFilter criteriaFlags
	statsOutput string
	statsWatch  time.Duration
)

func init() {
	rootCmd.AddCommand(statsCmd)

	statsFilter.bind(statsCmd)
	statsCmd.Flags().StringVarP(&statsOutput, "output", "o", "table", "Output format: table, json, yaml")
	statsCmd.Flags().DurationVarP(&statsWatch, "watch", "w", 0, "Poll interval; re-render when the trace set changes")
}

func runStats(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()

	lister := &strictLister{l: newClient()}
	view := analytics.NewView(lister)
	view.SetCriteria(statsFilter.criteria())

	render := func(snap analytics.Snapshot) {
		if err := writeOutput(out, statsOutput, newStatsReport(snap), func() { renderSummary(out, snap) }); err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), err)
		}
	}

	if statsWatch <= 0 {
		snap := view.Load(ctx)
		if lister.err != nil {
			return fmt.Errorf("failed to fetch call traces: %w", lister.err)
		}
		return writeOutput(out, statsOutput, newStatsReport(snap), func() { renderSummary(out, snap) })
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return watch(ctx, view, statsWatch, render)
}

// strictLister remembers the last fetch error, which the view itself
// degrades to an empty record set.
type strictLister struct {
	l   trace.Lister
	err error
}

func (s *strictLister) List(ctx context.Context) ([]trace.Record, error) {
	recs, err := s.l.List(ctx)
	s.err = err
	return recs, err
}

// watch renders the current snapshot, then polls every interval and
// re-renders only when the view reports a change.
func watch(ctx context.Context, view *analytics.View, interval time.Duration, render func(analytics.Snapshot)) error {
	render(view.Load(ctx))
	cancel := view.Subscribe(render)
	defer cancel()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			view.Load(ctx)
		}
	}
}

type statsReport struct {
	Criteria analytics.Criteria `json:"criteria"`
	Total    int                `json:"total"`
	Stats    analytics.Summary  `json:"stats"`
}

func newStatsReport(snap analytics.Snapshot) statsReport {
	return statsReport{Criteria: snap.Criteria, Total: snap.Total, Stats: snap.Summary}
}

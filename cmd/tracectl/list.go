package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hubenschmidt/asr-llm-tts-poc/calltrace/internal/analytics"
	"github.com/hubenschmidt/asr-llm-tts-poc/calltrace/internal/trace"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List call traces",
	Long: `List call traces, newest first, optionally filtered.

Examples:
  tracectl list                          # Every trace as a table
  tracectl list --type session           # Finished conversation sessions
  tracectl list --status error -r 24h    # Errors in the last day
  tracectl list -o yaml                  # Full records as YAML`,
	RunE: runList,
}

// Flags
var (
	listFilter criteriaFlags
	listOutput string
	listLimit  int
)

func init() {
	rootCmd.AddCommand(listCmd)

	listFilter.bind(listCmd)
	listCmd.Flags().StringVarP(&listOutput, "output", "o", "table", "Output format: table, json, yaml")
	listCmd.Flags().IntVarP(&listLimit, "limit", "n", 0, "Show at most n traces (0 for all)")
}

func runList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	recs, err := newClient().List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list call traces: %w", err)
	}
	recs = analytics.Filter(recs, listFilter.criteria())
	if listLimit > 0 && len(recs) > listLimit {
		recs = recs[:listLimit]
	}

	out := cmd.OutOrStdout()
	return writeOutput(out, listOutput, recsOrEmpty(recs), func() { renderTable(out, recs) })
}

func recsOrEmpty(recs []trace.Record) []trace.Record {
	if recs == nil {
		return []trace.Record{}
	}
	return recs
}

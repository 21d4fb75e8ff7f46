package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/hubenschmidt/asr-llm-tts-poc/calltrace/internal/analytics"
	"github.com/hubenschmidt/asr-llm-tts-poc/calltrace/internal/env"
	"github.com/hubenschmidt/asr-llm-tts-poc/calltrace/internal/trace"
)

var rootCmd = &cobra.Command{
	Use:   "tracectl",
	Short: "Inspect and manage call traces on a running gateway",
	Long: `tracectl reads call traces from the gateway's call-trace API, filters them,
and summarizes them the way the analytics screen does.

Key commands:
  tracectl list     List traces (table, json or yaml)
  tracectl stats    Summarize traces, optionally re-rendering on change
  tracectl clear    Delete every stored trace`,
	SilenceUsage: true,
}

// Global flags
var (
	gatewayURL     string
	requestTimeout time.Duration
)

func init() {
	rootCmd.PersistentFlags().StringVar(&gatewayURL, "gateway", env.Str("TRACECTL_GATEWAY", "http://localhost:8000"), "Gateway base URL")
	rootCmd.PersistentFlags().DurationVar(&requestTimeout, "timeout", 10*time.Second, "Per-request timeout")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newClient() *trace.Client {
	return trace.NewClient(gatewayURL, 2, requestTimeout)
}

// criteriaFlags binds the filter flags shared by list and stats.
type criteriaFlags struct {
	messageType string
	status      string
	dateRange   string
}

func (f *criteriaFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.messageType, "type", "t", analytics.All, "Message type: user, agent, system, session, all")
	cmd.Flags().StringVarP(&f.status, "status", "s", analytics.All, "Status: success, error, pending, all")
	cmd.Flags().StringVarP(&f.dateRange, "range", "r", analytics.All, "Date range: 1h, 24h, 7d, all")
}

func (f *criteriaFlags) criteria() analytics.Criteria {
	return analytics.CriteriaFromMap(map[string]string{
		"messageType": f.messageType,
		"status":      f.status,
		"dateRange":   f.dateRange,
	})
}

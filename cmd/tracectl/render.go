package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"gopkg.in/yaml.v3"

	"github.com/hubenschmidt/asr-llm-tts-poc/calltrace/internal/analytics"
	"github.com/hubenschmidt/asr-llm-tts-poc/calltrace/internal/trace"
)

const messageWidth = 48

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	failStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

func statusStyle(s trace.Status) lipgloss.Style {
	switch s {
	case trace.StatusSuccess:
		return successStyle
	case trace.StatusError:
		return failStyle
	default:
		return warnStyle
	}
}

func renderTable(w io.Writer, recs []trace.Record) {
	if len(recs) == 0 {
		fmt.Fprintln(w, dimStyle.Render("No call traces found."))
		return
	}
	rows := make([][]string, 0, len(recs))
	for _, r := range recs {
		rows = append(rows, []string{
			r.Timestamp.Local().Format("2006-01-02 15:04:05"),
			r.SessionID,
			string(r.MessageType),
			statusStyle(r.Status).Render(string(r.Status)),
			strconv.FormatInt(r.ResponseTime, 10),
			strconv.Itoa(r.TokenCount),
			fmt.Sprintf("%.2f", r.Confidence),
			truncate(r.Message, messageWidth),
		})
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(dimStyle).
		Headers("TIME", "SESSION", "TYPE", "STATUS", "RT MS", "TOKENS", "CONF", "MESSAGE").
		Rows(rows...)
	fmt.Fprintln(w, t.Render())
	fmt.Fprintln(w, dimStyle.Render(fmt.Sprintf("%d traces", len(recs))))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func renderSummary(w io.Writer, snap analytics.Snapshot) {
	s := snap.Summary
	c := snap.Criteria

	fmt.Fprintln(w, titleStyle.Render("Call Trace Analytics"))
	fmt.Fprintln(w, dimStyle.Render(fmt.Sprintf("type=%s status=%s range=%s · %d of %d traces",
		c.MessageType, c.Status, c.DateRange, s.TotalTraces, snap.Total)))
	fmt.Fprintln(w)

	fmt.Fprintf(w, "  Success rate:      %s\n", rateStyle(s.SuccessRate).Render(fmt.Sprintf("%.1f%%", s.SuccessRate)))
	fmt.Fprintf(w, "  Outcomes:          %s / %s / %s\n",
		successStyle.Render(fmt.Sprintf("%d success", s.SuccessCount)),
		failStyle.Render(fmt.Sprintf("%d error", s.ErrorCount)),
		warnStyle.Render(fmt.Sprintf("%d pending", s.PendingCount)))
	fmt.Fprintf(w, "  Messages:          %d user / %d agent / %d system\n", s.UserMessages, s.AgentMessages, s.SystemMessages)
	fmt.Fprintf(w, "  Avg response time: %dms\n", s.AvgResponseTime)
	fmt.Fprintf(w, "  Avg confidence:    %.2f\n", s.AvgConfidence)
	fmt.Fprintf(w, "  Total tokens:      %d\n", s.TotalTokens)
	fmt.Fprintf(w, "  Avg TTFT:          %dms\n", s.AvgTTFT)
	fmt.Fprintf(w, "  Tokens/sec:        %.1f\n", s.AvgTokensPerSecond)
	fmt.Fprintf(w, "  Audio:             %ds\n", s.TotalAudioDuration)
	fmt.Fprintf(w, "  Tool calls:        %d\n", s.ToolUsage)

	if len(s.LanguageBreakdown) == 0 {
		return
	}
	langs := make([]string, 0, len(s.LanguageBreakdown))
	for l := range s.LanguageBreakdown {
		langs = append(langs, l)
	}
	sort.Strings(langs)
	fmt.Fprintln(w, "  Languages:")
	for _, l := range langs {
		fmt.Fprintf(w, "    %-8s %d\n", l, s.LanguageBreakdown[l])
	}
}

func rateStyle(rate float64) lipgloss.Style {
	switch {
	case rate >= 90:
		return successStyle
	case rate >= 70:
		return warnStyle
	default:
		return failStyle
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeYAML emits v's JSON form as block YAML, so field names and order
// match the API.
func writeYAML(w io.Writer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var node yaml.Node
	if err = yaml.Unmarshal(data, &node); err != nil {
		return err
	}
	blockStyle(&node)
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err = enc.Encode(&node); err != nil {
		return err
	}
	return enc.Close()
}

func blockStyle(n *yaml.Node) {
	if n.Kind == yaml.MappingNode || n.Kind == yaml.SequenceNode {
		n.Style = 0
	}
	if n.Kind == yaml.ScalarNode && n.Style == yaml.DoubleQuotedStyle {
		n.Style = 0
	}
	for _, c := range n.Content {
		blockStyle(c)
	}
}

func writeOutput(w io.Writer, format string, v any, text func()) error {
	switch format {
	case "json":
		return writeJSON(w, v)
	case "yaml":
		return writeYAML(w, v)
	case "table", "":
		text()
		return nil
	default:
		return fmt.Errorf("unknown output format %q (use table, json or yaml)", format)
	}
}

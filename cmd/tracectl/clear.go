package main

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every stored call trace",
	Long: `Delete every stored call trace on the gateway.

Examples:
  tracectl clear          # Asks for confirmation
  tracectl clear --yes    # No prompt`,
	RunE: runClear,
}

var clearYes bool

func init() {
	rootCmd.AddCommand(clearCmd)

	clearCmd.Flags().BoolVarP(&clearYes, "yes", "y", false, "Skip the confirmation prompt")
}

func runClear(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()

	if !clearYes {
		fmt.Fprintf(out, "%s Delete all call traces on %s? [y/N] ", warnStyle.Render("Warning:"), gatewayURL)
		answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if a := strings.ToLower(strings.TrimSpace(answer)); a != "y" && a != "yes" {
			fmt.Fprintln(out, dimStyle.Render("Aborted."))
			return nil
		}
	}

	if err := newClient().Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear call traces: %w", err)
	}
	fmt.Fprintln(out, successStyle.Render("✓ All call traces cleared"))
	return nil
}

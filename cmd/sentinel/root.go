package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "sentinel",
	Short: "Sentinel - a governance decision engine for autonomous agents",
	Long: `Sentinel sits between autonomous AI agents and the tools they call. It
evaluates every tool call against a policy, records the decision in a
tamper-evident, hash-chained audit log, and provides:

  - Deterministic policy evaluation (allow / deny / requires-approval)
  - A SHA-256 hash-chained, append-only audit log
  - A global and per-tenant kill switch
  - A two-phase human-approval workflow for sensitive tool calls
  - W3C trace-context propagation across every event and audit record

For more information, visit: https://github.com/wardenhq/sentinel`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.CompletionOptions.DisableDefaultCmd = false
}

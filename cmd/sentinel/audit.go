package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"wardenhq/sentinel/pkg/cli"
	"wardenhq/sentinel/pkg/store"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Query, verify, and export the hash-chained audit log",
}

var auditFlags struct {
	agentID   string
	tool      string
	result    string
	search    string
	timeRange string
	sortOrder string
	limit     int
	offset    int
	format    string
	output    string
}

var auditQueryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query audit records",
	Long: `Query the audit log with the same filters store.AuditQuery exposes.

Time Range Format:
  RFC3339 interval: "start/end"
  Example: "2026-08-01T00:00:00Z/2026-08-02T00:00:00Z"`,
	RunE: runAuditQuery,
}

var auditVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify the audit log's SHA-256 hash chain",
	RunE:  runAuditVerify,
}

var auditExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export audit records as NDJSON",
	RunE:  runAuditExport,
}

func init() {
	rootCmd.AddCommand(auditCmd)
	auditCmd.AddCommand(auditQueryCmd, auditVerifyCmd, auditExportCmd)

	for _, c := range []*cobra.Command{auditQueryCmd, auditVerifyCmd, auditExportCmd} {
		c.Flags().StringVar(&auditFlags.agentID, "agent", "", "filter by agent id")
		c.Flags().StringVar(&auditFlags.tool, "tool", "", "filter by tool name")
		c.Flags().StringVar(&auditFlags.result, "result", "", "filter by result: allowed, denied")
		c.Flags().StringVar(&auditFlags.timeRange, "time-range", "", "time range (RFC3339 interval: start/end)")
	}

	auditQueryCmd.Flags().StringVar(&auditFlags.search, "search", "", "free-text search over reason and parameters")
	auditQueryCmd.Flags().StringVar(&auditFlags.sortOrder, "sort", "desc", "sort order: asc, desc")
	auditQueryCmd.Flags().IntVar(&auditFlags.limit, "limit", 100, "max results")
	auditQueryCmd.Flags().IntVar(&auditFlags.offset, "offset", 0, "pagination offset")
	auditQueryCmd.Flags().StringVar(&auditFlags.format, "output", "text", "output format: text, json, csv")

	auditExportCmd.Flags().StringVarP(&auditFlags.output, "file", "o", "", "output file (default: stdout)")
}

func buildAuditQueryFromFlags() (store.AuditQuery, error) {
	q := store.AuditQuery{
		AgentID:   auditFlags.agentID,
		Tool:      auditFlags.tool,
		Result:    auditFlags.result,
		Search:    auditFlags.search,
		SortOrder: auditFlags.sortOrder,
		Limit:     auditFlags.limit,
		Offset:    auditFlags.offset,
	}
	if auditFlags.timeRange != "" {
		parts := strings.Split(auditFlags.timeRange, "/")
		if len(parts) != 2 {
			return q, fmt.Errorf("invalid time range format (expected: start/end)")
		}
		start, err := time.Parse(time.RFC3339, parts[0])
		if err != nil {
			return q, fmt.Errorf("invalid start time: %w", err)
		}
		end, err := time.Parse(time.RFC3339, parts[1])
		if err != nil {
			return q, fmt.Errorf("invalid end time: %w", err)
		}
		q.StartTime = &start
		q.EndTime = &end
	}
	return q, nil
}

func runAuditQuery(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	q, err := buildAuditQueryFromFlags()
	if err != nil {
		return err
	}

	records, err := rt.recorder.Query(context.Background(), q)
	if err != nil {
		return cli.NewCommandError("audit query", err)
	}

	formatter := cli.NewFormatter(cli.OutputFormat(auditFlags.format))
	return formatter.FormatTo(cmd.OutOrStdout(), records)
}

func runAuditVerify(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	q, err := buildAuditQueryFromFlags()
	if err != nil {
		return err
	}
	q.Limit = store.MaxQueryLimit

	result, err := rt.recorder.VerifyChain(context.Background(), q)
	if err != nil {
		return cli.NewCommandError("audit verify", err)
	}

	if result.Valid {
		fmt.Printf("chain valid: %d records verified\n", result.VerifiedEvents)
		return nil
	}
	fmt.Printf("chain BROKEN at record id %d (%d of %d records verified)\n", result.BrokenAt, result.VerifiedEvents, result.TotalEvents)
	os.Exit(1)
	return nil
}

func runAuditExport(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	q, err := buildAuditQueryFromFlags()
	if err != nil {
		return err
	}
	q.Limit = store.MaxQueryLimit
	q.SortOrder = "asc"

	out := os.Stdout
	if auditFlags.output != "" {
		f, err := os.Create(auditFlags.output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	count, err := rt.recorder.ExportNDJSON(context.Background(), q, out)
	if err != nil {
		return cli.NewCommandError("audit export", err)
	}
	fmt.Fprintf(os.Stderr, "exported %d records\n", count)
	return nil
}

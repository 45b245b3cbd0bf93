package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"wardenhq/sentinel/pkg/cli"
	"wardenhq/sentinel/pkg/orchestrator"
)

var evaluateFlags struct {
	agentID string
	tool    string
	params  []string
	traceID string
	format  string
}

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Run a single tool call through the decision pipeline",
	Long: `Evaluates one tool call exactly as the orchestrator would on behalf of a
running agent: kill-switch check, policy resolution, rule matching, approval
interception, event emission, and audit write, in that order.

Examples:
  sentinel evaluate --agent agent-42 --tool send_email
  sentinel evaluate --agent agent-42 --tool db.write --param table=users --param rows=500`,
	RunE: runEvaluate,
}

func init() {
	rootCmd.AddCommand(evaluateCmd)

	evaluateCmd.Flags().StringVar(&evaluateFlags.agentID, "agent", "", "agent id (required)")
	evaluateCmd.Flags().StringVar(&evaluateFlags.tool, "tool", "", "tool name (required)")
	evaluateCmd.Flags().StringArrayVar(&evaluateFlags.params, "param", nil, "key=value parameter, repeatable; numeric values are parsed as numbers")
	evaluateCmd.Flags().StringVar(&evaluateFlags.traceID, "trace-id", "", "propagate an existing W3C trace-id instead of generating one")
	evaluateCmd.Flags().StringVar(&evaluateFlags.format, "output", "text", "output format: text, json")
	evaluateCmd.MarkFlagRequired("agent")
	evaluateCmd.MarkFlagRequired("tool")
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	params, err := parseParams(evaluateFlags.params)
	if err != nil {
		return err
	}

	result, err := rt.orchestrator.Evaluate(context.Background(), orchestrator.Request{
		AgentID:    evaluateFlags.agentID,
		Tool:       evaluateFlags.tool,
		Parameters: params,
		TraceID:    evaluateFlags.traceID,
	})
	if err != nil {
		return cli.NewCommandError("evaluate", err)
	}

	if evaluateFlags.format == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	printEvaluateResult(result)
	return nil
}

func printEvaluateResult(result orchestrator.Result) {
	switch {
	case result.RequiresApproval:
		fmt.Printf("requires-approval (approval id: %s, deadline: %s)\n", result.ApprovalID, result.Deadline.Format("2006-01-02T15:04:05Z07:00"))
	case result.Allowed:
		fmt.Println("allow")
	default:
		fmt.Println("deny")
	}
	if result.Reason != "" {
		fmt.Printf("reason: %s\n", result.Reason)
	}
	fmt.Printf("trace-id: %s\n", result.TraceID)
	for _, ar := range result.AppliedRules {
		name := ar.Rule.Name
		if name == "" {
			name = ar.Rule.ToolPattern
		}
		fmt.Printf("applied rule: %s (effect=%s specificity=%d)\n", name, ar.Rule.Effect, ar.Specificity)
	}
}

// parseParams turns a list of key=value strings into a parameter map,
// attempting a numeric parse for each value and falling back to string.
func parseParams(kvs []string) (map[string]any, error) {
	if len(kvs) == 0 {
		return nil, nil
	}
	params := make(map[string]any, len(kvs))
	for _, kv := range kvs {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid --param %q: expected key=value", kv)
		}
		params[parts[0]] = parseParamValue(parts[1])
	}
	return params, nil
}

func parseParamValue(s string) any {
	var f float64
	if _, err := fmt.Sscanf(s, "%g", &f); err == nil && fmt.Sprintf("%g", f) == s {
		return f
	}
	switch s {
	case "true":
		return true
	case "false":
		return false
	}
	return s
}

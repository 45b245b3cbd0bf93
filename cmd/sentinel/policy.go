package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"wardenhq/sentinel/pkg/cli"
	"wardenhq/sentinel/pkg/policy"
)

var policyCmd = &cobra.Command{
	Use:   "policy",
	Short: "Manage policies",
	Long: `Load, list, inspect, and delete the named, versioned rule sets the
orchestrator resolves a decision against.`,
}

var policyFlags struct {
	file    string
	agentID string
	name    string
	id      int64
	format  string
}

var policyUpsertCmd = &cobra.Command{
	Use:   "upsert",
	Short: "Create or update a policy from a YAML file",
	Long: `Reads a policy document from --file and persists it as a new version.
Uploading a policy with a name that already exists creates a new version and
supersedes the previously active one for that agent scope.

Policy YAML shape:

  name: gate-prod-writes
  agentId: agent-42       # optional; empty means "applies to any agent"
  rules:
    - name: approve-db-write
      toolPattern: "db.write"   # an exact tool name, or "*" for any tool
      effect: allow
      reason: "production writes require approval"
      requireApproval: true
    - toolPattern: "*"
      effect: allow`,
	RunE: runPolicyUpsert,
}

var policyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the active policy for each agent scope, or one agent with --agent",
	RunE:  runPolicyList,
}

var policyHistoryCmd = &cobra.Command{
	Use:   "history <name>",
	Short: "Show every persisted version of a named policy",
	Args:  cobra.ExactArgs(1),
	RunE:  runPolicyHistory,
}

var policyDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete a policy version by id",
	RunE:  runPolicyDelete,
}

func init() {
	rootCmd.AddCommand(policyCmd)
	policyCmd.AddCommand(policyUpsertCmd, policyListCmd, policyHistoryCmd, policyDeleteCmd)

	policyUpsertCmd.Flags().StringVar(&policyFlags.file, "file", "", "path to a policy YAML file (required)")
	policyUpsertCmd.MarkFlagRequired("file")

	policyListCmd.Flags().StringVar(&policyFlags.agentID, "agent", "", "restrict to one agent's policy scope")
	policyListCmd.Flags().StringVar(&policyFlags.format, "output", "text", "output format: text, json, csv")

	policyDeleteCmd.Flags().Int64Var(&policyFlags.id, "id", 0, "policy version id to delete (required)")
	policyDeleteCmd.MarkFlagRequired("id")
}

func runPolicyUpsert(cmd *cobra.Command, args []string) error {
	raw, err := os.ReadFile(policyFlags.file)
	if err != nil {
		return fmt.Errorf("failed to read policy file: %w", err)
	}

	// policy.Policy carries JSON field names (agentId, toolPattern, ...), so
	// the YAML document is decoded generically and read back through them.
	var doc map[string]any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("failed to parse policy YAML: %w", err)
	}
	asJSON, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to parse policy YAML: %w", err)
	}
	var p policy.Policy
	if err := json.Unmarshal(asJSON, &p); err != nil {
		return fmt.Errorf("failed to parse policy YAML: %w", err)
	}
	if err := policy.Validate(&p); err != nil {
		return cli.NewCommandError("policy upsert", err)
	}

	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	rec, err := rt.store.UpsertPolicy(context.Background(), p)
	if err != nil {
		return cli.NewCommandError("policy upsert", err)
	}
	fmt.Printf("upserted policy %q version %d (id=%d)\n", p.Name, p.Version, rec.ID)
	return nil
}

func runPolicyList(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	records, err := rt.store.ListPolicies(context.Background(), policyFlags.agentID)
	if err != nil {
		return cli.NewCommandError("policy list", err)
	}

	formatter := cli.NewFormatter(cli.OutputFormat(policyFlags.format))
	return formatter.FormatTo(cmd.OutOrStdout(), records)
}

func runPolicyHistory(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	records, err := rt.store.PolicyHistory(context.Background(), args[0])
	if err != nil {
		return cli.NewCommandError("policy history", err)
	}

	formatter := cli.NewFormatter(cli.OutputFormat(policyFlags.format))
	return formatter.FormatTo(cmd.OutOrStdout(), records)
}

func runPolicyDelete(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	if err := rt.store.DeletePolicy(context.Background(), policyFlags.id); err != nil {
		return cli.NewCommandError("policy delete", err)
	}
	fmt.Printf("deleted policy version %d\n", policyFlags.id)
	return nil
}

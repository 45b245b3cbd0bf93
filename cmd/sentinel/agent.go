package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"wardenhq/sentinel/pkg/agent"
	"wardenhq/sentinel/pkg/cli"
)

var agentCmd = &cobra.Command{
	Use:   "agent",
	Short: "Manage the agent registry",
	Long: `Register, inspect, and retire the agents a policy can be scoped to and an
audit record can attribute a tool call to.`,
}

var agentFlags struct {
	id           string
	name         string
	description  string
	metadata     []string
	allowedTools []string
	policyName   string
	status       string
	format       string
}

var agentRegisterCmd = &cobra.Command{
	Use:   "register",
	Short: "Register a new agent",
	RunE:  runAgentRegister,
}

var agentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered agents",
	RunE:  runAgentList,
}

var agentStatusCmd = &cobra.Command{
	Use:   "status <id>",
	Short: "Show or change an agent's lifecycle status",
	Args:  cobra.ExactArgs(1),
	RunE:  runAgentStatus,
}

func init() {
	rootCmd.AddCommand(agentCmd)
	agentCmd.AddCommand(agentRegisterCmd, agentListCmd, agentStatusCmd)

	agentRegisterCmd.Flags().StringVar(&agentFlags.id, "id", "", "agent id (required)")
	agentRegisterCmd.Flags().StringVar(&agentFlags.name, "name", "", "agent display name (required)")
	agentRegisterCmd.Flags().StringVar(&agentFlags.description, "description", "", "agent description")
	agentRegisterCmd.Flags().StringArrayVar(&agentFlags.metadata, "metadata", nil, "key=value metadata, repeatable")
	agentRegisterCmd.Flags().StringArrayVar(&agentFlags.allowedTools, "allowed-tool", nil, "tool this agent may call, repeatable")
	agentRegisterCmd.Flags().StringVar(&agentFlags.policyName, "policy-name", "", "policy this agent is scoped to")
	agentRegisterCmd.MarkFlagRequired("id")
	agentRegisterCmd.MarkFlagRequired("name")

	agentListCmd.Flags().StringVar(&agentFlags.format, "output", "text", "output format: text, json, csv")

	agentStatusCmd.Flags().StringVar(&agentFlags.status, "set", "", "transition the agent to this status: registered, running, stopped, error")
}

func runAgentRegister(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	metadata := map[string]string{}
	for _, kv := range agentFlags.metadata {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid --metadata %q: expected key=value", kv)
		}
		metadata[parts[0]] = parts[1]
	}

	a := agent.Agent{
		ID:           agentFlags.id,
		Name:         agentFlags.name,
		Description:  agentFlags.description,
		AllowedTools: agentFlags.allowedTools,
		PolicyName:   agentFlags.policyName,
		Status:       agent.StatusRegistered,
		Metadata:     metadata,
	}
	if err := agent.Validate(a); err != nil {
		return cli.NewCommandError("agent register", err)
	}

	created, err := rt.store.RegisterAgent(context.Background(), a)
	if err != nil {
		return cli.NewCommandError("agent register", err)
	}
	fmt.Printf("registered agent %s (%s)\n", created.ID, created.Name)
	return nil
}

func runAgentList(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	agents, err := rt.store.ListAgents(context.Background())
	if err != nil {
		return cli.NewCommandError("agent list", err)
	}

	formatter := cli.NewFormatter(cli.OutputFormat(agentFlags.format))
	return formatter.FormatTo(cmd.OutOrStdout(), agents)
}

func runAgentStatus(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx := context.Background()
	id := args[0]

	current, err := rt.store.GetAgent(ctx, id)
	if err != nil {
		return cli.NewCommandError("agent status", err)
	}
	if current == nil {
		return fmt.Errorf("agent %q not found", id)
	}

	if agentFlags.status == "" {
		fmt.Printf("agent %s: status=%s updated=%s\n", current.ID, current.Status, current.UpdatedAt.Format(time.RFC3339))
		return nil
	}

	next := agent.Status(agentFlags.status)
	if err := rt.store.UpdateAgentStatus(ctx, id, next); err != nil {
		return cli.NewCommandError("agent status", err)
	}
	fmt.Printf("agent %s transitioned: %s -> %s\n", id, current.Status, next)
	return nil
}

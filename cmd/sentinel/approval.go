package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"wardenhq/sentinel/pkg/cli"
)

var approvalCmd = &cobra.Command{
	Use:   "approval",
	Short: "List and resolve pending human-approval requests",
}

var approvalFlags struct {
	status   string
	approver string
	comment  string
	format   string
}

var approvalListCmd = &cobra.Command{
	Use:   "list",
	Short: "List approval requests",
	RunE:  runApprovalList,
}

var approvalResolveCmd = &cobra.Command{
	Use:   "resolve <id>",
	Short: "Resolve a pending approval request",
	Long: `Resolves a pending approval request with a human decision. --status must
be one of: approved, rejected. Resolution is an optimistic conditional
update: resolving a request that has already expired or been resolved by
someone else reports that it was not resolved here.`,
	Args: cobra.ExactArgs(1),
	RunE: runApprovalResolve,
}

func init() {
	rootCmd.AddCommand(approvalCmd)
	approvalCmd.AddCommand(approvalListCmd, approvalResolveCmd)

	approvalListCmd.Flags().StringVar(&approvalFlags.status, "status", "pending", "filter by status: pending, granted, rejected, timeout")
	approvalListCmd.Flags().StringVar(&approvalFlags.format, "output", "text", "output format: text, json, csv")

	approvalResolveCmd.Flags().StringVar(&approvalFlags.status, "status", "", "resolution: approved, rejected (required)")
	approvalResolveCmd.Flags().StringVar(&approvalFlags.approver, "approver", "", "identity of the human resolving this request (required)")
	approvalResolveCmd.Flags().StringVar(&approvalFlags.comment, "comment", "", "optional resolution comment")
	approvalResolveCmd.MarkFlagRequired("status")
	approvalResolveCmd.MarkFlagRequired("approver")
}

func runApprovalList(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	reqs, err := rt.approvals.List(context.Background(), approvalFlags.status)
	if err != nil {
		return cli.NewCommandError("approval list", err)
	}

	formatter := cli.NewFormatter(cli.OutputFormat(approvalFlags.format))
	return formatter.FormatTo(cmd.OutOrStdout(), reqs)
}

func runApprovalResolve(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	if approvalFlags.status != "approved" && approvalFlags.status != "rejected" {
		return fmt.Errorf("invalid --status %q: must be approved or rejected", approvalFlags.status)
	}

	resolved, result, err := rt.approvals.Resolve(context.Background(), args[0], approvalFlags.status, approvalFlags.approver, approvalFlags.comment)
	if err != nil {
		return cli.NewCommandError("approval resolve", err)
	}
	if !resolved {
		fmt.Printf("approval %s was not resolved: already in terminal state %q\n", args[0], result.Status)
		return nil
	}
	fmt.Printf("approval %s resolved: %s\n", result.ID, result.Status)
	return nil
}

// Sentinel is a governance decision engine interposed between autonomous
// AI agents and the tools they call. It evaluates each tool call against
// a policy, records every decision in a tamper-evident audit log, and
// exposes a kill switch and a human-approval workflow for anything a
// policy marks as sensitive.
//
// Usage:
//
//	# Initialize the configured storage backend
//	sentinel migrate
//
//	# Register an agent
//	sentinel agent register --id agent-42 --name "support-bot"
//
//	# Load a policy from file
//	sentinel policy upsert --file policy.yaml
//
//	# Evaluate a single tool call against the active policy
//	sentinel evaluate --agent agent-42 --tool send_email --param to=a@b.com
//
//	# Query the audit log
//	sentinel audit query --agent agent-42 --limit 20
//
//	# Verify the audit log's hash chain
//	sentinel audit verify
//
//	# List and resolve pending approvals
//	sentinel approval list --status pending
//	sentinel approval resolve <id> --status approved --approver alice
//
//	# Trip or reset the kill switch
//	sentinel killswitch activate --reason "incident-142"
//	sentinel killswitch reset
//
// For complete documentation, see: https://github.com/wardenhq/sentinel
package main

func main() {
	Execute()
}

// Package agent defines the AI-agent entity spec.md §4.1 describes: an
// identity a policy can be scoped to and an audit record can attribute a
// tool call to. Registration and status bookkeeping follow the
// name-keyed registry pattern in pkg/providerfactory/manager.go, narrowed
// from a live provider handle to a plain persisted record.
package agent

import (
	"time"

	"wardenhq/sentinel/pkg/gerr"
)

// Status is an agent's current lifecycle state (spec.md §3).
type Status string

const (
	StatusRegistered Status = "registered"
	StatusRunning    Status = "running"
	StatusStopped    Status = "stopped"
	StatusError      Status = "error"
)

// Agent is a registered principal that tool calls are evaluated on behalf
// of (spec.md §3).
type Agent struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Description  string            `json:"description,omitempty"`
	AllowedTools []string          `json:"allowedTools,omitempty"`
	PolicyName   string            `json:"policyName,omitempty"`
	Status       Status            `json:"status"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	CreatedAt    time.Time         `json:"createdAt"`
	UpdatedAt    time.Time         `json:"updatedAt"`
	LastActiveAt *time.Time        `json:"lastActiveAt,omitempty"`
}

// Validate checks the structural invariants required before Agent can be
// persisted.
func Validate(a Agent) error {
	if a.ID == "" {
		return gerr.New(gerr.CodeInvalidRequest, "agent id is required", nil)
	}
	if a.Name == "" {
		return gerr.New(gerr.CodeInvalidRequest, "agent name is required", nil)
	}
	switch a.Status {
	case StatusRegistered, StatusRunning, StatusStopped, StatusError, "":
	default:
		return gerr.New(gerr.CodeInvalidRequest, "unknown agent status", map[string]any{"status": a.Status})
	}
	return nil
}

// CanTransition reports whether moving an agent from `from` to `to` is
// possible. Status transitions are free-form per spec.md §3 — the only
// illegal move is one starting from a status the registry doesn't know
// about a live agent for, which UpdateAgentStatus's AGENT_NOT_FOUND check
// already handles upstream of this call.
func CanTransition(from, to Status) bool {
	return true
}

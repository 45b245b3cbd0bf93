package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"wardenhq/sentinel/pkg/agent"
	"wardenhq/sentinel/pkg/gerr"
)

func (s *Store) RegisterAgent(ctx context.Context, a agent.Agent) (agent.Agent, error) {
	if err := agent.Validate(a); err != nil {
		return agent.Agent{}, err
	}
	if a.Status == "" {
		a.Status = agent.StatusRegistered
	}
	now := time.Now().UTC()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now

	metadata, err := json.Marshal(a.Metadata)
	if err != nil {
		return agent.Agent{}, gerr.New(gerr.CodeInvalidRequest, "failed to marshal agent metadata", nil).Wrap(err)
	}
	allowedTools, err := json.Marshal(a.AllowedTools)
	if err != nil {
		return agent.Agent{}, gerr.New(gerr.CodeInvalidRequest, "failed to marshal agent allowed tools", nil).Wrap(err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO agents (id, name, description, allowed_tools, policy_name, status, metadata, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name, description = excluded.description,
			allowed_tools = excluded.allowed_tools, policy_name = excluded.policy_name,
			status = excluded.status, metadata = excluded.metadata, updated_at = excluded.updated_at`,
		a.ID, a.Name, a.Description, string(allowedTools), a.PolicyName, string(a.Status), string(metadata), a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return agent.Agent{}, gerr.New(gerr.CodeDatabaseRequired, "failed to register agent", nil).Wrap(err)
	}
	return a, nil
}

func (s *Store) GetAgent(ctx context.Context, id string) (*agent.Agent, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, name, description, allowed_tools, policy_name, status, metadata, created_at, updated_at, last_active_at FROM agents WHERE id = ?`, id)
	a, err := scanAgentRow(row)
	if err == sql.ErrNoRows {
		return nil, gerr.New(gerr.CodeAgentNotFound, "agent not found", map[string]any{"id": id})
	}
	if err != nil {
		return nil, gerr.New(gerr.CodeDatabaseRequired, "failed to read agent", nil).Wrap(err)
	}
	return &a, nil
}

// UpdateAgentStatus sets an agent's status. Transitions are free-form
// (spec.md §3); the only requirement is that the agent exists.
func (s *Store) UpdateAgentStatus(ctx context.Context, id string, status agent.Status) error {
	if _, err := s.GetAgent(ctx, id); err != nil {
		return err
	}
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `UPDATE agents SET status = ?, updated_at = ?, last_active_at = ? WHERE id = ?`, string(status), now, now, id)
	if err != nil {
		return gerr.New(gerr.CodeDatabaseRequired, "failed to update agent status", nil).Wrap(err)
	}
	return nil
}

func (s *Store) ListAgents(ctx context.Context) ([]agent.Agent, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, description, allowed_tools, policy_name, status, metadata, created_at, updated_at, last_active_at FROM agents ORDER BY id`)
	if err != nil {
		return nil, gerr.New(gerr.CodeDatabaseRequired, "failed to list agents", nil).Wrap(err)
	}
	defer rows.Close()

	var out []agent.Agent
	for rows.Next() {
		a, err := scanAgentRow(rows)
		if err != nil {
			return nil, gerr.New(gerr.CodeDatabaseRequired, "failed to scan agent row", nil).Wrap(err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) DeleteAgent(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM agents WHERE id = ?`, id)
	if err != nil {
		return gerr.New(gerr.CodeDatabaseRequired, "failed to delete agent", nil).Wrap(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return gerr.New(gerr.CodeDatabaseRequired, "failed to confirm agent delete", nil).Wrap(err)
	}
	if n == 0 {
		return gerr.New(gerr.CodeAgentNotFound, "agent not found", map[string]any{"id": id})
	}
	return nil
}

func scanAgentRow(row rowScanner) (agent.Agent, error) {
	var a agent.Agent
	var description, allowedTools, policyName, metadata sql.NullString
	var status string
	var lastActiveAt sql.NullTime
	if err := row.Scan(&a.ID, &a.Name, &description, &allowedTools, &policyName, &status, &metadata, &a.CreatedAt, &a.UpdatedAt, &lastActiveAt); err != nil {
		return agent.Agent{}, err
	}
	a.Description = description.String
	a.PolicyName = policyName.String
	a.Status = agent.Status(status)
	if allowedTools.Valid && allowedTools.String != "" {
		if err := json.Unmarshal([]byte(allowedTools.String), &a.AllowedTools); err != nil {
			return agent.Agent{}, err
		}
	}
	if metadata.Valid && metadata.String != "" {
		if err := json.Unmarshal([]byte(metadata.String), &a.Metadata); err != nil {
			return agent.Agent{}, err
		}
	}
	if lastActiveAt.Valid {
		t := lastActiveAt.Time
		a.LastActiveAt = &t
	}
	return a, nil
}

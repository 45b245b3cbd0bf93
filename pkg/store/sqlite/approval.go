package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"wardenhq/sentinel/pkg/gerr"
	"wardenhq/sentinel/pkg/store"
)

func (s *Store) CreateApprovalRequest(ctx context.Context, req store.ApprovalRequest) (store.ApprovalRequest, error) {
	if req.Status == "" {
		req.Status = "pending"
	}
	params, err := json.Marshal(req.Parameters)
	if err != nil {
		return store.ApprovalRequest{}, gerr.New(gerr.CodeInvalidRequest, "failed to marshal approval parameters", nil).Wrap(err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO approval_requests (id, trace_id, agent_id, tool, parameters, policy_name, rule_name, status, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		req.ID, req.TraceID, req.AgentID, req.Tool, string(params), req.PolicyName, req.RuleName, req.Status, req.CreatedAt, req.ExpiresAt,
	)
	if err != nil {
		return store.ApprovalRequest{}, gerr.New(gerr.CodeDatabaseRequired, "failed to create approval request", nil).Wrap(err)
	}
	return req, nil
}

func (s *Store) GetApprovalRequest(ctx context.Context, id string) (*store.ApprovalRequest, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, trace_id, agent_id, tool, parameters, policy_name, rule_name, status, created_at, expires_at, resolved_at, resolved_by, reason
		FROM approval_requests WHERE id = ?`, id)
	req, err := scanApprovalRow(row)
	if err == sql.ErrNoRows {
		return nil, gerr.New(gerr.CodeVersionNotFound, "approval request not found", map[string]any{"id": id})
	}
	if err != nil {
		return nil, gerr.New(gerr.CodeDatabaseRequired, "failed to read approval request", nil).Wrap(err)
	}
	return &req, nil
}

func (s *Store) ListApprovalRequests(ctx context.Context, status string) ([]store.ApprovalRequest, error) {
	var rows *sql.Rows
	var err error
	base := `SELECT id, trace_id, agent_id, tool, parameters, policy_name, rule_name, status, created_at, expires_at, resolved_at, resolved_by, reason FROM approval_requests`
	if status == "" {
		rows, err = s.db.QueryContext(ctx, base+" ORDER BY created_at")
	} else {
		rows, err = s.db.QueryContext(ctx, base+" WHERE status = ? ORDER BY created_at", status)
	}
	if err != nil {
		return nil, gerr.New(gerr.CodeDatabaseRequired, "failed to list approval requests", nil).Wrap(err)
	}
	defer rows.Close()

	var out []store.ApprovalRequest
	for rows.Next() {
		req, err := scanApprovalRow(rows)
		if err != nil {
			return nil, gerr.New(gerr.CodeDatabaseRequired, "failed to scan approval row", nil).Wrap(err)
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

// ResolveApprovalRequest applies an optimistic conditional update: the
// WHERE clause only matches a still-pending row whose deadline hasn't
// passed unless the resolution itself is the timeout, so a racing
// lazy-timeout materialization and a racing late human decision can never
// both succeed.
func (s *Store) ResolveApprovalRequest(ctx context.Context, id string, resolution store.ApprovalResolution) (store.ApprovalRequest, error) {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		UPDATE approval_requests
		SET status = ?, resolved_at = ?, resolved_by = ?, reason = ?
		WHERE id = ? AND status = 'pending' AND (? = 'timeout' OR expires_at > ?)`,
		resolution.Status, now, resolution.ResolvedBy, resolution.Reason, id, resolution.Status, now,
	)
	if err != nil {
		return store.ApprovalRequest{}, gerr.New(gerr.CodeDatabaseRequired, "failed to resolve approval request", nil).Wrap(err)
	}
	if _, err := res.RowsAffected(); err != nil {
		return store.ApprovalRequest{}, gerr.New(gerr.CodeDatabaseRequired, "failed to confirm approval resolution", nil).Wrap(err)
	}
	// Whether the update applied or the row was already resolved, read
	// back the current state — this mirrors the idempotent-resolve
	// contract of pkg/killswitch.Activate.
	existing, err := s.GetApprovalRequest(ctx, id)
	if err != nil {
		return store.ApprovalRequest{}, err
	}
	return *existing, nil
}

func scanApprovalRow(row rowScanner) (store.ApprovalRequest, error) {
	var req store.ApprovalRequest
	var params sql.NullString
	var policyName, ruleName sql.NullString
	var resolvedAt sql.NullTime
	var resolvedBy, reason sql.NullString
	if err := row.Scan(&req.ID, &req.TraceID, &req.AgentID, &req.Tool, &params, &policyName, &ruleName, &req.Status,
		&req.CreatedAt, &req.ExpiresAt, &resolvedAt, &resolvedBy, &reason); err != nil {
		return store.ApprovalRequest{}, err
	}
	req.PolicyName = policyName.String
	req.RuleName = ruleName.String
	if params.Valid && params.String != "" {
		if err := json.Unmarshal([]byte(params.String), &req.Parameters); err != nil {
			return store.ApprovalRequest{}, err
		}
	}
	if resolvedAt.Valid {
		t := resolvedAt.Time
		req.ResolvedAt = &t
	}
	req.ResolvedBy = resolvedBy.String
	req.Reason = reason.String
	return req, nil
}

package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"wardenhq/sentinel/pkg/gerr"
	"wardenhq/sentinel/pkg/policy"
	"wardenhq/sentinel/pkg/store"
)

func (s *Store) UpsertPolicy(ctx context.Context, p policy.Policy) (store.PolicyRecord, error) {
	if err := policy.Validate(&p); err != nil {
		return store.PolicyRecord{}, err
	}

	rulesJSON, err := json.Marshal(p.Rules)
	if err != nil {
		return store.PolicyRecord{}, gerr.New(gerr.CodeInvalidPolicy, "failed to marshal rules", nil).Wrap(err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return store.PolicyRecord{}, gerr.New(gerr.CodeDatabaseRequired, "failed to begin transaction", nil).Wrap(err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	if _, err := tx.ExecContext(ctx, `UPDATE policies SET is_active = 0 WHERE name = ? AND agent_id = ? AND is_active = 1`,
		p.Name, p.AgentID); err != nil {
		return store.PolicyRecord{}, gerr.New(gerr.CodeDatabaseRequired, "failed to deactivate prior policy version", nil).Wrap(err)
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO policies (name, version, agent_id, rules, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, 1, ?, ?)`,
		p.Name, p.Version, p.AgentID, string(rulesJSON), p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return store.PolicyRecord{}, gerr.New(gerr.CodeDatabaseRequired, "failed to insert policy", nil).Wrap(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return store.PolicyRecord{}, gerr.New(gerr.CodeDatabaseRequired, "failed to read inserted policy id", nil).Wrap(err)
	}

	if err := tx.Commit(); err != nil {
		return store.PolicyRecord{}, gerr.New(gerr.CodeDatabaseRequired, "failed to commit policy upsert", nil).Wrap(err)
	}

	return store.PolicyRecord{ID: id, Policy: p, IsActive: true}, nil
}

func (s *Store) GetActivePolicy(ctx context.Context, agentID string) (*policy.Policy, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, version, agent_id, rules, is_active, created_at, updated_at
		FROM policies WHERE agent_id = ? AND is_active = 1
		ORDER BY updated_at DESC LIMIT 1`, agentID)

	rec, err := scanPolicyRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, gerr.New(gerr.CodeDatabaseRequired, "failed to read active policy", nil).Wrap(err)
	}
	p := rec.Policy
	return &p, nil
}

func (s *Store) ListPolicies(ctx context.Context, agentID string) ([]store.PolicyRecord, error) {
	var rows *sql.Rows
	var err error
	if agentID == "" {
		rows, err = s.db.QueryContext(ctx, `SELECT id, name, version, agent_id, rules, is_active, created_at, updated_at FROM policies ORDER BY id`)
	} else {
		rows, err = s.db.QueryContext(ctx, `SELECT id, name, version, agent_id, rules, is_active, created_at, updated_at FROM policies WHERE agent_id = ? ORDER BY id`, agentID)
	}
	if err != nil {
		return nil, gerr.New(gerr.CodeDatabaseRequired, "failed to list policies", nil).Wrap(err)
	}
	defer rows.Close()

	var out []store.PolicyRecord
	for rows.Next() {
		rec, err := scanPolicyRow(rows)
		if err != nil {
			return nil, gerr.New(gerr.CodeDatabaseRequired, "failed to scan policy row", nil).Wrap(err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *Store) GetPolicyByID(ctx context.Context, id int64) (*store.PolicyRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, name, version, agent_id, rules, is_active, created_at, updated_at FROM policies WHERE id = ?`, id)
	rec, err := scanPolicyRow(row)
	if err == sql.ErrNoRows {
		return nil, gerr.New(gerr.CodeVersionNotFound, "policy not found", map[string]any{"id": id})
	}
	if err != nil {
		return nil, gerr.New(gerr.CodeDatabaseRequired, "failed to read policy", nil).Wrap(err)
	}
	return &rec, nil
}

func (s *Store) PolicyHistory(ctx context.Context, name string) ([]store.PolicyRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, version, agent_id, rules, is_active, created_at, updated_at FROM policies WHERE name = ? ORDER BY version`, name)
	if err != nil {
		return nil, gerr.New(gerr.CodeDatabaseRequired, "failed to read policy history", nil).Wrap(err)
	}
	defer rows.Close()

	var out []store.PolicyRecord
	for rows.Next() {
		rec, err := scanPolicyRow(rows)
		if err != nil {
			return nil, gerr.New(gerr.CodeDatabaseRequired, "failed to scan policy history row", nil).Wrap(err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *Store) DeletePolicy(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM policies WHERE id = ?`, id)
	if err != nil {
		return gerr.New(gerr.CodeDatabaseRequired, "failed to delete policy", nil).Wrap(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return gerr.New(gerr.CodeDatabaseRequired, "failed to confirm policy delete", nil).Wrap(err)
	}
	if n == 0 {
		return gerr.New(gerr.CodeVersionNotFound, "policy not found", map[string]any{"id": id})
	}
	return nil
}

func scanPolicyRow(row rowScanner) (store.PolicyRecord, error) {
	var rec store.PolicyRecord
	var rulesJSON string
	if err := row.Scan(&rec.ID, &rec.Policy.Name, &rec.Policy.Version, &rec.Policy.AgentID, &rulesJSON,
		&rec.IsActive, &rec.Policy.CreatedAt, &rec.Policy.UpdatedAt); err != nil {
		return store.PolicyRecord{}, err
	}
	if err := json.Unmarshal([]byte(rulesJSON), &rec.Policy.Rules); err != nil {
		return store.PolicyRecord{}, err
	}
	return rec, nil
}

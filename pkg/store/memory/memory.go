// Package memory implements an in-memory store.Store, grounded on
// pkg/evidence/storage/memory.go's map-behind-a-RWMutex, copy-on-read
// design. It is intended for tests and single-process demos, never for
// production use.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"wardenhq/sentinel/pkg/agent"
	"wardenhq/sentinel/pkg/gerr"
	"wardenhq/sentinel/pkg/hashchain"
	"wardenhq/sentinel/pkg/policy"
	"wardenhq/sentinel/pkg/store"
)

// Store is an in-memory implementation of store.Store and
// store.ApprovalStore.
type Store struct {
	mu sync.RWMutex

	auditByID  map[int64]store.AuditRecord
	auditOrder []int64
	nextAudit  int64
	lastHash   string

	policiesByID map[int64]store.PolicyRecord
	nextPolicy   int64

	agents map[string]agent.Agent

	approvals map[string]store.ApprovalRequest
}

// New creates an empty in-memory Store.
func New() *Store {
	return &Store{
		auditByID:    make(map[int64]store.AuditRecord),
		policiesByID: make(map[int64]store.PolicyRecord),
		agents:       make(map[string]agent.Agent),
		approvals:    make(map[string]store.ApprovalRequest),
	}
}

func (s *Store) Migrate(ctx context.Context) error { return nil }
func (s *Store) Close() error                      { return nil }

// AppendAudit assigns the next id, resolves previous-hash from the running
// chain tail, and computes the record's own hash before storing it.
func (s *Store) AppendAudit(ctx context.Context, rec store.AuditRecord) (store.AuditRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextAudit++
	rec.ID = s.nextAudit
	rec.PreviousHash = hashchain.PreviousMarker(s.lastHash)

	hash, err := hashchain.Compute(rec.ToHashChainRecord(), s.lastHash)
	if err != nil {
		return store.AuditRecord{}, gerr.New(gerr.CodeInvalidRequest, "failed to compute audit hash", nil).Wrap(err)
	}
	rec.Hash = hash
	s.lastHash = hash

	s.auditByID[rec.ID] = rec
	s.auditOrder = append(s.auditOrder, rec.ID)
	return rec, nil
}

func (s *Store) LatestHash(ctx context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastHash, nil
}

func (s *Store) QueryAudit(ctx context.Context, q store.AuditQuery) ([]store.AuditRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	filtered := s.filterAuditLocked(q)
	return paginate(filtered, q), nil
}

func (s *Store) StreamExport(ctx context.Context, q store.AuditQuery) (<-chan store.AuditRecord, <-chan error) {
	recordsCh := make(chan store.AuditRecord, 100)
	errCh := make(chan error, 1)

	go func() {
		defer close(recordsCh)
		defer close(errCh)

		s.mu.RLock()
		filtered := s.filterAuditLocked(q)
		s.mu.RUnlock()

		for _, rec := range filtered {
			select {
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			case recordsCh <- rec:
			}
		}
	}()

	return recordsCh, errCh
}

func (s *Store) filterAuditLocked(q store.AuditQuery) []store.AuditRecord {
	var out []store.AuditRecord
	ids := append([]int64(nil), s.auditOrder...)
	sort.Slice(ids, func(i, j int) bool {
		if q.SortOrder == "desc" {
			return ids[i] > ids[j]
		}
		return ids[i] < ids[j]
	})
	for _, id := range ids {
		rec := s.auditByID[id]
		if q.AgentID != "" && rec.AgentID != q.AgentID {
			continue
		}
		if q.Tool != "" && rec.Tool != q.Tool {
			continue
		}
		if q.Result != "" && rec.Result != q.Result {
			continue
		}
		if q.StartTime != nil && rec.Timestamp.Before(*q.StartTime) {
			continue
		}
		if q.EndTime != nil && rec.Timestamp.After(*q.EndTime) {
			continue
		}
		out = append(out, rec)
	}
	return out
}

func paginate(records []store.AuditRecord, q store.AuditQuery) []store.AuditRecord {
	limit := q.Limit
	if limit <= 0 {
		limit = store.DefaultQueryLimit
	}
	if limit > store.MaxQueryLimit {
		limit = store.MaxQueryLimit
	}
	start := q.Offset
	if start > len(records) {
		return []store.AuditRecord{}
	}
	end := start + limit
	if end > len(records) {
		end = len(records)
	}
	return records[start:end]
}

func (s *Store) UpsertPolicy(ctx context.Context, p policy.Policy) (store.PolicyRecord, error) {
	if err := policy.Validate(&p); err != nil {
		return store.PolicyRecord{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	for id, existing := range s.policiesByID {
		if existing.Policy.Name == p.Name && existing.Policy.AgentID == p.AgentID && existing.IsActive {
			existing.IsActive = false
			s.policiesByID[id] = existing
		}
	}

	s.nextPolicy++
	rec := store.PolicyRecord{ID: s.nextPolicy, Policy: p, IsActive: true}
	s.policiesByID[rec.ID] = rec
	return rec, nil
}

func (s *Store) GetActivePolicy(ctx context.Context, agentID string) (*policy.Policy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var best *store.PolicyRecord
	for _, rec := range s.policiesByID {
		if !rec.IsActive || rec.Policy.AgentID != agentID {
			continue
		}
		if best == nil || rec.Policy.UpdatedAt.After(best.Policy.UpdatedAt) {
			r := rec
			best = &r
		}
	}
	if best == nil {
		return nil, nil
	}
	p := best.Policy
	return &p, nil
}

func (s *Store) ListPolicies(ctx context.Context, agentID string) ([]store.PolicyRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []store.PolicyRecord
	for _, rec := range s.policiesByID {
		if agentID == "" || rec.Policy.AgentID == agentID {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) GetPolicyByID(ctx context.Context, id int64) (*store.PolicyRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.policiesByID[id]
	if !ok {
		return nil, gerr.New(gerr.CodeVersionNotFound, "policy not found", map[string]any{"id": id})
	}
	return &rec, nil
}

func (s *Store) PolicyHistory(ctx context.Context, name string) ([]store.PolicyRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []store.PolicyRecord
	for _, rec := range s.policiesByID {
		if rec.Policy.Name == name {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Policy.Version < out[j].Policy.Version })
	return out, nil
}

func (s *Store) DeletePolicy(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.policiesByID[id]; !ok {
		return gerr.New(gerr.CodeVersionNotFound, "policy not found", map[string]any{"id": id})
	}
	delete(s.policiesByID, id)
	return nil
}

func (s *Store) RegisterAgent(ctx context.Context, a agent.Agent) (agent.Agent, error) {
	if err := agent.Validate(a); err != nil {
		return agent.Agent{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	if a.Status == "" {
		a.Status = agent.StatusRegistered
	}
	a.UpdatedAt = now
	s.agents[a.ID] = a
	return a, nil
}

func (s *Store) GetAgent(ctx context.Context, id string) (*agent.Agent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.agents[id]
	if !ok {
		return nil, gerr.New(gerr.CodeAgentNotFound, "agent not found", map[string]any{"id": id})
	}
	return &a, nil
}

// UpdateAgentStatus sets an agent's status. Transitions are free-form
// (spec.md §3); the only requirement is that the agent exists.
func (s *Store) UpdateAgentStatus(ctx context.Context, id string, status agent.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.agents[id]
	if !ok {
		return gerr.New(gerr.CodeAgentNotFound, "agent not found", map[string]any{"id": id})
	}
	now := time.Now().UTC()
	a.Status = status
	a.UpdatedAt = now
	a.LastActiveAt = &now
	s.agents[id] = a
	return nil
}

func (s *Store) ListAgents(ctx context.Context) ([]agent.Agent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]agent.Agent, 0, len(s.agents))
	for _, a := range s.agents {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) DeleteAgent(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.agents[id]; !ok {
		return gerr.New(gerr.CodeAgentNotFound, "agent not found", map[string]any{"id": id})
	}
	delete(s.agents, id)
	return nil
}

// CreateApprovalRequest, GetApprovalRequest, ListApprovalRequests, and
// ResolveApprovalRequest satisfy store.ApprovalStore.
func (s *Store) CreateApprovalRequest(ctx context.Context, req store.ApprovalRequest) (store.ApprovalRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if req.Status == "" {
		req.Status = "pending"
	}
	s.approvals[req.ID] = req
	return req, nil
}

func (s *Store) GetApprovalRequest(ctx context.Context, id string) (*store.ApprovalRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	req, ok := s.approvals[id]
	if !ok {
		return nil, gerr.New(gerr.CodeVersionNotFound, "approval request not found", map[string]any{"id": id})
	}
	return &req, nil
}

func (s *Store) ListApprovalRequests(ctx context.Context, status string) ([]store.ApprovalRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []store.ApprovalRequest
	for _, req := range s.approvals {
		if status == "" || req.Status == status {
			out = append(out, req)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// ResolveApprovalRequest performs an optimistic conditional update: it only
// applies the resolution if the request is still pending at the moment of
// the call, and either the resolution is a timeout or the deadline hasn't
// passed yet, so a racing timeout-materialization and a racing late human
// decision can never both win.
func (s *Store) ResolveApprovalRequest(ctx context.Context, id string, resolution store.ApprovalResolution) (store.ApprovalRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.approvals[id]
	if !ok {
		return store.ApprovalRequest{}, gerr.New(gerr.CodeVersionNotFound, "approval request not found", map[string]any{"id": id})
	}
	now := time.Now().UTC()
	if req.Status != "pending" {
		return req, nil
	}
	if resolution.Status != "timeout" && !now.Before(req.ExpiresAt) {
		return req, nil
	}
	req.Status = resolution.Status
	req.ResolvedBy = resolution.ResolvedBy
	req.Reason = resolution.Reason
	req.ResolvedAt = &now
	s.approvals[id] = req
	return req, nil
}

// PruneAuditBefore and InsertChainBoundary satisfy store.Maintenance.
func (s *Store) PruneAuditBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var kept []int64
	var removed int64
	for _, id := range s.auditOrder {
		if s.auditByID[id].Timestamp.Before(cutoff) {
			delete(s.auditByID, id)
			removed++
			continue
		}
		kept = append(kept, id)
	}
	s.auditOrder = kept
	return removed, nil
}

func (s *Store) InsertChainBoundary(ctx context.Context, rec store.AuditRecord) (store.AuditRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextAudit++
	rec.ID = s.nextAudit
	rec.PreviousHash = hashchain.GenesisMarker

	hash, err := hashchain.Compute(rec.ToHashChainRecord(), "")
	if err != nil {
		return store.AuditRecord{}, gerr.New(gerr.CodeInvalidRequest, "failed to compute boundary hash", nil).Wrap(err)
	}
	rec.Hash = hash
	s.lastHash = hash

	s.auditByID[rec.ID] = rec
	s.auditOrder = append(s.auditOrder, rec.ID)
	return rec, nil
}

var _ store.Store = (*Store)(nil)
var _ store.ApprovalStore = (*Store)(nil)
var _ store.Maintenance = (*Store)(nil)

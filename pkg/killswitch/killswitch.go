// Package killswitch implements the global and per-tenant emergency-stop
// switches of spec.md §4.6: a single mutex-guarded state map with
// idempotent first-write-wins activation, grounded on the health-state
// bookkeeping pattern in pkg/providers/http_provider.go (status fields
// behind one lock, updated in place, read back under RLock).
package killswitch

import (
	"context"
	"sync"
	"time"

	"wardenhq/sentinel/pkg/eventbus"
)

// global is the sentinel tenant key for the global switch.
const global = ""

// EventActivated and EventDeactivated are the event-bus types emitted on
// every state transition (spec.md §4.6, §4.7).
const (
	EventActivated   = "killswitch.activated"
	EventDeactivated = "killswitch.deactivated"
)

// Status describes one switch's current state.
type Status struct {
	Active     bool      `json:"active"`
	Reason     string    `json:"reason,omitempty"`
	ActivatedBy string   `json:"activatedBy,omitempty"`
	ActivatedAt time.Time `json:"activatedAt,omitzero"`
}

// Switch holds the global switch plus one independent switch per tenant.
// A tenant switch never inherits or clears the global switch: both must be
// inactive for a tenant to proceed (spec.md §4.6).
type Switch struct {
	mu       sync.Mutex
	byTenant map[string]Status
	bus      *eventbus.Bus
}

// New creates a Switch with every state inactive. bus may be nil, in which
// case transitions are not published.
func New(bus *eventbus.Bus) *Switch {
	return &Switch{
		byTenant: make(map[string]Status),
		bus:      bus,
	}
}

// Activate trips the global switch (tenantID == "") or a tenant's switch.
// Activation is idempotent: the first call wins and subsequent calls while
// already active are no-ops that report the original activation, not a
// race to overwrite reason/actor.
func (s *Switch) Activate(ctx context.Context, tenantID, reason, activatedBy string) Status {
	return s.setActive(ctx, tenantID, reason, activatedBy)
}

// ActivateGlobal is Activate against the global switch.
func (s *Switch) ActivateGlobal(ctx context.Context, reason, activatedBy string) Status {
	return s.setActive(ctx, global, reason, activatedBy)
}

func (s *Switch) setActive(ctx context.Context, tenantID, reason, activatedBy string) Status {
	s.mu.Lock()
	existing, ok := s.byTenant[tenantID]
	if ok && existing.Active {
		s.mu.Unlock()
		return existing
	}
	st := Status{Active: true, Reason: reason, ActivatedBy: activatedBy, ActivatedAt: time.Now().UTC()}
	s.byTenant[tenantID] = st
	s.mu.Unlock()

	s.publish(ctx, EventActivated, tenantID, st)
	return st
}

// Reset deactivates the global switch (tenantID == "") or a tenant's
// switch. Resetting an already-inactive switch is a no-op.
func (s *Switch) Reset(ctx context.Context, tenantID string) Status {
	s.mu.Lock()
	existing, ok := s.byTenant[tenantID]
	if !ok || !existing.Active {
		s.mu.Unlock()
		return Status{Active: false}
	}
	st := Status{Active: false}
	s.byTenant[tenantID] = st
	s.mu.Unlock()

	s.publish(ctx, EventDeactivated, tenantID, st)
	return st
}

// IsActive reports whether requests for tenantID must be rejected: true if
// either the global switch or the tenant's own switch is active.
func (s *Switch) IsActive(tenantID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if g, ok := s.byTenant[global]; ok && g.Active {
		return true
	}
	if tenantID == "" {
		return false
	}
	t, ok := s.byTenant[tenantID]
	return ok && t.Active
}

// GetStatus returns the global and tenant-scoped status without collapsing
// them into one boolean, for diagnostics and audit annotation.
func (s *Switch) GetStatus(tenantID string) (globalStatus, tenantStatus Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	globalStatus = s.byTenant[global]
	if tenantID != "" {
		tenantStatus = s.byTenant[tenantID]
	}
	return globalStatus, tenantStatus
}

func (s *Switch) publish(ctx context.Context, eventType, tenantID string, st Status) {
	if s.bus == nil {
		return
	}
	scope := tenantID
	if scope == "" {
		scope = "global"
	}
	s.bus.Emit(ctx, eventbus.Event{
		Type: eventType,
		Payload: map[string]any{
			"scope":       scope,
			"reason":      st.Reason,
			"activatedBy": st.ActivatedBy,
		},
	})
}

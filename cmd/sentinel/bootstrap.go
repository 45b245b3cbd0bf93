package main

import (
	"context"
	"fmt"

	"wardenhq/sentinel/pkg/approval"
	"wardenhq/sentinel/pkg/audit"
	"wardenhq/sentinel/pkg/cli"
	"wardenhq/sentinel/pkg/config"
	"wardenhq/sentinel/pkg/eventbus"
	"wardenhq/sentinel/pkg/killswitch"
	"wardenhq/sentinel/pkg/orchestrator"
	"wardenhq/sentinel/pkg/store"
	"wardenhq/sentinel/pkg/store/memory"
	"wardenhq/sentinel/pkg/store/sqlite"
	"wardenhq/sentinel/pkg/trace"
)

// appRuntime bundles the collaborators every command needs, built once from
// the loaded configuration. Commands that only touch the store (migrate,
// agent, policy, audit) can ignore the orchestrator/approvals fields.
type appRuntime struct {
	cfg          *config.Config
	store        store.Store
	bus          *eventbus.Bus
	killSwitch   *killswitch.Switch
	recorder     *audit.Recorder
	approvals    *approval.Coordinator
	orchestrator *orchestrator.Orchestrator
}

// newRuntime loads configuration from cfgFile and wires every governance
// collaborator against the configured storage backend.
func newRuntime() (*appRuntime, error) {
	if err := config.Initialize(cfgFile); err != nil {
		return nil, cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}
	cfg := config.GetConfig()

	s, err := openStore(cfg)
	if err != nil {
		return nil, err
	}

	bus := eventbus.New(traceResolver)

	ks := killswitch.New(bus)
	if cfg.KillSwitch.ActivatedByDefault {
		ks.ActivateGlobal(context.Background(), cfg.KillSwitch.DefaultReason, "config")
	}

	recorder := audit.New(s)

	var approvalStore store.ApprovalStore
	if as, ok := s.(store.ApprovalStore); ok {
		approvalStore = as
	}
	approvals := approval.New(approvalStore, recorder, bus, cfg.Approval.DefaultTimeout)

	orch := orchestrator.New(s, bus, ks, cfg.Approval.DefaultTimeout)

	return &appRuntime{
		cfg:          cfg,
		store:        s,
		bus:          bus,
		killSwitch:   ks,
		recorder:     recorder,
		approvals:    approvals,
		orchestrator: orch,
	}, nil
}

// Close releases the underlying storage handle.
func (r *appRuntime) Close() error {
	return r.store.Close()
}

func openStore(cfg *config.Config) (store.Store, error) {
	switch cfg.Storage.Backend {
	case "sqlite":
		s, err := sqlite.Open(sqlite.Config{
			Path:         cfg.Storage.SQLite.Path,
			MaxOpenConns: cfg.Storage.SQLite.MaxOpenConns,
			MaxIdleConns: cfg.Storage.SQLite.MaxIdleConns,
			WALMode:      cfg.Storage.SQLite.WALMode,
			BusyTimeout:  cfg.Storage.SQLite.BusyTimeout,
		})
		if err != nil {
			return nil, cli.NewCommandError("store", fmt.Errorf("failed to open sqlite store: %w", err))
		}
		return s, nil
	case "memory":
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unsupported storage backend %q (supported: sqlite, memory)", cfg.Storage.Backend)
	}
}

// traceResolver implements eventbus.TraceResolver: it reads a trace context
// previously attached with trace.WithContext, never inventing one — when
// this returns empty, Emit leaves the event's TraceID empty.
func traceResolver(ctx context.Context) string {
	if tc, ok := trace.FromContext(ctx); ok {
		return tc.TraceID
	}
	return ""
}

package config

import (
	"testing"
	"time"
)

func TestApplyDefaults(t *testing.T) {
	tests := []struct {
		name  string
		input Config
		check func(*testing.T, *Config)
	}{
		{
			name:  "empty config gets all defaults",
			input: Config{},
			check: func(t *testing.T, cfg *Config) {
				if cfg.Storage.Backend != DefaultStorageBackend {
					t.Errorf("expected storage backend %q, got %q", DefaultStorageBackend, cfg.Storage.Backend)
				}
				if cfg.Storage.SQLite.Path != DefaultSQLitePath {
					t.Errorf("expected sqlite path %q, got %q", DefaultSQLitePath, cfg.Storage.SQLite.Path)
				}
				if cfg.Storage.SQLite.MaxOpenConns != DefaultSQLiteMaxOpenConns {
					t.Errorf("expected max open conns %d, got %d", DefaultSQLiteMaxOpenConns, cfg.Storage.SQLite.MaxOpenConns)
				}
				if cfg.Audit.Retention.RetentionDays != DefaultRetentionDays {
					t.Errorf("expected retention days %d, got %d", DefaultRetentionDays, cfg.Audit.Retention.RetentionDays)
				}
				if cfg.Audit.Query.DefaultLimit != DefaultQueryDefaultLimit {
					t.Errorf("expected query default limit %d, got %d", DefaultQueryDefaultLimit, cfg.Audit.Query.DefaultLimit)
				}
				if cfg.Approval.DefaultTimeout != DefaultApprovalTimeout {
					t.Errorf("expected approval timeout %v, got %v", DefaultApprovalTimeout, cfg.Approval.DefaultTimeout)
				}
				if cfg.Telemetry.Logging.Level != DefaultLoggingLevel {
					t.Errorf("expected logging level %q, got %q", DefaultLoggingLevel, cfg.Telemetry.Logging.Level)
				}
				if cfg.Telemetry.Logging.Format != DefaultLoggingFormat {
					t.Errorf("expected logging format %q, got %q", DefaultLoggingFormat, cfg.Telemetry.Logging.Format)
				}
				if cfg.Telemetry.Metrics.Path != DefaultMetricsPath {
					t.Errorf("expected metrics path %q, got %q", DefaultMetricsPath, cfg.Telemetry.Metrics.Path)
				}
				if cfg.Telemetry.Health.Path != DefaultHealthPath {
					t.Errorf("expected health path %q, got %q", DefaultHealthPath, cfg.Telemetry.Health.Path)
				}
			},
		},
		{
			name: "existing values are preserved",
			input: Config{
				Storage: StorageConfig{
					Backend: "sqlite",
					SQLite: SQLiteConfig{
						Path:         "/custom/path.db",
						MaxOpenConns: 25,
					},
				},
			},
			check: func(t *testing.T, cfg *Config) {
				if cfg.Storage.SQLite.Path != "/custom/path.db" {
					t.Error("existing sqlite path was overwritten")
				}
				if cfg.Storage.SQLite.MaxOpenConns != 25 {
					t.Error("existing max open conns was overwritten")
				}
				if cfg.Storage.SQLite.MaxIdleConns != DefaultSQLiteMaxIdleConns {
					t.Error("max idle conns should get default when not set")
				}
			},
		},
		{
			name: "kill switch reason default only applied when activated by default",
			input: Config{
				KillSwitch: KillSwitchConfig{ActivatedByDefault: true},
			},
			check: func(t *testing.T, cfg *Config) {
				if cfg.KillSwitch.DefaultReason == "" {
					t.Error("expected a default reason when activated by default")
				}
			},
		},
		{
			name:  "kill switch reason left empty when not activated by default",
			input: Config{},
			check: func(t *testing.T, cfg *Config) {
				if cfg.KillSwitch.DefaultReason != "" {
					t.Error("expected no default reason when kill switch is not activated by default")
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.input
			ApplyDefaults(&cfg)
			tt.check(t, &cfg)
		})
	}
}

func TestApplyDefaults_Idempotent(t *testing.T) {
	cfg := Config{}

	ApplyDefaults(&cfg)
	firstPass := cfg.Storage.SQLite.Path

	ApplyDefaults(&cfg)
	secondPass := cfg.Storage.SQLite.Path

	if firstPass != secondPass {
		t.Error("ApplyDefaults should be idempotent")
	}
}

func TestApplyDefaults_SecurityDefaultsToDisabled(t *testing.T) {
	cfg := Config{}
	ApplyDefaults(&cfg)

	if cfg.Security.TLS.Enabled {
		t.Error("expected TLS disabled by default")
	}
	if cfg.Security.TLS.MTLS.Enabled {
		t.Error("expected mTLS disabled by default")
	}
	_ = time.Second
}

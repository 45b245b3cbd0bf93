package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadConfig_ValidFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
storage:
  backend: "sqlite"
  sqlite:
    path: "./test-sentinel.db"

policy:
  default_allow_all: false

audit:
  retention:
    retention_days: 30

telemetry:
  logging:
    level: "debug"
    format: "text"
  metrics:
    enabled: true
`

	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Storage.SQLite.Path != "./test-sentinel.db" {
		t.Errorf("expected sqlite path %q, got %q", "./test-sentinel.db", cfg.Storage.SQLite.Path)
	}
	if cfg.Policy.DefaultAllowAll {
		t.Error("expected default allow all to be false")
	}
	if cfg.Audit.Retention.RetentionDays != 30 {
		t.Errorf("expected retention days %d, got %d", 30, cfg.Audit.Retention.RetentionDays)
	}
	if cfg.Telemetry.Logging.Level != "debug" {
		t.Errorf("expected logging level %q, got %q", "debug", cfg.Telemetry.Logging.Level)
	}
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	_, err := LoadConfig("/nonexistent/config.yaml")
	if err == nil {
		t.Error("expected error for nonexistent file")
	}
	if !strings.Contains(err.Error(), "no such file or directory") {
		t.Errorf("expected file not found error, got: %v", err)
	}
}

func TestLoadConfig_MalformedYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	malformedContent := `
storage:
  backend: "sqlite"
  invalid yaml here: [
`

	if err := os.WriteFile(configPath, []byte(malformedContent), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	_, err := LoadConfig(configPath)
	if err == nil {
		t.Error("expected error for malformed YAML")
	}
}

func TestLoadConfig_ValidationFailure(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	invalidContent := `
storage:
  backend: "sqlite"
  sqlite:
    path: "./sentinel.db"

telemetry:
  logging:
    level: "invalid"
    format: "json"
`

	if err := os.WriteFile(configPath, []byte(invalidContent), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	_, err := LoadConfig(configPath)
	if err == nil {
		t.Fatal("expected validation error")
	}

	var validationErr ValidationError
	if !errors.As(err, &validationErr) {
		t.Errorf("expected ValidationError in error chain, got %T: %v", err, err)
	}
}

func TestLoadConfigWithEnvOverrides_BasicOverrides(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
storage:
  backend: "sqlite"
  sqlite:
    path: "./file-configured.db"

telemetry:
  logging:
    level: "info"
    format: "json"
`

	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	os.Setenv("SENTINEL_STORAGE_SQLITE_PATH", "/tmp/env-override.db")
	os.Setenv("SENTINEL_TELEMETRY_LOGGING_LEVEL", "debug")
	defer func() {
		os.Unsetenv("SENTINEL_STORAGE_SQLITE_PATH")
		os.Unsetenv("SENTINEL_TELEMETRY_LOGGING_LEVEL")
	}()

	cfg, err := LoadConfigWithEnvOverrides(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Storage.SQLite.Path != "/tmp/env-override.db" {
		t.Errorf("expected sqlite path %q from env, got %q", "/tmp/env-override.db", cfg.Storage.SQLite.Path)
	}
	if cfg.Telemetry.Logging.Level != "debug" {
		t.Errorf("expected logging level %q from env, got %q", "debug", cfg.Telemetry.Logging.Level)
	}
}

func TestLoadConfigWithEnvOverrides_DurationParsing(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
storage:
  backend: "sqlite"
  sqlite:
    path: "./sentinel.db"

approval:
  default_timeout: "30m"
`

	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	os.Setenv("SENTINEL_APPROVAL_DEFAULT_TIMEOUT", "2h")
	os.Setenv("SENTINEL_STORAGE_SQLITE_BUSY_TIMEOUT", "10s")
	defer func() {
		os.Unsetenv("SENTINEL_APPROVAL_DEFAULT_TIMEOUT")
		os.Unsetenv("SENTINEL_STORAGE_SQLITE_BUSY_TIMEOUT")
	}()

	cfg, err := LoadConfigWithEnvOverrides(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Approval.DefaultTimeout != 2*time.Hour {
		t.Errorf("expected approval timeout %v, got %v", 2*time.Hour, cfg.Approval.DefaultTimeout)
	}
	if cfg.Storage.SQLite.BusyTimeout != 10*time.Second {
		t.Errorf("expected busy timeout %v, got %v", 10*time.Second, cfg.Storage.SQLite.BusyTimeout)
	}
}

func TestLoadConfigWithEnvOverrides_IntegerParsing(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
storage:
  backend: "sqlite"
  sqlite:
    path: "./sentinel.db"

audit:
  retention:
    retention_days: 90
`

	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	os.Setenv("SENTINEL_STORAGE_SQLITE_MAX_OPEN_CONNS", "50")
	os.Setenv("SENTINEL_AUDIT_RETENTION_DAYS", "30")
	os.Setenv("SENTINEL_AUDIT_RETENTION_MAX_RECORDS", "1000000")
	defer func() {
		os.Unsetenv("SENTINEL_STORAGE_SQLITE_MAX_OPEN_CONNS")
		os.Unsetenv("SENTINEL_AUDIT_RETENTION_DAYS")
		os.Unsetenv("SENTINEL_AUDIT_RETENTION_MAX_RECORDS")
	}()

	cfg, err := LoadConfigWithEnvOverrides(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Storage.SQLite.MaxOpenConns != 50 {
		t.Errorf("expected max open conns %d, got %d", 50, cfg.Storage.SQLite.MaxOpenConns)
	}
	if cfg.Audit.Retention.RetentionDays != 30 {
		t.Errorf("expected retention days %d, got %d", 30, cfg.Audit.Retention.RetentionDays)
	}
	if cfg.Audit.Retention.MaxRecords != 1000000 {
		t.Errorf("expected max records %d, got %d", 1000000, cfg.Audit.Retention.MaxRecords)
	}
}

func TestLoadConfigWithEnvOverrides_BooleanParsing(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
storage:
  backend: "sqlite"
  sqlite:
    path: "./sentinel.db"

policy:
  default_allow_all: false

kill_switch:
  activated_by_default: false

telemetry:
  metrics:
    enabled: false
`

	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	os.Setenv("SENTINEL_POLICY_DEFAULT_ALLOW_ALL", "true")
	os.Setenv("SENTINEL_KILL_SWITCH_ACTIVATED_BY_DEFAULT", "true")
	os.Setenv("SENTINEL_TELEMETRY_METRICS_ENABLED", "true")
	defer func() {
		os.Unsetenv("SENTINEL_POLICY_DEFAULT_ALLOW_ALL")
		os.Unsetenv("SENTINEL_KILL_SWITCH_ACTIVATED_BY_DEFAULT")
		os.Unsetenv("SENTINEL_TELEMETRY_METRICS_ENABLED")
	}()

	cfg, err := LoadConfigWithEnvOverrides(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if !cfg.Policy.DefaultAllowAll {
		t.Error("expected default allow all to be true from env")
	}
	if !cfg.KillSwitch.ActivatedByDefault {
		t.Error("expected kill switch activated by default to be true from env")
	}
	if !cfg.Telemetry.Metrics.Enabled {
		t.Error("expected metrics enabled to be true from env")
	}
}

func TestLoadConfigWithEnvOverrides_InvalidEnvValues(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
storage:
  backend: "sqlite"
  sqlite:
    path: "./sentinel.db"

telemetry:
  logging:
    level: "info"
    format: "json"
`

	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	os.Setenv("SENTINEL_STORAGE_SQLITE_MAX_OPEN_CONNS", "not-a-number")
	os.Setenv("SENTINEL_TELEMETRY_LOGGING_LEVEL", "invalid-level")
	defer func() {
		os.Unsetenv("SENTINEL_STORAGE_SQLITE_MAX_OPEN_CONNS")
		os.Unsetenv("SENTINEL_TELEMETRY_LOGGING_LEVEL")
	}()

	_, err := LoadConfigWithEnvOverrides(configPath)
	if err == nil {
		t.Error("expected validation error for invalid env values")
	}
}

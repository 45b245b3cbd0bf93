package config

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func TestInitialize(t *testing.T) {
	globalConfig = nil
	initOnce = *new(sync.Once)

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

	if err := Initialize(configPath); err != nil {
		t.Fatalf("failed to initialize config: %v", err)
	}

	cfg := GetConfig()
	if cfg == nil {
		t.Fatal("expected non-nil config after initialization")
	}
	if cfg.Storage.SQLite.Path != "./sentinel.db" {
		t.Errorf("expected sqlite path %q, got %q", "./sentinel.db", cfg.Storage.SQLite.Path)
	}
}

func TestInitialize_MultipleCallsIgnored(t *testing.T) {
	globalConfig = nil
	initOnce = *new(sync.Once)

	tmpDir := t.TempDir()
	configPath1 := filepath.Join(tmpDir, "config1.yaml")
	configPath2 := filepath.Join(tmpDir, "config2.yaml")

	config1Content := `
storage:
  backend: "sqlite"
  sqlite:
    path: "./one.db"
telemetry:
  logging:
    level: "info"
    format: "json"
`
	config2Content := `
storage:
  backend: "sqlite"
  sqlite:
    path: "./two.db"
telemetry:
  logging:
    level: "debug"
    format: "text"
`

	if err := os.WriteFile(configPath1, []byte(config1Content), 0644); err != nil {
		t.Fatalf("failed to write config1 file: %v", err)
	}
	if err := os.WriteFile(configPath2, []byte(config2Content), 0644); err != nil {
		t.Fatalf("failed to write config2 file: %v", err)
	}

	if err := Initialize(configPath1); err != nil {
		t.Fatalf("failed to initialize config: %v", err)
	}
	firstConfig := GetConfig()

	Initialize(configPath2)
	secondConfig := GetConfig()

	if firstConfig.Storage.SQLite.Path != secondConfig.Storage.SQLite.Path {
		t.Error("second Initialize call should be ignored")
	}
}

func TestGetConfig_BeforeInitialize(t *testing.T) {
	globalConfig = nil

	if cfg := GetConfig(); cfg != nil {
		t.Error("expected nil config before initialization")
	}
}

func TestSetConfig(t *testing.T) {
	globalConfig = nil

	testCfg := NewTestConfig().WithSQLitePath("./explicit.db").Build()
	SetConfig(testCfg)

	retrieved := GetConfig()
	if retrieved == nil {
		t.Fatal("expected non-nil config after SetConfig")
	}
	if retrieved.Storage.SQLite.Path != "./explicit.db" {
		t.Errorf("expected sqlite path %q, got %q", "./explicit.db", retrieved.Storage.SQLite.Path)
	}
}

func TestReloadConfig(t *testing.T) {
	globalConfig = nil
	initOnce = *new(sync.Once)

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	initialContent := `
storage:
  backend: "sqlite"
  sqlite:
    path: "./initial.db"
telemetry:
  logging:
    level: "info"
    format: "json"
`
	if err := os.WriteFile(configPath, []byte(initialContent), 0644); err != nil {
		t.Fatalf("failed to write initial config file: %v", err)
	}
	if err := Initialize(configPath); err != nil {
		t.Fatalf("failed to initialize config: %v", err)
	}

	updatedContent := `
storage:
  backend: "sqlite"
  sqlite:
    path: "./updated.db"
telemetry:
  logging:
    level: "debug"
    format: "text"
`
	if err := os.WriteFile(configPath, []byte(updatedContent), 0644); err != nil {
		t.Fatalf("failed to write updated config file: %v", err)
	}
	if err := ReloadConfig(configPath); err != nil {
		t.Fatalf("failed to reload config: %v", err)
	}

	reloaded := GetConfig()
	if reloaded.Storage.SQLite.Path != "./updated.db" {
		t.Errorf("expected updated sqlite path %q, got %q", "./updated.db", reloaded.Storage.SQLite.Path)
	}
	if reloaded.Telemetry.Logging.Level != "debug" {
		t.Errorf("expected updated logging level %q, got %q", "debug", reloaded.Telemetry.Logging.Level)
	}
}

func TestReloadConfig_ValidationFailure(t *testing.T) {
	globalConfig = nil
	initOnce = *new(sync.Once)

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	validContent := `
storage:
  backend: "sqlite"
  sqlite:
    path: "./sentinel.db"
telemetry:
  logging:
    level: "info"
    format: "json"
`
	if err := os.WriteFile(configPath, []byte(validContent), 0644); err != nil {
		t.Fatalf("failed to write initial config file: %v", err)
	}
	if err := Initialize(configPath); err != nil {
		t.Fatalf("failed to initialize config: %v", err)
	}
	original := GetConfig()

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
		t.Fatalf("failed to write invalid config file: %v", err)
	}

	if err := ReloadConfig(configPath); err == nil {
		t.Fatal("expected error when reloading invalid config")
	}

	current := GetConfig()
	if current.Storage.SQLite.Path != original.Storage.SQLite.Path {
		t.Error("original config should be preserved on reload failure")
	}
}

func TestMustGetConfig(t *testing.T) {
	globalConfig = nil
	initOnce = *new(sync.Once)

	defer func() {
		if r := recover(); r == nil {
			t.Error("expected MustGetConfig to panic when not initialized")
		}
	}()

	MustGetConfig()
}

func TestMustGetConfig_AfterInitialize(t *testing.T) {
	globalConfig = nil
	initOnce = *new(sync.Once)

	SetConfig(MinimalConfig())

	if cfg := MustGetConfig(); cfg == nil {
		t.Error("expected non-nil config from MustGetConfig")
	}
}

package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func validConfigYAML() string {
	return `
storage:
  backend: memory
policy:
  default_allow_all: true
approval:
  default_timeout: 30m
`
}

func TestNewWatcher(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "sentinel.yaml")
	if err := os.WriteFile(path, []byte(validConfigYAML()), 0o644); err != nil {
		t.Fatal(err)
	}

	w, err := NewWatcher(path, 0, nil)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v, want nil", err)
	}
	if w == nil {
		t.Fatal("NewWatcher() returned nil")
	}
	if w.debounce != DefaultDebounceInterval {
		t.Errorf("debounce = %v, want %v", w.debounce, DefaultDebounceInterval)
	}
	_ = w.Stop()
}

func TestWatcher_ReloadsOnChange(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "sentinel.yaml")
	if err := os.WriteFile(path, []byte(validConfigYAML()), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	SetConfig(cfg)

	w, err := NewWatcher(path, 20*time.Millisecond, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = w.Stop() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() { _ = w.Watch(ctx) }()

	time.Sleep(50 * time.Millisecond)

	updated := `
storage:
  backend: sqlite
  sqlite:
    path: data/updated.db
policy:
  default_allow_all: false
approval:
  default_timeout: 45m
`
	if err := os.WriteFile(path, []byte(updated), 0o644); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if GetConfig().Storage.Backend == "sqlite" {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	if got := GetConfig().Storage.Backend; got != "sqlite" {
		t.Errorf("after reload, Storage.Backend = %q, want %q", got, "sqlite")
	}
	if got := GetConfig().Policy.DefaultAllowAll; got {
		t.Errorf("after reload, Policy.DefaultAllowAll = %v, want false", got)
	}
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "sentinel.yaml")
	if err := os.WriteFile(path, []byte(validConfigYAML()), 0o644); err != nil {
		t.Fatal(err)
	}

	w, err := NewWatcher(path, 0, nil)
	if err != nil {
		t.Fatal(err)
	}

	if err := w.Stop(); err != nil {
		t.Errorf("Stop() before Watch() error = %v, want nil", err)
	}
}

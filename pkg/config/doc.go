// Package config provides configuration management for Sentinel.
//
// This package handles loading, validating, and managing configuration from
// YAML files with environment variable overrides. It provides a type-safe
// configuration system with comprehensive validation and sensible defaults.
//
// # Configuration Loading
//
// Configuration can be loaded in two ways:
//
//  1. From a YAML file only:
//     cfg, err := config.LoadConfig("config.yaml")
//
//  2. From a YAML file with environment variable overrides:
//     cfg, err := config.LoadConfigWithEnvOverrides("config.yaml")
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention SENTINEL_SECTION_FIELD.
// For example:
//
//   - SENTINEL_STORAGE_SQLITE_PATH overrides storage.sqlite.path
//   - SENTINEL_AUDIT_RETENTION_DAYS overrides audit.retention.retention_days
//   - SENTINEL_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//
// Environment variables always take precedence over file-based configuration.
//
// # Configuration Precedence
//
// Configuration values are applied in the following order (later overrides earlier):
//
//  1. Default values (defined in defaults.go)
//  2. Values from YAML file
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
//
// # Singleton Pattern
//
// For application-wide configuration access, use the singleton pattern:
//
//	// At application startup
//	if err := config.Initialize("config.yaml"); err != nil {
//	    log.Fatal(err)
//	}
//
//	// Anywhere in the application
//	cfg := config.GetConfig()
//	fmt.Println(cfg.Storage.SQLite.Path)
//
// For testing, prefer dependency injection with explicit Config instances
// rather than the global singleton.
//
// # Validation
//
// All configuration is validated automatically during loading. Validation includes:
//
//   - Required field checks (e.g., SQLite path when the backend is sqlite)
//   - Range validation (e.g., retention days between 0 and 3650)
//   - Enum validation (e.g., logging level must be one of debug/info/warn/error)
//   - Logical validation (e.g., mTLS requires TLS to be enabled)
//
// Validation errors include field paths and helpful messages:
//
//	configuration validation failed with 2 errors:
//	  - storage.sqlite.path: path is required when backend is 'sqlite'
//	  - security.tls.mtls.enabled: mTLS requires TLS to be enabled (security.tls.enabled must be true)
//
// # Example Configuration
//
// Here is a minimal configuration file:
//
//	storage:
//	  backend: "sqlite"
//	  sqlite:
//	    path: "/var/lib/sentinel/sentinel.db"
//
//	policy:
//	  default_allow_all: false
//
//	audit:
//	  retention:
//	    retention_days: 90
//
//	telemetry:
//	  logging:
//	    level: "info"
//	    format: "json"
//
// # Hot Reload
//
// A running process can watch its configuration file and reload the
// singleton on change, without a restart:
//
//	watcher, err := config.NewWatcher("config.yaml", 0, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	go watcher.Watch(ctx)
//	defer watcher.Stop()
//
// Watch debounces bursts of filesystem events from a single save into one
// ReloadConfig call. A reload that fails validation logs the error and
// leaves the current configuration in place.
//
// # Thread Safety
//
// All configuration access is thread-safe. The singleton pattern uses read-write
// locks to allow concurrent reads while protecting against concurrent writes during
// reload operations.
package config

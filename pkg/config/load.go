package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file at the specified path.
// It applies default values, validates the configuration, and returns any errors.
// The configuration is not modified by environment variables; use
// LoadConfigWithEnvOverrides for that functionality.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	// ApplyDefaults cannot tell an omitted default_allow_all from an
	// explicit false, so the file's own value is read separately and kept.
	var explicit struct {
		Policy struct {
			DefaultAllowAll *bool `yaml:"default_allow_all"`
		} `yaml:"policy"`
	}
	_ = yaml.Unmarshal(data, &explicit)

	ApplyDefaults(&cfg)
	if explicit.Policy.DefaultAllowAll != nil {
		cfg.Policy.DefaultAllowAll = *explicit.Policy.DefaultAllowAll
	}

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables follow the naming
// convention SENTINEL_SECTION_FIELD (e.g., SENTINEL_STORAGE_SQLITE_PATH).
// Environment variables always take precedence over file-based configuration.
//
// The loading sequence is:
// 1. Load YAML from file
// 2. Apply default values
// 3. Apply environment variable overrides
// 4. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables use the format SENTINEL_SECTION_FIELD.
func applyEnvOverrides(cfg *Config) {
	// Storage overrides
	if val := os.Getenv("SENTINEL_STORAGE_BACKEND"); val != "" {
		cfg.Storage.Backend = val
	}
	if val := os.Getenv("SENTINEL_STORAGE_SQLITE_PATH"); val != "" {
		cfg.Storage.SQLite.Path = val
	}
	if val := os.Getenv("SENTINEL_STORAGE_SQLITE_MAX_OPEN_CONNS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Storage.SQLite.MaxOpenConns = i
		}
	}
	if val := os.Getenv("SENTINEL_STORAGE_SQLITE_MAX_IDLE_CONNS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Storage.SQLite.MaxIdleConns = i
		}
	}
	if val := os.Getenv("SENTINEL_STORAGE_SQLITE_WAL_MODE"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Storage.SQLite.WALMode = b
		}
	}
	if val := os.Getenv("SENTINEL_STORAGE_SQLITE_BUSY_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Storage.SQLite.BusyTimeout = d
		}
	}

	// Policy overrides
	if val := os.Getenv("SENTINEL_POLICY_DEFAULT_ALLOW_ALL"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Policy.DefaultAllowAll = b
		}
	}

	// Audit overrides
	if val := os.Getenv("SENTINEL_AUDIT_RETENTION_DAYS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Audit.Retention.RetentionDays = i
		}
	}
	if val := os.Getenv("SENTINEL_AUDIT_RETENTION_PRUNE_SCHEDULE"); val != "" {
		cfg.Audit.Retention.PruneSchedule = val
	}
	if val := os.Getenv("SENTINEL_AUDIT_RETENTION_ARCHIVE_BEFORE_DELETE"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Audit.Retention.ArchiveBeforeDelete = b
		}
	}
	if val := os.Getenv("SENTINEL_AUDIT_RETENTION_ARCHIVE_PATH"); val != "" {
		cfg.Audit.Retention.ArchivePath = val
	}
	if val := os.Getenv("SENTINEL_AUDIT_RETENTION_MAX_RECORDS"); val != "" {
		if i, err := strconv.ParseInt(val, 10, 64); err == nil {
			cfg.Audit.Retention.MaxRecords = i
		}
	}
	if val := os.Getenv("SENTINEL_AUDIT_QUERY_DEFAULT_LIMIT"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Audit.Query.DefaultLimit = i
		}
	}
	if val := os.Getenv("SENTINEL_AUDIT_QUERY_MAX_LIMIT"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Audit.Query.MaxLimit = i
		}
	}

	// Kill switch overrides
	if val := os.Getenv("SENTINEL_KILL_SWITCH_ACTIVATED_BY_DEFAULT"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.KillSwitch.ActivatedByDefault = b
		}
	}
	if val := os.Getenv("SENTINEL_KILL_SWITCH_DEFAULT_REASON"); val != "" {
		cfg.KillSwitch.DefaultReason = val
	}

	// Approval overrides
	if val := os.Getenv("SENTINEL_APPROVAL_DEFAULT_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Approval.DefaultTimeout = d
		}
	}

	// Telemetry overrides
	if val := os.Getenv("SENTINEL_TELEMETRY_LOGGING_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv("SENTINEL_TELEMETRY_LOGGING_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}
	if val := os.Getenv("SENTINEL_TELEMETRY_METRICS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Metrics.Enabled = b
		}
	}
	if val := os.Getenv("SENTINEL_TELEMETRY_METRICS_PATH"); val != "" {
		cfg.Telemetry.Metrics.Path = val
	}
	if val := os.Getenv("SENTINEL_TELEMETRY_METRICS_LISTEN_ADDRESS"); val != "" {
		cfg.Telemetry.Metrics.ListenAddress = val
	}
	if val := os.Getenv("SENTINEL_TELEMETRY_TRACING_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Tracing.Enabled = b
		}
	}
	if val := os.Getenv("SENTINEL_TELEMETRY_TRACING_ENDPOINT"); val != "" {
		cfg.Telemetry.Tracing.Endpoint = val
	}
	if val := os.Getenv("SENTINEL_TELEMETRY_TRACING_SAMPLE_RATIO"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Telemetry.Tracing.SampleRatio = f
		}
	}
	if val := os.Getenv("SENTINEL_TELEMETRY_HEALTH_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Health.Enabled = b
		}
	}
	if val := os.Getenv("SENTINEL_TELEMETRY_HEALTH_PATH"); val != "" {
		cfg.Telemetry.Health.Path = val
	}

	// Security overrides
	if val := os.Getenv("SENTINEL_SECURITY_TLS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Security.TLS.Enabled = b
		}
	}
	if val := os.Getenv("SENTINEL_SECURITY_TLS_CERT_FILE"); val != "" {
		cfg.Security.TLS.CertFile = val
	}
	if val := os.Getenv("SENTINEL_SECURITY_TLS_KEY_FILE"); val != "" {
		cfg.Security.TLS.KeyFile = val
	}
	if val := os.Getenv("SENTINEL_SECURITY_MTLS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Security.TLS.MTLS.Enabled = b
		}
	}
	if val := os.Getenv("SENTINEL_SECURITY_MTLS_CLIENT_CA_FILE"); val != "" {
		cfg.Security.TLS.MTLS.ClientCAFile = val
	}
}

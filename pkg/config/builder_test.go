package config

import "time"

// ConfigBuilder provides a fluent API for building Config instances in tests.
// It starts with default values and allows selective overrides.
type ConfigBuilder struct {
	cfg Config
}

// NewTestConfig creates a new ConfigBuilder with sensible defaults for testing.
// The resulting configuration is valid and can be used immediately.
func NewTestConfig() *ConfigBuilder {
	cfg := Config{}
	ApplyDefaults(&cfg)
	cfg.Storage.Backend = "memory"
	return &ConfigBuilder{cfg: cfg}
}

// Build returns the built Config instance.
func (b *ConfigBuilder) Build() *Config {
	return &b.cfg
}

// WithStorageBackend sets the persistence backend.
func (b *ConfigBuilder) WithStorageBackend(backend string) *ConfigBuilder {
	b.cfg.Storage.Backend = backend
	return b
}

// WithSQLitePath sets the SQLite database path and switches the backend to sqlite.
func (b *ConfigBuilder) WithSQLitePath(path string) *ConfigBuilder {
	b.cfg.Storage.Backend = "sqlite"
	b.cfg.Storage.SQLite.Path = path
	return b
}

// WithPolicyDefaultAllowAll sets the zero-configuration policy default.
func (b *ConfigBuilder) WithPolicyDefaultAllowAll(allow bool) *ConfigBuilder {
	b.cfg.Policy.DefaultAllowAll = allow
	return b
}

// WithRetentionDays sets the audit log's age-based retention window.
func (b *ConfigBuilder) WithRetentionDays(days int) *ConfigBuilder {
	b.cfg.Audit.Retention.RetentionDays = days
	return b
}

// WithApprovalTimeout sets the default approval window.
func (b *ConfigBuilder) WithApprovalTimeout(d time.Duration) *ConfigBuilder {
	b.cfg.Approval.DefaultTimeout = d
	return b
}

// WithLoggingLevel sets the logging level.
func (b *ConfigBuilder) WithLoggingLevel(level string) *ConfigBuilder {
	b.cfg.Telemetry.Logging.Level = level
	return b
}

// WithLoggingFormat sets the logging format.
func (b *ConfigBuilder) WithLoggingFormat(format string) *ConfigBuilder {
	b.cfg.Telemetry.Logging.Format = format
	return b
}

// WithMetricsEnabled sets whether metrics are enabled.
func (b *ConfigBuilder) WithMetricsEnabled(enabled bool) *ConfigBuilder {
	b.cfg.Telemetry.Metrics.Enabled = enabled
	return b
}

// WithTracingEnabled sets whether tracing is enabled.
func (b *ConfigBuilder) WithTracingEnabled(enabled bool, endpoint string) *ConfigBuilder {
	b.cfg.Telemetry.Tracing.Enabled = enabled
	b.cfg.Telemetry.Tracing.Endpoint = endpoint
	if b.cfg.Telemetry.Tracing.SampleRatio == 0 {
		b.cfg.Telemetry.Tracing.SampleRatio = DefaultTracingSampleRatio
	}
	return b
}

// WithTLS sets TLS configuration.
func (b *ConfigBuilder) WithTLS(certFile, keyFile string) *ConfigBuilder {
	b.cfg.Security.TLS.Enabled = true
	b.cfg.Security.TLS.CertFile = certFile
	b.cfg.Security.TLS.KeyFile = keyFile
	return b
}

// WithMTLS sets mutual TLS configuration, implicitly enabling TLS.
func (b *ConfigBuilder) WithMTLS(caFile string) *ConfigBuilder {
	b.cfg.Security.TLS.MTLS.Enabled = true
	b.cfg.Security.TLS.MTLS.ClientCAFile = caFile
	b.cfg.Security.TLS.Enabled = true
	return b
}

// MinimalConfig returns a minimal valid configuration for testing.
func MinimalConfig() *Config {
	return NewTestConfig().Build()
}

// Package config defines Sentinel's configuration surface: the sections a
// deployment tunes (storage backend, policy defaults, audit retention, the
// kill switch, approval timeouts, telemetry, and TLS for the optional
// serve command), loaded from YAML with environment-variable overrides and
// an optional hot-reload watch.
//
// Adapted from pkg/config/config.go's struct-per-section layout; sections
// with no governance-domain equivalent (Proxy, Providers, Routing,
// Processing, Limits) are dropped, per spec.md's non-goals around
// provider routing and cost tracking.
package config

import "time"

// Config is Sentinel's root configuration structure.
type Config struct {
	// Storage contains the embedded persistence backend's configuration.
	Storage StorageConfig `yaml:"storage"`

	// Policy contains the policy-defaults section; see PolicyDefaultsConfig
	// for what the orchestrator does and does not take from it.
	Policy PolicyDefaultsConfig `yaml:"policy"`

	// Audit contains audit-log retention, free-text query, and export
	// configuration.
	Audit AuditConfig `yaml:"audit"`

	// KillSwitch contains the kill switch's default activation state.
	KillSwitch KillSwitchConfig `yaml:"kill_switch"`

	// Approval contains the approval workflow's default timeout.
	Approval ApprovalConfig `yaml:"approval"`

	// Telemetry contains configuration for observability: logging,
	// metrics, tracing, and health checks.
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Security contains TLS settings for the optional HTTP-facing serve
	// command; the in-process evaluate path never requires them.
	Security SecurityConfig `yaml:"security"`
}

// StorageConfig selects and configures the embedded persistence backend.
type StorageConfig struct {
	// Backend selects the store implementation.
	// Options: "sqlite", "memory"
	// Default: "sqlite"
	Backend string `yaml:"backend"`

	// SQLite contains configuration specific to the sqlite backend.
	SQLite SQLiteConfig `yaml:"sqlite"`
}

// SQLiteConfig mirrors pkg/store/sqlite.Config.
type SQLiteConfig struct {
	// Path is the database file path. The special value "file::memory:?cache=shared"
	// runs an in-process, in-memory database useful for tests.
	// Default: "data/sentinel.db"
	Path string `yaml:"path"`

	// MaxOpenConns bounds the connection pool.
	// Default: 10
	MaxOpenConns int `yaml:"max_open_conns"`

	// MaxIdleConns bounds idle pooled connections.
	// Default: 5
	MaxIdleConns int `yaml:"max_idle_conns"`

	// WALMode enables SQLite's write-ahead log journal mode.
	// Default: true
	WALMode bool `yaml:"wal_mode"`

	// BusyTimeout bounds how long a write waits on a lock before failing.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// PolicyDefaultsConfig describes the orchestrator's zero-configuration path.
type PolicyDefaultsConfig struct {
	// DefaultAllowAll is loaded, overridable and validated like any other
	// field, but the orchestrator does not read it: an agent with no inline
	// or persisted policy is always evaluated against the synthetic
	// allow-all policy (spec.md §4.8 step 3), whatever this is set to.
	// Default: true
	DefaultAllowAll bool `yaml:"default_allow_all"`
}

// AuditConfig controls audit-log retention, query limits, and archival.
type AuditConfig struct {
	// Retention contains age/count-based pruning configuration, mirroring
	// pkg/retention.Config.
	Retention RetentionConfig `yaml:"retention"`

	// Query contains default and maximum page sizes for audit reads.
	Query QueryConfig `yaml:"query"`
}

// RetentionConfig mirrors pkg/retention.Config.
type RetentionConfig struct {
	// RetentionDays is how many days of audit history to keep. 0 disables
	// age-based pruning.
	// Default: 90
	RetentionDays int `yaml:"retention_days"`

	// PruneSchedule is a cron expression the scheduler prunes on. Empty
	// disables scheduled pruning.
	// Default: "0 3 * * *"
	PruneSchedule string `yaml:"prune_schedule"`

	// ArchiveBeforeDelete exports pruned records as NDJSON before removal.
	// Default: false
	ArchiveBeforeDelete bool `yaml:"archive_before_delete"`

	// ArchivePath is the directory archive files are written to.
	// Default: "data/archives/"
	ArchivePath string `yaml:"archive_path"`

	// MaxRecords caps the audit log's total row count. 0 means unlimited.
	// Default: 0
	MaxRecords int64 `yaml:"max_records"`
}

// QueryConfig bounds AuditQuery page sizes.
type QueryConfig struct {
	// DefaultLimit is applied when a query specifies no limit.
	// Default: 100
	DefaultLimit int `yaml:"default_limit"`

	// MaxLimit is the largest page size a query may request.
	// Default: 10000
	MaxLimit int `yaml:"max_limit"`
}

// KillSwitchConfig controls the kill switch's startup state.
type KillSwitchConfig struct {
	// ActivatedByDefault starts the global kill switch in the active
	// state, useful for a deployment that must opt in to allowing tool
	// calls explicitly.
	// Default: false
	ActivatedByDefault bool `yaml:"activated_by_default"`

	// DefaultReason is recorded when ActivatedByDefault is true.
	// Default: "kill switch active by default configuration"
	DefaultReason string `yaml:"default_reason"`
}

// ApprovalConfig controls the approval workflow's timing.
type ApprovalConfig struct {
	// DefaultTimeout is the approval window applied when a request does
	// not specify one.
	// Default: 1h
	DefaultTimeout time.Duration `yaml:"default_timeout"`
}

// TelemetryConfig contains observability configuration.
type TelemetryConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
	Tracing TracingConfig `yaml:"tracing"`
	Health  HealthConfig  `yaml:"health"`
}

// LoggingConfig configures the log/slog-based structured logger.
type LoggingConfig struct {
	// Level is the minimum level logged.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format selects the slog handler.
	// Options: "json", "text"
	// Default: "json"
	Format string `yaml:"format"`
}

// RedactPattern is a custom PII redaction rule: a named regular expression
// and the replacement text substituted for each match.
type RedactPattern struct {
	Name        string `yaml:"name"`
	Pattern     string `yaml:"pattern"`
	Replacement string `yaml:"replacement"`
}

// MetricsConfig configures the Prometheus metrics endpoint.
type MetricsConfig struct {
	// Enabled controls whether the collector records metrics and whether
	// the serve command mounts the metrics handler. Metrics are registered
	// with the registry either way.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Path is the HTTP path metrics are served on.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// ListenAddress is the address the metrics server binds.
	// Default: "127.0.0.1:9090"
	ListenAddress string `yaml:"listen_address"`

	// Namespace is the Prometheus metric namespace prefix.
	// Default: "sentinel"
	Namespace string `yaml:"namespace"`

	// Subsystem is the Prometheus metric subsystem prefix.
	// Default: "governance"
	Subsystem string `yaml:"subsystem"`

	// DecisionDurationBuckets are the histogram buckets used for decision
	// evaluation latency, in seconds.
	// Default: [0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0]
	DecisionDurationBuckets []float64 `yaml:"decision_duration_buckets"`

	// ApprovalWaitBuckets are the histogram buckets used for approval
	// resolution latency, in seconds.
	// Default: [1, 5, 15, 60, 300, 900, 1800, 3600]
	ApprovalWaitBuckets []float64 `yaml:"approval_wait_buckets"`
}

// TracingConfig configures the optional OpenTelemetry exporter behind
// telemetry.Tracer. Only spans started through Tracer().Start are
// exported; neither the orchestrator's evaluate path nor the serve
// command starts spans.
type TracingConfig struct {
	// Enabled controls whether spans are exported. A disabled tracer
	// still returns valid no-op spans so instrumented code never branches
	// on this flag.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// ServiceName is stamped on the exported resource.
	// Default: "sentinel"
	ServiceName string `yaml:"service_name"`

	// Sampler selects the sampling strategy: "always", "never", or
	// "ratio".
	// Default: "ratio"
	Sampler string `yaml:"sampler"`

	// SampleRatio is the fraction of traces sampled when Sampler is
	// "ratio", in [0, 1].
	// Default: 1.0
	SampleRatio float64 `yaml:"sample_ratio"`

	// Exporter selects the span exporter. Only "otlp" is implemented;
	// "jaeger" and "zipkin" are recognized but return an error, since
	// this core only ships an OTLP pipeline (route Jaeger/Zipkin through
	// an OTLP collector instead).
	// Default: "otlp"
	Exporter string `yaml:"exporter"`

	// Endpoint is the OTLP collector endpoint.
	Endpoint string `yaml:"endpoint"`

	// OTLP contains settings specific to the OTLP gRPC exporter.
	OTLP OTLPConfig `yaml:"otlp"`
}

// OTLPConfig configures the OTLP gRPC trace exporter.
type OTLPConfig struct {
	// Insecure disables TLS on the gRPC connection to the collector.
	// Default: true
	Insecure bool `yaml:"insecure"`

	// Timeout bounds each export call.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`
}

// HealthConfig holds the liveness/readiness settings. Both fields are
// defaulted and validated, but the serve command does not read them: it
// always mounts /health and /ready.
type HealthConfig struct {
	// Enabled marks the health endpoints as wanted.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Path is the configured health path.
	// Default: "/healthz"
	Path string `yaml:"path"`
}

// SecurityConfig contains TLS settings for the optional serve command.
type SecurityConfig struct {
	TLS TLSConfig `yaml:"tls"`
}

// TLSConfig configures server-side TLS termination.
type TLSConfig struct {
	// Enabled is validated together with CertFile/KeyFile, but the serve
	// command does not read it and always listens over plain HTTP.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// CertFile and KeyFile are PEM file paths, required when Enabled.
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`

	// MTLS contains optional mutual-TLS client verification settings.
	MTLS MTLSConfig `yaml:"mtls"`
}

// MTLSConfig configures client certificate verification.
type MTLSConfig struct {
	// Enabled requires clients to present a certificate signed by
	// ClientCAFile.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// ClientCAFile is a PEM bundle of trusted client CAs.
	ClientCAFile string `yaml:"client_ca_file"`
}

package config

import "time"

// Default values for configuration fields.
const (
	// Storage defaults
	DefaultStorageBackend     = "sqlite"
	DefaultSQLitePath         = "data/sentinel.db"
	DefaultSQLiteMaxOpenConns = 10
	DefaultSQLiteMaxIdleConns = 5
	DefaultSQLiteWALMode      = true
	DefaultSQLiteBusyTimeout  = 5 * time.Second

	// Policy defaults
	DefaultPolicyDefaultAllowAll = true

	// Audit retention defaults
	DefaultRetentionDays        = 90
	DefaultRetentionSchedule    = "0 3 * * *"
	DefaultRetentionArchive     = false
	DefaultRetentionArchivePath = "data/archives/"
	DefaultRetentionMaxRecords  = int64(0)
	DefaultQueryDefaultLimit    = 100
	DefaultQueryMaxLimit        = 10000

	// Kill switch defaults
	DefaultKillSwitchActivatedByDefault = false

	// Approval defaults
	DefaultApprovalTimeout = time.Hour

	// Telemetry defaults
	DefaultLoggingLevel       = "info"
	DefaultLoggingFormat      = "json"
	DefaultMetricsEnabled     = true
	DefaultMetricsPath        = "/metrics"
	DefaultMetricsListenAddr  = "127.0.0.1:9090"
	DefaultMetricsNamespace   = "sentinel"
	DefaultMetricsSubsystem   = "governance"
	DefaultTracingServiceName = "sentinel"
	DefaultTracingSampler     = "ratio"
	DefaultTracingSampleRatio = 1.0
	DefaultTracingExporter    = "otlp"
	DefaultTracingOTLPTimeout = 10 * time.Second
	DefaultHealthEnabled      = true
	DefaultHealthPath         = "/healthz"

	// Security defaults
	DefaultTLSEnabled  = false
	DefaultMTLSEnabled = false
)

// ApplyDefaults applies default values to a Config struct.
// It sets defaults for any fields that have zero values.
// This function is idempotent and safe to call multiple times.
func ApplyDefaults(cfg *Config) {
	applyStorageDefaults(cfg)
	applyPolicyDefaults(cfg)
	applyAuditDefaults(cfg)
	applyKillSwitchDefaults(cfg)
	applyApprovalDefaults(cfg)
	applyTelemetryDefaults(cfg)

	// Security defaults are false (zero values), which is correct
}

// applyStorageDefaults applies defaults to the persistence backend config.
func applyStorageDefaults(cfg *Config) {
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = DefaultStorageBackend
	}
	if cfg.Storage.SQLite.Path == "" {
		cfg.Storage.SQLite.Path = DefaultSQLitePath
	}
	if cfg.Storage.SQLite.MaxOpenConns == 0 {
		cfg.Storage.SQLite.MaxOpenConns = DefaultSQLiteMaxOpenConns
	}
	if cfg.Storage.SQLite.MaxIdleConns == 0 {
		cfg.Storage.SQLite.MaxIdleConns = DefaultSQLiteMaxIdleConns
	}
	if !cfg.Storage.SQLite.WALMode {
		cfg.Storage.SQLite.WALMode = DefaultSQLiteWALMode
	}
	if cfg.Storage.SQLite.BusyTimeout == 0 {
		cfg.Storage.SQLite.BusyTimeout = DefaultSQLiteBusyTimeout
	}
}

// applyPolicyDefaults applies defaults to policy resolution behavior.
func applyPolicyDefaults(cfg *Config) {
	// DefaultAllowAll defaults to true. A plain bool cannot tell "unset" from
	// "explicitly false", so this always leaves the field true; LoadConfig
	// restores an explicit `default_allow_all: false` from the file.
	if !cfg.Policy.DefaultAllowAll {
		cfg.Policy.DefaultAllowAll = DefaultPolicyDefaultAllowAll
	}
}

// applyAuditDefaults applies defaults to retention and query configuration.
func applyAuditDefaults(cfg *Config) {
	if cfg.Audit.Retention.RetentionDays == 0 {
		cfg.Audit.Retention.RetentionDays = DefaultRetentionDays
	}
	if cfg.Audit.Retention.PruneSchedule == "" {
		cfg.Audit.Retention.PruneSchedule = DefaultRetentionSchedule
	}
	if cfg.Audit.Retention.ArchivePath == "" {
		cfg.Audit.Retention.ArchivePath = DefaultRetentionArchivePath
	}
	if cfg.Audit.Query.DefaultLimit == 0 {
		cfg.Audit.Query.DefaultLimit = DefaultQueryDefaultLimit
	}
	if cfg.Audit.Query.MaxLimit == 0 {
		cfg.Audit.Query.MaxLimit = DefaultQueryMaxLimit
	}
}

// applyKillSwitchDefaults fills in a default reason when an operator
// configures the kill switch to start active but forgets to say why.
func applyKillSwitchDefaults(cfg *Config) {
	if cfg.KillSwitch.ActivatedByDefault && cfg.KillSwitch.DefaultReason == "" {
		cfg.KillSwitch.DefaultReason = "kill switch active by default configuration"
	}
}

// applyApprovalDefaults applies the default approval window.
func applyApprovalDefaults(cfg *Config) {
	if cfg.Approval.DefaultTimeout == 0 {
		cfg.Approval.DefaultTimeout = DefaultApprovalTimeout
	}
}

// applyTelemetryDefaults applies defaults across logging, metrics, tracing,
// and health-check configuration.
func applyTelemetryDefaults(cfg *Config) {
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Telemetry.Metrics.ListenAddress == "" {
		cfg.Telemetry.Metrics.ListenAddress = DefaultMetricsListenAddr
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Telemetry.Metrics.Subsystem == "" {
		cfg.Telemetry.Metrics.Subsystem = DefaultMetricsSubsystem
	}
	if len(cfg.Telemetry.Metrics.DecisionDurationBuckets) == 0 {
		cfg.Telemetry.Metrics.DecisionDurationBuckets = []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0}
	}
	if len(cfg.Telemetry.Metrics.ApprovalWaitBuckets) == 0 {
		cfg.Telemetry.Metrics.ApprovalWaitBuckets = []float64{1, 5, 15, 60, 300, 900, 1800, 3600}
	}
	if cfg.Telemetry.Tracing.ServiceName == "" {
		cfg.Telemetry.Tracing.ServiceName = DefaultTracingServiceName
	}
	if cfg.Telemetry.Tracing.Sampler == "" {
		cfg.Telemetry.Tracing.Sampler = DefaultTracingSampler
	}
	if cfg.Telemetry.Tracing.SampleRatio == 0 {
		cfg.Telemetry.Tracing.SampleRatio = DefaultTracingSampleRatio
	}
	if cfg.Telemetry.Tracing.Exporter == "" {
		cfg.Telemetry.Tracing.Exporter = DefaultTracingExporter
	}
	if !cfg.Telemetry.Tracing.OTLP.Insecure {
		cfg.Telemetry.Tracing.OTLP.Insecure = true
	}
	if cfg.Telemetry.Tracing.OTLP.Timeout == 0 {
		cfg.Telemetry.Tracing.OTLP.Timeout = DefaultTracingOTLPTimeout
	}
	if cfg.Telemetry.Health.Path == "" {
		cfg.Telemetry.Health.Path = DefaultHealthPath
	}
}

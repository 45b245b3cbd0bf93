package config

import (
	"fmt"
	"strings"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "storage.backend").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
type ValidationError struct {
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. It returns nil if the configuration is valid.
// All validation errors are collected and returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateStorage(&cfg.Storage)...)
	errs = append(errs, validateAudit(&cfg.Audit)...)
	errs = append(errs, validateApproval(&cfg.Approval)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)
	errs = append(errs, validateSecurity(&cfg.Security)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

// validateStorage validates the persistence backend configuration.
func validateStorage(cfg *StorageConfig) []FieldError {
	var errs []FieldError

	validBackends := map[string]bool{"sqlite": true, "memory": true}
	if cfg.Backend == "" {
		errs = append(errs, FieldError{Field: "storage.backend", Message: "backend is required"})
	} else if !validBackends[cfg.Backend] {
		errs = append(errs, FieldError{
			Field:   "storage.backend",
			Message: fmt.Sprintf("invalid backend %q: must be 'sqlite' or 'memory'", cfg.Backend),
		})
	}

	if cfg.Backend == "sqlite" {
		if cfg.SQLite.Path == "" {
			errs = append(errs, FieldError{Field: "storage.sqlite.path", Message: "path is required when backend is 'sqlite'"})
		}
		if cfg.SQLite.MaxOpenConns < 0 {
			errs = append(errs, FieldError{Field: "storage.sqlite.max_open_conns", Message: "max open conns must be non-negative"})
		}
		if cfg.SQLite.MaxIdleConns < 0 {
			errs = append(errs, FieldError{Field: "storage.sqlite.max_idle_conns", Message: "max idle conns must be non-negative"})
		}
		if cfg.SQLite.BusyTimeout < 0 {
			errs = append(errs, FieldError{Field: "storage.sqlite.busy_timeout", Message: "busy timeout must be non-negative"})
		}
	}

	return errs
}

// validateAudit validates retention and query configuration.
func validateAudit(cfg *AuditConfig) []FieldError {
	var errs []FieldError

	if cfg.Retention.RetentionDays < 0 {
		errs = append(errs, FieldError{Field: "audit.retention.retention_days", Message: "retention days must be non-negative"})
	}
	if cfg.Retention.RetentionDays > 3650 {
		errs = append(errs, FieldError{Field: "audit.retention.retention_days", Message: "retention days exceeds reasonable limit (3650 days / 10 years)"})
	}
	if cfg.Retention.MaxRecords < 0 {
		errs = append(errs, FieldError{Field: "audit.retention.max_records", Message: "max records must be non-negative"})
	}
	if cfg.Retention.ArchiveBeforeDelete && cfg.Retention.ArchivePath == "" {
		errs = append(errs, FieldError{Field: "audit.retention.archive_path", Message: "archive path is required when archive_before_delete is enabled"})
	}

	if cfg.Query.DefaultLimit < 0 {
		errs = append(errs, FieldError{Field: "audit.query.default_limit", Message: "default limit must be non-negative"})
	}
	if cfg.Query.MaxLimit < 0 {
		errs = append(errs, FieldError{Field: "audit.query.max_limit", Message: "max limit must be non-negative"})
	}
	if cfg.Query.DefaultLimit > 0 && cfg.Query.MaxLimit > 0 && cfg.Query.DefaultLimit > cfg.Query.MaxLimit {
		errs = append(errs, FieldError{Field: "audit.query.default_limit", Message: "default limit cannot exceed max limit"})
	}

	return errs
}

// validateApproval validates the approval workflow's timing configuration.
func validateApproval(cfg *ApprovalConfig) []FieldError {
	var errs []FieldError
	if cfg.DefaultTimeout < 0 {
		errs = append(errs, FieldError{Field: "approval.default_timeout", Message: "default timeout must be non-negative"})
	}
	return errs
}

// validateTelemetry validates logging, metrics, tracing, and health configuration.
func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if cfg.Logging.Level == "" {
		errs = append(errs, FieldError{Field: "telemetry.logging.level", Message: "logging level is required"})
	} else if !validLevels[cfg.Logging.Level] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("invalid logging level %q: must be 'debug', 'info', 'warn', or 'error'", cfg.Logging.Level),
		})
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if cfg.Logging.Format == "" {
		errs = append(errs, FieldError{Field: "telemetry.logging.format", Message: "logging format is required"})
	} else if !validFormats[cfg.Logging.Format] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("invalid logging format %q: must be 'json' or 'text'", cfg.Logging.Format),
		})
	}

	if cfg.Metrics.Enabled && cfg.Metrics.Path == "" {
		errs = append(errs, FieldError{Field: "telemetry.metrics.path", Message: "metrics path is required when metrics are enabled"})
	}

	if cfg.Tracing.Enabled && cfg.Tracing.Endpoint == "" {
		errs = append(errs, FieldError{Field: "telemetry.tracing.endpoint", Message: "tracing endpoint is required when tracing is enabled"})
	}
	if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1.0 {
		errs = append(errs, FieldError{Field: "telemetry.tracing.sample_ratio", Message: "sample ratio must be between 0.0 and 1.0"})
	}
	validSamplers := map[string]bool{"always": true, "never": true, "ratio": true}
	if cfg.Tracing.Sampler != "" && !validSamplers[cfg.Tracing.Sampler] {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.sampler",
			Message: fmt.Sprintf("invalid sampler %q: must be 'always', 'never', or 'ratio'", cfg.Tracing.Sampler),
		})
	}
	if cfg.Tracing.Enabled && cfg.Tracing.Exporter != "" && cfg.Tracing.Exporter != "otlp" {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.exporter",
			Message: fmt.Sprintf("exporter %q is not implemented: only 'otlp' is supported, route Jaeger/Zipkin through an OTLP collector", cfg.Tracing.Exporter),
		})
	}

	if cfg.Health.Enabled && cfg.Health.Path == "" {
		errs = append(errs, FieldError{Field: "telemetry.health.path", Message: "health path is required when health checks are enabled"})
	}
	if cfg.Health.Path != "" && cfg.Health.Path[0] != '/' {
		errs = append(errs, FieldError{Field: "telemetry.health.path", Message: "health path must start with /"})
	}

	return errs
}

// validateSecurity validates TLS settings for the optional serve command.
func validateSecurity(cfg *SecurityConfig) []FieldError {
	var errs []FieldError

	if cfg.TLS.Enabled {
		if cfg.TLS.CertFile == "" {
			errs = append(errs, FieldError{Field: "security.tls.cert_file", Message: "TLS certificate file is required when TLS is enabled"})
		}
		if cfg.TLS.KeyFile == "" {
			errs = append(errs, FieldError{Field: "security.tls.key_file", Message: "TLS key file is required when TLS is enabled"})
		}
	}

	if cfg.TLS.MTLS.Enabled {
		if cfg.TLS.MTLS.ClientCAFile == "" {
			errs = append(errs, FieldError{Field: "security.tls.mtls.client_ca_file", Message: "mTLS client CA file is required when mTLS is enabled"})
		}
		if !cfg.TLS.Enabled {
			errs = append(errs, FieldError{Field: "security.tls.mtls.enabled", Message: "mTLS requires TLS to be enabled (security.tls.enabled must be true)"})
		}
	}

	return errs
}

// Package gerr defines the single structured error kind used across the
// governance core. Every error raised by the decision path is a *gerr.Error
// carrying a stable code, a failure category, and optional context fields.
package gerr

import "fmt"

// Category is one of the closed set of failure categories that can be
// attached to an audit record.
type Category string

const (
	CategoryToolError        Category = "tool_error"
	CategoryPolicyDenial     Category = "policy_denial"
	CategoryProviderTimeout  Category = "provider_timeout"
	CategoryProviderError    Category = "provider_error"
	CategoryInjectionAlert   Category = "injection_alert"
	CategoryConfigError      Category = "config_error"
	CategoryRateLimit        Category = "rate_limit"
	CategoryApprovalTimeout  Category = "approval_timeout"
)

// Code is a stable, machine-matchable error code.
type Code string

const (
	CodeInvalidRequest         Code = "INVALID_REQUEST"
	CodeInvalidConfig          Code = "INVALID_CONFIG"
	CodeInvalidPolicy          Code = "INVALID_POLICY"
	CodeDatabaseRequired       Code = "DATABASE_REQUIRED"
	CodeAgentNotFound          Code = "AGENT_NOT_FOUND"
	CodeVersionNotFound        Code = "VERSION_NOT_FOUND"
	CodeApprovalNotSupported   Code = "APPROVAL_NOT_SUPPORTED"
	CodePolicyDenied           Code = "POLICY_DENIED"
	CodeToolExecutionError     Code = "TOOL_EXECUTION_ERROR"
)

// codeCategory pins every known code to its category per spec.md §7.
var codeCategory = map[Code]Category{
	CodeInvalidRequest:       CategoryConfigError,
	CodeInvalidConfig:        CategoryConfigError,
	CodeInvalidPolicy:        CategoryConfigError,
	CodeDatabaseRequired:     CategoryConfigError,
	CodeAgentNotFound:        CategoryConfigError,
	CodeVersionNotFound:      CategoryConfigError,
	CodeApprovalNotSupported: CategoryConfigError,
	CodePolicyDenied:         CategoryPolicyDenial,
	CodeToolExecutionError:   CategoryToolError,
}

// Error is the single structured error kind raised by the governance core.
type Error struct {
	Code     Code
	Category Category
	Fields   map[string]any
	cause    error
}

// New creates a new Error for the given code. The category is resolved from
// the code's fixed mapping unless overridden with WithCategory.
func New(code Code, message string, fields map[string]any) *Error {
	cat, ok := codeCategory[code]
	if !ok {
		cat = CategoryConfigError
	}
	e := &Error{Code: code, Category: cat, Fields: fields}
	if message != "" {
		if e.Fields == nil {
			e.Fields = map[string]any{}
		}
		e.Fields["message"] = message
	}
	return e
}

// Wrap attaches an underlying cause to the error for %w-style unwrapping.
func (e *Error) Wrap(cause error) *Error {
	e.cause = cause
	return e
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg, _ := e.Fields["message"].(string)
	if msg == "" {
		msg = string(e.Code)
	}
	if e.cause != nil {
		return fmt.Sprintf("%s [%s/%s]: %v", msg, e.Code, e.Category, e.cause)
	}
	return fmt.Sprintf("%s [%s/%s]", msg, e.Code, e.Category)
}

// Unwrap exposes the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is allows errors.Is(err, gerr.CodeX) style checks via a sentinel wrapper.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return other.Code == e.Code
}

// Package trace implements the W3C-compliant trace-context carrier used by
// the governance core to tag every event and audit record produced by one
// evaluate call with the same trace-id (spec.md §4.1).
//
// This is deliberately independent of pkg/telemetry/tracing's OpenTelemetry
// span machinery: the carrier here is the decision-path primitive — a pair
// of hex identifiers and a context.Context propagation helper — not a
// tracing SDK. generation uses crypto/rand because none of the pack's
// tracing libraries expose a standalone raw-hex ID generator (see
// DESIGN.md).
package trace

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"strings"
)

const (
	traceIDHexLen = 32
	spanIDHexLen  = 16
	zeroTraceID   = "00000000000000000000000000000000"
	zeroSpanID    = "0000000000000000"
)

// Context is an immutable W3C trace context: a trace-id, a span-id, and the
// concatenated traceparent header they form.
type Context struct {
	TraceID     string
	SpanID      string
	Traceparent string
}

// GenerateTraceID returns a fresh, cryptographically random 32-hex-digit
// trace-id. It is never the all-zero value.
func GenerateTraceID() string {
	for {
		id := randomHex(traceIDHexLen / 2)
		if id != zeroTraceID {
			return id
		}
	}
}

// GenerateSpanID returns a fresh, cryptographically random 16-hex-digit
// span-id. It is never the all-zero value.
func GenerateSpanID() string {
	for {
		id := randomHex(spanIDHexLen / 2)
		if id != zeroSpanID {
			return id
		}
	}
}

func randomHex(nBytes int) string {
	buf := make([]byte, nBytes)
	// crypto/rand.Read only returns an error on a broken entropy source;
	// there is no sane fallback, so a failure here is unrecoverable.
	if _, err := rand.Read(buf); err != nil {
		panic("trace: crypto/rand unavailable: " + err.Error())
	}
	return hex.EncodeToString(buf)
}

// ValidateTraceID reports whether s is a well-formed, non-zero 32-hex-digit
// trace-id.
func ValidateTraceID(s string) bool {
	return isLowerHex(s, traceIDHexLen) && s != zeroTraceID
}

// ValidateSpanID reports whether s is a well-formed, non-zero 16-hex-digit
// span-id.
func ValidateSpanID(s string) bool {
	return isLowerHex(s, spanIDHexLen) && s != zeroSpanID
}

func isLowerHex(s string, wantLen int) bool {
	if len(s) != wantLen {
		return false
	}
	for _, c := range s {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
			return false
		}
	}
	return true
}

// New constructs a Context from a trace-id and span-id, regenerating
// whichever one is invalid or absent rather than rejecting the call —
// callers decide whether to regenerate, this constructor always succeeds.
func New(traceID, spanID string) Context {
	if !ValidateTraceID(traceID) {
		traceID = GenerateTraceID()
	}
	if !ValidateSpanID(spanID) {
		spanID = GenerateSpanID()
	}
	return Context{
		TraceID:     traceID,
		SpanID:      spanID,
		Traceparent: "00-" + traceID + "-" + spanID + "-01",
	}
}

// NewRoot constructs a brand-new trace context with freshly generated
// trace-id and span-id.
func NewRoot() Context {
	return New(GenerateTraceID(), GenerateSpanID())
}

// ChildSpan returns a new Context sharing the same trace-id but with a fresh
// span-id, the port of "entering a new span within the same trace."
func (c Context) ChildSpan() Context {
	return New(c.TraceID, GenerateSpanID())
}

// ParseTraceParent parses a W3C traceparent header of the form
// "00-{32 hex}-{16 hex}-01". It returns ok=false — signaling "invalid" —
// rather than a fallback value, so callers can decide whether to
// regenerate (spec.md §4.1).
func ParseTraceParent(header string) (ctx Context, ok bool) {
	parts := strings.Split(header, "-")
	if len(parts) != 4 {
		return Context{}, false
	}
	version, traceID, spanID, flags := parts[0], parts[1], parts[2], parts[3]
	if len(version) != 2 || !isLowerHex(version, 2) {
		return Context{}, false
	}
	if !ValidateTraceID(traceID) {
		return Context{}, false
	}
	if !ValidateSpanID(spanID) {
		return Context{}, false
	}
	if len(flags) != 2 || !isLowerHex(flags, 2) {
		return Context{}, false
	}
	return Context{
		TraceID:     traceID,
		SpanID:      spanID,
		Traceparent: "00-" + traceID + "-" + spanID + "-01",
	}, true
}

type contextKey struct{}

// WithContext returns a derived context.Context carrying tc. Any goroutine
// launched from the returned context observes the same trace-id — the
// ambient-context primitive required by spec.md §4.1.
func WithContext(ctx context.Context, tc Context) context.Context {
	return context.WithValue(ctx, contextKey{}, tc)
}

// FromContext retrieves the trace Context previously attached with
// WithContext, if any.
func FromContext(ctx context.Context) (Context, bool) {
	tc, ok := ctx.Value(contextKey{}).(Context)
	return tc, ok
}

// FromContextOrNew retrieves the ambient trace Context, generating a fresh
// root context if none is present.
func FromContextOrNew(ctx context.Context) Context {
	if tc, ok := FromContext(ctx); ok {
		return tc
	}
	return NewRoot()
}

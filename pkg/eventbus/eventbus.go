// Package eventbus implements the fire-and-forget notification fan-out
// described in spec.md §4.7: listeners are invoked off the caller's stack,
// each with an independent deadline, and a listener panic or hang can never
// affect the emitting call site.
//
// The per-listener timeout pattern (context.WithTimeout + a buffered error
// channel + select) is adapted from
// pkg/telemetry/health/checker.go's runCheck.
package eventbus

import (
	"context"
	"sync"
	"time"
)

// ListenerTimeout bounds how long a single listener may run before its
// result is discarded (spec.md §4.7).
const ListenerTimeout = 100 * time.Millisecond

// Event is a single notification dispatched on the bus.
type Event struct {
	Type    string
	TraceID string
	Payload map[string]any
}

// Listener receives a dispatched Event. A listener that panics or exceeds
// ListenerTimeout is abandoned silently — it can never block or crash the
// emitter.
type Listener func(ctx context.Context, evt Event)

// TraceResolver is invoked once per Emit to resolve the trace-id to stamp
// onto the event when the caller didn't supply one. A resolver that panics
// is treated as "no trace-id available", never propagated.
type TraceResolver func(ctx context.Context) string

// Bus is a type-keyed listener registry with deferred, deadlined dispatch.
type Bus struct {
	mu        sync.RWMutex
	listeners map[string][]registration
	nextID    uint64
	resolver  TraceResolver
}

type registration struct {
	id uint64
	fn Listener
}

// New creates an empty Bus. resolver may be nil, in which case Emit never
// auto-fills TraceID.
func New(resolver TraceResolver) *Bus {
	return &Bus{
		listeners: make(map[string][]registration),
		resolver:  resolver,
	}
}

// On registers fn against eventType and returns a subscription id usable
// with Off.
func (b *Bus) On(eventType string, fn Listener) uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.listeners[eventType] = append(b.listeners[eventType], registration{id: id, fn: fn})
	return id
}

// Off removes the listener registered with the given subscription id.
func (b *Bus) Off(eventType string, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	regs := b.listeners[eventType]
	for i, r := range regs {
		if r.id == id {
			b.listeners[eventType] = append(regs[:i], regs[i+1:]...)
			return
		}
	}
}

// RemoveAll deregisters every listener for eventType.
func (b *Bus) RemoveAll(eventType string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.listeners, eventType)
}

// Emit dispatches evt to every listener registered for evt.Type. It never
// blocks the caller past the snapshot-and-launch step: each listener runs
// in its own goroutine with an independent ListenerTimeout deadline, and
// Emit itself returns without waiting for any of them.
func (b *Bus) Emit(ctx context.Context, evt Event) {
	if evt.TraceID == "" && b.resolver != nil {
		evt.TraceID = b.safeResolve(ctx)
	}

	b.mu.RLock()
	regs := make([]registration, len(b.listeners[evt.Type]))
	copy(regs, b.listeners[evt.Type])
	b.mu.RUnlock()

	if len(regs) == 0 {
		return
	}

	// Dispatch is deferred past the caller's own stack: the fan-out loop
	// itself runs in a goroutine so Emit returns immediately regardless of
	// how many listeners are registered.
	go func() {
		for _, r := range regs {
			dispatchOne(r.fn, evt)
		}
	}()
}

func dispatchOne(fn Listener, evt Event) {
	ctx, cancel := context.WithTimeout(context.Background(), ListenerTimeout)
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		defer func() { recover() }() // a listener panic must never escape
		fn(ctx, evt)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		// Listener exceeded its deadline; it is abandoned, not cancelled —
		// the emitter has already moved on.
	}
}

func (b *Bus) safeResolve(ctx context.Context) (traceID string) {
	defer func() { recover() }()
	return b.resolver(ctx)
}

// ListenerCount reports how many listeners are registered for eventType,
// for tests and diagnostics.
func (b *Bus) ListenerCount(eventType string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.listeners[eventType])
}

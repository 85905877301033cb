// Package hooks provides a small observer-style event registry.
// Callers register callbacks against named events; triggering an
// event runs its callbacks in registration order. A failing callback
// never prevents the remaining callbacks from running.
package hooks

import (
	"fmt"
	"reflect"
	"sync"
)

// Event names a hook point in the analysis lifecycle.
type Event string

// Hook points fired by the CLI around detection.
const (
	BeforeAnalysis    Event = "before_analysis"
	AfterAnalysis     Event = "after_analysis"
	OnDuplicateFound  Event = "on_duplicate_found"
	OnSubsetFound     Event = "on_subset_found"
	OnSimilarFound    Event = "on_similar_found"
	OnError           Event = "on_error"
	OnQualityGateFail Event = "on_quality_gate_fail"
)

// Context is the payload passed to every callback.
type Context struct {
	Event Event
	Data  map[string]any
}

// Callback is a registered hook function.
type Callback func(Context)

// Registry maps events to ordered callback lists. Safe for
// concurrent use.
type Registry struct {
	mu    sync.Mutex
	hooks map[Event][]Callback
}

// NewRegistry returns an empty hook registry.
func NewRegistry() *Registry {
	return &Registry{hooks: make(map[Event][]Callback)}
}

// Register appends cb to the callback list for event. Registering
// the same function twice runs it twice per trigger.
func (r *Registry) Register(event Event, cb Callback) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hooks[event] = append(r.hooks[event], cb)
}

// Unregister removes the first registration of cb for event.
// Unregistering a function that was never registered is a no-op.
func (r *Registry) Unregister(event Event, cb Callback) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ptr := reflect.ValueOf(cb).Pointer()
	list := r.hooks[event]
	for i, existing := range list {
		if reflect.ValueOf(existing).Pointer() == ptr {
			r.hooks[event] = append(list[:i:i], list[i+1:]...)
			return
		}
	}
}

// Trigger runs every callback registered for event, in order, with
// the given payload. A panicking callback is recovered and reported
// via OnError (unless the failing event is OnError itself, to avoid
// recursion); subsequent callbacks still run.
func (r *Registry) Trigger(event Event, data map[string]any) {
	r.mu.Lock()
	list := make([]Callback, len(r.hooks[event]))
	copy(list, r.hooks[event])
	r.mu.Unlock()

	ctx := Context{Event: event, Data: data}
	for _, cb := range list {
		r.run(event, cb, ctx)
	}
}

func (r *Registry) run(event Event, cb Callback, ctx Context) {
	defer func() {
		if rec := recover(); rec != nil && event != OnError {
			r.Trigger(OnError, map[string]any{
				"event": string(event),
				"error": fmt.Sprint(rec),
			})
		}
	}()
	cb(ctx)
}

// Clear removes all registered callbacks.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hooks = make(map[Event][]Callback)
}

// Len returns the number of callbacks registered for event.
func (r *Registry) Len(event Event) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.hooks[event])
}

// defaultRegistry is the process-wide registry used by the CLI.
// Reset exists so tests can isolate themselves from it.
var defaultRegistry = NewRegistry()

// Default returns the process-wide hook registry.
func Default() *Registry {
	return defaultRegistry
}

// Reset clears the process-wide registry.
func Reset() {
	defaultRegistry.Clear()
}

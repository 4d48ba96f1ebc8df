package jobs

import (
	"context"
	"fmt"
	"sort"
)

// ProgressFunc reports fractional handler progress, monotonic 0-100.
type ProgressFunc func(percent int)

// Handler executes one job type. Execute must be safe to call concurrently
// and should respect ctx cancellation; a hung handler holds a worker slot
// until the engine's per-job timeout fires.
type Handler interface {
	Type() string
	Execute(ctx context.Context, payload map[string]interface{}, progress ProgressFunc) (map[string]interface{}, error)
}

// Registry maps job types to handlers. Populated once at startup; submitting
// an unknown type is rejected at request time, so the engine never sees one
// under normal operation.
type Registry struct {
	handlers map[string]Handler
}

func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

func (r *Registry) Register(h Handler) error {
	name := h.Type()
	if name == "" {
		return fmt.Errorf("handler has empty type")
	}
	if _, exists := r.handlers[name]; exists {
		return fmt.Errorf("handler already registered for type %q", name)
	}
	r.handlers[name] = h
	return nil
}

func (r *Registry) Lookup(jobType string) (Handler, error) {
	h, ok := r.handlers[jobType]
	if !ok {
		return nil, fmt.Errorf("no handler registered for type %q", jobType)
	}
	return h, nil
}

func (r *Registry) Has(jobType string) bool {
	_, ok := r.handlers[jobType]
	return ok
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

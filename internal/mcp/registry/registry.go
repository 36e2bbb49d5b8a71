package registry

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Handler serves one tool call with the raw tool arguments.
type Handler func(ctx context.Context, args map[string]any) (any, error)

// Registry maps tool names to handlers. Names are matched case-insensitively.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
	order    []string
}

func New() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

func (r *Registry) Register(tool string, handler Handler) error {
	if handler == nil {
		return fmt.Errorf("handler is required")
	}
	key := normalize(tool)
	if key == "" {
		return fmt.Errorf("tool name is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.handlers[key]; exists {
		return fmt.Errorf("tool already registered: %s", tool)
	}
	r.handlers[key] = handler
	r.order = append(r.order, key)
	return nil
}

func (r *Registry) HandlerFor(tool string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	h, ok := r.handlers[normalize(tool)]
	return h, ok
}

// Tools returns the registered names in registration order.
func (r *Registry) Tools() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

func normalize(tool string) string {
	return strings.ToLower(strings.TrimSpace(tool))
}

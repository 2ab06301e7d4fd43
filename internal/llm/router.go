package llm

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Router holds multiple completion backends and falls through the chain
// when the primary fails.
type Router struct {
	completers map[string]Completer
	order      []string
	mu         sync.RWMutex
	logger     *zap.Logger
}

// NewRouter creates an empty completer router.
func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		completers: make(map[string]Completer),
		logger:     logger,
	}
}

// Register adds a completer. Registration order is the fallback order.
func (r *Router) Register(c Completer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.completers[c.ID()]; !ok {
		r.order = append(r.order, c.ID())
	}
	r.completers[c.ID()] = c
	r.logger.Info("registered completer", zap.String("id", c.ID()))
}

// Len reports how many backends are registered.
func (r *Router) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

func (r *Router) ID() string { return "router" }

// Complete tries each backend in registration order until one succeeds.
func (r *Router) Complete(ctx context.Context, prompt string) (string, error) {
	r.mu.RLock()
	order := make([]string, len(r.order))
	copy(order, r.order)
	r.mu.RUnlock()

	if len(order) == 0 {
		return "", fmt.Errorf("no completers registered")
	}

	var lastErr error
	for _, id := range order {
		r.mu.RLock()
		c := r.completers[id]
		r.mu.RUnlock()

		text, err := c.Complete(ctx, prompt)
		if err == nil {
			return text, nil
		}
		lastErr = err
		r.logger.Warn("completer failed, trying next",
			zap.String("id", id), zap.Error(err))
	}
	return "", fmt.Errorf("all completers failed: %w", lastErr)
}

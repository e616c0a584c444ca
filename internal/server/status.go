package server

import (
	"context"
	"sync"
)

// Ensure implementation satisfies interface at compile time.
var _ HealthChecker = (*StatusChecker)(nil)

// StatusChecker tracks readiness per named component. The process is
// ready once every registered component has been marked ready, and alive
// until MarkDead is called.
type StatusChecker struct {
	mu         sync.RWMutex
	components map[string]bool
	order      []string
	dead       bool
}

// NewStatusChecker creates a checker tracking components, all initially
// not ready.
func NewStatusChecker(components ...string) *StatusChecker {
	c := &StatusChecker{components: make(map[string]bool, len(components))}
	for _, name := range components {
		c.Register(name)
	}
	return c
}

// Register starts tracking name as not ready. Registering twice is a no-op.
func (c *StatusChecker) Register(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.components[name]; ok {
		return
	}
	c.components[name] = false
	c.order = append(c.order, name)
}

// SetReady marks name ready or not ready, registering it if needed.
func (c *StatusChecker) SetReady(name string, ready bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.components[name]; !ok {
		c.order = append(c.order, name)
	}
	c.components[name] = ready
}

// MarkDead makes liveness fail.
func (c *StatusChecker) MarkDead() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dead = true
}

// Liveness reports whether the process should keep running.
func (c *StatusChecker) Liveness() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return !c.dead
}

// Readiness reports whether every component is ready.
func (c *StatusChecker) Readiness(ctx context.Context) bool {
	return c.IsHealthy()
}

// IsHealthy reports whether the process is alive and every component is ready.
func (c *StatusChecker) IsHealthy() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.dead || len(c.components) == 0 {
		return false
	}
	for _, ready := range c.components {
		if !ready {
			return false
		}
	}
	return true
}

// GetStatus returns "ready" or "not ready" per component.
func (c *StatusChecker) GetStatus() map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	status := make(map[string]string, len(c.components))
	for _, name := range c.order {
		if c.components[name] {
			status[name] = "ready"
		} else {
			status[name] = "not ready"
		}
	}
	return status
}

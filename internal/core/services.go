package core

import (
	"sync"

	"github.com/go-chi/chi/v5"
)

// Module is the interface every runtime module's HTTP front implements.
// New modules are added by implementing it and registering with a Registry.
type Module interface {
	// Name returns the unique identifier for this module (e.g., "userstate", "usermap").
	// This is used for route prefixes, storage namespaces and configuration.
	Name() string

	// RegisterRoutes sets up HTTP routes for this module on the provided router.
	// The router is a sub-router scoped to the module's path prefix.
	RegisterRoutes(router chi.Router)
}

// Registry holds the modules wired into a node.
type Registry struct {
	mu      sync.RWMutex
	modules []Module
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		modules: make([]Module, 0),
	}
}

// Register adds a module to the registry.
// This should be called during node initialization, before the router is built.
func (r *Registry) Register(m Module) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.modules = append(r.modules, m)
}

// Modules returns the registered modules in registration order.
func (r *Registry) Modules() []Module {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Module, len(r.modules))
	copy(out, r.modules)
	return out
}

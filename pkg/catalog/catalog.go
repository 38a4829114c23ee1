// Package catalog holds the pure in-memory service_type -> ServiceDescriptor
// map and the filesystem Watcher that discovers service binaries and
// publishes their manifests onto the event bus.
package catalog

import (
	"sync"

	"github.com/ManuMario0/trading-lab-sub000/pkg/manifest"
)

// Catalog is a pure in-memory map, mutated only through Register and
// Unregister. No I/O happens here; the Watcher owns discovery and the
// supervisor owns the decision of when to call these methods.
type Catalog struct {
	mu    sync.RWMutex
	descs map[string]manifest.ServiceDescriptor
}

// New returns an empty Catalog.
func New() *Catalog {
	return &Catalog{descs: make(map[string]manifest.ServiceDescriptor)}
}

// Register inserts or replaces the descriptor for its service_type.
func (c *Catalog) Register(desc manifest.ServiceDescriptor) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.descs[desc.Blueprint.ServiceType] = desc
}

// Unregister removes a service_type from the catalog.
func (c *Catalog) Unregister(serviceType string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.descs, serviceType)
}

// Get returns the descriptor for a service_type, and whether it exists.
func (c *Catalog) Get(serviceType string) (manifest.ServiceDescriptor, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, ok := c.descs[serviceType]
	return d, ok
}

// List returns a snapshot of every registered descriptor.
func (c *Catalog) List() []manifest.ServiceDescriptor {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]manifest.ServiceDescriptor, 0, len(c.descs))
	for _, d := range c.descs {
		out = append(out, d)
	}
	return out
}

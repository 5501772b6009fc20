// Package registry maps configured strategy names to their constructors.
package registry

import (
	"slices"
	"sync"

	"github.com/agrospai/fastrag/internal/core/domain"
	"go.trai.ch/zerr"
)

type key struct {
	capability domain.Capability
	name       string
}

// Registry maps (capability, name) pairs to values of type F, usually factories.
// Registration is explicit and a later registration of the same pair replaces the earlier one.
type Registry[F any] struct {
	mu      sync.RWMutex
	entries map[key]F
}

// New returns an empty Registry.
func New[F any]() *Registry[F] {
	return &Registry[F]{entries: make(map[key]F)}
}

// Register binds f to name under capability.
func (r *Registry[F]) Register(capability domain.Capability, name string, f F) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[key{capability, name}] = f
}

// Resolve returns the value registered for name under capability.
func (r *Registry[F]) Resolve(capability domain.Capability, name string) (F, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	f, ok := r.entries[key{capability, name}]
	if !ok {
		var zero F
		err := zerr.Wrap(domain.ErrNotImplemented, "resolve strategy")
		err = zerr.With(err, "capability", string(capability))
		return zero, zerr.With(err, "name", name)
	}
	return f, nil
}

// Names lists the names registered under capability in sorted order.
func (r *Registry[F]) Names(capability domain.Capability) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var names []string
	for k := range r.entries {
		if k.capability == capability {
			names = append(names, k.name)
		}
	}
	slices.Sort(names)
	return names
}

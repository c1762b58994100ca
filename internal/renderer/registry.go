package renderer

import (
	"sort"
	"sync"

	"github.com/NelisKaars/DigitalTwinAnalyzer/internal/errors"
)

// Registry maps framework identifiers to adapter factories. It is an
// explicit object owned by the coordinator rather than ambient shared
// state. Instances are created lazily and cached for the session:
// switching frameworks detaches an instance but does not destroy it.
type Registry struct {
	mu        sync.Mutex
	factories map[string]Factory
	instances map[string]Adapter
}

func NewRegistry() *Registry {
	return &Registry{
		factories: map[string]Factory{},
		instances: map[string]Adapter{},
	}
}

// Register adds or replaces the factory for a framework identifier.
// Replacing a factory drops any cached instance built from the old one.
func (r *Registry) Register(id string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.factories[id] = factory
	delete(r.instances, id)
}

// Instance returns the cached adapter for id, building it on first use
func (r *Registry) Instance(id string) (Adapter, error) {
	errFactory := errors.New()

	r.mu.Lock()
	defer r.mu.Unlock()

	if adapter, ok := r.instances[id]; ok {
		return adapter, nil
	}

	factory, ok := r.factories[id]
	if !ok {
		return nil, errFactory.WithData(errors.ErrNoSuchFramework, id)
	}

	adapter, err := factory()
	if err != nil {
		return nil, errFactory.Wrap(errors.ErrAdapterLoad, err)
	}

	r.instances[id] = adapter

	return adapter, nil
}

// Known reports whether a framework identifier is registered
func (r *Registry) Known(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.factories[id]

	return ok
}

// IDs lists registered framework identifiers in stable order
func (r *Registry) IDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]string, 0, len(r.factories))
	for id := range r.factories {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	return ids
}

package repository

import (
	"fmt"
	"sort"

	"astrofeed/internal/domain/entity"
)

// Registry maps each entity kind to its Config. It is populated once at startup
// and frozen; lookups after Freeze need no locking because nothing writes.
//
// Unknown kinds and type mismatches are programming errors and panic.
type Registry struct {
	configs     map[entity.Kind]any
	descriptors map[entity.Kind]Descriptor
	frozen      bool
}

// NewRegistry returns an empty, unfrozen registry.
func NewRegistry() *Registry {
	return &Registry{
		configs:     make(map[entity.Kind]any),
		descriptors: make(map[entity.Kind]Descriptor),
	}
}

// Register adds cfg to r. It panics if r is frozen, cfg is incomplete, or the
// kind is already registered.
func Register[T any](r *Registry, cfg Config[T]) {
	if r.frozen {
		panic(fmt.Sprintf("repository: register %s on frozen registry", cfg.Kind))
	}
	if err := cfg.validate(); err != nil {
		panic(err.Error())
	}
	if _, dup := r.configs[cfg.Kind]; dup {
		panic(fmt.Sprintf("repository: kind %s registered twice", cfg.Kind))
	}
	r.configs[cfg.Kind] = cfg
	r.descriptors[cfg.Kind] = cfg.Descriptor()
}

// Freeze forbids further registration.
func (r *Registry) Freeze() { r.frozen = true }

// For returns the typed config for kind.
func For[T any](r *Registry, kind entity.Kind) Config[T] {
	raw, ok := r.configs[kind]
	if !ok {
		panic(fmt.Sprintf("repository: unknown kind %q", kind))
	}
	cfg, ok := raw.(Config[T])
	if !ok {
		panic(fmt.Sprintf("repository: kind %q is registered as %T", kind, raw))
	}
	return cfg
}

// Descriptor returns the schema-level view of kind.
func (r *Registry) Descriptor(kind entity.Kind) Descriptor {
	d, ok := r.descriptors[kind]
	if !ok {
		panic(fmt.Sprintf("repository: unknown kind %q", kind))
	}
	return d
}

// Kinds returns the registered kinds in lexical order.
func (r *Registry) Kinds() []entity.Kind {
	kinds := make([]entity.Kind, 0, len(r.configs))
	for k := range r.configs {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

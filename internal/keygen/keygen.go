// Package keygen produces opaque entity keys.
package keygen

import "github.com/google/uuid"

// Generator issues keys for new entities. Implementations must never fail and
// must not coordinate with the datastore.
type Generator interface {
	NewKey() string
}

// UUID issues random (version 4) UUID strings.
type UUID struct{}

// NewKey returns a new random UUID in its canonical 36-character form.
func (UUID) NewKey() string {
	return uuid.NewString()
}

// Default is the generator used when none is injected.
var Default Generator = UUID{}

// GeneratorFunc adapts a plain function to Generator.
type GeneratorFunc func() string

// NewKey calls f.
func (f GeneratorFunc) NewKey() string { return f() }

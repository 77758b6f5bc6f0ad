// Package repository defines the generic data-access contract shared by every
// entity kind: a static per-kind Config describing how an entity maps to a table
// row, a Registry of those configs, and the Repository interface the storage
// adapters implement.
package repository

import (
	"fmt"

	"astrofeed/internal/domain/entity"
)

// Timestamp columns maintained by the repository layer for every kind.
const (
	CreatedAtColumn = "created_at"
	UpdatedAtColumn = "updated_at"
)

// Config describes how one entity kind is stored. It is built once at process
// start and only read afterwards.
//
// Serialize and Deserialize must be total and inverse to each other:
// Deserialize(Serialize(e)) equals e for every valid e, ignoring the
// repository-maintained timestamps.
type Config[T any] struct {
	// Kind is the entity kind this config serves.
	Kind entity.Kind

	// Table is the physical table name.
	Table string

	// KeyField is the primary key column. Keys are opaque strings.
	KeyField string

	// NaturalKey lists the columns forming the business uniqueness tuple
	// (e.g. sign, period). Upsert conflicts on these when set, otherwise on KeyField.
	NaturalKey []string

	// Columns lists every persisted column except KeyField and the timestamps,
	// in insert order.
	Columns []string

	// KeyOf returns the entity's key, or "" when not yet assigned.
	KeyOf func(T) string

	// Serialize maps an entity to a row. The returned record must contain every
	// column in Columns; KeyField and timestamps are filled in by the repository.
	Serialize func(T) (Record, error)

	// Deserialize maps a full row (key and timestamps included) back to an entity.
	Deserialize func(Record) (T, error)

	// Validate optionally checks an entity before it is written.
	Validate func(T) error
}

// validate checks that the config is complete. Registration panics on failure.
func (c Config[T]) validate() error {
	switch {
	case c.Kind == "":
		return fmt.Errorf("repository config: kind is required")
	case c.Table == "":
		return fmt.Errorf("repository config %s: table is required", c.Kind)
	case c.KeyField == "":
		return fmt.Errorf("repository config %s: key field is required", c.Kind)
	case len(c.Columns) == 0:
		return fmt.Errorf("repository config %s: columns are required", c.Kind)
	case c.KeyOf == nil || c.Serialize == nil || c.Deserialize == nil:
		return fmt.Errorf("repository config %s: KeyOf, Serialize and Deserialize are required", c.Kind)
	}

	declared := make(map[string]bool, len(c.Columns))
	for _, col := range c.Columns {
		if col == c.KeyField || col == CreatedAtColumn || col == UpdatedAtColumn {
			return fmt.Errorf("repository config %s: column %q is managed by the repository", c.Kind, col)
		}
		if declared[col] {
			return fmt.Errorf("repository config %s: duplicate column %q", c.Kind, col)
		}
		declared[col] = true
	}
	for _, col := range c.NaturalKey {
		if !declared[col] {
			return fmt.Errorf("repository config %s: natural key column %q is not declared", c.Kind, col)
		}
	}
	return nil
}

// AllColumns returns the key, the declared columns and the timestamps, in select order.
func (c Config[T]) AllColumns() []string {
	cols := make([]string, 0, len(c.Columns)+3)
	cols = append(cols, c.KeyField)
	cols = append(cols, c.Columns...)
	cols = append(cols, CreatedAtColumn, UpdatedAtColumn)
	return cols
}

// HasColumn reports whether col may be used in filters and ordering.
func (c Config[T]) HasColumn(col string) bool {
	for _, known := range c.AllColumns() {
		if known == col {
			return true
		}
	}
	return false
}

// ConflictColumns returns the upsert conflict target.
func (c Config[T]) ConflictColumns() []string {
	if len(c.NaturalKey) > 0 {
		return c.NaturalKey
	}
	return []string{c.KeyField}
}

// Descriptor returns the type-erased, schema-level view of the config.
func (c Config[T]) Descriptor() Descriptor {
	return Descriptor{
		Kind:       c.Kind,
		Table:      c.Table,
		KeyField:   c.KeyField,
		NaturalKey: append([]string(nil), c.NaturalKey...),
		Columns:    append([]string(nil), c.Columns...),
	}
}

// Descriptor is the kind-agnostic part of a Config, used where the entity type
// does not matter (housekeeping counts, logging).
type Descriptor struct {
	Kind       entity.Kind
	Table      string
	KeyField   string
	NaturalKey []string
	Columns    []string
}

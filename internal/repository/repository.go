package repository

import "context"

// Filter narrows List, Count and Random. The zero value matches every row in
// insertion order.
type Filter struct {
	// Equals holds column = value conditions, ANDed together.
	Equals map[string]any

	// OrderBy is a declared column; empty means insertion order.
	OrderBy string

	// Desc reverses OrderBy.
	Desc bool

	// Limit caps the result size; 0 means unlimited.
	Limit uint64
}

// Counter counts matching rows without knowing the entity type.
type Counter interface {
	Count(ctx context.Context, f Filter) (int, error)
}

// Reader is the read path the rest of the application may call directly.
type Reader[T any] interface {
	// GetByKey returns entity.ErrNotFound when no row has key.
	GetByKey(ctx context.Context, key string) (T, error)
	// List returns a fully materialized slice.
	List(ctx context.Context, f Filter) ([]T, error)
	Counter
	// Random returns one uniformly chosen matching row, or entity.ErrNotFound.
	Random(ctx context.Context, f Filter) (T, error)
}

// Writer is the write path used by generation.
type Writer[T any] interface {
	// Create assigns a key when absent and inserts. It returns
	// entity.ErrDuplicateKey when the key or natural key is taken.
	Create(ctx context.Context, e T) (T, error)
	// Upsert inserts or replaces by natural key (primary key when the kind has
	// none). The stored key wins over the argument's key on replace.
	Upsert(ctx context.Context, e T) (T, error)
}

// Repository is the full generic data-access contract for one entity kind.
type Repository[T any] interface {
	Reader[T]
	Writer[T]
}

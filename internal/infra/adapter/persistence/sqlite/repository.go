// Package sqlite provides the SQLite implementation of the generic repository.
// One Repository[T] serves any entity kind; everything kind-specific comes from
// its repository.Config.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"

	"astrofeed/internal/domain/entity"
	"astrofeed/internal/infra/db"
	"astrofeed/internal/keygen"
	"astrofeed/internal/observability/metrics"
	"astrofeed/internal/repository"
)

// rowidColumn orders rows by insertion.
const rowidColumn = "rowid"

// Option customizes a Repository.
type Option func(*options)

type options struct {
	keys keygen.Generator
	now  func() time.Time
}

// WithKeyGenerator replaces the default UUID key generator.
func WithKeyGenerator(g keygen.Generator) Option {
	return func(o *options) { o.keys = g }
}

// WithClock replaces time.Now for timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// Repository implements repository.Repository[T] over the shared datastore handle.
type Repository[T any] struct {
	handle *db.Handle
	cfg    repository.Config[T]
	keys   keygen.Generator
	now    func() time.Time
	sb     sq.StatementBuilderType
}

// New returns a repository for cfg's kind.
func New[T any](h *db.Handle, cfg repository.Config[T], opts ...Option) *Repository[T] {
	o := options{keys: keygen.Default, now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return &Repository[T]{
		handle: h,
		cfg:    cfg,
		keys:   o.keys,
		now:    o.now,
		sb:     sq.StatementBuilder.PlaceholderFormat(sq.Question),
	}
}

// Kind returns the entity kind served.
func (r *Repository[T]) Kind() entity.Kind { return r.cfg.Kind }

// begin applies the operation timeout and resolves the pool. The returned
// finish func records metrics and maps the error.
func (r *Repository[T]) begin(ctx context.Context, op string) (context.Context, *sql.DB, func(error) error, error) {
	start := time.Now()
	cancel := func() {}
	if d := r.handle.OpTimeout(); d > 0 {
		ctx, cancel = context.WithTimeout(ctx, d)
	}
	opCtx := ctx
	finish := func(err error) error {
		if err != nil && errors.Is(opCtx.Err(), context.DeadlineExceeded) && !errors.Is(err, context.DeadlineExceeded) {
			// drivers report an interrupted query in their own words
			err = fmt.Errorf("%w: %w", context.DeadlineExceeded, err)
		}
		cancel()
		metrics.RecordOperationDuration(string(r.cfg.Kind), op, time.Since(start))
		if err == nil {
			return nil
		}
		mapped := mapError(fmt.Sprintf("%s %s", r.cfg.Kind, op), err)
		metrics.RecordOperationError(string(r.cfg.Kind), op, errorType(mapped))
		return mapped
	}

	pool, err := r.handle.DB(ctx)
	if err != nil {
		return nil, nil, nil, finish(err)
	}
	return ctx, pool, finish, nil
}

// Create assigns a key when absent, stamps timestamps and inserts.
func (r *Repository[T]) Create(ctx context.Context, e T) (T, error) {
	var zero T
	rec, err := r.prepare(e)
	if err != nil {
		return zero, mapError(fmt.Sprintf("%s create", r.cfg.Kind), err)
	}

	ctx, pool, finish, err := r.begin(ctx, "create")
	if err != nil {
		return zero, err
	}

	now := repository.FormatTimestamp(r.now())
	rec[repository.CreatedAtColumn] = now
	rec[repository.UpdatedAtColumn] = now

	cols := r.cfg.AllColumns()
	query, args, err := r.sb.Insert(r.cfg.Table).Columns(cols...).Values(values(rec, cols)...).ToSql()
	if err != nil {
		return zero, finish(err)
	}
	if _, err := pool.ExecContext(ctx, query, args...); err != nil {
		return zero, finish(err)
	}
	if err := finish(nil); err != nil {
		return zero, err
	}
	return r.cfg.Deserialize(rec)
}

// Upsert inserts e or replaces the row sharing its conflict target. On
// replace the stored key and creation time win.
func (r *Repository[T]) Upsert(ctx context.Context, e T) (T, error) {
	var zero T
	rec, err := r.prepare(e)
	if err != nil {
		return zero, mapError(fmt.Sprintf("%s upsert", r.cfg.Kind), err)
	}

	ctx, pool, finish, err := r.begin(ctx, "upsert")
	if err != nil {
		return zero, err
	}

	now := repository.FormatTimestamp(r.now())
	rec[repository.CreatedAtColumn] = now
	rec[repository.UpdatedAtColumn] = now

	cols := r.cfg.AllColumns()
	query, args, err := r.sb.Insert(r.cfg.Table).
		Columns(cols...).
		Values(values(rec, cols)...).
		Suffix(r.upsertSuffix()).
		ToSql()
	if err != nil {
		return zero, finish(err)
	}

	var key, createdAt string
	if err := pool.QueryRowContext(ctx, query, args...).Scan(&key, &createdAt); err != nil {
		return zero, finish(err)
	}
	if err := finish(nil); err != nil {
		return zero, err
	}
	rec[r.cfg.KeyField] = key
	rec[repository.CreatedAtColumn] = createdAt
	return r.cfg.Deserialize(rec)
}

// upsertSuffix renders ON CONFLICT ... DO UPDATE ... RETURNING for the config.
func (r *Repository[T]) upsertSuffix() string {
	conflict := r.cfg.ConflictColumns()
	inConflict := make(map[string]bool, len(conflict))
	for _, c := range conflict {
		inConflict[c] = true
	}

	set := make([]string, 0, len(r.cfg.Columns)+1)
	for _, c := range r.cfg.Columns {
		if !inConflict[c] {
			set = append(set, fmt.Sprintf("%s = excluded.%s", c, c))
		}
	}
	set = append(set, fmt.Sprintf("%s = excluded.%s", repository.UpdatedAtColumn, repository.UpdatedAtColumn))

	return fmt.Sprintf("ON CONFLICT(%s) DO UPDATE SET %s RETURNING %s, %s",
		strings.Join(conflict, ", "), strings.Join(set, ", "),
		r.cfg.KeyField, repository.CreatedAtColumn)
}

// GetByKey returns the entity stored under key.
func (r *Repository[T]) GetByKey(ctx context.Context, key string) (T, error) {
	var zero T
	ctx, pool, finish, err := r.begin(ctx, "get_by_key")
	if err != nil {
		return zero, err
	}

	query, args, err := r.sb.Select(r.cfg.AllColumns()...).
		From(r.cfg.Table).
		Where(sq.Eq{r.cfg.KeyField: key}).
		ToSql()
	if err != nil {
		return zero, finish(err)
	}

	rec, err := r.scanRecord(pool.QueryRowContext(ctx, query, args...))
	if err != nil {
		return zero, finish(err)
	}
	if err := finish(nil); err != nil {
		return zero, err
	}
	return r.cfg.Deserialize(rec)
}

// List returns every matching entity, fully read before returning.
func (r *Repository[T]) List(ctx context.Context, f repository.Filter) ([]T, error) {
	ctx, pool, finish, err := r.begin(ctx, "list")
	if err != nil {
		return nil, err
	}

	b, err := r.selectFor(f)
	if err != nil {
		return nil, finish(err)
	}
	query, args, err := b.ToSql()
	if err != nil {
		return nil, finish(err)
	}

	rows, err := pool.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, finish(err)
	}
	defer func() { _ = rows.Close() }()

	recs := make([]repository.Record, 0, 16)
	for rows.Next() {
		rec, err := r.scanRecord(rows)
		if err != nil {
			return nil, finish(err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, finish(err)
	}
	if err := finish(nil); err != nil {
		return nil, err
	}

	out := make([]T, 0, len(recs))
	for _, rec := range recs {
		e, err := r.cfg.Deserialize(rec)
		if err != nil {
			return nil, fmt.Errorf("%s list: deserialize: %w", r.cfg.Kind, err)
		}
		out = append(out, e)
	}
	return out, nil
}

// Count returns the number of matching rows. Ordering and limit are ignored.
func (r *Repository[T]) Count(ctx context.Context, f repository.Filter) (int, error) {
	ctx, pool, finish, err := r.begin(ctx, "count")
	if err != nil {
		return 0, err
	}

	where, err := r.where(f)
	if err != nil {
		return 0, finish(err)
	}
	query, args, err := r.sb.Select("COUNT(*)").From(r.cfg.Table).Where(where).ToSql()
	if err != nil {
		return 0, finish(err)
	}

	var n int
	if err := pool.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, finish(err)
	}
	return n, finish(nil)
}

// Random returns one uniformly chosen matching entity.
func (r *Repository[T]) Random(ctx context.Context, f repository.Filter) (T, error) {
	var zero T
	ctx, pool, finish, err := r.begin(ctx, "random")
	if err != nil {
		return zero, err
	}

	where, err := r.where(f)
	if err != nil {
		return zero, finish(err)
	}
	query, args, err := r.sb.Select(r.cfg.AllColumns()...).
		From(r.cfg.Table).
		Where(where).
		OrderBy("RANDOM()").
		Limit(1).
		ToSql()
	if err != nil {
		return zero, finish(err)
	}

	rec, err := r.scanRecord(pool.QueryRowContext(ctx, query, args...))
	if err != nil {
		return zero, finish(err)
	}
	if err := finish(nil); err != nil {
		return zero, err
	}
	return r.cfg.Deserialize(rec)
}

// prepare validates and serializes e, assigning a key when it has none.
func (r *Repository[T]) prepare(e T) (repository.Record, error) {
	if r.cfg.Validate != nil {
		if err := r.cfg.Validate(e); err != nil {
			return nil, err
		}
	}
	rec, err := r.cfg.Serialize(e)
	if err != nil {
		return nil, fmt.Errorf("serialize: %w: %w", entity.ErrInvalidInput, err)
	}
	for _, col := range r.cfg.Columns {
		if _, ok := rec[col]; !ok {
			return nil, fmt.Errorf("serialize: %w: column %q missing", entity.ErrInvalidInput, col)
		}
	}

	key := r.cfg.KeyOf(e)
	if key == "" {
		key = r.keys.NewKey()
	}
	rec[r.cfg.KeyField] = key
	return rec, nil
}

func (r *Repository[T]) selectFor(f repository.Filter) (sq.SelectBuilder, error) {
	where, err := r.where(f)
	if err != nil {
		return sq.SelectBuilder{}, err
	}
	b := r.sb.Select(r.cfg.AllColumns()...).From(r.cfg.Table).Where(where)

	order := rowidColumn
	if f.OrderBy != "" {
		if !r.cfg.HasColumn(f.OrderBy) {
			return sq.SelectBuilder{}, fmt.Errorf("%w: unknown order column %q", entity.ErrInvalidInput, f.OrderBy)
		}
		order = f.OrderBy
	}
	if f.Desc {
		b = b.OrderBy(order + " DESC")
	} else {
		b = b.OrderBy(order + " ASC")
	}
	if order != rowidColumn {
		b = b.OrderBy(rowidColumn + " ASC")
	}
	if f.Limit > 0 {
		b = b.Limit(f.Limit)
	}
	return b, nil
}

func (r *Repository[T]) where(f repository.Filter) (sq.Eq, error) {
	eq := sq.Eq{}
	for col, v := range f.Equals {
		if !r.cfg.HasColumn(col) {
			return nil, fmt.Errorf("%w: unknown filter column %q", entity.ErrInvalidInput, col)
		}
		eq[col] = v
	}
	return eq, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func (r *Repository[T]) scanRecord(s scanner) (repository.Record, error) {
	cols := r.cfg.AllColumns()
	vals := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	if err := s.Scan(ptrs...); err != nil {
		return nil, err
	}
	rec := make(repository.Record, len(cols))
	for i, col := range cols {
		rec[col] = vals[i]
	}
	return rec, nil
}

func values(rec repository.Record, cols []string) []any {
	out := make([]any, len(cols))
	for i, c := range cols {
		out[i] = rec[c]
	}
	return out
}

var _ repository.Repository[entity.Horoscope] = (*Repository[entity.Horoscope])(nil)

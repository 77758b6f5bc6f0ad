// Package db owns the embedded SQLite datastore: the lazily opened Handle,
// schema migrations and seed data.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"astrofeed/internal/domain/entity"
	pkgconfig "astrofeed/internal/pkg/config"
)

// MemoryPath selects a private in-memory database.
const MemoryPath = ":memory:"

// Config holds datastore settings.
type Config struct {
	// Path is the database file, or MemoryPath.
	Path string

	// BusyTimeout is how long SQLite waits on a locked database before
	// returning SQLITE_BUSY.
	BusyTimeout time.Duration

	// OpTimeout bounds every repository operation.
	OpTimeout time.Duration

	MaxOpenConns    int
	ConnMaxIdleTime time.Duration
}

// DefaultConfig returns the default datastore configuration.
func DefaultConfig() Config {
	return Config{
		Path:            "astrofeed.db",
		BusyTimeout:     5 * time.Second,
		OpTimeout:       10 * time.Second,
		MaxOpenConns:    4,
		ConnMaxIdleTime: 30 * time.Minute,
	}
}

// LoadConfigFromEnv reads DATABASE_PATH, DB_BUSY_TIMEOUT, DB_OP_TIMEOUT and
// DB_MAX_OPEN_CONNS. Invalid values fall back to defaults with a warning.
func LoadConfigFromEnv() (Config, []string) {
	cfg := DefaultConfig()
	var warnings []string

	cfg.Path = pkgconfig.LoadEnvString("DATABASE_PATH", cfg.Path)

	busy := pkgconfig.LoadEnvDuration("DB_BUSY_TIMEOUT", cfg.BusyTimeout, pkgconfig.ValidatePositiveDuration)
	cfg.BusyTimeout = busy.Value
	warnings = append(warnings, busy.Warnings...)

	op := pkgconfig.LoadEnvDuration("DB_OP_TIMEOUT", cfg.OpTimeout, pkgconfig.ValidatePositiveDuration)
	cfg.OpTimeout = op.Value
	warnings = append(warnings, op.Warnings...)

	conns := pkgconfig.LoadEnvInt("DB_MAX_OPEN_CONNS", cfg.MaxOpenConns, func(v int) error {
		return pkgconfig.ValidateIntRange(v, 1, 64)
	})
	cfg.MaxOpenConns = conns.Value
	warnings = append(warnings, conns.Warnings...)

	return cfg, warnings
}

// DSN renders the modernc.org/sqlite connection string.
// Pragmas go in the DSN so every pooled connection gets them.
func (c Config) DSN() string {
	base := "file:" + c.Path
	if c.inMemory() {
		base = "file::memory:"
	}
	pragmas := []string{
		fmt.Sprintf("_pragma=busy_timeout(%d)", c.BusyTimeout.Milliseconds()),
		"_pragma=foreign_keys(1)",
	}
	if !c.inMemory() {
		pragmas = append(pragmas, "_pragma=journal_mode(WAL)")
	}
	return base + "?" + strings.Join(pragmas, "&")
}

func (c Config) inMemory() bool { return c.Path == MemoryPath || c.Path == "" }

// Handle is the process-wide datastore connection, opened on first use and
// passed explicitly to every repository.
type Handle struct {
	cfg Config

	once   sync.Once
	db     *sql.DB
	err    error
	mu     sync.RWMutex
	closed bool
}

// NewHandle returns a Handle that opens cfg on the first DB call.
func NewHandle(cfg Config) *Handle {
	return &Handle{cfg: cfg}
}

// FromDB wraps an already opened pool. Used by tests.
func FromDB(db *sql.DB, opTimeout time.Duration) *Handle {
	h := &Handle{cfg: Config{OpTimeout: opTimeout}, db: db}
	h.once.Do(func() {})
	return h
}

// OpTimeout is the per-operation deadline repositories apply.
func (h *Handle) OpTimeout() time.Duration { return h.cfg.OpTimeout }

// DB returns the pool, opening and pinging it on the first call. A failed
// open is sticky: every later call returns the same error. The open ignores
// the cancellation of the first caller's ctx but keeps its values.
func (h *Handle) DB(ctx context.Context) (*sql.DB, error) {
	h.mu.RLock()
	closed := h.closed
	h.mu.RUnlock()
	if closed {
		return nil, fmt.Errorf("db handle: %w: closed", entity.ErrStorageUnavailable)
	}

	h.once.Do(func() {
		h.db, h.err = open(context.WithoutCancel(ctx), h.cfg)
	})
	if h.err != nil {
		return nil, h.err
	}
	return h.db, nil
}

// Close releases the pool. Calls after the first are no-ops.
func (h *Handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true
	if h.db == nil {
		return nil
	}
	return h.db.Close()
}

func open(ctx context.Context, cfg Config) (*sql.DB, error) {
	if !cfg.inMemory() {
		if dir := filepath.Dir(cfg.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("open datastore: %w: %w", entity.ErrStorageUnavailable, err)
			}
		}
	}

	db, err := sql.Open("sqlite", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open datastore: %w: %w", entity.ErrStorageUnavailable, err)
	}

	if cfg.inMemory() {
		// Each connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxIdleTime(0)
		db.SetConnMaxLifetime(0)
	} else {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxOpenConns)
		db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("error closing datastore", slog.Any("error", closeErr))
		}
		return nil, fmt.Errorf("ping datastore: %w: %w", entity.ErrStorageUnavailable, err)
	}

	slog.Info("datastore opened",
		slog.String("path", cfg.Path),
		slog.Duration("busy_timeout", cfg.BusyTimeout),
		slog.Int("max_open_conns", cfg.MaxOpenConns))
	return db, nil
}

// IsUnavailable reports whether err means the datastore could not be reached.
func IsUnavailable(err error) bool {
	return errors.Is(err, entity.ErrStorageUnavailable)
}

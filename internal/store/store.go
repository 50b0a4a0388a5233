// Package store persists the task collection and completion log in a
// key-value backend.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/idilsaglam/recur/internal/model"
	"github.com/idilsaglam/recur/internal/store/jsonstore"
	"github.com/idilsaglam/recur/internal/store/sqlitestore"
)

// Keys of the two persisted collections.
const (
	KeyTasks       = "tasks"
	KeyCompletions = "completions"
)

// Backend names accepted by Open.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// KV is the key-value collaborator. Get reports ok=false for a key that was
// never written.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Close() error
}

// Repository encodes tasks and completions into a KV.
type Repository struct {
	kv  KV
	dir string
	log *slog.Logger
}

func NewRepository(kv KV, dir string, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{kv: kv, dir: dir, log: logger}
}

var ErrUnknownBackend = errors.New("unknown backend")

// Open builds a Repository on the named backend rooted at dir.
func Open(backend, dir string, logger *slog.Logger) (*Repository, error) {
	switch backend {
	case "", BackendJSON:
		kv, err := jsonstore.New(dir)
		if err != nil {
			return nil, fmt.Errorf("open json store: %w", err)
		}
		return NewRepository(kv, kv.Dir(), logger), nil
	case BackendSQLite:
		kv, err := sqlitestore.New(filepath.Join(dir, sqlitestore.FileName))
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return NewRepository(kv, kv.Dir(), logger), nil
	}
	return nil, fmt.Errorf("%w %q (want %s or %s)", ErrUnknownBackend, backend, BackendJSON, BackendSQLite)
}

// Dir is where the backend keeps its files.
func (r *Repository) Dir() string { return r.dir }

func (r *Repository) Close() error { return r.kv.Close() }

// Load reads both collections. A corrupt value is logged and treated as
// empty; only backend I/O failures are returned.
func (r *Repository) Load(ctx context.Context) ([]model.Task, model.History, error) {
	tasks, err := decode[[]model.Task](ctx, r, KeyTasks)
	if err != nil {
		return nil, nil, err
	}
	kept := tasks[:0]
	for _, t := range tasks {
		t.Normalize()
		if err := t.Validate(); err != nil || t.ID == "" {
			r.log.Warn("dropping invalid stored task", "id", t.ID, "title", t.Title, "err", err)
			continue
		}
		kept = append(kept, t)
	}
	tasks = kept

	hist, err := decode[model.History](ctx, r, KeyCompletions)
	if err != nil {
		return nil, nil, err
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	if hist == nil {
		hist = model.History{}
	}
	return tasks, hist.Capped(), nil
}

func decode[T any](ctx context.Context, r *Repository, key string) (T, error) {
	var out T
	b, ok, err := r.kv.Get(ctx, key)
	if err != nil {
		return out, fmt.Errorf("load %s: %w", key, err)
	}
	if !ok || len(b) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(b, &out); err != nil {
		r.log.Warn("stored value is corrupt, starting empty", "key", key, "err", err)
		var zero T
		return zero, nil
	}
	return out, nil
}

func (r *Repository) SaveTasks(ctx context.Context, tasks []model.Task) error {
	return r.encode(ctx, KeyTasks, tasks)
}

func (r *Repository) SaveHistory(ctx context.Context, h model.History) error {
	return r.encode(ctx, KeyCompletions, h)
}

func (r *Repository) encode(ctx context.Context, key string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("json marshal: %w", err)
	}
	if err := r.kv.Set(ctx, key, b); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

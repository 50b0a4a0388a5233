// Package offline keeps versioned copies of the web assets and API responses
// so the web surface keeps answering when a handler fails.
package offline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"sync"
)

// Manifest is the fixed asset list every generation is installed with.
var Manifest = []string{"/", "/index.html", "/manifest.json", "/favicon.svg", "/icon.svg"}

var ErrUnknownGeneration = errors.New("unknown cache generation")

// Entry is a stored response.
type Entry struct {
	Status      int
	ContentType string
	Body        []byte
}

// FetchFunc produces the network copy of path.
type FetchFunc func(ctx context.Context, path string) (Entry, error)

// Cache holds named generations of path → Entry. Lookups and Puts go to the
// active generation only.
type Cache struct {
	mu          sync.RWMutex
	generations map[string]map[string]Entry
	active      string
	log         *slog.Logger
}

func New(logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{generations: map[string]map[string]Entry{}, log: logger}
}

// Install fetches every path into generation name. A failed fetch leaves no
// partial generation behind.
func (c *Cache) Install(ctx context.Context, name string, paths []string, fetch FetchFunc) error {
	gen := make(map[string]Entry, len(paths))
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}
		e, err := fetch(ctx, p)
		if err != nil {
			return fmt.Errorf("install %s: fetch %s: %w", name, p, err)
		}
		if e.Status != http.StatusOK {
			return fmt.Errorf("install %s: fetch %s: status %d", name, p, e.Status)
		}
		gen[p] = e
	}
	c.mu.Lock()
	c.generations[name] = gen
	c.mu.Unlock()
	c.log.Debug("cache installed", "cache", name, "entries", len(gen))
	return nil
}

// Activate makes name current and deletes every other generation.
func (c *Cache) Activate(name string) (deleted []string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.generations[name]; !ok {
		return nil, fmt.Errorf("activate %s: %w", name, ErrUnknownGeneration)
	}
	for n := range c.generations {
		if n != name {
			delete(c.generations, n)
			deleted = append(deleted, n)
		}
	}
	sort.Strings(deleted)
	c.active = name
	for _, n := range deleted {
		c.log.Info("deleting old cache", "cache", n)
	}
	return deleted, nil
}

func (c *Cache) Active() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.active
}

// Generations lists installed generation names.
func (c *Cache) Generations() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.generations))
	for n := range c.generations {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func (c *Cache) Lookup(path string) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	gen, ok := c.generations[c.active]
	if !ok {
		return Entry{}, false
	}
	e, ok := gen[path]
	return e, ok
}

// Put stores e in the active generation. Without an active generation it is
// a no-op.
func (c *Cache) Put(path string, e Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	gen, ok := c.generations[c.active]
	if !ok {
		return
	}
	e.Body = append([]byte(nil), e.Body...)
	gen[path] = e
}

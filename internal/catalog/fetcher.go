package catalog

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// ErrNotFound reports that a key is unknown to the catalog.
var ErrNotFound = errors.New("config not found")

// Fetcher loads catalog data on demand, e.g. for hover.
type Fetcher interface {
	FetchConfig(ctx context.Context, key string) (*ConfigEntry, error)
	ListEnvironments(ctx context.Context) ([]Environment, error)
}

// CatalogFetcher serves fetches from a local catalog.
type CatalogFetcher struct {
	Catalog *Catalog
}

func (f CatalogFetcher) FetchConfig(ctx context.Context, key string) (*ConfigEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entry, ok := f.Catalog.Raw(key)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return entry, nil
}

func (f CatalogFetcher) ListEnvironments(ctx context.Context) ([]Environment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return f.Catalog.Environments(), nil
}

// CachedFetcher memoizes another fetcher in a bounded LRU. The cache is
// dropped whenever the catalog generation changes. Errors are never cached.
type CachedFetcher struct {
	next    Fetcher
	catalog *Catalog

	mu      sync.Mutex
	gen     uint64
	entries *lru.Cache[string, *ConfigEntry]
	envs    []Environment
	envsOK  bool
}

// NewCachedFetcher wraps next. catalog may be nil, in which case entries are
// only evicted by size.
func NewCachedFetcher(next Fetcher, catalog *Catalog, size int) (*CachedFetcher, error) {
	if size <= 0 {
		size = 256
	}
	cache, err := lru.New[string, *ConfigEntry](size)
	if err != nil {
		return nil, err
	}
	f := &CachedFetcher{next: next, catalog: catalog, entries: cache}
	if catalog != nil {
		f.gen = catalog.Generation()
	}
	return f, nil
}

// sync drops cached data after a snapshot change. Callers hold mu.
func (f *CachedFetcher) sync() {
	if f.catalog == nil {
		return
	}
	if gen := f.catalog.Generation(); gen != f.gen {
		f.gen = gen
		f.entries.Purge()
		f.envs, f.envsOK = nil, false
	}
}

// current reports whether a result fetched under gen may still be cached:
// neither this fetcher nor the catalog moved on while it was in flight.
// Callers hold mu.
func (f *CachedFetcher) current(gen uint64) bool {
	if f.gen != gen {
		return false
	}
	return f.catalog == nil || f.catalog.Generation() == gen
}

func (f *CachedFetcher) FetchConfig(ctx context.Context, key string) (*ConfigEntry, error) {
	f.mu.Lock()
	f.sync()
	if entry, ok := f.entries.Get(key); ok {
		f.mu.Unlock()
		return entry, nil
	}
	gen := f.gen
	f.mu.Unlock()

	entry, err := f.next.FetchConfig(ctx, key)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	if f.current(gen) {
		f.entries.Add(key, entry)
	}
	f.mu.Unlock()
	return entry, nil
}

func (f *CachedFetcher) ListEnvironments(ctx context.Context) ([]Environment, error) {
	f.mu.Lock()
	f.sync()
	if f.envsOK {
		envs := slices.Clone(f.envs)
		f.mu.Unlock()
		return envs, nil
	}
	gen := f.gen
	f.mu.Unlock()

	envs, err := f.next.ListEnvironments(ctx)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	if f.current(gen) {
		f.envs, f.envsOK = slices.Clone(envs), true
	}
	f.mu.Unlock()
	return envs, nil
}

// Len reports the number of cached entries.
func (f *CachedFetcher) Len() int {
	return f.entries.Len()
}

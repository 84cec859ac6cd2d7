package catalog

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"
)

// Catalog holds the current snapshot. Readers never lock: the snapshot and
// its generation are swapped together as one pointer.
type Catalog struct {
	current atomic.Pointer[version]
	writeMu sync.Mutex

	readyOnce sync.Once
	ready     chan struct{}
}

// New returns an empty catalog that is not ready yet.
func New() *Catalog {
	c := &Catalog{ready: make(chan struct{})}
	c.current.Store(&version{snap: emptySnapshot()})
	return c
}

// Replace installs snap as the current snapshot and signals readiness on the
// first call.
func (c *Catalog) Replace(snap *Snapshot) {
	c.store(snap)
	c.readyOnce.Do(func() { close(c.ready) })
}

// Warm installs snap without signaling readiness. It seeds the catalog from
// a cache before the first real sync.
func (c *Catalog) Warm(snap *Snapshot) {
	c.store(snap)
}

type version struct {
	snap *Snapshot
	gen  uint64
}

// store installs a copy of snap; the caller's value is left untouched.
func (c *Catalog) store(snap *Snapshot) {
	next := emptySnapshot()
	if snap != nil {
		cp := *snap
		if cp.Entries == nil {
			cp.Entries = map[string]*ConfigEntry{}
		}
		next = &cp
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	gen := c.current.Load().gen + 1
	c.current.Store(&version{snap: next, gen: gen})
}

// Snapshot returns the current snapshot; never nil.
func (c *Catalog) Snapshot() *Snapshot {
	return c.current.Load().snap
}

// Generation increments on every Replace or Warm. A reader that observes a
// generation also observes the snapshot stored with it or a later one.
func (c *Catalog) Generation() uint64 {
	return c.current.Load().gen
}

// AllKeys returns the set of known keys.
func (c *Catalog) AllKeys() map[string]struct{} {
	entries := c.Snapshot().Entries
	keys := make(map[string]struct{}, len(entries))
	for k := range entries {
		keys[k] = struct{}{}
	}
	return keys
}

// Has reports whether key is known.
func (c *Catalog) Has(key string) bool {
	_, ok := c.Snapshot().Entries[key]
	return ok
}

// Raw returns the entry for key.
func (c *Catalog) Raw(key string) (*ConfigEntry, bool) {
	entry, ok := c.Snapshot().Entries[key]
	return entry, ok
}

// Environments lists the tracked environments.
func (c *Catalog) Environments() []Environment {
	return slices.Clone(c.Snapshot().Environments)
}

// KeysOfType returns the sorted keys of entries with the given type.
func (c *Catalog) KeysOfType(t ConfigType) []string {
	snap := c.Snapshot()
	var out []string
	for _, k := range snap.Keys() {
		if snap.Entries[k].Type == t {
			out = append(out, k)
		}
	}
	return out
}

// Ready is closed after the first Replace.
func (c *Catalog) Ready() <-chan struct{} {
	return c.ready
}

func (c *Catalog) IsReady() bool {
	select {
	case <-c.ready:
		return true
	default:
		return false
	}
}

// WaitReady blocks until the catalog is ready or ctx is done.
func (c *Catalog) WaitReady(ctx context.Context) error {
	select {
	case <-c.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

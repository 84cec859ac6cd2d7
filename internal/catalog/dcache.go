package catalog

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// Current schema version - increment when diskPayload format changes
const diskCacheSchemaVersion uint16 = 1

// DiskCache keeps the last good snapshot of each catalog source on disk so a
// restarted server has a warm catalog before its first sync.
// Thread-safe for concurrent access.
type DiskCache struct {
	mu  sync.RWMutex
	dir string
}

type diskPayload struct {
	// Schema version for safe invalidation when format changes
	Schema uint16

	Source   string
	SavedAt  time.Time
	Snapshot *Snapshot
}

// OpenDiskCache opens a cache rooted at dir. An empty dir selects
// $XDG_CACHE_HOME/prefabls (or ~/.cache/prefabls).
func OpenDiskCache(dir string) (*DiskCache, error) {
	if dir == "" {
		base := os.Getenv("XDG_CACHE_HOME")
		if base == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return nil, err
			}
			base = filepath.Join(home, ".cache")
		}
		dir = filepath.Join(base, "prefabls")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskCache{dir: dir}, nil
}

// Dir returns the cache root.
func (c *DiskCache) Dir() string {
	if c == nil {
		return ""
	}
	return c.dir
}

func (c *DiskCache) pathFor(source string) string {
	sum := sha256.Sum256([]byte(source))
	return filepath.Join(c.dir, "catalogs", hex.EncodeToString(sum[:])+".mp")
}

// Put serializes snap for source, replacing any previous entry atomically.
func (c *DiskCache) Put(source string, snap *Snapshot) (err error) {
	if c == nil || snap == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(source)
	if err = os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(f.Name())
		}
	}()

	payload := diskPayload{
		Schema:   diskCacheSchemaVersion,
		Source:   source,
		SavedAt:  time.Now(),
		Snapshot: snap,
	}
	if err = msgpack.NewEncoder(f).Encode(&payload); err != nil {
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), p)
}

// Get reads the snapshot stored for source. A missing entry or one written
// with another schema version reports ok=false without error.
func (c *DiskCache) Get(source string) (snap *Snapshot, ok bool, err error) {
	if c == nil {
		return nil, false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(source))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer f.Close()

	var payload diskPayload
	if err := msgpack.NewDecoder(f).Decode(&payload); err != nil {
		return nil, false, err
	}
	if payload.Schema != diskCacheSchemaVersion || payload.Source != source || payload.Snapshot == nil {
		return nil, false, nil
	}
	return payload.Snapshot, true, nil
}

// DropAll invalidates the cache, useful after format changes.
func (c *DiskCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	old := c.dir + ".old-" + time.Now().Format("20060102150405")
	if err := os.Rename(c.dir, old); err != nil {
		return err
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return err
	}
	return os.RemoveAll(old)
}

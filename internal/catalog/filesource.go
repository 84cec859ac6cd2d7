package catalog

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/fsnotify/fsnotify"

	"prefabls/internal/trace"
)

// FileSource pushes snapshots read from a local catalog file into a Catalog.
// It stands in for the remote sync stream.
type FileSource struct {
	Path    string
	Catalog *Catalog
	// Cache, when set, receives every successfully loaded snapshot and seeds
	// the catalog on Warm.
	Cache *DiskCache
	// OnUpdate is called after each successful push.
	OnUpdate func(*Snapshot)
}

func NewFileSource(path string, c *Catalog) *FileSource {
	return &FileSource{Path: path, Catalog: c}
}

func (s *FileSource) cacheKey() string {
	abs, err := filepath.Abs(s.Path)
	if err != nil {
		return s.Path
	}
	return abs
}

// Warm seeds the catalog from the disk cache without signaling readiness.
func (s *FileSource) Warm(ctx context.Context) bool {
	snap, ok, err := s.Cache.Get(s.cacheKey())
	if err != nil {
		trace.Error(trace.FromContext(ctx), trace.ScopeServer, "catalog.warm", err)
		return false
	}
	if !ok {
		return false
	}
	s.Catalog.Warm(snap)
	trace.Point(trace.FromContext(ctx), trace.ScopeServer, "catalog.warm", strconv.Itoa(len(snap.Entries))+" entries")
	return true
}

// Load reads the file and replaces the catalog snapshot. On error the
// previous snapshot stays in place.
func (s *FileSource) Load(ctx context.Context) (*Snapshot, error) {
	tracer := trace.FromContext(ctx)
	span := trace.Begin(tracer, trace.ScopeServer, "catalog.load", 0)
	defer span.End("")

	snap, err := LoadSnapshot(s.Path)
	if err != nil {
		trace.Error(tracer, trace.ScopeServer, "catalog.load", err)
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	s.Catalog.Replace(snap)
	span.WithExtra("entries", strconv.Itoa(len(snap.Entries)))

	if err := s.Cache.Put(s.cacheKey(), snap); err != nil {
		trace.Error(tracer, trace.ScopeServer, "catalog.cache", err)
	}
	if s.OnUpdate != nil {
		s.OnUpdate(snap)
	}
	return snap, nil
}

// Watch reloads the catalog whenever the file is written or recreated. It
// watches the parent directory so that editors replacing the file by rename
// are noticed. Watch returns when ctx is done.
func (s *FileSource) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	target, err := filepath.Abs(s.Path)
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(target), err)
	}

	tracer := trace.FromContext(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target || !ev.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			trace.Point(tracer, trace.ScopeDocument, "catalog.changed", ev.Op.String())
			// errors are traced by Load; the previous snapshot stays
			_, _ = s.Load(ctx)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			trace.Error(tracer, trace.ScopeServer, "catalog.watch", err)
		}
	}
}

package lsp

import (
	"context"

	"prefabls/internal/catalog"
	"prefabls/internal/trace"
)

// startCatalog feeds the catalog from the configured snapshot file: the disk
// cache warms it right away, then the file is loaded and watched in the
// background. Without a catalog path the catalog never becomes ready and no
// diagnostics are published.
func (s *Server) startCatalog() {
	s.mu.Lock()
	path := s.settings.CatalogPath
	cacheDir := s.settings.CacheDir
	if s.stopCatalog != nil || path == "" {
		s.mu.Unlock()
		if path == "" {
			trace.Point(s.tracer, trace.ScopeServer, "catalog.disabled", "no catalog path configured")
		}
		return
	}
	ctx, cancel := context.WithCancel(s.baseCtx)
	s.stopCatalog = cancel
	s.mu.Unlock()

	src := catalog.NewFileSource(path, s.catalog)
	if cache, err := catalog.OpenDiskCache(cacheDir); err != nil {
		s.logf("catalog cache disabled: %v", err)
	} else {
		src.Cache = cache
	}
	src.OnUpdate = func(*catalog.Snapshot) { s.reanalyzeAll() }
	s.mu.Lock()
	s.catalogSource = src
	s.mu.Unlock()

	src.Warm(ctx)
	go func() {
		if _, err := src.Load(ctx); err != nil {
			s.logf("failed to load catalog: %v", err)
		}
		if err := src.Watch(ctx); err != nil {
			s.logf("catalog watch stopped: %v", err)
		}
	}()
}

// awaitCatalog analyzes the open documents once the catalog is ready.
func (s *Server) awaitCatalog(ctx context.Context) {
	if err := s.catalog.WaitReady(ctx); err != nil {
		return
	}
	trace.Point(s.tracer, trace.ScopeServer, "catalog.ready", "")
	s.reanalyzeAll()
}

func (s *Server) currentSource() *catalog.FileSource {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.catalogSource
}

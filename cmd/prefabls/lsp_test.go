package main

import (
	"testing"

	"prefabls/internal/catalog"
)

func TestClearCatalogCache(t *testing.T) {
	dir := t.TempDir()
	cache, err := catalog.OpenDiskCache(dir)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := cache.Put("/tmp/catalog.yaml", &catalog.Snapshot{Version: 1}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := clearCatalogCache(dir); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, ok, err := cache.Get("/tmp/catalog.yaml"); ok || err != nil {
		t.Fatalf("cache not cleared: ok=%v err=%v", ok, err)
	}
}

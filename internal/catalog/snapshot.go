package catalog

import (
	"fmt"
	"maps"
	"os"
	"slices"
	"time"

	"gopkg.in/yaml.v3"
)

// Snapshot is an immutable view of the whole catalog. Snapshots are replaced,
// never modified.
type Snapshot struct {
	Version      int64
	LoadedAt     time.Time
	Environments []Environment
	Entries      map[string]*ConfigEntry
}

func emptySnapshot() *Snapshot {
	return &Snapshot{Entries: map[string]*ConfigEntry{}}
}

// Keys returns all keys in sorted order.
func (s *Snapshot) Keys() []string {
	if s == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(s.Entries))
}

// snapshotFile is the on-disk layout of a catalog file. JSON files decode
// through the same YAML decoder.
type snapshotFile struct {
	Version      int64          `yaml:"version"`
	Environments []Environment  `yaml:"environments"`
	Configs      []*ConfigEntry `yaml:"configs"`
}

// ParseSnapshot decodes a catalog file.
func ParseSnapshot(data []byte) (*Snapshot, error) {
	var file snapshotFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	snap := &Snapshot{
		Version:      file.Version,
		LoadedAt:     time.Now(),
		Environments: file.Environments,
		Entries:      make(map[string]*ConfigEntry, len(file.Configs)),
	}
	for i, entry := range file.Configs {
		if entry == nil || entry.Key == "" {
			return nil, fmt.Errorf("config #%d has no key", i+1)
		}
		if _, dup := snap.Entries[entry.Key]; dup {
			return nil, fmt.Errorf("duplicate config key %q", entry.Key)
		}
		if entry.Type == "" {
			entry.Type = ConfigTypeConfig
		}
		defaults := 0
		for _, row := range entry.Rows {
			if row.IsDefault() {
				defaults++
			}
		}
		if defaults > 1 {
			return nil, fmt.Errorf("config %q has %d default rows", entry.Key, defaults)
		}
		snap.Entries[entry.Key] = entry
	}
	return snap, nil
}

// LoadSnapshot reads and decodes a catalog file.
func LoadSnapshot(path string) (*Snapshot, error) {
	// #nosec G304 -- path comes from user configuration
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	snap, err := ParseSnapshot(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return snap, nil
}

// Package catalog holds the config and feature flag catalog that call sites
// are checked against.
//
// The catalog is a snapshot swapped atomically as a whole; readers never
// observe a partially updated state. Snapshots come from a FileSource (a local
// YAML or JSON file, optionally watched for changes) and the last good one is
// persisted in a DiskCache for warm restarts.
package catalog

// Package resolve turns catalog entries into per-environment display values
// and coerces user input into typed config values.
package resolve

// Package debounce coalesces bursts of calls per key. The first call of a
// burst runs at once and the last one runs again after a quiet period.
package debounce

// Package diagnose turns detected call sites into diagnostics and tracks
// which documents changed since their last publication.
package diagnose

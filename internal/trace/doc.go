// Package trace provides structured tracing for the language server and the
// check command.
//
// Events go to stderr (or a file) as text or NDJSON; stdout is reserved for
// the protocol stream. A ring tracer can additionally keep the most recent
// events in memory so they can be dumped after a handler panic.
//
// # Levels
//
//   - LevelOff: No tracing
//   - LevelError: Only handled failures
//   - LevelInfo: Server lifecycle, catalog loads and analysis runs
//   - LevelDebug: Everything including per-document detail
//
// # Context Propagation
//
//	ctx = trace.WithTracer(ctx, tracer)
//	t := trace.FromContext(ctx)
//
//	span := trace.Begin(t, trace.ScopeAnalysis, "diagnose", 0)
//	defer span.End("")
package trace

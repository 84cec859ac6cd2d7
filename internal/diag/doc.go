// Package diag defines the diagnostic model shared by the analyzers, the
// language server and the check command.
//
// Diagnostic is the central record:
//
//   - Severity – tri-level enum (Info, Warning, Error) defined in severity.go.
//   - Code – compact numeric identifier (see codes.go) with stable string form.
//   - Message – human oriented text; keep it short and actionable.
//   - Span/Range – the key literal the diagnostic points at.
//   - Data – the key, its kind and the accessor method, so follow-up actions
//     such as "create config" can recover context without re-scanning.
//
// Package diag does not perform any formatting or IO. Bag collects
// diagnostics with an optional limit and sorts them deterministically.
package diag

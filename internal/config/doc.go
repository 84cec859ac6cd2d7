// Package config resolves prefabls settings from defaults, prefabls.toml,
// a workspace .env file, PREFABLS_* variables and client settings, in
// increasing precedence.
package config

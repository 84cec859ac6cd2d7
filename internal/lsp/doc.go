// Package lsp implements the prefab language server over stdio JSON-RPC.
// It reports accessor calls whose key is missing from the catalog, shows
// per-environment values on hover, completes keys and offers code actions
// to create configs.
package lsp

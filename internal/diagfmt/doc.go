// Package diagfmt renders check results for terminals and machines.
package diagfmt

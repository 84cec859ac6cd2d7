// Package driver runs batch checks over files on disk for the check command.
package driver

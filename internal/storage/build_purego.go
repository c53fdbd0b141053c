//go:build !sqlite_cgo
// +build !sqlite_cgo

package storage

// This file is compiled unless the sqlite_cgo tag is set.
// It is the default: no C compiler required, cross-compiles anywhere.
//
// Driver used: modernc.org/sqlite

import (
	_ "modernc.org/sqlite"
)

const (
	// DriverName is the SQLite driver to use
	DriverName = "sqlite"

	// BuildMode describes the current build configuration
	BuildMode = "purego"
)

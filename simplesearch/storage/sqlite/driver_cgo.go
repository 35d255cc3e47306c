//go:build cgo

package sqlite

import (
	// Registers the cgo "sqlite3" driver, selectable with NewWithDriver.
	_ "github.com/mattn/go-sqlite3"
)

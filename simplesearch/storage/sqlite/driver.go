package sqlite

import (
	// Registers the pure-Go "sqlite" driver used by default.
	_ "modernc.org/sqlite"
)

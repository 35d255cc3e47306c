package simplesearch

import "time"

const (
	// DefaultSnippetWindow is the default excerpt length in characters.
	DefaultSnippetWindow = 60

	// identifierChunk keeps IN lists under SQLite's host parameter limit
	// of 999, leaving room for the snippet statement's own parameters.
	identifierChunk = 990

	lockRetryDelay = 50 * time.Millisecond
)

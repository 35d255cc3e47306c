package sqlite

const (
	objectsTable  = "objects"
	fulltextTable = "fulltext"
)

// The fulltext relation is an FTS5 table; the identifier column is stored
// but not tokenized.
var ddlCreate = []string{
	`CREATE TABLE IF NOT EXISTS "objects" (
  "__identifier__" TEXT PRIMARY KEY NOT NULL
)`,
	`CREATE VIRTUAL TABLE IF NOT EXISTS "fulltext" USING fts5(
  "__identifier__" UNINDEXED,
  "h1", "h2", "h3", "h4", "h5", "h6", "text",
  tokenize='unicode61'
)`,
}

var ddlDrop = []string{
	`DROP TABLE IF EXISTS "objects"`,
	`DROP TABLE IF EXISTS "fulltext"`,
}

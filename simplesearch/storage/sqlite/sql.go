package sqlite

import (
	"fmt"
	"strings"

	"github.com/simplesearch/simplesearch/simplesearch/storage"
)

type upsertObject struct {
	table string
}

func (u upsertObject) Build(columns []string) string {
	id := quoteIdent(storage.IdentifierColumn)
	if len(columns) == 0 {
		return fmt.Sprintf("INSERT INTO %s (%s) VALUES (:%s) ON CONFLICT(%s) DO NOTHING",
			u.table, id, storage.IdentifierParam, id)
	}
	cols := make([]string, 0, len(columns)+1)
	vals := make([]string, 0, len(columns)+1)
	sets := make([]string, 0, len(columns))
	cols = append(cols, id)
	vals = append(vals, ":"+storage.IdentifierParam)
	for i, c := range columns {
		q := quoteIdent(c)
		cols = append(cols, q)
		vals = append(vals, ":"+storage.ColumnParam(i))
		sets = append(sets, fmt.Sprintf("%s=excluded.%s", q, q))
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT(%s) DO UPDATE SET %s",
		u.table, strings.Join(cols, ", "), strings.Join(vals, ", "), id, strings.Join(sets, ", "))
}

func bucketColumns() string {
	cols := make([]string, 0, len(storage.Buckets)+1)
	cols = append(cols, quoteIdent(storage.IdentifierColumn))
	for _, b := range storage.Buckets {
		cols = append(cols, quoteIdent(b))
	}
	return strings.Join(cols, ", ")
}

func buildSQL() storage.SQL {
	objects := quoteIdent(objectsTable)
	fulltext := quoteIdent(fulltextTable)
	id := quoteIdent(storage.IdentifierColumn)
	byID := fmt.Sprintf("%s = :%s", id, storage.IdentifierParam)

	vals := make([]string, 0, len(storage.Buckets)+1)
	vals = append(vals, ":"+storage.IdentifierParam)
	for _, b := range storage.Buckets {
		vals = append(vals, ":"+b)
	}

	return storage.SQL{
		SelectObject:   fmt.Sprintf("SELECT * FROM %s WHERE %s", objects, byID),
		SelectFulltext: fmt.Sprintf("SELECT %s FROM %s WHERE %s", bucketColumns(), fulltext, byID),
		DeleteObject:   fmt.Sprintf("DELETE FROM %s WHERE %s", objects, byID),
		DeleteFulltext: fmt.Sprintf("DELETE FROM %s WHERE %s", fulltext, byID),
		ReplaceFulltext: []string{
			fmt.Sprintf("DELETE FROM %s WHERE %s", fulltext, byID),
			fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", fulltext, bucketColumns(), strings.Join(vals, ", ")),
		},
		UpsertObject: upsertObject{table: objects},
	}
}

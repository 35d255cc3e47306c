package postgres

import (
	"fmt"
	"strings"

	"github.com/simplesearch/simplesearch/simplesearch/storage"
)

type upsertObject struct{}

func (u upsertObject) Build(columns []string) string {
	table := quoteIdent(objectsTable)
	id := quoteIdent(storage.IdentifierColumn)
	if len(columns) == 0 {
		return fmt.Sprintf("INSERT INTO %s (%s) VALUES (:%s) ON CONFLICT (%s) DO NOTHING",
			table, id, storage.IdentifierParam, id)
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
		sets = append(sets, fmt.Sprintf("%s = EXCLUDED.%s", q, q))
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s) DO UPDATE SET %s",
		table, strings.Join(cols, ", "), strings.Join(vals, ", "), id, strings.Join(sets, ", "))
}

func buildSQL() storage.SQL {
	objects := quoteIdent(objectsTable)
	fulltext := quoteIdent(fulltextTable)
	id := quoteIdent(storage.IdentifierColumn)
	byID := fmt.Sprintf("%s = :%s", id, storage.IdentifierParam)

	vals := make([]string, 0, len(storage.Buckets)+1)
	sets := make([]string, 0, len(storage.Buckets))
	vals = append(vals, ":"+storage.IdentifierParam)
	for _, b := range storage.Buckets {
		vals = append(vals, ":"+b)
		sets = append(sets, fmt.Sprintf("%s = EXCLUDED.%s", quoteIdent(b), quoteIdent(b)))
	}

	return storage.SQL{
		SelectObject:   fmt.Sprintf("SELECT * FROM %s WHERE %s", objects, byID),
		SelectFulltext: fmt.Sprintf("SELECT %s, %s FROM %s WHERE %s", id, bucketList(), fulltext, byID),
		DeleteObject:   fmt.Sprintf("DELETE FROM %s WHERE %s", objects, byID),
		DeleteFulltext: fmt.Sprintf("DELETE FROM %s WHERE %s", fulltext, byID),
		ReplaceFulltext: []string{
			fmt.Sprintf("INSERT INTO %s (%s, %s) VALUES (%s) ON CONFLICT (%s) DO UPDATE SET %s",
				fulltext, id, bucketList(), strings.Join(vals, ", "), id, strings.Join(sets, ", ")),
		},
		UpsertObject: upsertObject{},
	}
}

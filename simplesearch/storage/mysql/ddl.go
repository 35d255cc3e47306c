package mysql

import (
	"fmt"
	"strings"

	"github.com/simplesearch/simplesearch/simplesearch/storage"
)

func ddlCreate(t storage.Tables) []string {
	id := quoteIdent(storage.IdentifierColumn)

	buckets := make([]string, 0, len(storage.Buckets))
	for _, b := range storage.Buckets {
		buckets = append(buckets, fmt.Sprintf("  %s TEXT NOT NULL,", quoteIdent(b)))
	}

	objects := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
  %s VARCHAR(255) NOT NULL,
  PRIMARY KEY (%s)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`, quoteIdent(t.Objects), id, id)

	fulltext := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
  %s VARCHAR(255) NOT NULL,
%s
  PRIMARY KEY (%s),
  FULLTEXT KEY %s (%s)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		quoteIdent(t.Fulltext), id, strings.Join(buckets, "\n"), id,
		quoteIdent("ft_"+t.Fulltext), bucketList())

	return []string{objects, fulltext}
}

// bucketList is the column list of the FULLTEXT key; MATCH must name the
// same columns in the same order.
func bucketList() string {
	cols := make([]string, len(storage.Buckets))
	for i, b := range storage.Buckets {
		cols[i] = quoteIdent(b)
	}
	return strings.Join(cols, ", ")
}

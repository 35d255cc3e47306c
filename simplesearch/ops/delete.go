package ops

import (
	"context"
	"fmt"

	"github.com/simplesearch/simplesearch/simplesearch/storage"
)

// DeleteByIdentifier removes the identifier from both relations. Deleting an
// unknown identifier affects no rows and is not an error.
func DeleteByIdentifier(ctx context.Context, conn storage.Execer, a storage.Adapter, identifier string) error {
	sqlt := a.SQL()
	params := map[string]any{storage.IdentifierParam: identifier}

	queries := []struct {
		sql  string
		name string
	}{
		{sqlt.DeleteFulltext, "fulltext"},
		{sqlt.DeleteObject, "object"},
	}
	for _, q := range queries {
		if _, err := storage.Exec(ctx, conn, a.PlaceholderStyle(), q.sql, params); err != nil {
			return fmt.Errorf("delete %s: %w", q.name, err)
		}
	}
	return nil
}

package ops

import (
	"context"
	"fmt"

	"github.com/simplesearch/simplesearch/simplesearch/storage"
)

// ApplyMigration adds one nullable text column per name to the objects
// relation. A column that already exists, for instance because another
// writer added it first, is skipped, so the step can be repeated safely.
func ApplyMigration(ctx context.Context, conn storage.Execer, a storage.Adapter, columns []string) error {
	for _, c := range columns {
		if _, err := conn.ExecContext(ctx, a.AddColumnSQL(c)); err != nil {
			if a.IsDuplicateColumn(err) {
				continue
			}
			return fmt.Errorf("add column %q: %w", c, err)
		}
	}
	return nil
}

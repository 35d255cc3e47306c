package commands

import (
	"github.com/spf13/cobra"

	"github.com/simplesearch/simplesearch/internal/cliutil"
	"github.com/simplesearch/simplesearch/simplesearch"
)

func NewRemoveCmd(env *cliutil.Env) *cobra.Command {
	var ids []string
	cmd := &cobra.Command{
		Use:   "remove",
		Short: "Remove documents from both relations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if len(ids) == 0 {
				return simplesearch.SchemaError("--id is required")
			}
			ix, err := env.OpenIndex(cmd.Context())
			if err != nil {
				return err
			}
			if len(ids) == 1 {
				if err := ix.RemoveData(cmd.Context(), ids[0]); err != nil {
					return err
				}
				return cliutil.PrintJSON(cmd.OutOrStdout(), map[string]int{"removed": 1})
			}
			batch := simplesearch.NewBatch()
			for _, id := range ids {
				if err := batch.Remove(id); err != nil {
					return err
				}
			}
			n, err := ix.Apply(cmd.Context(), batch)
			if err != nil {
				return err
			}
			return cliutil.PrintJSON(cmd.OutOrStdout(), map[string]int{"removed": n})
		},
	}
	cmd.Flags().StringArrayVar(&ids, "id", nil, "document identifier (repeatable)")
	return cmd
}

package commands

import (
	"github.com/spf13/cobra"

	"github.com/simplesearch/simplesearch/internal/cliutil"
	"github.com/simplesearch/simplesearch/simplesearch"
)

type document struct {
	Identifier string                `json:"identifier"`
	Properties simplesearch.Row      `json:"properties"`
	Fulltext   simplesearch.Fulltext `json:"fulltext"`
}

func NewGetCmd(env *cliutil.Env) *cobra.Command {
	var id string
	cmd := &cobra.Command{
		Use:   "get",
		Short: "Print the properties and fulltext of one document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if id == "" {
				return simplesearch.SchemaError("--id is required")
			}
			ctx := cmd.Context()
			ix, err := env.OpenIndex(ctx)
			if err != nil {
				return err
			}
			row, ok, err := ix.FindOneByIdentifier(ctx, id)
			if err != nil {
				return err
			}
			ft, ftOK, err := ix.FulltextOf(ctx, id)
			if err != nil {
				return err
			}
			if !ok && !ftOK {
				return simplesearch.NotFoundError(id)
			}
			return cliutil.PrintJSON(cmd.OutOrStdout(), document{Identifier: id, Properties: row, Fulltext: ft})
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "document identifier")
	return cmd
}

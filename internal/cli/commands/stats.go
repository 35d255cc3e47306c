package commands

import (
	"github.com/spf13/cobra"

	"github.com/simplesearch/simplesearch/internal/cliutil"
	"github.com/simplesearch/simplesearch/simplesearch"
)

func NewStatsCmd(env *cliutil.Env) *cobra.Command {
	var field string
	cmd := &cobra.Command{
		Use:   "stats --field F [expression...]",
		Short: "Summarize a numeric property (count, min, max, avg, median)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if field == "" {
				return simplesearch.QueryRejectedError("--field is required")
			}
			ctx := cmd.Context()
			ix, err := env.OpenIndex(ctx)
			if err != nil {
				return err
			}
			out, err := where(ix.Query(), args).Stats(ctx, field)
			if err != nil {
				return err
			}
			return cliutil.PrintJSON(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().StringVar(&field, "field", "", "property name")
	return cmd
}

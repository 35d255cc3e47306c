package commands

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/simplesearch/simplesearch/internal/cliutil"
	"github.com/simplesearch/simplesearch/simplesearch"
)

func NewColumnsCmd(env *cliutil.Env) *cobra.Command {
	var counts bool
	cmd := &cobra.Command{
		Use:   "columns [expression...]",
		Short: "List property columns, optionally with value counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ix, err := env.OpenIndex(ctx)
			if err != nil {
				return err
			}
			if !counts {
				if len(args) > 0 {
					return simplesearch.QueryRejectedError("an expression needs --counts")
				}
				return cliutil.PrintJSON(cmd.OutOrStdout(), ix.Columns())
			}
			out, err := where(ix.Query(), args).Overview(ctx)
			if err != nil {
				return err
			}
			return cliutil.PrintJSON(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().BoolVar(&counts, "counts", false, "count documents and distinct values per column")
	return cmd
}

func NewValuesCmd(env *cliutil.Env) *cobra.Command {
	var field string
	var top int
	cmd := &cobra.Command{
		Use:   "values --field F [expression...]",
		Short: "List the most frequent values of a property",
		RunE: func(cmd *cobra.Command, args []string) error {
			if field == "" {
				return simplesearch.QueryRejectedError("--field is required")
			}
			ctx := cmd.Context()
			ix, err := env.OpenIndex(ctx)
			if err != nil {
				return err
			}
			out, err := where(ix.Query(), args).Values(ctx, field, top)
			if err != nil {
				return err
			}
			return cliutil.PrintJSON(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().StringVar(&field, "field", "", "property name")
	cmd.Flags().IntVar(&top, "top", 20, "number of values")
	return cmd
}

func where(q *simplesearch.QueryBuilder, args []string) *simplesearch.QueryBuilder {
	if expr := strings.TrimSpace(strings.Join(args, " ")); expr != "" {
		q.Where(expr)
	}
	return q
}

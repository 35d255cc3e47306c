package commands

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/simplesearch/simplesearch/internal/cliutil"
	"github.com/simplesearch/simplesearch/simplesearch"
)

type findResult struct {
	Rows    []simplesearch.Row `json:"rows"`
	Snippet string             `json:"snippet,omitempty"`
}

func NewFindCmd(env *cliutil.Env) *cobra.Command {
	var (
		sortAsc, sortDesc []string
		limit, offset     int
		count             bool
		words             string
		window            int
	)
	cmd := &cobra.Command{
		Use:   "find [expression...]",
		Short: "Query the index with a filter expression",
		Long: `Query the index. The expression joins terms with whitespace or AND:

  field:value        exact match
  field:*part*       substring match
  field>10           numeric comparison (>, >=, <, <=)
  field>=2024-01-01  date comparison
  field>7d           relative date (h, d, w, m, y)
  field:1..10        inclusive range
  (f:a OR f:b)       any of several values of one field
  word "a phrase"    fulltext search`,
		Example: `  simplesearch find 'kind:page price>=10' --sort price --limit 5
  simplesearch find hello --snippet hello --window 80`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ix, err := env.OpenIndex(ctx)
			if err != nil {
				return err
			}
			q := ix.Query()
			if expr := strings.TrimSpace(strings.Join(args, " ")); expr != "" {
				q.Where(expr)
			}
			for _, f := range sortAsc {
				q.SortAsc(f)
			}
			for _, f := range sortDesc {
				q.SortDesc(f)
			}
			q.Limit(limit).From(offset)

			if count {
				n, err := q.Count(ctx)
				if err != nil {
					return err
				}
				return cliutil.PrintJSON(cmd.OutOrStdout(), map[string]int{"count": n})
			}

			rows, err := q.Execute(ctx)
			if err != nil {
				return err
			}
			res := findResult{Rows: rows}
			if words != "" {
				res.Snippet, err = q.FulltextMatchResult(ctx, words, simplesearch.WithWindow(window))
				if err != nil {
					return err
				}
			}
			return cliutil.PrintJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringArrayVar(&sortAsc, "sort", nil, "sort ascending by property (repeatable)")
	cmd.Flags().StringArrayVar(&sortDesc, "sort-desc", nil, "sort descending by property (repeatable)")
	cmd.Flags().IntVar(&limit, "limit", -1, "maximum number of rows")
	cmd.Flags().IntVar(&offset, "offset", -1, "rows to skip")
	cmd.Flags().BoolVar(&count, "count", false, "print only the number of matches")
	cmd.Flags().StringVar(&words, "snippet", "", "also print a highlighted excerpt of these words")
	cmd.Flags().IntVar(&window, "window", simplesearch.DefaultSnippetWindow, "excerpt length in characters")
	return cmd
}

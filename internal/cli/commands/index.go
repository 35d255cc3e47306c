package commands

import (
	"github.com/spf13/cobra"

	"github.com/simplesearch/simplesearch/internal/cliutil"
)

func NewFlushCmd(env *cliutil.Env) *cobra.Command {
	return &cobra.Command{
		Use:   "flush",
		Short: "Drop and recreate the index, removing all documents and property columns",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ix, err := env.OpenIndex(cmd.Context())
			if err != nil {
				return err
			}
			if err := ix.Flush(cmd.Context()); err != nil {
				return err
			}
			return cliutil.PrintJSON(cmd.OutOrStdout(), map[string]string{"flushed": ix.IndexName()})
		},
	}
}

func NewOptimizeCmd(env *cliutil.Env) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "optimize",
		Short: "Run backend maintenance on the index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if all {
				reg, err := env.OpenAll(ctx)
				if err != nil {
					return err
				}
				if err := reg.OptimizeAll(ctx); err != nil {
					return err
				}
				return cliutil.PrintJSON(cmd.OutOrStdout(), map[string][]string{"optimized": reg.Names()})
			}
			ix, err := env.OpenIndex(ctx)
			if err != nil {
				return err
			}
			if err := ix.Optimize(ctx); err != nil {
				return err
			}
			return cliutil.PrintJSON(cmd.OutOrStdout(), map[string][]string{"optimized": {ix.IndexName()}})
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "optimize every index in the config file concurrently")
	return cmd
}

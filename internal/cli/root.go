package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/simplesearch/simplesearch/internal/cli/commands"
	"github.com/simplesearch/simplesearch/internal/cliopt"
	"github.com/simplesearch/simplesearch/internal/cliutil"
)

// NewRootCmd builds the simplesearch command tree.
func NewRootCmd() *cobra.Command {
	cmd, _ := newRoot()
	return cmd
}

func newRoot() (*cobra.Command, *cliutil.Env) {
	env := &cliutil.Env{Global: cliopt.DefaultGlobalOptions()}

	cmd := &cobra.Command{
		Use:   "simplesearch",
		Short: "Schema-evolving document index with fulltext search",
		Long: `simplesearch stores documents as properties plus fulltext buckets
(h1..h6, text) in SQLite, MySQL or PostgreSQL. New properties add columns
on the fly. Output is JSON.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return env.Setup(cmd.ErrOrStderr())
		},
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			return env.Close()
		},
	}
	cliopt.BindGlobalFlags(cmd.PersistentFlags(), &env.Global)

	cmd.AddCommand(
		commands.NewPutCmd(env),
		commands.NewImportCmd(env),
		commands.NewAppendCmd(env),
		commands.NewSetCmd(env),
		commands.NewRemoveCmd(env),
		commands.NewGetCmd(env),
		commands.NewFindCmd(env),
		commands.NewColumnsCmd(env),
		commands.NewValuesCmd(env),
		commands.NewStatsCmd(env),
		commands.NewFlushCmd(env),
		commands.NewOptimizeCmd(env),
	)
	return cmd, env
}

// Execute runs the CLI and returns an exit code.
func Execute(ctx context.Context, argv []string) int {
	cmd, env := newRoot()
	defer env.Close()
	cmd.SetArgs(argv)
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	return 0
}

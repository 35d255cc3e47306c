package commands

import (
	"github.com/spf13/cobra"

	"github.com/simplesearch/simplesearch/internal/cliutil"
	"github.com/simplesearch/simplesearch/simplesearch"
)

func NewAppendCmd(env *cliutil.Env) *cobra.Command {
	var id string
	var buckets bucketFlags
	cmd := &cobra.Command{
		Use:   "append",
		Short: "Append text to the fulltext buckets of an indexed document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if id == "" {
				return simplesearch.SchemaError("--id is required")
			}
			ix, err := env.OpenIndex(cmd.Context())
			if err != nil {
				return err
			}
			if err := ix.AddToFulltext(cmd.Context(), buckets.Fulltext(cmd), id); err != nil {
				return err
			}
			return cliutil.PrintJSON(cmd.OutOrStdout(), map[string]string{"identifier": id})
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "document identifier")
	buckets = bindBuckets(cmd)
	return cmd
}

// NewSetCmd upserts properties without touching fulltext.
func NewSetCmd(env *cliutil.Env) *cobra.Command {
	var id string
	var props []string
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Insert or update properties of a document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if id == "" {
				return simplesearch.SchemaError("--id is required")
			}
			properties, err := cliutil.ParseProps(props)
			if err != nil {
				return err
			}
			ix, err := env.OpenIndex(cmd.Context())
			if err != nil {
				return err
			}
			if err := ix.InsertOrUpdateProperties(cmd.Context(), properties, id); err != nil {
				return err
			}
			return cliutil.PrintJSON(cmd.OutOrStdout(), map[string]string{"identifier": id})
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "document identifier")
	cmd.Flags().StringArrayVarP(&props, "prop", "p", nil, "property key=value (repeatable)")
	return cmd
}

package commands

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/simplesearch/simplesearch/internal/cliutil"
	"github.com/simplesearch/simplesearch/simplesearch"
)

func NewPutCmd(env *cliutil.Env) *cobra.Command {
	var id string
	var props []string
	var buckets bucketFlags
	cmd := &cobra.Command{
		Use:   "put",
		Short: "Index one document, replacing its fulltext",
		Example: `  simplesearch put --id doc-1 --prop title=Hello --prop tag=go --prop tag=sql \
    --h1 "Hello World" --text "Hello there"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if id == "" {
				id = uuid.NewString()
			}
			properties, err := cliutil.ParseProps(props)
			if err != nil {
				return err
			}
			ix, err := env.OpenIndex(cmd.Context())
			if err != nil {
				return err
			}
			if err := ix.IndexData(cmd.Context(), id, properties, buckets.Fulltext(cmd)); err != nil {
				return err
			}
			return cliutil.PrintJSON(cmd.OutOrStdout(), map[string]string{"identifier": id})
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "document identifier (default: new UUID)")
	cmd.Flags().StringArrayVarP(&props, "prop", "p", nil, "property key=value (repeatable; repeated keys form a list)")
	buckets = bindBuckets(cmd)
	return cmd
}

// NewImportCmd reads JSON lines {"identifier","properties","fulltext"} and
// writes them in one batch.
func NewImportCmd(env *cliutil.Env) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Index JSON lines from stdin or a file in one transaction",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var r io.Reader = cmd.InOrStdin()
			if file != "" {
				f, err := os.Open(file)
				if err != nil {
					return simplesearch.Wrap(simplesearch.ErrIO, "open import file", err)
				}
				defer f.Close()
				r = f
			}

			batch := simplesearch.NewBatch()
			scanner := bufio.NewScanner(r)
			scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
			line := 0
			for scanner.Scan() {
				line++
				data := bytes.TrimSpace(scanner.Bytes())
				if len(data) == 0 {
					continue
				}
				if err := batch.PutJSON(data); err != nil {
					return fmt.Errorf("line %d: %w", line, err)
				}
			}
			if err := scanner.Err(); err != nil {
				return simplesearch.Wrap(simplesearch.ErrIO, "read import", err)
			}

			ix, err := env.OpenIndex(cmd.Context())
			if err != nil {
				return err
			}
			count, err := ix.Apply(cmd.Context(), batch)
			if err != nil {
				return err
			}
			return cliutil.PrintJSON(cmd.OutOrStdout(), map[string]int{"imported": count})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "JSON lines file (default: stdin)")
	return cmd
}

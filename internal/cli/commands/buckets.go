package commands

import (
	"github.com/spf13/cobra"

	"github.com/simplesearch/simplesearch/simplesearch"
)

// bucketFlags holds one text flag per fulltext bucket.
type bucketFlags map[simplesearch.Bucket]*string

func bindBuckets(cmd *cobra.Command) bucketFlags {
	b := make(bucketFlags, len(simplesearch.Buckets))
	for _, bucket := range simplesearch.Buckets {
		b[bucket] = cmd.Flags().String(string(bucket), "", "fulltext for the "+string(bucket)+" bucket")
	}
	return b
}

// Fulltext returns the buckets whose flag was set.
func (b bucketFlags) Fulltext(cmd *cobra.Command) simplesearch.Fulltext {
	ft := simplesearch.Fulltext{}
	for bucket, v := range b {
		if cmd.Flags().Changed(string(bucket)) {
			ft[bucket] = *v
		}
	}
	return ft
}

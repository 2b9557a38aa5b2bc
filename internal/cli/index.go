package cli

import (
	"fmt"

	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"

	"github.com/andreluiz1987/product-store-search/internal/ingest"
)

func createIndexCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "create-index",
		Short: "Create the product index if it does not exist",
		Args:  cobra.NoArgs,
		Example: heredoc.Doc(`
			$ ELASTICSEARCH_INDEX=products-catalog catalogctl create-index
		`),
		RunE: func(cmd *cobra.Command, _ []string) error {
			created, err := e.backend.EnsureIndex(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch {
			case e.backend.ES == nil:
				fmt.Fprintln(out, "in-memory engine: no index to create")
			case created:
				fmt.Fprintf(out, "index %s created\n", e.backend.ES.IndexName())
			default:
				fmt.Fprintf(out, "index %s already exists\n", e.backend.ES.IndexName())
			}
			return nil
		},
	}
}

func ingestCommand(e *env) *cobra.Command {
	var file string
	var batchSize int

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Bulk-load a JSON array of products into the index",
		Long: heredoc.Doc(`
			Reads a JSON array of product documents and indexes it in batches.
			The document id becomes the index _id. Documents without an id are
			skipped and counted as failed.
		`),
		Args: cobra.NoArgs,
		Example: heredoc.Doc(`
			$ catalogctl ingest --file products.json
			$ catalogctl ingest -f products.json --batch-size 500
		`),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if batchSize < 1 {
				return fmt.Errorf("--batch-size must be positive, got %d", batchSize)
			}

			loader := ingest.NewLoader(e.backend.Indexer, e.logger, batchSize)
			sum, err := loader.LoadFile(cmd.Context(), file)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%d batches: %d indexed, %d failed\n", sum.Batches, sum.Indexed, sum.Failed)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "path to the JSON catalogue export")
	cmd.Flags().IntVarP(&batchSize, "batch-size", "b", ingest.DefaultBatchSize, "documents per bulk request")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

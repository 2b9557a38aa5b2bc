package cli

import (
	"encoding/json"

	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"

	"github.com/andreluiz1987/product-store-search/internal/domain"
	"github.com/andreluiz1987/product-store-search/internal/query"
	"github.com/andreluiz1987/product-store-search/internal/service"
)

func searchCommand(e *env) *cobra.Command {
	var term string
	var categories, productTypes, brands, promoted []string
	var size int
	var facets bool

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Query the product index",
		Args:  cobra.NoArgs,
		Example: heredoc.Doc(`
			$ catalogctl search --query "matte lipstick"
			$ catalogctl search --category pencil --brand nyx --promote 1048
			$ catalogctl search --category bags --facets
		`),
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc := service.NewSearchService(e.backend.Gateway, e.backend.Indexer, e.logger, e.cfg.PageSize)
			req := domain.SearchRequest{
				Term:    term,
				Filters: query.NormalizeFilters(categories, productTypes, brands),
				Size:    size,
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")

			if facets {
				res, err := svc.Facets(cmd.Context(), req)
				if err != nil {
					return err
				}
				return enc.Encode(res)
			}

			views, err := svc.Search(cmd.Context(), req, promoted)
			if err != nil {
				return err
			}
			if views == nil {
				views = []domain.ProductView{}
			}
			return enc.Encode(views)
		},
	}

	cmd.Flags().StringVarP(&term, "query", "q", "", "free-text search term")
	cmd.Flags().StringArrayVar(&categories, "category", nil, "category filter, repeatable")
	cmd.Flags().StringArrayVar(&productTypes, "product-type", nil, "product type filter, repeatable")
	cmd.Flags().StringArrayVar(&brands, "brand", nil, "brand filter, repeatable")
	cmd.Flags().StringArrayVar(&promoted, "promote", nil, "ids pinned ahead of the results, in order")
	cmd.Flags().IntVarP(&size, "size", "s", 0, "maximum number of results")
	cmd.Flags().BoolVar(&facets, "facets", false, "print facet counts instead of products")
	return cmd
}

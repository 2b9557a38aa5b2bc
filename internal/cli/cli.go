// Package cli implements the catalogctl command line.
package cli

import (
	"log/slog"

	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"

	"github.com/andreluiz1987/product-store-search/internal/app"
	"github.com/andreluiz1987/product-store-search/internal/config"
	"github.com/andreluiz1987/product-store-search/pkg/logger"
)

// ConfigLoader returns the configuration the commands run with.
type ConfigLoader func() (*config.Config, error)

// env carries what every subcommand needs once the root command has run.
type env struct {
	load    ConfigLoader
	cfg     *config.Config
	logger  *slog.Logger
	backend *app.Backend
}

// New builds the catalogctl root command. Configuration comes from load,
// normally config.Load.
func New(load ConfigLoader) *cobra.Command {
	e := &env{load: load}

	root := &cobra.Command{
		Use:           "catalogctl <command> [flags]",
		Short:         "Manage the product search index",
		Long:          "Provision, load and query the product catalogue search index.",
		SilenceErrors: true,
		SilenceUsage:  true,
		Example: heredoc.Doc(`
			$ catalogctl create-index
			$ catalogctl ingest --file products.json --batch-size 100
			$ catalogctl search --query lipstick --brand nyx
		`),
		Annotations: map[string]string{
			"help:environment": heredoc.Doc(`
				Connection settings are read from the environment, e.g.
				ELASTICSEARCH_URL, ELASTICSEARCH_INDEX, SEARCH_ENGINE and LOG_LEVEL.
			`),
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return e.init(cmd)
		},
	}

	root.AddCommand(
		createIndexCommand(e),
		ingestCommand(e),
		searchCommand(e),
	)
	return root
}

func (e *env) init(cmd *cobra.Command) error {
	cfg, err := e.load()
	if err != nil {
		return err
	}
	e.cfg = cfg
	e.logger = logger.NewWithFormat("catalogctl", cfg.LogLevel, logger.FormatText, cmd.ErrOrStderr())

	backend, err := app.NewBackend(cfg, e.logger)
	if err != nil {
		return err
	}
	e.backend = backend
	return nil
}

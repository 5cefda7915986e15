// Package commands implements the offline extraction CLI.
package commands

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/salescoach/backend/config"
	"github.com/salescoach/backend/internal/infrastructure/ingest"
	"github.com/salescoach/backend/internal/infrastructure/jsonstore"
	"github.com/salescoach/backend/internal/infrastructure/logging"
	"github.com/salescoach/backend/internal/usecase"
)

var (
	verbose bool
	compact bool
	save    bool
)

// app holds what the subcommands need, built once per invocation
type app struct {
	cfg     *config.Config
	logger  zerolog.Logger
	upload  *usecase.UploadService
	catalog *usecase.CatalogService
	out     io.Writer
}

var current *app

var rootCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract vehicle specifications from brochures, spec sheets and dealer pages",
	Long: `extract runs the same ingestion and field extraction pipeline as the admin upload
routes, without the server. Results are printed as JSON; --save also adds them to the catalog.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		current = newApp(cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log every matched extraction rule")
	rootCmd.PersistentFlags().BoolVar(&compact, "compact", false, "print single-line JSON")
	rootCmd.PersistentFlags().BoolVar(&save, "save", false, "add successful extractions to the catalog")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func newApp(cfg *config.Config, out, logOut io.Writer) *app {
	level := cfg.Log.Level
	if verbose {
		level = "debug"
	}
	logger := logging.New(logging.Config{Level: level, Format: "console", Service: "extract", Output: logOut})

	var ocr *ingest.OCR
	if cfg.OCR.Enabled {
		ocr = ingest.NewOCR(ingest.OCRConfig{Binary: cfg.OCR.Binary, Language: cfg.OCR.Language}, nil)
	}
	fetcher := ingest.NewWebFetcher(ingest.FetchConfig{
		Timeout:      cfg.Fetch.Timeout,
		UserAgent:    cfg.Fetch.UserAgent,
		MaxBodyBytes: cfg.Fetch.MaxBodyBytes,
	})

	return &app{
		cfg:     cfg,
		logger:  logger,
		upload:  usecase.NewUploadService(ingest.NewAdapter(ocr, fetcher, logger), usecase.NewFieldExtractor(logger), logger),
		catalog: usecase.NewCatalogService(jsonstore.NewCatalogFile(cfg.Storage.CatalogPath), logger),
		out:     out,
	}
}

func (a *app) print(v any) error {
	enc := json.NewEncoder(a.out)
	if !compact {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

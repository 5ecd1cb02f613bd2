package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/dashboard/internal/app"
	"github.com/MrSnakeDoc/dashboard/internal/config"
	"github.com/MrSnakeDoc/dashboard/internal/logger"
	"github.com/MrSnakeDoc/dashboard/internal/scheduler"
)

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import [bookmarks.yaml]",
		Short: "Import a homepage bookmarks.yaml once into the configured store",
		Long: `Reads a homepage-style bookmarks.yaml and creates every bookmark whose URL is
not stored yet. The category becomes a lower-cased tag.

Without an argument the file from DASHBOARD_BOOKMARK_FILE is used.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			file := cfg.BookmarkFile
			if len(args) == 1 {
				file = args[0]
			}
			if file == "" {
				return errors.New("no bookmark file given and DASHBOARD_BOOKMARK_FILE is empty")
			}

			log := logger.New(cfg.LogLevel, cfg.PrettyLog)
			defer func() { _ = log.Sync() }()

			backend, err := app.OpenBackend(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer func() { _ = backend.Close(context.Background()) }()

			importer := scheduler.NewImporter(file, backend.NewService(log), log, cfg.ImportInterval, nil)
			added, err := importer.Import(cmd.Context())
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "imported %d bookmark(s) from %s\n", added, file)
			return err
		},
	}
}

// Package cli holds the dashboard command tree.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/dashboard/internal/config"
	"github.com/MrSnakeDoc/dashboard/internal/version"
)

type rootOptions struct {
	apiURL string
}

// NewRootCmd builds the dashboard command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}
	clientCfg := config.LoadClient()

	root := &cobra.Command{
		Use:   "dashboard",
		Short: "Personal dashboard bookmark service",
		Long: `dashboard serves a small bookmark collection over HTTP, backed by MongoDB,
Redis or memory, and manages it from the command line.

Server settings come from the environment (or a .env file), e.g.:
  DASHBOARD_STORE=mongo MONGODB_URI=mongodb://localhost:27017 dashboard serve`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version.String(),
	}
	root.PersistentFlags().StringVar(&opts.apiURL, "api", clientCfg.APIURL, "Base URL of a running dashboard server")

	root.AddCommand(
		newServeCmd(),
		newImportCmd(),
		newBookmarksCmd(opts, clientCfg),
	)
	return root
}

// Execute runs the root command until it returns or the process is interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return NewRootCmd().ExecuteContext(ctx)
}

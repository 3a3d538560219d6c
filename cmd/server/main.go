package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/yukikurage/org-membership-api/internal/config"
	"github.com/yukikurage/org-membership-api/internal/database"
	"github.com/yukikurage/org-membership-api/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:          "server",
	Short:        "Organization and membership API",
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// setup loads the configuration, builds the logger and connects to the database.
func setup() (*config.Config, *log.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	logger := logging.New(cfg.Log)

	if err := database.Connect(cfg, logger); err != nil {
		return nil, nil, err
	}
	if err := database.Migrate(logger); err != nil {
		database.Close() //nolint:errcheck
		return nil, nil, err
	}

	return cfg, logger, nil
}

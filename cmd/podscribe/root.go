package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"podscribe/internal/config"
	"podscribe/internal/logging"
	"podscribe/internal/storage"
)

// appContext holds the lazily initialized state shared by all commands:
// the base directory, configuration and database handle.
type appContext struct {
	baseDir    string
	configPath string
	cfg        config.Config
	db         *sql.DB
}

func (a *appContext) ensure(ctx context.Context) error {
	if a.db != nil {
		return nil
	}

	if a.baseDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("resolve home directory: %w", err)
		}
		a.baseDir = filepath.Join(home, ".podscribe")
	}
	if err := os.MkdirAll(a.baseDir, 0o700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	logging.Configure(filepath.Join(a.baseDir, "podscribe.log"))

	a.configPath = filepath.Join(a.baseDir, "config.yaml")
	cfg, err := config.Ensure(ctx, a.configPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	a.cfg = cfg

	db, err := storage.Open(filepath.Join(a.baseDir, "app.db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	a.db = db
	return nil
}

func (a *appContext) close() {
	if a.db != nil {
		a.db.Close()
		a.db = nil
	}
}

func newRootCommand() *cobra.Command {
	app := &appContext{}

	rootCmd := &cobra.Command{
		Use:           "podscribe",
		Short:         "Fetch, transcribe and archive podcast episodes as Markdown notes",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.ensure(cmd.Context())
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			app.close()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&app.baseDir, "base-dir", "", "application directory (default ~/.podscribe)")

	rootCmd.AddCommand(newAddCommand(app))
	rootCmd.AddCommand(newListCommand(app))
	rootCmd.AddCommand(newSearchCommand(app))
	rootCmd.AddCommand(newImportCommand(app))
	rootCmd.AddCommand(newExportCommand(app))
	rootCmd.AddCommand(newProcessCommand(app))
	rootCmd.AddCommand(newHistoryCommand(app))
	rootCmd.AddCommand(newPurgeCommand(app))
	rootCmd.AddCommand(newConfigCommand(app))

	return rootCmd
}

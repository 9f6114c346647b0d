package main

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"podscribe/internal/config"
	"podscribe/internal/fetch"
	"podscribe/internal/ledger"
	"podscribe/internal/transcribe"
)

func newHistoryCommand(app *appContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recently transcribed episodes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := ledger.New(app.db).History(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No completed episodes yet.")
				return nil
			}
			for _, entry := range entries {
				when := "unknown"
				if entry.CompletedAt != nil {
					when = humanize.Time(*entry.CompletedAt)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s - %s (%s chars, %s)\n  %s\n",
					entry.PodcastName, entry.EpisodeTitle,
					humanize.Comma(int64(entry.TranscriptLen)), when, entry.OutputPath)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum entries to show")

	return cmd
}

func newPurgeCommand(app *appContext) *cobra.Command {
	var maxAgeHours int

	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete old downloaded audio files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if maxAgeHours <= 0 {
				maxAgeHours = app.cfg.PurgeMaxAgeHours
			}
			fetcher := fetch.New(app.cfg.AudioDir, &http.Client{}, app.cfg.UserAgent)
			removed, bytes, err := fetcher.PurgeOlderThan(time.Duration(maxAgeHours) * time.Hour)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d files, reclaimed %s.\n",
				removed, humanize.Bytes(uint64(bytes)))
			return nil
		},
	}

	cmd.Flags().IntVar(&maxAgeHours, "max-age", 0, "delete audio older than this many hours (default from config)")

	return cmd
}

func newConfigCommand(app *appContext) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show the resolved configuration and available backends",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := yaml.Marshal(app.cfg)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "# %s\n%s", app.configPath, out)

			secrets, err := config.LoadSecrets(cmd.Context())
			if err != nil {
				return err
			}
			orch := transcribe.ForConfig(app.cfg, secrets, &http.Client{Timeout: app.cfg.Timeout()})
			fmt.Fprintf(cmd.OutOrStdout(), "\nAvailable backends: %s\n", strings.Join(orch.Backends(), ", "))
			return nil
		},
	}
}

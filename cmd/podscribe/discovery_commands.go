package main

import (
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"podscribe/internal/directory"
	"podscribe/internal/opml"
	"podscribe/internal/subscriptions"
)

func newSearchCommand(app *appContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "search <term>...",
		Short: "Search the podcast directory for feeds",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := directory.NewClient(&http.Client{Timeout: app.cfg.Timeout()}, "")
			results, err := client.Search(cmd.Context(), strings.Join(args, " "), limit)
			if err != nil {
				return err
			}
			if len(results) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No podcasts found.")
				return nil
			}
			for _, result := range results {
				fmt.Fprintf(cmd.OutOrStdout(), "%s - %s (%s, %d episodes)\n",
					result.Title, result.Author, result.Genre, result.EpisodeCount)
				if result.FeedURL != "" {
					fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", result.FeedURL)
				} else {
					fmt.Fprintln(cmd.OutOrStdout(), "  (no public feed)")
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "maximum results")

	return cmd
}

func newImportCommand(app *appContext) *cobra.Command {
	return &cobra.Command{
		Use:   "import <opml-file>",
		Short: "Import subscriptions from an OPML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer file.Close()

			subs, err := opml.Import(file)
			if err != nil {
				return err
			}

			svc := subscriptions.NewService(app.db)
			var imported int
			for _, sub := range subs {
				if err := svc.Add(cmd.Context(), sub.Name, sub.FeedURL); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "skipping %q: %v\n", sub.Name, err)
					continue
				}
				imported++
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d of %d subscriptions.\n", imported, len(subs))
			return nil
		},
	}
}

func newExportCommand(app *appContext) *cobra.Command {
	return &cobra.Command{
		Use:   "export <opml-file>",
		Short: "Export subscriptions to an OPML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := subscriptions.NewService(app.db)
			subs, err := svc.List(cmd.Context())
			if err != nil {
				return err
			}

			file, err := os.Create(args[0])
			if err != nil {
				return err
			}
			if err := opml.Export(file, subs); err != nil {
				file.Close()
				return err
			}
			if err := file.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d subscriptions to %s.\n", len(subs), args[0])
			return nil
		},
	}
}

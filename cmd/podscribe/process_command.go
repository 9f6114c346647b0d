package main

import (
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"podscribe/internal/config"
	"podscribe/internal/feeds"
	"podscribe/internal/fetch"
	"podscribe/internal/ledger"
	"podscribe/internal/notes"
	"podscribe/internal/pipeline"
	"podscribe/internal/subscriptions"
	"podscribe/internal/transcribe"
)

type feedTarget struct {
	name         string
	feedURL      string
	subscription bool
}

func newProcessCommand(app *appContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "process [name-or-url]...",
		Short: "Fetch and transcribe new episodes",
		Long: "Process the named subscriptions or feed URLs. With no arguments, " +
			"every enabled subscription is processed.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			secrets, err := config.LoadSecrets(ctx)
			if err != nil {
				return err
			}

			svc := subscriptions.NewService(app.db)
			targets, err := resolveTargets(cmd, svc, args)
			if err != nil {
				return err
			}
			if len(targets) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing to process.")
				return nil
			}

			if limit <= 0 {
				limit = app.cfg.ProcessLimit
			}

			feedClient := &http.Client{Timeout: app.cfg.Timeout()}
			// Audio downloads can run well past the per-call timeout;
			// cancellation comes from the command context instead.
			downloadClient := &http.Client{}

			pipe := pipeline.New(
				feeds.NewParser(feedClient, app.cfg.UserAgent),
				fetch.New(app.cfg.AudioDir, downloadClient, app.cfg.UserAgent),
				transcribe.ForConfig(app.cfg, secrets, downloadClient),
				notes.NewWriter(app.cfg.NotesDir),
				ledger.New(app.db),
			)

			var failedFeeds int
			for _, target := range targets {
				label := target.name
				if label == "" {
					label = target.feedURL
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Processing %s ...\n", label)

				summary, err := pipe.ProcessFeed(ctx, target.name, target.feedURL, limit)
				if err != nil {
					log.Printf("feed %s failed: %v", label, err)
					fmt.Fprintf(cmd.OutOrStdout(), "  failed: %v\n", err)
					failedFeeds++
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "  %d processed, %d skipped, %d failed\n",
					summary.Processed, summary.Skipped, summary.Failed)
				for _, path := range summary.NotePaths {
					fmt.Fprintf(cmd.OutOrStdout(), "  note: %s\n", path)
				}

				if target.subscription {
					if err := svc.TouchChecked(ctx, target.name); err != nil {
						log.Printf("update last checked for %q: %v", target.name, err)
					}
				}
			}

			if failedFeeds > 0 {
				return fmt.Errorf("%d of %d feeds failed", failedFeeds, len(targets))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum episodes per feed (default from config)")

	return cmd
}

func resolveTargets(cmd *cobra.Command, svc *subscriptions.Service, args []string) ([]feedTarget, error) {
	if len(args) == 0 {
		subs, err := svc.List(cmd.Context())
		if err != nil {
			return nil, err
		}
		var targets []feedTarget
		for _, sub := range subs {
			if !sub.Enabled {
				continue
			}
			targets = append(targets, feedTarget{name: sub.Name, feedURL: sub.FeedURL, subscription: true})
		}
		return targets, nil
	}

	targets := make([]feedTarget, 0, len(args))
	for _, arg := range args {
		if strings.Contains(arg, "://") {
			targets = append(targets, feedTarget{feedURL: arg})
			continue
		}
		sub, err := svc.Resolve(cmd.Context(), arg)
		if err != nil {
			return nil, err
		}
		targets = append(targets, feedTarget{name: sub.Name, feedURL: sub.FeedURL, subscription: true})
	}
	return targets, nil
}

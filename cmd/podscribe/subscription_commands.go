package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"podscribe/internal/subscriptions"
)

func newAddCommand(app *appContext) *cobra.Command {
	return &cobra.Command{
		Use:   "add <name> <feed-url>",
		Short: "Subscribe to a podcast feed",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := subscriptions.NewService(app.db)
			if err := svc.Add(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Subscribed to %q.\n", args[0])
			return nil
		},
	}
}

func newListCommand(app *appContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List subscribed podcasts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := subscriptions.NewService(app.db)
			subs, err := svc.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(subs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No subscriptions. Use 'podscribe add' to register a feed.")
				return nil
			}
			for _, sub := range subs {
				marker := " "
				if !sub.Enabled {
					marker = "-"
				}
				checked := "never checked"
				if sub.LastChecked != nil {
					checked = "checked " + humanize.Time(*sub.LastChecked)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %-30s %s (%s)\n", marker, sub.Name, sub.FeedURL, checked)
			}
			return nil
		},
	}
}

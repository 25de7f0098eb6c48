package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and maintain the rating cache",
	}

	cacheCmd.AddCommand(newCacheListCommand(ctx))
	cacheCmd.AddCommand(newCachePruneCommand(ctx))
	cacheCmd.AddCommand(newCacheClearCommand(ctx))

	return cacheCmd
}

func newCacheListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List cached ratings with their fetch times",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, cfg, err := ctx.openCache()
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := store.List(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "Rating cache is empty")
				return nil
			}

			freshness := cfg.FreshnessWindow()
			rows := make([][]string, 0, len(entries))
			for _, entry := range entries {
				state := "fresh"
				if time.Since(entry.FetchedAt) >= freshness {
					state = "stale"
				}
				rows = append(rows, []string{
					strconv.FormatInt(entry.TMDBID, 10),
					strconv.FormatFloat(entry.Rating, 'f', 1, 64),
					entry.FetchedAt.Local().Format("2006-01-02 15:04"),
					state,
				})
			}

			fmt.Fprintln(out, renderTable(
				[]string{"TMDB ID", "Rating", "Fetched", "State"},
				rows,
				[]columnAlignment{alignRight, alignRight, alignLeft, alignLeft},
			))
			fmt.Fprintf(out, "%d cached ratings (freshness window %s)\n", len(entries), freshness)
			return nil
		},
	}
}

func newCachePruneCommand(ctx *commandContext) *cobra.Command {
	var olderThanDays int

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Remove cache entries older than the freshness window",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, cfg, err := ctx.openCache()
			if err != nil {
				return err
			}
			defer store.Close()

			olderThan := cfg.FreshnessWindow()
			if olderThanDays > 0 {
				olderThan = time.Duration(olderThanDays) * 24 * time.Hour
			}

			removed, err := store.Prune(cmd.Context(), olderThan)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d entries older than %s\n", removed, olderThan)
			return nil
		},
	}

	cmd.Flags().IntVar(&olderThanDays, "older-than", 0, "Age threshold in days (defaults to the freshness window)")
	return cmd
}

func newCacheClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached rating",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _, err := ctx.openCache()
			if err != nil {
				return err
			}
			defer store.Close()

			removed, err := store.Clear(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d cached ratings\n", removed)
			return nil
		},
	}
}

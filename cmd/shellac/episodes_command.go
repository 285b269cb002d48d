package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"shellac/internal/episode"
	"shellac/internal/ledger"
)

func newEpisodesCommand(ctx *commandContext) *cobra.Command {
	var statusFlag string

	cmd := &cobra.Command{
		Use:   "episodes",
		Short: "List recorded episode dispositions",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := ledger.Open(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			var statuses []ledger.Status
			if statusFlag != "" {
				status, ok := ledger.ParseStatus(statusFlag)
				if !ok {
					return fmt.Errorf("unknown status %q (known: %v)", statusFlag, ledger.AllStatuses())
				}
				statuses = append(statuses, status)
			}

			items, err := store.List(cmd.Context(), statuses...)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(items) == 0 {
				fmt.Fprintln(out, "No episodes recorded")
				return nil
			}

			rows := make([][]string, 0, len(items))
			for _, item := range items {
				duration := ""
				if item.DurationSeconds > 0 {
					duration = episode.FormatDuration(time.Duration(item.DurationSeconds) * time.Second)
				}
				detail := item.CanonicalTitle
				if detail == "" {
					detail = item.ErrorMessage
				}
				rows = append(rows, []string{
					strconv.FormatInt(item.ID, 10),
					item.Title,
					item.Source,
					strconv.Itoa(item.Parts),
					duration,
					string(item.Status),
					detail,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"ID", "Title", "Source", "Parts", "Duration", "Status", "Detail"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignRight, alignLeft, alignLeft},
			))
			if len(statuses) == 0 {
				summary, err := store.SummaryAll(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%d archived, %d duplicates, %d known, %d already archived, %d failed, %d in flight\n",
					summary.Archived, summary.Duplicate, summary.KnownDuplicate,
					summary.AlreadyArchived, summary.Failed, summary.InFlight)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&statusFlag, "status", "", "Only show episodes with this status")
	cmd.AddCommand(newEpisodesClearCommand(ctx))
	return cmd
}

func newEpisodesClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all recorded dispositions (the duplicate registry is kept)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := ledger.Open(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			removed, err := store.Clear(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d episode record(s) from %s\n", removed, store.Path())
			return nil
		},
	}
}

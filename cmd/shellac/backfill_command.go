package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"shellac/internal/fingerprint"
	"shellac/internal/ledger"
	"shellac/internal/logging"
	"shellac/internal/media/ffmpeg"
	"shellac/internal/orchestrator"
	"shellac/internal/services/olaf"
)

func newBackfillCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "backfill",
		Short: "Fingerprint archive files the index does not know yet",
		Long: "Walks the archive directory, duplicate-matches every audio file " +
			"missing from the fingerprint index, and commits the unique ones. " +
			"Files matching another archived recording are registered as " +
			"duplicates instead. Useful for a pre-existing archive or after a " +
			"failed index commit.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return err
			}
			store, err := ledger.Open(cfg)
			if err != nil {
				return err
			}
			defer store.Close()
			media, err := ffmpeg.New(cfg)
			if err != nil {
				return err
			}
			engine, err := olaf.New(cfg)
			if err != nil {
				return err
			}

			matcher := fingerprint.NewMatcher(cfg, engine, media, logger)
			orch := orchestrator.New(cfg, store, nil, matcher, logger)

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			count, err := orch.Backfill(runCtx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Backfilled %d file(s) into the fingerprint index\n", count)
			return nil
		},
	}
}

package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"shellac/internal/assembler"
	"shellac/internal/config"
	"shellac/internal/deps"
	"shellac/internal/fingerprint"
	"shellac/internal/ledger"
	"shellac/internal/logging"
	"shellac/internal/media/ffmpeg"
	"shellac/internal/orchestrator"
	"shellac/internal/services/olaf"
	"shellac/internal/services/ytdlp"
	"shellac/internal/sources"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Fetch, deduplicate, and archive new episodes",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return runBatch(cmd, cfg)
		},
	}
}

func runBatch(cmd *cobra.Command, cfg *config.Config) error {
	lock := flock.New(cfg.LockPath())
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire run lock: %w", err)
	}
	if !locked {
		return errors.New("another shellac run is already in progress")
	}
	defer func() { _ = lock.Unlock() }()

	statuses := deps.CheckBinaries(deps.Requirements(cfg))
	if missing := deps.MissingRequired(statuses); len(missing) > 0 {
		return fmt.Errorf("missing required tools: %s (run `shellac deps` for details)", strings.Join(missing, ", "))
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

	downloader, err := ytdlp.New(cfg)
	if err != nil {
		return err
	}
	media, err := ffmpeg.New(cfg)
	if err != nil {
		return err
	}
	engine, err := olaf.New(cfg)
	if err != nil {
		return err
	}

	asm := assembler.New(cfg, downloader, media, logger)
	matcher := fingerprint.NewMatcher(cfg, engine, media, logger)
	orch := orchestrator.New(cfg, store, asm, matcher, logger)

	runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runID := uuid.NewString()
	logger.Info("run starting",
		logging.String(logging.FieldRunID, runID),
		logging.String("archive", cfg.Paths.ArchiveDir))

	summary, err := orch.Run(runCtx, runID, buildEnumerators(cfg, downloader, logger))
	if err != nil {
		return err
	}

	logger.Info("run finished",
		logging.String(logging.FieldRunID, runID),
		logging.Int("episodes", summary.Total))

	fmt.Fprintln(cmd.OutOrStdout(), renderSummary(summary))
	return nil
}

func buildEnumerators(cfg *config.Config, downloader *ytdlp.Client, logger *slog.Logger) []sources.Enumerator {
	var enumerators []sources.Enumerator
	if strings.TrimSpace(cfg.Sources.CatalogueURL) != "" {
		enumerators = append(enumerators,
			sources.NewCatalogueEnumerator(cfg.Sources.CatalogueURL, cfg.Sources.CataloguePageLimit, logger))
	}
	if len(cfg.Sources.PlaylistURLs) > 0 {
		enumerators = append(enumerators,
			sources.NewPlaylistEnumerator(downloader, cfg.Sources.PlaylistURLs, cfg.Downloader.Retries, logger))
	}
	return enumerators
}

func renderSummary(summary ledger.Summary) string {
	rows := [][]string{
		{"Archived", strconv.Itoa(summary.Archived)},
		{"Confirmed duplicates", strconv.Itoa(summary.Duplicate)},
		{"Known duplicates", strconv.Itoa(summary.KnownDuplicate)},
		{"Already archived", strconv.Itoa(summary.AlreadyArchived)},
		{"Failed", strconv.Itoa(summary.Failed)},
		{"Total", strconv.Itoa(summary.Total)},
	}
	return renderTable(
		[]string{"Disposition", "Episodes"},
		rows,
		[]columnAlignment{alignLeft, alignRight},
	)
}

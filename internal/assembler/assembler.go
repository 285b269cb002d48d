package assembler

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/avast/retry-go/v4"

	"shellac/internal/config"
	"shellac/internal/episode"
	"shellac/internal/fileutil"
	"shellac/internal/logging"
	"shellac/internal/media/ffmpeg"
	"shellac/internal/services"
	"shellac/internal/services/ytdlp"
)

// minArtifactBytes is the floor below which a downloaded file counts as
// missing. Downloader tools occasionally exit zero after writing nothing.
const minArtifactBytes = 1024

// Merger is the slice of the media toolbox the assembler needs.
type Merger interface {
	Concat(ctx context.Context, parts []string, dest string, tags ffmpeg.Tagging) error
	Duration(ctx context.Context, path string) (time.Duration, error)
}

// Assembler turns a grouped episode into a single temp artifact: every part is
// downloaded with a bounded retry budget, multi-part episodes are merged in
// source order, and per-part scratch files are removed once merged.
type Assembler struct {
	cfg        *config.Config
	downloader ytdlp.Downloader
	media      Merger
	logger     *slog.Logger
}

// New constructs an assembler.
func New(cfg *config.Config, downloader ytdlp.Downloader, media Merger, logger *slog.Logger) *Assembler {
	return &Assembler{
		cfg:        cfg,
		downloader: downloader,
		media:      media,
		logger:     logging.NewComponentLogger(logger, "assembler"),
	}
}

// Assemble produces the episode's temp artifact and returns its path. On
// failure the episode's own scratch files may remain for inspection, but
// nothing outside the temp directory is touched.
func (a *Assembler) Assemble(ctx context.Context, ep episode.Episode) (string, error) {
	if len(ep.Parts) == 0 {
		return "", services.Wrap(services.ErrValidation, "assembler", "assemble", "episode has no parts", nil)
	}

	meta := ytdlp.Metadata{Title: ep.Title, Artist: a.cfg.Show.Artist}
	partPaths := make([]string, 0, len(ep.Parts))
	for i, part := range ep.Parts {
		dest := ep.PartTempPath(a.cfg.Paths.TempDir, i)
		if err := a.downloadPart(ctx, ep, part, dest, meta); err != nil {
			return "", err
		}
		partPaths = append(partPaths, dest)
	}

	artifact := ep.TempPath(a.cfg.Paths.TempDir)
	if len(partPaths) > 1 {
		if err := a.merge(ctx, ep, partPaths, artifact); err != nil {
			return "", err
		}
	}

	a.checkDrift(ctx, ep, artifact)
	return artifact, nil
}

func (a *Assembler) downloadPart(ctx context.Context, ep episode.Episode, part episode.Part, dest string, meta ytdlp.Metadata) error {
	retries := a.cfg.Downloader.Retries
	if retries <= 0 {
		retries = 3
	}

	attempt := 0
	err := retry.Do(
		func() error {
			attempt++
			if err := a.downloader.Download(ctx, part.SourceRef, dest, meta); err != nil {
				a.logger.Warn("part download failed",
					logging.String("title", ep.Title),
					logging.Int("part", part.Position),
					logging.Int("attempt", attempt),
					logging.Error(err))
				return err
			}
			if !fileutil.NonEmptyFile(dest, minArtifactBytes) {
				err := fmt.Errorf("downloader reported success but %s is missing or empty", dest)
				a.logger.Warn("part artifact missing",
					logging.String("title", ep.Title),
					logging.Int("part", part.Position),
					logging.Int("attempt", attempt),
					logging.Error(err))
				return err
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(uint(retries)),
		retry.Delay(time.Second),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return services.Wrap(services.ErrTransient, "assembler", "download",
			fmt.Sprintf("%s part %d", ep.Title, part.Position), err)
	}
	return nil
}

func (a *Assembler) merge(ctx context.Context, ep episode.Episode, partPaths []string, artifact string) error {
	tags := ffmpeg.Tagging{Title: ep.Title, Artist: a.cfg.Show.Artist}
	if err := a.media.Concat(ctx, partPaths, artifact, tags); err != nil {
		return services.Wrap(services.ErrExternalTool, "assembler", "merge", ep.Title, err)
	}
	for _, path := range partPaths {
		if err := os.Remove(path); err != nil {
			a.logger.Warn("could not remove merged part",
				logging.String("path", path),
				logging.Error(err))
		}
	}
	return nil
}

// checkDrift compares the assembled artifact's playable duration against the
// duration recorded at grouping time. Drift is reported but never fails the
// episode; the recorded durations come from source metadata and are only
// approximate.
func (a *Assembler) checkDrift(ctx context.Context, ep episode.Episode, artifact string) {
	if ep.Duration <= 0 {
		return
	}
	actual, err := a.media.Duration(ctx, artifact)
	if err != nil {
		a.logger.Warn("could not probe merged duration",
			logging.String("title", ep.Title),
			logging.Error(err))
		return
	}
	drift := actual - ep.Duration
	if drift < 0 {
		drift = -drift
	}
	if drift > a.cfg.MergeDriftTolerance() {
		a.logger.Warn("artifact duration drifts from recorded duration",
			logging.String("title", ep.Title),
			logging.Duration("expected", ep.Duration),
			logging.Duration("actual", actual),
			logging.Duration("drift", drift))
	}
}

package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"shellac/internal/config"
	"shellac/internal/episode"
	"shellac/internal/fileutil"
	"shellac/internal/fingerprint"
	"shellac/internal/ledger"
	"shellac/internal/logging"
	"shellac/internal/services"
	"shellac/internal/sources"
)

// minArtifactBytes mirrors the assembler's floor for a real audio file.
const minArtifactBytes = 1024

// Assembler produces an episode's temp artifact.
type Assembler interface {
	Assemble(ctx context.Context, ep episode.Episode) (string, error)
}

// Matcher answers duplicate queries and owns index commits.
type Matcher interface {
	FindDuplicate(ctx context.Context, artifactPath string) (fingerprint.Verdict, error)
	IsIndexed(path string) (bool, error)
	Commit(ctx context.Context, finalPath string) error
}

// Orchestrator drives one batch run: enumerate, group, then walk every
// episode through download, duplicate matching, and archival. Episodes are
// isolated from each other; only configuration-class errors abort the run.
type Orchestrator struct {
	cfg     *config.Config
	store   *ledger.Store
	grouper *episode.Grouper
	asm     Assembler
	matcher Matcher
	logger  *slog.Logger
}

// New constructs an orchestrator.
func New(cfg *config.Config, store *ledger.Store, asm Assembler, matcher Matcher, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		cfg:     cfg,
		store:   store,
		grouper: episode.NewGrouper(cfg, logger),
		asm:     asm,
		matcher: matcher,
		logger:  logging.NewComponentLogger(logger, "orchestrator"),
	}
}

// Run executes a full batch over the provided enumerators and returns the
// run's disposition summary. A title seen from more than one source in the
// same run is processed once.
func (o *Orchestrator) Run(ctx context.Context, runID string, enumerators []sources.Enumerator) (ledger.Summary, error) {
	ctx = services.WithRunID(ctx, runID)
	if err := o.cfg.EnsureDirectories(); err != nil {
		return ledger.Summary{}, services.Wrap(services.ErrConfiguration, "orchestrator", "prepare", "", err)
	}

	seen := make(map[string]struct{})
	for _, enumerator := range enumerators {
		if ctx.Err() != nil {
			return ledger.Summary{}, ctx.Err()
		}
		tracks, err := enumerator.ListTracks(ctx)
		if err != nil {
			if services.IsFatal(err) || ctx.Err() != nil {
				return ledger.Summary{}, err
			}
			o.logger.Warn("source enumeration failed",
				logging.String("source", enumerator.Name()),
				logging.Error(err))
			continue
		}

		episodes := o.grouper.Group(enumerator.Name(), tracks)
		o.logger.Info("source enumerated",
			logging.String("source", enumerator.Name()),
			logging.Int("tracks", len(tracks)),
			logging.Int("episodes", len(episodes)))

		for _, ep := range episodes {
			if ctx.Err() != nil {
				return ledger.Summary{}, ctx.Err()
			}
			if _, dup := seen[ep.Title]; dup {
				continue
			}
			seen[ep.Title] = struct{}{}

			if err := o.processEpisode(ctx, runID, ep); err != nil {
				if services.IsFatal(err) {
					return ledger.Summary{}, err
				}
				o.logger.Error("episode processing failed",
					logging.String(logging.FieldEpisode, ep.Title),
					logging.Error(err))
			}
		}
	}

	return o.store.SummaryForRun(ctx, runID)
}

// processEpisode walks one episode through the pipeline and records its
// disposition. The returned error is non-nil only for failures worth
// surfacing beyond the ledger row; fatal errors abort the whole run.
func (o *Orchestrator) processEpisode(ctx context.Context, runID string, ep episode.Episode) error {
	ctx = services.WithEpisode(ctx, ep.Title)
	item, err := o.store.NewEpisode(ctx, ep.Title, ep.Source, len(ep.Parts), int(ep.Duration.Seconds()), runID)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "orchestrator", "record episode", ep.Title, err)
	}
	ctx = services.WithItemID(ctx, item.ID)
	log := logging.WithContext(ctx, o.logger)

	// Presence first: an artifact in the archive or the index means a prior
	// run finished this title.
	finalPath := ep.FinalPath(o.cfg.Paths.ArchiveDir)
	archived, err := o.alreadyArchived(finalPath)
	if err != nil {
		return o.failItem(ctx, item, err)
	}
	if archived {
		log.Info("episode already archived")
		item.Status = ledger.StatusAlreadyArchived
		item.ArtifactPath = finalPath
		return o.store.Update(ctx, item)
	}

	// The registry remembers duplicate verdicts across runs so a known alias
	// never hits the network again.
	canonical, known, err := o.store.LookupDuplicate(ctx, ep.Title)
	if err != nil {
		return o.failItem(ctx, item, err)
	}
	if known {
		log.Info("episode is a registered duplicate",
			logging.String("canonical", canonical))
		item.Status = ledger.StatusKnownDuplicate
		item.CanonicalTitle = canonical
		return o.store.Update(ctx, item)
	}

	item.Status = ledger.StatusDownloading
	if err := o.store.Update(ctx, item); err != nil {
		return services.Wrap(services.ErrConfiguration, "orchestrator", "update episode", ep.Title, err)
	}
	artifact, err := o.asm.Assemble(ctx, ep)
	if err != nil {
		return o.failItem(ctx, item, err)
	}

	item.Status = ledger.StatusMatching
	if err := o.store.Update(ctx, item); err != nil {
		return services.Wrap(services.ErrConfiguration, "orchestrator", "update episode", ep.Title, err)
	}
	verdict, err := o.matcher.FindDuplicate(ctx, artifact)
	if err != nil {
		return o.failItem(ctx, item, err)
	}

	switch {
	case verdict.Kind == fingerprint.VerdictDuplicate && verdict.CanonicalTitle != archiveTitle(ep.FileName()):
		return o.concludeDuplicate(ctx, log, item, ep, artifact, verdict)
	default:
		// No duplicate, a vote too weak to trust, or a vote naming this very
		// episode. A self-match is a first encounter with its own recording,
		// not an alias; registering it would shadow the title forever.
		// Archiving an occasional duplicate is recoverable; discarding a
		// unique recording is not.
		return o.concludeNew(ctx, log, item, ep, artifact, finalPath, verdict)
	}
}

// archiveTitle is the vote label an archive file carries: its sanitized file
// name without the extension.
func archiveTitle(fileName string) string {
	return strings.TrimSuffix(fileName, filepath.Ext(fileName))
}

func (o *Orchestrator) alreadyArchived(finalPath string) (bool, error) {
	if fileutil.NonEmptyFile(finalPath, minArtifactBytes) {
		return true, nil
	}
	return o.matcher.IsIndexed(finalPath)
}

// concludeDuplicate registers the alias, then discards the temp artifact. The
// registry write comes first: losing a temp file is harmless, losing the
// registration would re-download the alias forever.
func (o *Orchestrator) concludeDuplicate(ctx context.Context, log *slog.Logger, item *ledger.Item, ep episode.Episode, artifact string, verdict fingerprint.Verdict) error {
	if err := o.store.RegisterDuplicate(ctx, ep.Title, verdict.CanonicalTitle); err != nil {
		return o.failItem(ctx, item, err)
	}
	if err := os.Remove(artifact); err != nil && !os.IsNotExist(err) {
		log.Warn("could not remove duplicate artifact",
			logging.String("path", artifact),
			logging.Error(err))
	}
	log.Info("episode confirmed duplicate",
		logging.String("canonical", verdict.CanonicalTitle),
		logging.Int("samples", verdict.Samples))
	item.Status = ledger.StatusDuplicate
	item.CanonicalTitle = verdict.CanonicalTitle
	return o.store.Update(ctx, item)
}

// concludeNew promotes the artifact into the archive, then commits its
// fingerprint. Promotion comes first so the index only ever references final
// paths; a failed commit is loud because the next run would treat the same
// recording as new.
func (o *Orchestrator) concludeNew(ctx context.Context, log *slog.Logger, item *ledger.Item, ep episode.Episode, artifact, finalPath string, verdict fingerprint.Verdict) error {
	if err := fileutil.MoveFile(artifact, finalPath); err != nil {
		return o.failItem(ctx, item, fmt.Errorf("promote artifact: %w", err))
	}
	if err := o.matcher.Commit(ctx, finalPath); err != nil {
		item.ArtifactPath = finalPath
		return o.failItem(ctx, item, fmt.Errorf("artifact archived but fingerprint commit failed: %w", err))
	}
	log.Info("episode archived",
		logging.String("path", finalPath),
		logging.String("verdict", string(verdict.Kind)),
		logging.String("duration", episode.FormatDuration(ep.Duration)))
	item.Status = ledger.StatusArchived
	item.ArtifactPath = finalPath
	return o.store.Update(ctx, item)
}

func (o *Orchestrator) failItem(ctx context.Context, item *ledger.Item, cause error) error {
	item.SetFailed(cause.Error())
	if err := o.store.Update(ctx, item); err != nil {
		return services.Wrap(services.ErrConfiguration, "orchestrator", "record failure", item.Title, err)
	}
	return cause
}

// Backfill fingerprints archive files the index does not know yet. Each
// unindexed file is duplicate-matched first: a file that acoustically matches
// another archived recording gets its alias registered instead of a second
// index entry. It exists for first runs over a pre-existing archive and for
// recovering from failed commits.
func (o *Orchestrator) Backfill(ctx context.Context) (int, error) {
	entries, err := os.ReadDir(o.cfg.Paths.ArchiveDir)
	if err != nil {
		return 0, services.Wrap(services.ErrConfiguration, "orchestrator", "read archive dir", o.cfg.Paths.ArchiveDir, err)
	}

	committed := 0
	for _, entry := range entries {
		if ctx.Err() != nil {
			return committed, ctx.Err()
		}
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".mp3") {
			continue
		}
		path := filepath.Join(o.cfg.Paths.ArchiveDir, entry.Name())
		indexed, err := o.matcher.IsIndexed(path)
		if err != nil {
			return committed, err
		}
		if indexed {
			continue
		}

		verdict, err := o.matcher.FindDuplicate(ctx, path)
		if err != nil {
			o.logger.Error("backfill match failed",
				logging.String("path", path),
				logging.Error(err))
			continue
		}
		title := archiveTitle(entry.Name())
		if verdict.Kind == fingerprint.VerdictDuplicate && verdict.CanonicalTitle != title {
			if err := o.store.RegisterDuplicate(ctx, title, verdict.CanonicalTitle); err != nil {
				return committed, err
			}
			o.logger.Info("backfill registered duplicate",
				logging.String("path", path),
				logging.String("canonical", verdict.CanonicalTitle))
			continue
		}
		if err := o.matcher.Commit(ctx, path); err != nil {
			o.logger.Error("backfill commit failed",
				logging.String("path", path),
				logging.Error(err))
			continue
		}
		o.logger.Info("backfilled fingerprint", logging.String("path", path))
		committed++
	}
	return committed, nil
}

package fingerprint

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"shellac/internal/config"
	"shellac/internal/logging"
	"shellac/internal/services"
	"shellac/internal/services/olaf"
)

// VerdictKind classifies a duplicate query outcome.
type VerdictKind string

const (
	// VerdictNoDuplicate means the clip matched nothing in the index.
	VerdictNoDuplicate VerdictKind = "no_duplicate"
	// VerdictDuplicate means a majority of sub-window answers agreed on one
	// indexed recording.
	VerdictDuplicate VerdictKind = "duplicate"
	// VerdictInconclusive means the answers were too few or too split to
	// trust. Inconclusive episodes are archived, never discarded.
	VerdictInconclusive VerdictKind = "inconclusive"
)

// Verdict is the outcome of one duplicate query.
type Verdict struct {
	Kind           VerdictKind
	CanonicalTitle string         // set only for VerdictDuplicate
	Samples        int            // sub-window answers considered
	Distribution   map[string]int // answer label -> votes, for diagnostics
}

// ClipExtractor is the slice of the media toolbox the matcher needs.
type ClipExtractor interface {
	ExtractClip(ctx context.Context, src, dest string, offset, length time.Duration) error
}

// Matcher decides whether an assembled artifact is an acoustic duplicate of
// an already archived recording.
type Matcher struct {
	cfg    *config.Config
	engine olaf.Engine
	media  ClipExtractor
	logger *slog.Logger
}

// NewMatcher constructs a matcher.
func NewMatcher(cfg *config.Config, engine olaf.Engine, media ClipExtractor, logger *slog.Logger) *Matcher {
	return &Matcher{
		cfg:    cfg,
		engine: engine,
		media:  media,
		logger: logging.NewComponentLogger(logger, "fingerprint"),
	}
}

// FindDuplicate extracts a query clip from the artifact, asks the engine for
// per-sub-window matches, and reduces them to a verdict by majority vote. The
// clip is a scratch file and is removed before returning.
func (m *Matcher) FindDuplicate(ctx context.Context, artifactPath string) (Verdict, error) {
	clipPath := m.clipPath(artifactPath)
	offset := time.Duration(m.cfg.Fingerprint.ClipOffsetSeconds) * time.Second
	length := time.Duration(m.cfg.Fingerprint.ClipLengthSeconds) * time.Second
	if err := m.media.ExtractClip(ctx, artifactPath, clipPath, offset, length); err != nil {
		return Verdict{}, services.Wrap(services.ErrExternalTool, "fingerprint", "extract clip",
			filepath.Base(artifactPath), err)
	}
	defer os.Remove(clipPath)

	rows, err := m.engine.Monitor(ctx, clipPath)
	if err != nil {
		return Verdict{}, err
	}

	verdict := Vote(rows, m.cfg.Fingerprint.MinSamples, m.cfg.Fingerprint.ConfidenceThreshold)
	if verdict.Kind == VerdictInconclusive {
		m.logger.Warn("duplicate query inconclusive",
			logging.String("artifact", filepath.Base(artifactPath)),
			logging.Int("samples", verdict.Samples),
			logging.Any("distribution", verdict.Distribution))
	}
	return verdict, nil
}

// IsIndexed reports whether the engine has already fingerprinted path.
func (m *Matcher) IsIndexed(path string) (bool, error) {
	indexed, err := m.engine.IndexedPaths()
	if err != nil {
		return false, err
	}
	_, ok := indexed[path]
	return ok, nil
}

// Commit fingerprints a promoted artifact into the permanent index. Only
// final archive paths may be committed; the index must never reference temp
// files.
func (m *Matcher) Commit(ctx context.Context, finalPath string) error {
	return m.engine.Store(ctx, finalPath)
}

// Vote reduces sub-window answers to a verdict. Fewer than minSamples answers
// are inconclusive, as is any vote whose winner does not clear the threshold
// share. A clear no-match majority is a confirmed non-duplicate.
func Vote(rows []olaf.MatchRow, minSamples int, threshold float64) Verdict {
	distribution := make(map[string]int, len(rows))
	for _, row := range rows {
		distribution[voteLabel(row)]++
	}

	verdict := Verdict{
		Samples:      len(rows),
		Distribution: distribution,
	}
	if len(rows) < minSamples {
		verdict.Kind = VerdictInconclusive
		return verdict
	}

	winner := ""
	winnerVotes := 0
	for label, votes := range distribution {
		if votes > winnerVotes || (votes == winnerVotes && label < winner) {
			winner = label
			winnerVotes = votes
		}
	}

	share := float64(winnerVotes) / float64(len(rows))
	if share <= threshold {
		verdict.Kind = VerdictInconclusive
		return verdict
	}

	if winner == olaf.NoMatch {
		verdict.Kind = VerdictNoDuplicate
		return verdict
	}
	verdict.Kind = VerdictDuplicate
	verdict.CanonicalTitle = winner
	return verdict
}

// voteLabel normalizes a row into a vote. Matched names carry the archive
// file extension, which is stripped so votes compare titles.
func voteLabel(row olaf.MatchRow) string {
	if !row.IsMatch() {
		return olaf.NoMatch
	}
	return strings.TrimSuffix(row.MatchName, ".mp3")
}

// clipPath places the scratch clip in the temp dir. Queried files may live in
// the archive, which must never collect scratch output.
func (m *Matcher) clipPath(artifactPath string) string {
	name := filepath.Base(artifactPath)
	ext := filepath.Ext(name)
	return filepath.Join(m.cfg.Paths.TempDir, strings.TrimSuffix(name, ext)+".clip"+ext)
}

package episode

import (
	"log/slog"
	"strings"
	"time"

	"shellac/internal/config"
	"shellac/internal/logging"
	"shellac/internal/sources"
	"shellac/internal/textutil"
)

// Grouper folds an ordered track sequence into episodes using the
// title-prefix heuristic: a track belongs to the current episode while the
// text before the first scene separator matches the episode title.
//
// The heuristic assumes the parts of one episode are contiguous in source
// order. Sources that interleave parts of different episodes will be split
// incorrectly; that is a known limitation of the titling convention, not
// something the grouper tries to repair.
type Grouper struct {
	separator string
	minDur    time.Duration
	maxDur    time.Duration
	logger    *slog.Logger
}

// NewGrouper constructs a grouper from the show configuration.
func NewGrouper(cfg *config.Config, logger *slog.Logger) *Grouper {
	minDur, maxDur := cfg.PlausibleWindow()
	return &Grouper{
		separator: cfg.Show.SceneSeparator,
		minDur:    minDur,
		maxDur:    maxDur,
		logger:    logging.NewComponentLogger(logger, "grouper"),
	}
}

// Group folds tracks into episodes and drops episodes whose known total
// duration falls outside the plausible window. Group is a pure function of
// its input apart from log output.
func (g *Grouper) Group(source string, tracks []sources.Track) []Episode {
	var episodes []Episode
	var current *Episode

	for _, track := range tracks {
		title := g.episodeTitle(track.Title)
		if current == nil || title != current.Title {
			if current != nil {
				episodes = append(episodes, *current)
			}
			current = &Episode{Title: title, Source: source}
		}
		current.Parts = append(current.Parts, Part{
			SourceRef: track.SourceRef,
			Position:  len(current.Parts),
		})
		current.Duration += track.Duration
	}
	if current != nil {
		episodes = append(episodes, *current)
	}

	return g.filterImplausible(episodes)
}

// episodeTitle derives the canonical title from a track title: the portion
// before the first scene separator, or the whole title if none exists.
func (g *Grouper) episodeTitle(trackTitle string) string {
	normalized := textutil.NormalizeTitle(trackTitle)
	if before, _, found := strings.Cut(normalized, g.separator); found {
		return strings.TrimSpace(before)
	}
	return normalized
}

func (g *Grouper) filterImplausible(episodes []Episode) []Episode {
	kept := episodes[:0]
	for _, ep := range episodes {
		if ep.Duration > 0 && (ep.Duration < g.minDur || ep.Duration > g.maxDur) {
			g.logger.Warn("dropping episode with implausible duration",
				logging.String(logging.FieldEpisode, ep.Title),
				logging.String("duration", FormatDuration(ep.Duration)),
				logging.Int("parts", len(ep.Parts)))
			continue
		}
		kept = append(kept, ep)
	}
	return kept
}

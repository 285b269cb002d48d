package sources

import (
	"context"
	"time"
)

// Track is one raw enumerable unit from a platform: a video, a streamed song,
// or a catalogue entry. Tracks are immutable and consumed once by the grouper.
type Track struct {
	Title     string
	Duration  time.Duration // zero when the source does not report one
	SourceRef string        // URL or ID sufficient for the downloader
	Position  int           // stable ordering within the enumeration
}

// Enumerator lists the tracks a platform currently exposes, in stable source
// order. An empty result means "no more episodes this run", not an error.
type Enumerator interface {
	Name() string
	ListTracks(ctx context.Context) ([]Track, error)
}

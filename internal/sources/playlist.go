package sources

import (
	"context"
	"log/slog"
	"time"

	"github.com/avast/retry-go/v4"

	"shellac/internal/logging"
	"shellac/internal/services"
	"shellac/internal/services/ytdlp"
)

// PlaylistLister is the slice of the downloader client the enumerator needs.
type PlaylistLister interface {
	Playlist(ctx context.Context, playlistURL string) ([]ytdlp.PlaylistEntry, error)
}

// PlaylistEnumerator lists tracks from a sequence of playlist URLs through the
// downloader tool. Playlists are fetched in configured order so multi-part
// episodes stay contiguous across playlist boundaries.
type PlaylistEnumerator struct {
	lister  PlaylistLister
	urls    []string
	retries uint
	logger  *slog.Logger
}

// NewPlaylistEnumerator constructs a playlist enumerator. retries bounds the
// attempts per playlist; a playlist that still fails afterwards is skipped so
// one broken list does not hide the rest.
func NewPlaylistEnumerator(lister PlaylistLister, urls []string, retries int, logger *slog.Logger) *PlaylistEnumerator {
	if retries <= 0 {
		retries = 3
	}
	return &PlaylistEnumerator{
		lister:  lister,
		urls:    urls,
		retries: uint(retries),
		logger:  logging.NewComponentLogger(logger, "playlist"),
	}
}

// Name identifies the enumerator in logs and ledger records.
func (p *PlaylistEnumerator) Name() string { return "playlist" }

// ListTracks enumerates every configured playlist in order.
func (p *PlaylistEnumerator) ListTracks(ctx context.Context) ([]Track, error) {
	var tracks []Track
	for _, playlistURL := range p.urls {
		entries, err := p.listWithRetry(ctx, playlistURL)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			p.logger.Warn("giving up on playlist",
				logging.String("playlist", playlistURL),
				logging.Error(err))
			continue
		}
		for _, entry := range entries {
			ref := entry.URL
			if ref == "" {
				ref = entry.ID
			}
			tracks = append(tracks, Track{
				Title:     entry.Title,
				Duration:  time.Duration(entry.DurationSeconds) * time.Second,
				SourceRef: ref,
				Position:  len(tracks),
			})
		}
	}
	return tracks, nil
}

func (p *PlaylistEnumerator) listWithRetry(ctx context.Context, playlistURL string) ([]ytdlp.PlaylistEntry, error) {
	var entries []ytdlp.PlaylistEntry
	attempt := 0
	err := retry.Do(
		func() error {
			attempt++
			listed, err := p.lister.Playlist(ctx, playlistURL)
			if err != nil {
				p.logger.Warn("playlist attempt failed",
					logging.String("playlist", playlistURL),
					logging.Int("attempt", attempt),
					logging.Error(err))
				return err
			}
			entries = listed
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(p.retries),
		retry.Delay(time.Second),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "playlist", "enumerate", playlistURL, err)
	}
	return entries, nil
}

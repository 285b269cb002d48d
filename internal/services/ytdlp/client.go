package ytdlp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"shellac/internal/config"
	"shellac/internal/services"
)

// Metadata is written into the downloaded audio stream.
type Metadata struct {
	Title  string
	Artist string
}

// PlaylistEntry is one flat-playlist row from the tool's JSON output.
type PlaylistEntry struct {
	ID              string
	Title           string
	URL             string
	DurationSeconds int
}

// Downloader is the behaviour the assembler needs from the media downloader.
type Downloader interface {
	Download(ctx context.Context, sourceRef, destPath string, meta Metadata) error
}

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec services.Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// Client wraps yt-dlp CLI interactions.
type Client struct {
	binary       string
	audioFormat  string
	audioQuality string
	timeout      time.Duration
	exec         services.Executor
}

// New constructs a downloader client from configuration.
func New(cfg *config.Config, opts ...Option) (*Client, error) {
	binary := strings.TrimSpace(cfg.Downloader.Binary)
	if binary == "" {
		return nil, errors.New("downloader binary required")
	}
	client := &Client{
		binary:       binary,
		audioFormat:  cfg.Downloader.AudioFormat,
		audioQuality: cfg.Downloader.AudioQuality,
		timeout:      time.Duration(cfg.Downloader.TimeoutSeconds) * time.Second,
		exec:         services.CommandExecutor{},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Download fetches a single item's audio to destPath. The output template is
// derived from destPath so the tool controls the intermediate extension while
// the final file lands where the caller expects. Title and artist metadata are
// applied during post-processing.
func (c *Client) Download(ctx context.Context, sourceRef, destPath string, meta Metadata) error {
	if strings.TrimSpace(sourceRef) == "" {
		return errors.New("source ref required")
	}
	if strings.TrimSpace(destPath) == "" {
		return errors.New("destination path required")
	}

	downloadCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		downloadCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	template := strings.TrimSuffix(destPath, filepath.Ext(destPath)) + ".%(ext)s"
	args := []string{
		"--no-playlist",
		"--extract-audio",
		"--audio-format", c.audioFormat,
		"--audio-quality", c.audioQuality,
		"--output", template,
		"--quiet",
	}
	if meta.Title != "" || meta.Artist != "" {
		args = append(args, "--postprocessor-args", postprocessorMetadataArgs(meta))
	}
	args = append(args, sourceRef)

	if err := c.exec.Run(downloadCtx, c.binary, args, nil); err != nil {
		return fmt.Errorf("download %s: %w", sourceRef, err)
	}
	return nil
}

// Playlist enumerates a playlist through the tool's native JSON output mode
// (one JSON document on stdout), never by scraping log output.
func (c *Client) Playlist(ctx context.Context, playlistURL string) ([]PlaylistEntry, error) {
	if strings.TrimSpace(playlistURL) == "" {
		return nil, errors.New("playlist URL required")
	}

	listCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		listCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var out strings.Builder
	args := []string{"--dump-single-json", "--flat-playlist", playlistURL}
	if err := c.exec.Run(listCtx, c.binary, args, func(line string) {
		out.WriteString(line)
		out.WriteByte('\n')
	}); err != nil {
		return nil, fmt.Errorf("list playlist %s: %w", playlistURL, err)
	}

	return parsePlaylistDump(out.String())
}

type playlistDump struct {
	Entries []struct {
		ID       string  `json:"id"`
		Title    string  `json:"title"`
		URL      string  `json:"url"`
		Duration float64 `json:"duration"`
	} `json:"entries"`
}

func parsePlaylistDump(raw string) ([]PlaylistEntry, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, services.Wrap(services.ErrExternalTool, "downloader", "playlist dump", "empty JSON output", nil)
	}
	var dump playlistDump
	if err := json.Unmarshal([]byte(raw), &dump); err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "downloader", "playlist dump", "malformed JSON output", err)
	}
	entries := make([]PlaylistEntry, 0, len(dump.Entries))
	for _, entry := range dump.Entries {
		entries = append(entries, PlaylistEntry{
			ID:              entry.ID,
			Title:           entry.Title,
			URL:             entry.URL,
			DurationSeconds: int(entry.Duration),
		})
	}
	return entries, nil
}

func postprocessorMetadataArgs(meta Metadata) string {
	var b strings.Builder
	b.WriteString("ffmpeg:")
	if meta.Title != "" {
		fmt.Fprintf(&b, "-metadata title=%s", meta.Title)
	}
	if meta.Artist != "" {
		if meta.Title != "" {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "-metadata artist=%s", meta.Artist)
	}
	return b.String()
}

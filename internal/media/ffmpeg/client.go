package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"shellac/internal/config"
	"shellac/internal/services"
)

// Tagging carries the metadata written into produced audio streams.
type Tagging struct {
	Title  string
	Artist string
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

// Client wraps ffmpeg/ffprobe invocations for tagged merging, clip
// extraction, and duration probing.
type Client struct {
	ffmpeg  string
	ffprobe string
	exec    services.Executor
}

// New constructs a client from configuration.
func New(cfg *config.Config, opts ...Option) (*Client, error) {
	if strings.TrimSpace(cfg.Media.FFmpegBinary) == "" {
		return nil, errors.New("ffmpeg binary required")
	}
	if strings.TrimSpace(cfg.Media.FFprobeBinary) == "" {
		return nil, errors.New("ffprobe binary required")
	}
	client := &Client{
		ffmpeg:  cfg.Media.FFmpegBinary,
		ffprobe: cfg.Media.FFprobeBinary,
		exec:    services.CommandExecutor{},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Concat joins the part files into dest in the given order without
// re-encoding, applying the tagging metadata to the merged stream. The concat
// list file is written next to dest and removed afterwards.
func (c *Client) Concat(ctx context.Context, parts []string, dest string, tags Tagging) error {
	if len(parts) < 2 {
		return errors.New("concat requires at least two parts")
	}

	listPath := dest + ".concat.txt"
	var list strings.Builder
	for _, part := range parts {
		fmt.Fprintf(&list, "file '%s'\n", escapeConcatEntry(part))
	}
	if err := os.WriteFile(listPath, []byte(list.String()), 0o644); err != nil {
		return fmt.Errorf("write concat list: %w", err)
	}
	defer os.Remove(listPath)

	args := []string{
		"-hide_banner", "-loglevel", "error",
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-c", "copy",
	}
	args = append(args, tagArgs(tags)...)
	args = append(args, dest)

	if err := c.exec.Run(ctx, c.ffmpeg, args, nil); err != nil {
		return services.Wrap(services.ErrExternalTool, "media", "concat", filepath.Base(dest), err)
	}
	return nil
}

// ExtractClip copies the window [offset, offset+length) of src into dest.
func (c *Client) ExtractClip(ctx context.Context, src, dest string, offset, length time.Duration) error {
	if length <= 0 {
		return errors.New("clip length must be positive")
	}
	args := []string{
		"-hide_banner", "-loglevel", "error",
		"-y",
		"-ss", formatSeconds(offset),
		"-t", formatSeconds(length),
		"-i", src,
		"-c", "copy",
		dest,
	}
	if err := c.exec.Run(ctx, c.ffmpeg, args, nil); err != nil {
		return services.Wrap(services.ErrExternalTool, "media", "extract clip", filepath.Base(src), err)
	}
	return nil
}

// Duration probes the playable duration of path.
func (c *Client) Duration(ctx context.Context, path string) (time.Duration, error) {
	args := []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	}
	var lines []string
	if err := c.exec.Run(ctx, c.ffprobe, args, func(line string) {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}); err != nil {
		return 0, services.Wrap(services.ErrExternalTool, "media", "probe duration", filepath.Base(path), err)
	}
	if len(lines) == 0 {
		return 0, services.Wrap(services.ErrExternalTool, "media", "probe duration", "no duration in ffprobe output", nil)
	}
	seconds, err := strconv.ParseFloat(lines[0], 64)
	if err != nil {
		return 0, services.Wrap(services.ErrExternalTool, "media", "probe duration",
			fmt.Sprintf("unparsable duration %q", lines[0]), err)
	}
	return time.Duration(seconds * float64(time.Second)), nil
}

func tagArgs(tags Tagging) []string {
	var args []string
	if tags.Title != "" {
		args = append(args, "-metadata", "title="+tags.Title)
	}
	if tags.Artist != "" {
		args = append(args, "-metadata", "artist="+tags.Artist)
	}
	return args
}

// escapeConcatEntry escapes single quotes for the concat demuxer list format.
func escapeConcatEntry(path string) string {
	return strings.ReplaceAll(path, "'", `'\''`)
}

func formatSeconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', 3, 64)
}

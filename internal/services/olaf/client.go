package olaf

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"shellac/internal/config"
	"shellac/internal/services"
)

// storeConfirmation must appear in the engine's store output; its absence
// means the commit cannot be trusted to have happened.
const storeConfirmation = "times realtime"

// Engine is the narrow interface the matcher needs from the fingerprint
// engine. The engine owns its index; this system only appends and queries.
type Engine interface {
	Store(ctx context.Context, filePath string) error
	Monitor(ctx context.Context, clipPath string) ([]MatchRow, error)
	IndexedPaths() (map[string]struct{}, error)
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

// Client wraps the olaf CLI.
type Client struct {
	binary       string
	fileListPath string
	exec         services.Executor
}

// New constructs an engine client from configuration.
func New(cfg *config.Config, opts ...Option) (*Client, error) {
	if strings.TrimSpace(cfg.Fingerprint.Binary) == "" {
		return nil, errors.New("fingerprint engine binary required")
	}
	client := &Client{
		binary:       cfg.Fingerprint.Binary,
		fileListPath: cfg.Fingerprint.FileListPath,
		exec:         services.CommandExecutor{},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Store commits filePath into the engine's permanent index. The engine prints
// a throughput summary on success; a missing confirmation is treated as a
// contract violation, never as silent success.
func (c *Client) Store(ctx context.Context, filePath string) error {
	var lines []string
	if err := c.exec.Run(ctx, c.binary, []string{"store", filePath}, func(line string) {
		lines = append(lines, line)
	}); err != nil {
		return services.Wrap(services.ErrExternalTool, "fingerprint", "store", filePath, err)
	}
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if strings.Contains(line, storeConfirmation) {
			return nil
		}
		break
	}
	return services.Wrap(services.ErrExternalTool, "fingerprint", "store",
		fmt.Sprintf("confirmation missing from engine output: %q", strings.Join(lines, "\n")), nil)
}

// Monitor queries the engine with a clip. The engine splits the clip into
// sub-windows internally and reports one best-match row per sub-window.
func (c *Client) Monitor(ctx context.Context, clipPath string) ([]MatchRow, error) {
	var lines []string
	if err := c.exec.Run(ctx, c.binary, []string{"monitor", clipPath}, func(line string) {
		lines = append(lines, line)
	}); err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "fingerprint", "monitor", clipPath, err)
	}
	rows, err := ParseMonitorOutput(lines)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "fingerprint", "monitor", clipPath, err)
	}
	return rows, nil
}

// IndexedPaths returns the set of absolute file paths the engine has already
// fingerprinted, read from its file list (internal ID to path). A missing
// file list means an empty index, not an error.
func (c *Client) IndexedPaths() (map[string]struct{}, error) {
	data, err := os.ReadFile(c.fileListPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]struct{}{}, nil
		}
		return nil, services.Wrap(services.ErrConfiguration, "fingerprint", "read file list", c.fileListPath, err)
	}
	var byID map[string]string
	if err := json.Unmarshal(data, &byID); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "fingerprint", "parse file list", c.fileListPath, err)
	}
	paths := make(map[string]struct{}, len(byID))
	for _, path := range byID {
		paths[path] = struct{}{}
	}
	return paths, nil
}

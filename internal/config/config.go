package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	ArchiveDir string `toml:"archive_dir"`
	TempDir    string `toml:"temp_dir"`
	DataDir    string `toml:"data_dir"`
	LogDir     string `toml:"log_dir"`
}

// Show describes the recurring show whose episodes are archived.
type Show struct {
	Name              string `toml:"name"`
	Artist            string `toml:"artist"`
	SceneSeparator    string `toml:"scene_separator"`
	MinEpisodeMinutes int    `toml:"min_episode_minutes"`
	MaxEpisodeMinutes int    `toml:"max_episode_minutes"`
}

// Sources configures the catalogue and playlist enumerators.
type Sources struct {
	CatalogueURL       string   `toml:"catalogue_url"`
	CataloguePageLimit int      `toml:"catalogue_page_limit"`
	PlaylistURLs       []string `toml:"playlist_urls"`
}

// Downloader configures the external media downloader.
type Downloader struct {
	Binary                     string `toml:"binary"`
	AudioFormat                string `toml:"audio_format"`
	AudioQuality               string `toml:"audio_quality"`
	TimeoutSeconds             int    `toml:"timeout_seconds"`
	Retries                    int    `toml:"retries"`
	MergeDriftToleranceSeconds int    `toml:"merge_drift_tolerance_seconds"`
}

// Media configures the audio toolbox binaries used for merging and clip extraction.
type Media struct {
	FFmpegBinary  string `toml:"ffmpeg_binary"`
	FFprobeBinary string `toml:"ffprobe_binary"`
}

// Fingerprint configures the external acoustic fingerprint engine.
type Fingerprint struct {
	Binary              string  `toml:"binary"`
	FileListPath        string  `toml:"file_list_path"`
	ConfidenceThreshold float64 `toml:"confidence_threshold"`
	MinSamples          int     `toml:"min_samples"`
	ClipOffsetSeconds   int     `toml:"clip_offset_seconds"`
	ClipLengthSeconds   int     `toml:"clip_length_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for shellac.
//
// Configuration sections by subsystem:
//   - Paths: archive, temp, data, and log directories
//   - Show: titling conventions and the plausible episode length window
//   - Sources: catalogue endpoint and playlist URLs to enumerate
//   - Downloader: external media downloader binary and retry budget
//   - Media: ffmpeg/ffprobe binaries for merge and clip extraction
//   - Fingerprint: acoustic engine binary and the matching thresholds
//   - Logging: log format and level
type Config struct {
	Paths       Paths       `toml:"paths"`
	Show        Show        `toml:"show"`
	Sources     Sources     `toml:"sources"`
	Downloader  Downloader  `toml:"downloader"`
	Media       Media       `toml:"media"`
	Fingerprint Fingerprint `toml:"fingerprint"`
	Logging     Logging     `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/shellac/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config
// has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("shellac.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories a batch run needs.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.ArchiveDir, c.Paths.TempDir, c.Paths.DataDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// LedgerPath returns the location of the SQLite database holding the run
// ledger and the duplicate registry.
func (c *Config) LedgerPath() string {
	return filepath.Join(c.Paths.DataDir, "shellac.db")
}

// LockPath returns the location of the single-instance run lock file.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "shellac.lock")
}

// PlausibleWindow returns the inclusive duration window an episode with a
// known total duration must fall into.
func (c *Config) PlausibleWindow() (time.Duration, time.Duration) {
	return time.Duration(c.Show.MinEpisodeMinutes) * time.Minute,
		time.Duration(c.Show.MaxEpisodeMinutes) * time.Minute
}

// MergeDriftTolerance returns the allowed deviation between a merged
// artifact's duration and the duration recorded at grouping time.
func (c *Config) MergeDriftTolerance() time.Duration {
	return time.Duration(c.Downloader.MergeDriftToleranceSeconds) * time.Second
}

// WriteSample writes the embedded sample configuration to path.
func WriteSample(path string) error {
	expanded, err := expandPath(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if _, err := os.Stat(expanded); err == nil {
		return fmt.Errorf("config file already exists at %s", expanded)
	}
	return os.WriteFile(expanded, []byte(sampleConfig), 0o644)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

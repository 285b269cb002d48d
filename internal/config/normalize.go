package config

import (
	"fmt"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeShow()
	c.normalizeSources()
	c.normalizeDownloader()
	c.normalizeMedia()
	if err := c.normalizeFingerprint(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.ArchiveDir, err = expandPath(c.Paths.ArchiveDir); err != nil {
		return fmt.Errorf("paths.archive_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.TempDir) == "" {
		c.Paths.TempDir = filepath.Join(c.Paths.ArchiveDir, "temp")
	}
	if c.Paths.TempDir, err = expandPath(c.Paths.TempDir); err != nil {
		return fmt.Errorf("paths.temp_dir: %w", err)
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeShow() {
	c.Show.Name = strings.TrimSpace(c.Show.Name)
	c.Show.Artist = strings.TrimSpace(c.Show.Artist)
	if c.Show.Artist == "" {
		c.Show.Artist = c.Show.Name
	}
	if c.Show.SceneSeparator == "" {
		c.Show.SceneSeparator = defaultSceneSeparator
	}
	if c.Show.MinEpisodeMinutes <= 0 {
		c.Show.MinEpisodeMinutes = defaultMinEpisodeMinutes
	}
	if c.Show.MaxEpisodeMinutes <= 0 {
		c.Show.MaxEpisodeMinutes = defaultMaxEpisodeMinutes
	}
}

func (c *Config) normalizeSources() {
	c.Sources.CatalogueURL = strings.TrimSpace(c.Sources.CatalogueURL)
	if c.Sources.CataloguePageLimit <= 0 {
		c.Sources.CataloguePageLimit = defaultCataloguePageLimit
	}
	urls := make([]string, 0, len(c.Sources.PlaylistURLs))
	for _, raw := range c.Sources.PlaylistURLs {
		if trimmed := strings.TrimSpace(raw); trimmed != "" {
			urls = append(urls, trimmed)
		}
	}
	c.Sources.PlaylistURLs = urls
}

func (c *Config) normalizeDownloader() {
	c.Downloader.Binary = strings.TrimSpace(c.Downloader.Binary)
	if c.Downloader.Binary == "" {
		c.Downloader.Binary = defaultDownloaderBinary
	}
	c.Downloader.AudioFormat = strings.ToLower(strings.TrimSpace(c.Downloader.AudioFormat))
	if c.Downloader.AudioFormat == "" {
		c.Downloader.AudioFormat = defaultAudioFormat
	}
	c.Downloader.AudioQuality = strings.TrimSpace(c.Downloader.AudioQuality)
	if c.Downloader.AudioQuality == "" {
		c.Downloader.AudioQuality = defaultAudioQuality
	}
	if c.Downloader.TimeoutSeconds <= 0 {
		c.Downloader.TimeoutSeconds = defaultDownloadTimeout
	}
	if c.Downloader.Retries <= 0 {
		c.Downloader.Retries = defaultDownloadRetries
	}
	if c.Downloader.MergeDriftToleranceSeconds <= 0 {
		c.Downloader.MergeDriftToleranceSeconds = defaultMergeDriftSeconds
	}
}

func (c *Config) normalizeMedia() {
	c.Media.FFmpegBinary = strings.TrimSpace(c.Media.FFmpegBinary)
	if c.Media.FFmpegBinary == "" {
		c.Media.FFmpegBinary = defaultFFmpegBinary
	}
	c.Media.FFprobeBinary = strings.TrimSpace(c.Media.FFprobeBinary)
	if c.Media.FFprobeBinary == "" {
		c.Media.FFprobeBinary = defaultFFprobeBinary
	}
}

func (c *Config) normalizeFingerprint() error {
	var err error
	c.Fingerprint.Binary = strings.TrimSpace(c.Fingerprint.Binary)
	if c.Fingerprint.Binary == "" {
		c.Fingerprint.Binary = defaultFingerprintBinary
	}
	if strings.TrimSpace(c.Fingerprint.FileListPath) == "" {
		c.Fingerprint.FileListPath = defaultFileListPath
	}
	if c.Fingerprint.FileListPath, err = expandPath(c.Fingerprint.FileListPath); err != nil {
		return fmt.Errorf("fingerprint.file_list_path: %w", err)
	}
	if c.Fingerprint.ConfidenceThreshold <= 0 {
		c.Fingerprint.ConfidenceThreshold = defaultConfidence
	}
	if c.Fingerprint.MinSamples <= 0 {
		c.Fingerprint.MinSamples = defaultMinSamples
	}
	if c.Fingerprint.ClipOffsetSeconds < 0 {
		c.Fingerprint.ClipOffsetSeconds = defaultClipOffsetSeconds
	}
	if c.Fingerprint.ClipLengthSeconds <= 0 {
		c.Fingerprint.ClipLengthSeconds = defaultClipLengthSeconds
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

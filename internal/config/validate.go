package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateShow(); err != nil {
		return err
	}
	if err := c.validateSources(); err != nil {
		return err
	}
	if err := c.validateFingerprint(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateShow() error {
	if c.Show.Name == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/shellac/config.toml"
		}
		return fmt.Errorf("show.name is required. Edit %s (create with 'shellac config init')", defaultPath)
	}
	if c.Show.MinEpisodeMinutes >= c.Show.MaxEpisodeMinutes {
		return fmt.Errorf("show.min_episode_minutes (%d) must be below show.max_episode_minutes (%d)",
			c.Show.MinEpisodeMinutes, c.Show.MaxEpisodeMinutes)
	}
	return nil
}

func (c *Config) validateSources() error {
	if c.Sources.CatalogueURL == "" && len(c.Sources.PlaylistURLs) == 0 {
		return errors.New("at least one source must be configured: sources.catalogue_url or sources.playlist_urls")
	}
	return nil
}

func (c *Config) validateFingerprint() error {
	if c.Fingerprint.ConfidenceThreshold <= 0 || c.Fingerprint.ConfidenceThreshold > 1 {
		return errors.New("fingerprint.confidence_threshold must be in (0, 1]")
	}
	if c.Fingerprint.ClipLengthSeconds <= 0 {
		return errors.New("fingerprint.clip_length_seconds must be positive")
	}
	return nil
}

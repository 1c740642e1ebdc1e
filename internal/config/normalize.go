package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeBackend()
	c.normalizeUpload()
	c.normalizeCaptions()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if strings.TrimSpace(c.Paths.HandleDir) == "" {
		c.Paths.HandleDir = defaultHandleDir()
	}
	if strings.TrimSpace(c.Paths.DownloadDir) == "" {
		c.Paths.DownloadDir = defaultDownloadDir
	}

	var err error
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if c.Paths.HandleDir, err = expandPath(c.Paths.HandleDir); err != nil {
		return fmt.Errorf("paths.handle_dir: %w", err)
	}
	if c.Paths.DownloadDir, err = expandPath(c.Paths.DownloadDir); err != nil {
		return fmt.Errorf("paths.download_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeBackend() {
	if c.Backend.BaseURL == "" {
		if value, ok := os.LookupEnv("CLIPDECK_BASE_URL"); ok {
			c.Backend.BaseURL = value
		}
	}
	if c.Backend.APIToken == "" {
		if value, ok := os.LookupEnv("CLIPDECK_API_TOKEN"); ok {
			c.Backend.APIToken = value
		}
	}
	c.Backend.BaseURL = strings.TrimRight(strings.TrimSpace(c.Backend.BaseURL), "/")
	if c.Backend.BaseURL == "" {
		c.Backend.BaseURL = defaultBaseURL
	}
	c.Backend.APIToken = strings.TrimSpace(c.Backend.APIToken)
	c.Backend.UserAgent = strings.TrimSpace(c.Backend.UserAgent)
	if c.Backend.UserAgent == "" {
		c.Backend.UserAgent = defaultUserAgent
	}
}

func (c *Config) normalizeUpload() {
	c.Upload.FFprobeBinary = strings.TrimSpace(c.Upload.FFprobeBinary)
	if c.Upload.FFprobeBinary == "" {
		c.Upload.FFprobeBinary = defaultFFprobeBinary
	}
	seen := make(map[string]struct{}, len(c.Upload.AllowedTypes))
	types := make([]string, 0, len(c.Upload.AllowedTypes))
	for _, value := range c.Upload.AllowedTypes {
		value = strings.ToLower(strings.TrimSpace(value))
		if value == "" {
			continue
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		types = append(types, value)
	}
	if len(types) == 0 {
		types = append(types, defaultAllowedTypes...)
	}
	c.Upload.AllowedTypes = types
}

func (c *Config) normalizeCaptions() {
	c.Captions.Timeline = strings.ToLower(strings.TrimSpace(c.Captions.Timeline))
	if c.Captions.Timeline == "" {
		c.Captions.Timeline = defaultCaptionTimeline
	}
}

func (c *Config) normalizeNotifications() {
	if c.Notifications.NtfyTopic == "" {
		if value, ok := os.LookupEnv("CLIPDECK_NTFY_TOPIC"); ok {
			c.Notifications.NtfyTopic = value
		}
	}
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

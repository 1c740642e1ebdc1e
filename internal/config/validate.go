package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateBackend(); err != nil {
		return err
	}
	if err := c.validateUpload(); err != nil {
		return err
	}
	if err := c.validateCaptions(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateBackend() error {
	parsed, err := url.Parse(c.Backend.BaseURL)
	if err != nil {
		return fmt.Errorf("backend.base_url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("backend.base_url must use http or https, got %q", c.Backend.BaseURL)
	}
	if parsed.Host == "" {
		return fmt.Errorf("backend.base_url must include a host, got %q", c.Backend.BaseURL)
	}
	return ensurePositiveMap(map[string]int{
		"backend.timeout_seconds":        c.Backend.TimeoutSeconds,
		"backend.upload_timeout_seconds": c.Backend.UploadTimeoutSeconds,
	})
}

func (c *Config) validateUpload() error {
	if c.Upload.MaxDurationSeconds <= 0 {
		return errors.New("upload.max_duration_seconds must be positive")
	}
	for _, value := range c.Upload.AllowedTypes {
		if !strings.HasPrefix(value, "video/") {
			return fmt.Errorf("upload.allowed_types: %q is not a video media type", value)
		}
	}
	return nil
}

func (c *Config) validateCaptions() error {
	switch c.Captions.Timeline {
	case TimelineClip, TimelineSource:
		return nil
	default:
		return fmt.Errorf("captions.timeline: unsupported value %q (want %q or %q)", c.Captions.Timeline, TimelineClip, TimelineSource)
	}
}

func (c *Config) validateNotifications() error {
	if c.Notifications.NtfyTopic == "" {
		return nil
	}
	return ensurePositiveMap(map[string]int{
		"notifications.request_timeout": c.Notifications.RequestTimeout,
	})
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}

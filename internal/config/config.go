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

// Paths contains local directory configuration.
type Paths struct {
	StateDir    string `toml:"state_dir"`
	HandleDir   string `toml:"handle_dir"`
	DownloadDir string `toml:"download_dir"`
	LogDir      string `toml:"log_dir"`
}

// Backend contains connection settings for the clip-generation service.
type Backend struct {
	BaseURL              string `toml:"base_url"`
	APIToken             string `toml:"api_token"`
	TimeoutSeconds       int    `toml:"timeout_seconds"`
	UploadTimeoutSeconds int    `toml:"upload_timeout_seconds"`
	UserAgent            string `toml:"user_agent"`
}

// Upload contains the local gatekeeping rules applied before any upload.
type Upload struct {
	MaxDurationSeconds int      `toml:"max_duration_seconds"`
	AllowedTypes       []string `toml:"allowed_types"`
	FFprobeBinary      string   `toml:"ffprobe_binary"`
}

// Captions contains caption synthesis and playback defaults.
type Captions struct {
	// Visible is the initial state of the session-wide caption toggle.
	Visible bool `toml:"visible"`
	// Timeline selects "clip" (cues re-based to the clip start) or "source".
	Timeline string `toml:"timeline"`
}

// Notifications contains configuration for user-visible notices.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	Console        bool   `toml:"console"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for clipdeck.
//
// Configuration sections by subsystem:
//   - Paths: state, handle, download and log directories
//   - Backend: clip-generation service endpoint and credentials
//   - Upload: allow-listed media types and the duration ceiling
//   - Captions: initial toggle and cue timeline
//   - Notifications: console notices and ntfy push
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Backend       Backend       `toml:"backend"`
	Upload        Upload        `toml:"upload"`
	Captions      Captions      `toml:"captions"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
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

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("clipdeck.toml")
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

// EnsureDirectories creates the local directories the CLI writes to.
// The download directory is created lazily by the download command.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.HandleDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// JournalPath returns the location of the workflow journal database.
func (c *Config) JournalPath() string {
	return filepath.Join(c.Paths.StateDir, "journal.db")
}

// LockPath returns the location of the workflow lock file.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "workflow.lock")
}

// FFprobeBinary returns the ffprobe executable used for metadata probing.
func (c *Config) FFprobeBinary() string {
	if bin := strings.TrimSpace(c.Upload.FFprobeBinary); bin != "" {
		return bin
	}
	return defaultFFprobeBinary
}

// MaxDuration returns the upload duration ceiling.
func (c *Config) MaxDuration() time.Duration {
	return time.Duration(c.Upload.MaxDurationSeconds) * time.Second
}

// BackendTimeout returns the timeout applied to ordinary backend requests.
func (c *Config) BackendTimeout() time.Duration {
	return time.Duration(c.Backend.TimeoutSeconds) * time.Second
}

// UploadTimeout returns the timeout applied to upload requests.
func (c *Config) UploadTimeout() time.Duration {
	return time.Duration(c.Backend.UploadTimeoutSeconds) * time.Second
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

func defaultHandleDir() string {
	if base, ok := os.LookupEnv("XDG_RUNTIME_DIR"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "clipdeck", "handles")
	}
	return defaultStateDir + "/handles"
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	MediaDir string `toml:"media_dir"`
	CacheDir string `toml:"cache_dir"`
	LogDir   string `toml:"log_dir"`
}

// TVDB contains configuration for TheTVDB v4 API.
type TVDB struct {
	APIKey  string `toml:"api_key"`
	BaseURL string `toml:"base_url"`
}

// TMDB contains configuration for The Movie Database API.
type TMDB struct {
	APIKey   string `toml:"api_key"`
	BaseURL  string `toml:"base_url"`
	Language string `toml:"language"`
}

// OMDb contains configuration for the OMDb API.
type OMDb struct {
	APIKey  string `toml:"api_key"`
	BaseURL string `toml:"base_url"`
}

// TVmaze contains configuration for the TVmaze API (no key required).
type TVmaze struct {
	BaseURL string `toml:"base_url"`
}

// FanartTV contains configuration for the fanart.tv API.
type FanartTV struct {
	APIKey  string `toml:"api_key"`
	BaseURL string `toml:"base_url"`
}

// Providers groups per-provider settings plus the shared request pacing.
type Providers struct {
	// RateLimitMS is the minimum spacing between requests to one provider.
	RateLimitMS int      `toml:"rate_limit_ms"`
	TVDB        TVDB     `toml:"tvdb"`
	TMDB        TMDB     `toml:"tmdb"`
	OMDb        OMDb     `toml:"omdb"`
	TVmaze      TVmaze   `toml:"tvmaze"`
	FanartTV    FanartTV `toml:"fanarttv"`
}

// Workers contains concurrency and retry configuration for the pipeline.
type Workers struct {
	DownloadWorkers    int `toml:"download_workers"`
	RetryMaxAttempts   int `toml:"retry_max_attempts"`
	RetryBaseDelayMS   int `toml:"retry_base_delay_ms"`
	HTTPTimeoutSeconds int `toml:"http_timeout_seconds"`
}

// Artwork contains image post-processing limits and screenshot settings.
type Artwork struct {
	MaxKB             int    `toml:"max_kb"`
	MaxWidth          int    `toml:"max_width"`
	LogoMaxHeight     int    `toml:"logo_max_height"`
	ScreenshotOffset  string `toml:"screenshot_offset"`
	ScreenshotWidth   int    `toml:"screenshot_width"`
	ScreenshotHeight  int    `toml:"screenshot_height"`
	ScreenshotTimeout int    `toml:"screenshot_timeout"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for mpv-scraper.
//
// Configuration sections by subsystem:
//   - Paths: media root, response cache, and log directories
//   - Providers: metadata source credentials, base URLs, request pacing
//   - Workers: download pool size, retry policy, HTTP timeout
//   - Artwork: PNG size caps and ffmpeg screenshot settings
//   - Notifications: ntfy run-completion notifications
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Providers     Providers     `toml:"providers"`
	Workers       Workers       `toml:"workers"`
	Artwork       Artwork       `toml:"artwork"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/mpv-scraper/config.toml")
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

	defaultPath, err := expandPath("~/.config/mpv-scraper/config.toml")
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("mpv-scraper.toml")
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

// StateDir returns the per-library state directory holding the transaction
// log, job history, and run lock. It lives inside the media root so undo
// information travels with the library.
func (c *Config) StateDir() string {
	return filepath.Join(c.Paths.MediaDir, stateDirName)
}

// TransactionLogPath returns the location of the append-only mutation log.
func (c *Config) TransactionLogPath() string {
	return filepath.Join(c.StateDir(), "transaction.log")
}

// JobHistoryPath returns the location of the job history snapshot file.
func (c *Config) JobHistoryPath() string {
	return filepath.Join(c.StateDir(), "jobs.json")
}

// RunLockPath returns the lock file guarding mutating runs against overlap.
func (c *Config) RunLockPath() string {
	return filepath.Join(c.StateDir(), "run.lock")
}

// EnsureDirectories creates the cache, log, and state directories.
// The media directory itself must already exist; it is the user's library.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.CacheDir, c.Paths.LogDir, c.StateDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// FFmpegBinary returns the ffmpeg executable name used for frame capture.
func (c *Config) FFmpegBinary() string {
	return "ffmpeg"
}

// FFprobeBinary returns the ffprobe executable name used for duration probes.
func (c *Config) FFprobeBinary() string {
	return "ffprobe"
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

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	sample := sampleConfig

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable. Missing provider keys are
// not errors here; an unconfigured provider is simply skipped by the
// fallback chain at scrape time.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateProviders(); err != nil {
		return err
	}
	if err := c.validateWorkers(); err != nil {
		return err
	}
	if err := c.validateArtwork(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.MediaDir) == "" {
		return errors.New("paths.media_dir must be set")
	}
	if strings.TrimSpace(c.Paths.CacheDir) == "" {
		return errors.New("paths.cache_dir must be set")
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return errors.New("paths.log_dir must be set")
	}
	return nil
}

func (c *Config) validateProviders() error {
	for name, baseURL := range map[string]string{
		"tvdb":     c.Providers.TVDB.BaseURL,
		"tmdb":     c.Providers.TMDB.BaseURL,
		"omdb":     c.Providers.OMDb.BaseURL,
		"tvmaze":   c.Providers.TVmaze.BaseURL,
		"fanarttv": c.Providers.FanartTV.BaseURL,
	} {
		if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
			return fmt.Errorf("providers.%s.base_url must be an http(s) URL, got %q", name, baseURL)
		}
	}
	if c.Providers.RateLimitMS > 60_000 {
		return errors.New("providers.rate_limit_ms above 60000 would stall every run")
	}
	return nil
}

func (c *Config) validateWorkers() error {
	if c.Workers.DownloadWorkers > 64 {
		return errors.New("workers.download_workers must be at most 64")
	}
	if c.Workers.RetryMaxAttempts > 10 {
		return errors.New("workers.retry_max_attempts must be at most 10")
	}
	return nil
}

func (c *Config) validateArtwork() error {
	if c.Artwork.ScreenshotWidth > 4096 || c.Artwork.ScreenshotHeight > 4096 {
		return errors.New("artwork screenshot dimensions must be at most 4096")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}

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
	c.normalizeProviders()
	c.normalizeWorkers()
	c.normalizeArtwork()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.MediaDir, err = expandPath(c.Paths.MediaDir); err != nil {
		return fmt.Errorf("paths.media_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.CacheDir) == "" {
		c.Paths.CacheDir = defaultCacheDir()
	}
	if c.Paths.CacheDir, err = expandPath(c.Paths.CacheDir); err != nil {
		return fmt.Errorf("paths.cache_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeProviders() {
	if c.Providers.RateLimitMS <= 0 {
		c.Providers.RateLimitMS = defaultRateLimitMS
	}

	c.Providers.TVDB.APIKey = keyFromEnv(c.Providers.TVDB.APIKey, "TVDB_API_KEY")
	c.Providers.TVDB.BaseURL = urlOrDefault(c.Providers.TVDB.BaseURL, defaultTVDBBaseURL)

	c.Providers.TMDB.APIKey = keyFromEnv(c.Providers.TMDB.APIKey, "TMDB_API_KEY")
	c.Providers.TMDB.BaseURL = urlOrDefault(c.Providers.TMDB.BaseURL, defaultTMDBBaseURL)
	if strings.TrimSpace(c.Providers.TMDB.Language) == "" {
		c.Providers.TMDB.Language = defaultTMDBLanguage
	}

	c.Providers.OMDb.APIKey = keyFromEnv(c.Providers.OMDb.APIKey, "OMDB_API_KEY")
	c.Providers.OMDb.BaseURL = urlOrDefault(c.Providers.OMDb.BaseURL, defaultOMDbBaseURL)

	c.Providers.TVmaze.BaseURL = urlOrDefault(c.Providers.TVmaze.BaseURL, defaultTVmazeBaseURL)

	c.Providers.FanartTV.APIKey = keyFromEnv(c.Providers.FanartTV.APIKey, "FANARTTV_API_KEY")
	c.Providers.FanartTV.BaseURL = urlOrDefault(c.Providers.FanartTV.BaseURL, defaultFanartTVBaseURL)
}

func (c *Config) normalizeWorkers() {
	if c.Workers.DownloadWorkers <= 0 {
		c.Workers.DownloadWorkers = defaultDownloadWorkers
	}
	if c.Workers.RetryMaxAttempts <= 0 {
		c.Workers.RetryMaxAttempts = defaultRetryMaxAttempts
	}
	if c.Workers.RetryBaseDelayMS <= 0 {
		c.Workers.RetryBaseDelayMS = defaultRetryBaseDelayMS
	}
	if c.Workers.HTTPTimeoutSeconds <= 0 {
		c.Workers.HTTPTimeoutSeconds = defaultHTTPTimeout
	}
}

func (c *Config) normalizeArtwork() {
	if c.Artwork.MaxKB <= 0 {
		c.Artwork.MaxKB = defaultArtworkMaxKB
	}
	if c.Artwork.MaxWidth <= 0 {
		c.Artwork.MaxWidth = defaultArtworkMaxWidth
	}
	if c.Artwork.LogoMaxHeight <= 0 {
		c.Artwork.LogoMaxHeight = defaultLogoMaxHeight
	}
	if strings.TrimSpace(c.Artwork.ScreenshotOffset) == "" {
		c.Artwork.ScreenshotOffset = defaultScreenshotOffset
	}
	if c.Artwork.ScreenshotWidth <= 0 {
		c.Artwork.ScreenshotWidth = defaultScreenshotWidth
	}
	if c.Artwork.ScreenshotHeight <= 0 {
		c.Artwork.ScreenshotHeight = defaultScreenshotHeight
	}
	if c.Artwork.ScreenshotTimeout <= 0 {
		c.Artwork.ScreenshotTimeout = defaultScreenshotTimeout
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyTimeout
	}
}

func (c *Config) normalizeLogging() {
	format := strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if format == "" {
		format = defaultLogFormat
	}
	c.Logging.Format = format

	level := strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if level == "" {
		level = defaultLogLevel
	}
	c.Logging.Level = level
}

func keyFromEnv(current, envName string) string {
	if value, ok := os.LookupEnv(envName); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return strings.TrimSpace(current)
}

func urlOrDefault(value, fallback string) string {
	trimmed := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(value), "/"))
	if trimmed == "" {
		return fallback
	}
	return trimmed
}

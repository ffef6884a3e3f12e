package config

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	defaultMediaDir          = "~/mpv"
	defaultLogDir            = "~/.local/share/mpv-scraper/logs"
	defaultTVDBBaseURL       = "https://api4.thetvdb.com/v4"
	defaultTMDBBaseURL       = "https://api.themoviedb.org/3"
	defaultTMDBLanguage      = "en-US"
	defaultOMDbBaseURL       = "https://www.omdbapi.com"
	defaultTVmazeBaseURL     = "https://api.tvmaze.com"
	defaultFanartTVBaseURL   = "https://webservice.fanart.tv/v3"
	defaultRateLimitMS       = 500
	defaultDownloadWorkers   = 8
	defaultRetryMaxAttempts  = 3
	defaultRetryBaseDelayMS  = 500
	defaultHTTPTimeout       = 15
	defaultArtworkMaxKB      = 600
	defaultArtworkMaxWidth   = 500
	defaultLogoMaxHeight     = 150
	defaultScreenshotOffset  = "00:01:00"
	defaultScreenshotWidth   = 640
	defaultScreenshotHeight  = 480
	defaultScreenshotTimeout = 30
	defaultNotifyTimeout     = 10
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"

	stateDirName = ".mpv-scraper"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			MediaDir: defaultMediaDir,
			CacheDir: defaultCacheDir(),
			LogDir:   defaultLogDir,
		},
		Providers: Providers{
			RateLimitMS: defaultRateLimitMS,
			TVDB:        TVDB{BaseURL: defaultTVDBBaseURL},
			TMDB:        TMDB{BaseURL: defaultTMDBBaseURL, Language: defaultTMDBLanguage},
			OMDb:        OMDb{BaseURL: defaultOMDbBaseURL},
			TVmaze:      TVmaze{BaseURL: defaultTVmazeBaseURL},
			FanartTV:    FanartTV{BaseURL: defaultFanartTVBaseURL},
		},
		Workers: Workers{
			DownloadWorkers:    defaultDownloadWorkers,
			RetryMaxAttempts:   defaultRetryMaxAttempts,
			RetryBaseDelayMS:   defaultRetryBaseDelayMS,
			HTTPTimeoutSeconds: defaultHTTPTimeout,
		},
		Artwork: Artwork{
			MaxKB:             defaultArtworkMaxKB,
			MaxWidth:          defaultArtworkMaxWidth,
			LogoMaxHeight:     defaultLogoMaxHeight,
			ScreenshotOffset:  defaultScreenshotOffset,
			ScreenshotWidth:   defaultScreenshotWidth,
			ScreenshotHeight:  defaultScreenshotHeight,
			ScreenshotTimeout: defaultScreenshotTimeout,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}

func defaultCacheDir() string {
	if base, ok := os.LookupEnv("XDG_CACHE_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "mpv-scraper")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "~/.cache/mpv-scraper"
	}
	return filepath.Join(home, ".cache", "mpv-scraper")
}

package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"mpvscraper/internal/config"
)

func TestLoadDefaultConfigUsesEnvKeysAndExpandsPaths(t *testing.T) {
	t.Setenv("TVDB_API_KEY", "tvdb-env-key")
	t.Setenv("TMDB_API_KEY", "tmdb-env-key")
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("XDG_CACHE_HOME", "")

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	if cfg.Paths.MediaDir != filepath.Join(tempHome, "mpv") {
		t.Fatalf("unexpected media dir: %q", cfg.Paths.MediaDir)
	}
	if !strings.HasPrefix(cfg.Paths.LogDir, tempHome) {
		t.Fatalf("log dir not expanded: %q", cfg.Paths.LogDir)
	}
	if cfg.Providers.TVDB.APIKey != "tvdb-env-key" {
		t.Fatalf("expected TVDB key from env, got %q", cfg.Providers.TVDB.APIKey)
	}
	if cfg.Providers.TMDB.APIKey != "tmdb-env-key" {
		t.Fatalf("expected TMDB key from env, got %q", cfg.Providers.TMDB.APIKey)
	}
	if cfg.Providers.TVDB.BaseURL != config.Default().Providers.TVDB.BaseURL {
		t.Fatalf("unexpected TVDB base url: %q", cfg.Providers.TVDB.BaseURL)
	}
	if cfg.Workers.DownloadWorkers != 8 {
		t.Fatalf("unexpected worker default: %d", cfg.Workers.DownloadWorkers)
	}
	if cfg.Logging.Format != "console" || cfg.Logging.Level != "info" {
		t.Fatalf("unexpected logging defaults: %+v", cfg.Logging)
	}
}

func TestLoadParsesFileAndNormalizes(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	path := filepath.Join(tempHome, "config.toml")
	content := `
[paths]
media_dir = "~/library"

[providers]
rate_limit_ms = 250

[providers.tvdb]
api_key = "file-key"
base_url = "https://tvdb.example.test/v4/"

[logging]
format = "JSON"
level = "Debug"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved == "" {
		t.Fatalf("exists=%v resolved=%q", exists, resolved)
	}
	if cfg.Paths.MediaDir != filepath.Join(tempHome, "library") {
		t.Fatalf("media dir not expanded: %q", cfg.Paths.MediaDir)
	}
	if cfg.Providers.TVDB.APIKey != "file-key" {
		t.Fatalf("api key = %q", cfg.Providers.TVDB.APIKey)
	}
	if cfg.Providers.TVDB.BaseURL != "https://tvdb.example.test/v4" {
		t.Fatalf("base url trailing slash kept: %q", cfg.Providers.TVDB.BaseURL)
	}
	if cfg.Providers.RateLimitMS != 250 {
		t.Fatalf("rate limit = %d", cfg.Providers.RateLimitMS)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("logging not lowercased: %+v", cfg.Logging)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cases := map[string]string{
		"bad logging format": `
[logging]
format = "yaml"
`,
		"bad provider url": `
[providers.omdb]
base_url = "not a url"
`,
		"worker cap": `
[workers]
download_workers = 1000
`,
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
				t.Fatal(err)
			}
			if _, _, _, err := config.Load(path); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestStatePathsLiveInsideMediaDir(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.MediaDir = "/media/library"

	if cfg.StateDir() != "/media/library/.mpv-scraper" {
		t.Fatalf("state dir = %q", cfg.StateDir())
	}
	if cfg.TransactionLogPath() != "/media/library/.mpv-scraper/transaction.log" {
		t.Fatalf("transaction log = %q", cfg.TransactionLogPath())
	}
	if cfg.JobHistoryPath() != "/media/library/.mpv-scraper/jobs.json" {
		t.Fatalf("job history = %q", cfg.JobHistoryPath())
	}
	if cfg.RunLockPath() != "/media/library/.mpv-scraper/run.lock" {
		t.Fatalf("run lock = %q", cfg.RunLockPath())
	}
}

func TestCreateSampleIsParseable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	var cfg config.Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		t.Fatalf("sample config does not parse: %v", err)
	}
	if cfg.Workers.DownloadWorkers != 8 {
		t.Fatalf("sample workers = %d", cfg.Workers.DownloadWorkers)
	}
}

func TestEnsureDirectories(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.MediaDir = filepath.Join(base, "media")
	cfg.Paths.CacheDir = filepath.Join(base, "cache")
	cfg.Paths.LogDir = filepath.Join(base, "logs")

	if err := os.MkdirAll(cfg.Paths.MediaDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	for _, dir := range []string{cfg.Paths.CacheDir, cfg.Paths.LogDir, cfg.StateDir()} {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			t.Errorf("%s not created: %v", dir, err)
		}
	}
}

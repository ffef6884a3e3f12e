// Package workflow wires the scanner, provider chains, download pool,
// transaction log, and gamelist writer into the operations the CLI exposes.
package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofrs/flock"

	"mpvscraper/internal/config"
	"mpvscraper/internal/deps"
	"mpvscraper/internal/download"
	"mpvscraper/internal/fallback"
	"mpvscraper/internal/logging"
	"mpvscraper/internal/metadata"
	"mpvscraper/internal/notifications"
	"mpvscraper/internal/providers"
	"mpvscraper/internal/providers/fanarttv"
	"mpvscraper/internal/providers/omdb"
	"mpvscraper/internal/providers/tmdb"
	"mpvscraper/internal/providers/tvdb"
	"mpvscraper/internal/providers/tvmaze"
	"mpvscraper/internal/respcache"
	"mpvscraper/internal/retry"
)

// Resolver is the lookup surface the scrape step depends on. The fallback
// engine satisfies it; tests substitute stubs.
type Resolver interface {
	Resolve(ctx context.Context, query providers.Query) (*metadata.Record, error)
}

// Summary counts what one pass over the library did.
type Summary struct {
	Scraped  int
	Skipped  int
	Degraded int
	Failed   int
	Duration time.Duration
}

func (s Summary) add(other Summary) Summary {
	s.Scraped += other.Scraped
	s.Skipped += other.Skipped
	s.Degraded += other.Degraded
	s.Failed += other.Failed
	return s
}

// Notify converts the summary for the notification service.
func (s Summary) Notify() notifications.Summary {
	return notifications.Summary{
		Scraped:  s.Scraped,
		Skipped:  s.Skipped,
		Degraded: s.Degraded,
		Failed:   s.Failed,
		Duration: s.Duration,
	}
}

func (s Summary) String() string {
	return fmt.Sprintf("%d scraped, %d skipped, %d degraded, %d failed",
		s.Scraped, s.Skipped, s.Degraded, s.Failed)
}

// RunOptions adjusts a scrape pass.
type RunOptions struct {
	// Refresh re-resolves and re-downloads even when snapshots and artwork
	// already exist.
	Refresh bool
	// Progress, when set, receives a line per library unit as it finishes.
	Progress func(step string)
}

// Workflow owns one configured library and its scrape machinery.
type Workflow struct {
	cfg      *config.Config
	logger   *slog.Logger
	tv       Resolver
	movie    Resolver
	notifier notifications.Service
	capture  download.Capture
	post     download.PostProcess

	newManager func() *download.Manager
}

// Option overrides a Workflow collaborator, mainly for tests.
type Option func(*Workflow)

// WithResolvers substitutes the TV and movie lookup chains.
func WithResolvers(tv, movie Resolver) Option {
	return func(w *Workflow) {
		w.tv = tv
		w.movie = movie
	}
}

// WithNotifier substitutes the notification service.
func WithNotifier(service notifications.Service) Option {
	return func(w *Workflow) { w.notifier = service }
}

// WithManagerFactory substitutes download manager construction.
func WithManagerFactory(factory func() *download.Manager) Option {
	return func(w *Workflow) { w.newManager = factory }
}

// WithCapture substitutes the ffmpeg frame-capture handler.
func WithCapture(capture download.Capture) Option {
	return func(w *Workflow) { w.capture = capture }
}

// New assembles a Workflow from configuration. Provider clients are always
// constructed; ones missing credentials reject lookups with an
// unconfigured error, which the fallback chain treats as an empty step.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) *Workflow {
	if logger == nil {
		logger = logging.NewNop()
	}
	w := &Workflow{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "workflow"),
		notifier: notifications.NewService(cfg),
	}

	policy := retry.Policy{
		MaxAttempts: cfg.Workers.RetryMaxAttempts,
		BaseDelay:   time.Duration(cfg.Workers.RetryBaseDelayMS) * time.Millisecond,
	}
	timeout := time.Duration(cfg.Workers.HTTPTimeoutSeconds) * time.Second
	interval := time.Duration(cfg.Providers.RateLimitMS) * time.Millisecond
	cache := respcache.New(cfg.Paths.CacheDir, logger)

	requester := func() *providers.Requester {
		// One requester per provider keeps rate limits independent.
		return providers.NewRequester(timeout, interval, policy)
	}

	tvdbClient := tvdb.New(cfg.Providers.TVDB.APIKey, cfg.Providers.TVDB.BaseURL, cache, requester(), logger)
	tmdbTV := tmdb.New(cfg.Providers.TMDB.APIKey, cfg.Providers.TMDB.BaseURL, cfg.Providers.TMDB.Language, metadata.KindTV, cache, requester(), logger)
	tmdbMovie := tmdb.New(cfg.Providers.TMDB.APIKey, cfg.Providers.TMDB.BaseURL, cfg.Providers.TMDB.Language, metadata.KindMovie, cache, requester(), logger)
	omdbClient := omdb.New(cfg.Providers.OMDb.APIKey, cfg.Providers.OMDb.BaseURL, cache, requester(), logger)
	tvmazeClient := tvmaze.New(cfg.Providers.TVmaze.BaseURL, cache, requester(), logger)
	logoSource := fanarttv.New(cfg.Providers.FanartTV.APIKey, cfg.Providers.FanartTV.BaseURL, cache, requester(), logger)

	w.tv = fallback.New(
		[]providers.Client{tvdbClient, tmdbTV, tvmazeClient},
		logger,
		fallback.WithLogoSource(logoSource),
	)
	w.movie = fallback.New([]providers.Client{tmdbMovie, omdbClient}, logger)

	for _, status := range deps.CheckBinaries(deps.Defaults()) {
		if !status.Available {
			w.logger.Warn("optional dependency missing",
				"name", status.Name, "detail", status.Detail, "impact", status.Description)
		}
	}

	w.capture = w.defaultCapture()
	w.post = w.defaultPostProcess()
	w.newManager = func() *download.Manager {
		return download.New(logger,
			download.WithWorkers(cfg.Workers.DownloadWorkers),
			download.WithRetryPolicy(policy),
			download.WithCapture(w.capture),
			download.WithPostProcess(w.post),
		)
	}

	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Notifier exposes the configured notification service.
func (w *Workflow) Notifier() notifications.Service {
	return w.notifier
}

// lock acquires the per-library run lock, failing immediately when another
// mutating run holds it.
func (w *Workflow) lock() (*flock.Flock, error) {
	if err := w.cfg.EnsureDirectories(); err != nil {
		return nil, err
	}
	lock := flock.New(w.cfg.RunLockPath())
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire run lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("another run holds the lock at %s", w.cfg.RunLockPath())
	}
	return lock, nil
}

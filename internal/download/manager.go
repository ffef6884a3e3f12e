// Package download batches artwork fetches and runs them with bounded
// concurrency so a full-library scrape saturates neither the providers nor
// the local disk.
package download

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"mpvscraper/internal/artwork"
	"mpvscraper/internal/fileutil"
	"mpvscraper/internal/logging"
	"mpvscraper/internal/retry"
)

// DefaultWorkers bounds concurrent downloads when the config does not say
// otherwise.
const DefaultWorkers = 8

// Kind tags a task so post-processing knows which size constraints apply.
type Kind string

const (
	KindPoster     Kind = "poster"
	KindLogo       Kind = "logo"
	KindScreenshot Kind = "screenshot"
)

// Task is one artwork acquisition: a URL to fetch, or a video to capture a
// frame from when the providers had no image.
type Task struct {
	URL     string
	Dest    string
	Kind    Kind
	Label   string
	Headers map[string]string

	// VideoSource triggers ffmpeg frame capture when URL is empty.
	VideoSource string

	// SkipIfPresent short-circuits the task when Dest already holds a
	// non-empty file, which keeps reruns cheap.
	SkipIfPresent bool
}

// Result reports one finished task. Err is nil for both OK and Skipped.
type Result struct {
	Task    Task
	OK      bool
	Skipped bool
	Err     error
}

// PostProcess shrinks a finished download in place. It is separated from the
// fetch so tests can exercise dispatch without image decoding.
type PostProcess func(task Task) error

// Capture produces a frame from task.VideoSource into task.Dest.
type Capture func(ctx context.Context, task Task) error

// Manager collects tasks and executes them through a shared worker pool.
type Manager struct {
	client   *http.Client
	policy   retry.Policy
	workers  int
	post     PostProcess
	capture  Capture
	progress func(done, total int)
	logger   *slog.Logger

	mu      sync.Mutex
	tasks   []Task
	results []Result
}

// Option adjusts Manager construction.
type Option func(*Manager)

// WithWorkers caps pool size; values below 1 fall back to DefaultWorkers.
func WithWorkers(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.workers = n
		}
	}
}

// WithHTTPClient replaces the default 30s-timeout client.
func WithHTTPClient(client *http.Client) Option {
	return func(m *Manager) { m.client = client }
}

// WithRetryPolicy replaces the default retry policy for fetches.
func WithRetryPolicy(policy retry.Policy) Option {
	return func(m *Manager) { m.policy = policy }
}

// WithPostProcess installs the resize step applied after each fetch.
func WithPostProcess(post PostProcess) Option {
	return func(m *Manager) { m.post = post }
}

// WithCapture installs the frame-capture handler for URL-less tasks.
func WithCapture(capture Capture) Option {
	return func(m *Manager) { m.capture = capture }
}

// WithProgress installs a callback invoked after every finished task with
// the running done count. Called from worker goroutines outside the manager
// lock; the callback must be safe for concurrent calls.
func WithProgress(progress func(done, total int)) Option {
	return func(m *Manager) { m.progress = progress }
}

func New(logger *slog.Logger, opts ...Option) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	m := &Manager{
		client:  &http.Client{Timeout: 30 * time.Second},
		policy:  retry.Default(),
		workers: DefaultWorkers,
		logger:  logging.NewComponentLogger(logger, "download"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Add queues a task for the next ExecuteAll call.
func (m *Manager) Add(task Task) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks = append(m.tasks, task)
}

// Pending reports how many tasks are queued.
func (m *Manager) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tasks)
}

// ExecuteAll drains the queue through the worker pool and returns a result
// per task. Individual task failures do not abort the batch; a cancelled
// context marks undispatched tasks as skipped. The error is non-nil only for
// context cancellation.
func (m *Manager) ExecuteAll(ctx context.Context) ([]Result, error) {
	m.mu.Lock()
	tasks := m.tasks
	m.tasks = nil
	m.results = make([]Result, 0, len(tasks))
	m.mu.Unlock()

	if len(tasks) == 0 {
		return nil, nil
	}

	total := len(tasks)
	m.logger.Info("starting batch", "tasks", total, "workers", m.workers)

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(m.workers)

	for _, task := range tasks {
		if groupCtx.Err() != nil {
			m.record(Result{Task: task, Skipped: true, Err: groupCtx.Err()}, total)
			continue
		}
		task := task
		group.Go(func() error {
			m.record(m.run(groupCtx, task), total)
			return nil
		})
	}

	group.Wait()

	m.mu.Lock()
	results := m.results
	m.results = nil
	m.mu.Unlock()

	ok, skipped, failed := 0, 0, 0
	for _, res := range results {
		switch {
		case res.Skipped:
			skipped++
		case res.OK:
			ok++
		default:
			failed++
		}
	}
	m.logger.Info("batch finished", "ok", ok, "skipped", skipped, "failed", failed)

	return results, ctx.Err()
}

func (m *Manager) run(ctx context.Context, task Task) Result {
	if err := ctx.Err(); err != nil {
		return Result{Task: task, Skipped: true, Err: err}
	}
	if task.SkipIfPresent && fileutil.NonEmptyFile(task.Dest) {
		m.logger.Debug("already present", "dest", task.Dest, "label", task.Label)
		return Result{Task: task, Skipped: true}
	}

	var err error
	switch {
	case task.URL != "":
		err = artwork.Fetch(ctx, m.client, m.policy, task.URL, task.Dest, task.Headers)
	case task.VideoSource != "" && m.capture != nil:
		err = m.capture(ctx, task)
	default:
		m.logger.Debug("nothing to do", "dest", task.Dest, "label", task.Label)
		return Result{Task: task, Skipped: true}
	}
	if err != nil {
		m.logger.Warn("task failed", "label", task.Label, "dest", task.Dest, logging.Error(err))
		return Result{Task: task, Err: err}
	}

	if m.post != nil {
		if err := m.post(task); err != nil {
			m.logger.Warn("post-process failed", "dest", task.Dest, logging.Error(err))
			// Keep the oversized file; a large image beats a broken one.
		}
	}
	return Result{Task: task, OK: true}
}

func (m *Manager) record(res Result, total int) {
	m.mu.Lock()
	m.results = append(m.results, res)
	done := len(m.results)
	m.mu.Unlock()
	if m.progress != nil {
		m.progress(done, total)
	}
}

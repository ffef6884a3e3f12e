// Package jobs runs named operations in the background with cooperative
// cancellation and keeps a small persisted history for the dashboard.
package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/renameio/v2"
	"github.com/google/uuid"

	"mpvscraper/internal/logging"
)

// Status is the lifecycle state of a job.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether the status will no longer change.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// Event is one line of a job's append-only audit trail. Every status
// transition and every progress message appends one.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
}

// Job is a snapshot of one background operation, safe to hand to callers.
type Job struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Status    Status    `json:"status"`
	Progress  int       `json:"progress"`
	Total     int       `json:"total,omitempty"`
	Step      string    `json:"step,omitempty"`
	Error     string    `json:"error,omitempty"`
	Events    []Event   `json:"events,omitempty"`
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at,omitempty"`
}

// clone copies the snapshot so callers never alias the live events slice.
func (j Job) clone() Job {
	if len(j.Events) > 0 {
		j.Events = append([]Event(nil), j.Events...)
	}
	return j
}

// Progress is handed to job targets so they can publish progress updates
// and poll for cancellation between units of work.
type Progress struct {
	job *tracked
}

// Update advances the job's progress counter by increment, records total
// when one is known (zero leaves the previous total in place), and appends
// message to the audit trail when it is non-empty. Any argument may be
// zero-valued to skip that part of the update.
func (p *Progress) Update(increment, total int, message string) {
	p.job.mu.Lock()
	p.job.snapshot.Progress += increment
	if total > 0 {
		p.job.snapshot.Total = total
	}
	if message != "" {
		p.job.snapshot.Step = message
		p.job.appendEvent(message)
	}
	p.job.mu.Unlock()
}

// Step publishes a human-readable description of what the job is doing
// without advancing the counter.
func (p *Progress) Step(step string) {
	p.Update(0, 0, step)
}

// Cancelled reports whether a cancellation was requested. Targets should
// check it at loop boundaries and return promptly when true.
func (p *Progress) Cancelled() bool {
	select {
	case <-p.job.ctx.Done():
		return true
	default:
		return false
	}
}

// Context exposes the job context for passing into blocking calls.
func (p *Progress) Context() context.Context {
	return p.job.ctx
}

// Target is the unit of work a job runs.
type Target func(ctx context.Context, progress *Progress) error

type tracked struct {
	mu       sync.Mutex
	snapshot Job
	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
}

// appendEvent records one audit line. Callers hold t.mu.
func (t *tracked) appendEvent(message string) {
	t.snapshot.Events = append(t.snapshot.Events, Event{
		Timestamp: time.Now().UTC(),
		Message:   message,
	})
}

// Manager owns the job table. Jobs run one goroutine each; the table and
// its persisted history survive until the process exits.
type Manager struct {
	logger      *slog.Logger
	historyPath string

	mu   sync.Mutex
	jobs map[string]*tracked
}

// Option adjusts Manager construction.
type Option func(*Manager)

// WithHistoryPath persists finished-job snapshots as JSON at path. Persist
// failures are logged and swallowed; history is best effort.
func WithHistoryPath(path string) Option {
	return func(m *Manager) { m.historyPath = path }
}

func NewManager(logger *slog.Logger, opts ...Option) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	m := &Manager{
		logger: logging.NewComponentLogger(logger, "jobs"),
		jobs:   make(map[string]*tracked),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Enqueue starts target immediately under a fresh job id and returns the id.
// The job context derives from ctx, so cancelling ctx cancels every job.
func (m *Manager) Enqueue(ctx context.Context, name string, target Target) string {
	id := newID()
	jobCtx, cancel := context.WithCancel(ctx)
	job := &tracked{
		snapshot: Job{
			ID:        id,
			Name:      name,
			Status:    StatusQueued,
			StartedAt: time.Now().UTC(),
		},
		ctx:    jobCtx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	job.appendEvent("queued")

	m.mu.Lock()
	m.jobs[id] = job
	m.mu.Unlock()

	m.logger.Info("job queued", "id", id, "name", name)

	go m.run(job, target)
	return id
}

func (m *Manager) run(job *tracked, target Target) {
	defer close(job.done)
	defer job.cancel()

	job.mu.Lock()
	job.snapshot.Status = StatusRunning
	job.appendEvent("running")
	job.mu.Unlock()

	err := target(job.ctx, &Progress{job: job})

	job.mu.Lock()
	job.snapshot.EndedAt = time.Now().UTC()
	switch {
	case err == nil:
		// A cancel that raced a successful finish still counts as done.
		job.snapshot.Status = StatusCompleted
		job.appendEvent("completed")
	case job.ctx.Err() != nil:
		job.snapshot.Status = StatusCancelled
		job.appendEvent("cancelled")
	default:
		job.snapshot.Status = StatusFailed
		job.snapshot.Error = err.Error()
		job.appendEvent("failed: " + err.Error())
	}
	final := job.snapshot.clone()
	job.mu.Unlock()

	switch final.Status {
	case StatusFailed:
		m.logger.Error("job failed", "id", final.ID, "name", final.Name, "error", final.Error)
	default:
		m.logger.Info("job finished", "id", final.ID, "name", final.Name, "status", string(final.Status))
	}

	m.persist()
}

// Observe returns the current snapshot of a job without blocking.
func (m *Manager) Observe(id string) (Job, bool) {
	m.mu.Lock()
	job, ok := m.jobs[id]
	m.mu.Unlock()
	if !ok {
		return Job{}, false
	}
	job.mu.Lock()
	defer job.mu.Unlock()
	return job.snapshot.clone(), true
}

// Cancel requests cooperative cancellation of a job. It returns false when
// the id is unknown or the job already reached a terminal state.
func (m *Manager) Cancel(id string) bool {
	m.mu.Lock()
	job, ok := m.jobs[id]
	m.mu.Unlock()
	if !ok {
		return false
	}
	job.mu.Lock()
	terminal := job.snapshot.Status.Terminal()
	job.mu.Unlock()
	if terminal {
		return false
	}
	m.logger.Info("cancellation requested", "id", id)
	job.cancel()
	return true
}

// List returns snapshots of every known job, newest first.
func (m *Manager) List() []Job {
	m.mu.Lock()
	all := make([]*tracked, 0, len(m.jobs))
	for _, job := range m.jobs {
		all = append(all, job)
	}
	m.mu.Unlock()

	snapshots := make([]Job, 0, len(all))
	for _, job := range all {
		job.mu.Lock()
		snapshots = append(snapshots, job.snapshot.clone())
		job.mu.Unlock()
	}
	sort.Slice(snapshots, func(i, j int) bool {
		if !snapshots[i].StartedAt.Equal(snapshots[j].StartedAt) {
			return snapshots[i].StartedAt.After(snapshots[j].StartedAt)
		}
		return snapshots[i].ID < snapshots[j].ID
	})
	return snapshots
}

// Wait blocks until the job reaches a terminal state or ctx expires.
func (m *Manager) Wait(ctx context.Context, id string) (Job, error) {
	m.mu.Lock()
	job, ok := m.jobs[id]
	m.mu.Unlock()
	if !ok {
		return Job{}, context.Canceled
	}
	select {
	case <-job.done:
		job.mu.Lock()
		defer job.mu.Unlock()
		return job.snapshot.clone(), nil
	case <-ctx.Done():
		return Job{}, ctx.Err()
	}
}

// HistoryEntry is the persisted per-job record in the history file, which
// is a JSON object keyed by job id and overwritten wholesale on every
// transition.
type HistoryEntry struct {
	Name     string `json:"name"`
	Status   Status `json:"status"`
	Progress int    `json:"progress"`
	Total    int    `json:"total"`
	Error    string `json:"error"`
}

func (m *Manager) persist() {
	if m.historyPath == "" {
		return
	}
	history := make(map[string]HistoryEntry)
	for _, job := range m.List() {
		history[job.ID] = HistoryEntry{
			Name:     job.Name,
			Status:   job.Status,
			Progress: job.Progress,
			Total:    job.Total,
			Error:    job.Error,
		}
	}
	data, err := json.MarshalIndent(history, "", "  ")
	if err != nil {
		m.logger.Warn("history encode failed", logging.Error(err))
		return
	}
	if err := renameio.WriteFile(m.historyPath, data, 0o644); err != nil {
		m.logger.Warn("history write failed", "path", m.historyPath, logging.Error(err))
	}
}

// newID returns a short hex id, long enough to never collide within one
// process lifetime and short enough to type into a cancel command.
func newID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"mpvscraper/internal/config"
)

const userAgent = "mpv-scraper/0.1.0"

// Summary is the outcome of one library pass, rendered into the
// notification body.
type Summary struct {
	Scraped  int
	Skipped  int
	Degraded int
	Failed   int
	Duration time.Duration
}

func (s Summary) String() string {
	duration := s.Duration.Round(time.Second)
	if duration <= 0 {
		duration = 0
	}
	return fmt.Sprintf("%d scraped, %d skipped, %d degraded, %d failed in %s",
		s.Scraped, s.Skipped, s.Degraded, s.Failed, duration)
}

// Service defines the notification surface exposed to the workflow.
type Service interface {
	NotifyRunCompleted(ctx context.Context, library string, summary Summary) error
	NotifyRunFailed(ctx context.Context, library string, err error) error
	NotifyUndoCompleted(ctx context.Context, library string, reverted int) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) NotifyRunCompleted(ctx context.Context, library string, summary Summary) error {
	library = strings.TrimSpace(library)
	data := payload{
		title:   "mpv-scraper - Run Complete",
		message: fmt.Sprintf("Library %s: %s", library, summary),
		tags:    []string{"mpv-scraper", "run", "completed"},
	}
	if summary.Failed > 0 || summary.Degraded > 0 {
		data.title = "mpv-scraper - Run Complete (with issues)"
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyRunFailed(ctx context.Context, library string, err error) error {
	library = strings.TrimSpace(library)
	reason := "unknown"
	if err != nil {
		reason = strings.TrimSpace(err.Error())
	}
	data := payload{
		title:    "mpv-scraper - Run Failed",
		message:  fmt.Sprintf("Library %s: %s", library, reason),
		tags:     []string{"mpv-scraper", "run", "failed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyUndoCompleted(ctx context.Context, library string, reverted int) error {
	library = strings.TrimSpace(library)
	data := payload{
		title:   "mpv-scraper - Undo Complete",
		message: fmt.Sprintf("Library %s: reverted %d files", library, reverted),
		tags:    []string{"mpv-scraper", "undo", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "mpv-scraper - Test",
		message:  "Notification system test",
		tags:     []string{"mpv-scraper", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyRunCompleted(context.Context, string, Summary) error { return nil }
func (noopService) NotifyRunFailed(context.Context, string, error) error      { return nil }
func (noopService) NotifyUndoCompleted(context.Context, string, int) error    { return nil }
func (noopService) TestNotification(context.Context) error                    { return nil }

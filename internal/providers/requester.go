package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"mpvscraper/internal/retry"
	"mpvscraper/internal/services"
)

const userAgent = "mpv-scraper/1.0"

// Requester issues rate-limited, retry-wrapped JSON requests for provider
// clients. Every provider owns one, so pacing applies per provider rather
// than through a global sleep.
type Requester struct {
	HTTP    *http.Client
	Limiter *rate.Limiter
	Retry   retry.Policy
}

// NewRequester builds a Requester with the shared defaults: a 15 second
// client timeout, one request per interval, and the supplied retry policy.
func NewRequester(timeout time.Duration, interval time.Duration, policy retry.Policy) *Requester {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	return &Requester{
		HTTP:    &http.Client{Timeout: timeout},
		Limiter: rate.NewLimiter(rate.Every(interval), 1),
		Retry:   policy,
	}
}

// GetJSON fetches url and decodes the response body into out.
func (r *Requester) GetJSON(ctx context.Context, component, url string, header http.Header, out any) error {
	return r.doJSON(ctx, component, http.MethodGet, url, header, nil, out)
}

// PostJSON sends body as JSON to url and decodes the response into out.
func (r *Requester) PostJSON(ctx context.Context, component, url string, header http.Header, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return services.Wrap(services.ErrValidation, component, "request", "encode body", err)
	}
	return r.doJSON(ctx, component, http.MethodPost, url, header, payload, out)
}

func (r *Requester) doJSON(ctx context.Context, component, method, url string, header http.Header, body []byte, out any) error {
	return retry.Do(ctx, r.Retry, func() error {
		if r.Limiter != nil {
			if err := r.Limiter.Wait(ctx); err != nil {
				return err
			}
		}

		var reader io.Reader
		if body != nil {
			reader = strings.NewReader(string(body))
		}
		req, err := http.NewRequestWithContext(ctx, method, url, reader)
		if err != nil {
			return services.Wrap(services.ErrValidation, component, "request", "build request", err)
		}
		req.Header.Set("User-Agent", userAgent)
		req.Header.Set("Accept", "application/json")
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		for key, values := range header {
			for _, value := range values {
				req.Header.Set(key, value)
			}
		}

		resp, err := r.HTTP.Do(req)
		if err != nil {
			return fmt.Errorf("%s: execute request: %w", component, err)
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusNotFound:
			io.Copy(io.Discard, resp.Body)
			return services.Wrap(services.ErrNotFound, component, "request", fmt.Sprintf("%s returned 404", url), nil)
		case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
			io.Copy(io.Discard, resp.Body)
			return services.Wrap(services.ErrUnconfigured, component, "request", fmt.Sprintf("credentials rejected (%d)", resp.StatusCode), nil)
		case resp.StatusCode != http.StatusOK:
			snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return fmt.Errorf("%s: request returned %d: %s", component, resp.StatusCode, strings.TrimSpace(string(snippet)))
		}

		if out == nil {
			io.Copy(io.Discard, resp.Body)
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("%s: decode response: %w", component, err)
		}
		return nil
	})
}

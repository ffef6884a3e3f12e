package providers_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"mpvscraper/internal/metadata"
	"mpvscraper/internal/providers"
	"mpvscraper/internal/retry"
	"mpvscraper/internal/services"
)

func newTestRequester(attempts int) *providers.Requester {
	return providers.NewRequester(5*time.Second, time.Millisecond, retry.Policy{
		MaxAttempts: attempts,
		BaseDelay:   time.Millisecond,
	})
}

func TestGetJSONDecodesBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Accept") != "application/json" {
			t.Errorf("missing accept header")
		}
		w.Write([]byte(`{"name":"Fargo"}`))
	}))
	defer server.Close()

	var out struct {
		Name string `json:"name"`
	}
	err := newTestRequester(1).GetJSON(context.Background(), "test", server.URL, nil, &out)
	if err != nil {
		t.Fatalf("GetJSON: %v", err)
	}
	if out.Name != "Fargo" {
		t.Errorf("name = %q", out.Name)
	}
}

func TestGetJSONMapsNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	err := newTestRequester(3).GetJSON(context.Background(), "test", server.URL, nil, nil)
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not-found marker, got %v", err)
	}
}

func TestGetJSONMapsAuthFailureToUnconfigured(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	err := newTestRequester(3).GetJSON(context.Background(), "test", server.URL, nil, nil)
	if !errors.Is(err, services.ErrUnconfigured) {
		t.Fatalf("expected unconfigured marker, got %v", err)
	}
}

func TestServerErrorsAreRetried(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	err := newTestRequester(3).GetJSON(context.Background(), "test", server.URL, nil, nil)
	if err != nil {
		t.Fatalf("GetJSON after retries: %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestPostJSONSendsBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %q", ct)
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	var out struct {
		OK bool `json:"ok"`
	}
	err := newTestRequester(1).PostJSON(context.Background(), "test", server.URL, nil,
		map[string]string{"apikey": "k"}, &out)
	if err != nil {
		t.Fatalf("PostJSON: %v", err)
	}
	if !out.OK {
		t.Error("response not decoded")
	}
}

func TestQueryCacheSuffix(t *testing.T) {
	q := providers.Query{Title: "The Wire", Year: 2002, Kind: metadata.KindTV}
	if got := q.CacheSuffix(); got != "the wire_2002" {
		t.Errorf("CacheSuffix = %q", got)
	}
	q.Year = 0
	if got := q.CacheSuffix(); got != "the wire_any" {
		t.Errorf("CacheSuffix = %q", got)
	}
}

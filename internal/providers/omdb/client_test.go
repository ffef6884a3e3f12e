package omdb_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"mpvscraper/internal/providers"
	"mpvscraper/internal/providers/omdb"
	"mpvscraper/internal/respcache"
	"mpvscraper/internal/retry"
	"mpvscraper/internal/services"
)

func newClient(t *testing.T, baseURL string) *omdb.Client {
	t.Helper()
	requester := providers.NewRequester(5*time.Second, time.Millisecond, retry.Policy{MaxAttempts: 1})
	return omdb.New("key", baseURL, respcache.New(t.TempDir(), nil), requester, nil)
}

func TestSearchReturnsSingleCandidate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("t") != "Blade Runner" {
			t.Errorf("title param = %q", r.URL.Query().Get("t"))
		}
		if r.URL.Query().Get("y") != "1982" {
			t.Errorf("year param = %q", r.URL.Query().Get("y"))
		}
		w.Write([]byte(`{"Title":"Blade Runner","Year":"1982","imdbID":"tt0083658","Response":"True"}`))
	}))
	defer server.Close()

	candidates, err := newClient(t, server.URL).Search(context.Background(), providers.Query{Title: "Blade Runner", Year: 1982})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(candidates) != 1 || candidates[0].ID != "tt0083658" {
		t.Fatalf("candidates = %+v", candidates)
	}
}

func TestSearchFalseResponseIsEmptyNotError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Response":"False","Error":"Movie not found!"}`))
	}))
	defer server.Close()

	candidates, err := newClient(t, server.URL).Search(context.Background(), providers.Query{Title: "Unfilmed"})
	if err != nil {
		t.Fatalf("soft miss should not error: %v", err)
	}
	if len(candidates) != 0 {
		t.Fatalf("candidates = %+v", candidates)
	}
}

func TestFetchDetailsNormalizesAndStripsNA(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("i") != "tt0083658" {
			t.Errorf("id param = %q", r.URL.Query().Get("i"))
		}
		w.Write([]byte(`{"Title":"Blade Runner","Year":"1982","Plot":"A blade runner must pursue replicants.",
			"Poster":"https://img/poster.jpg","Genre":"Sci-Fi, Thriller","Production":"N/A",
			"imdbRating":"8.1","imdbID":"tt0083658","Response":"True"}`))
	}))
	defer server.Close()

	record, err := newClient(t, server.URL).FetchDetails(context.Background(), "tt0083658")
	if err != nil {
		t.Fatalf("FetchDetails: %v", err)
	}
	if record.Rating != 0.81 {
		t.Errorf("rating = %v", record.Rating)
	}
	if record.Studio != "" {
		t.Errorf("N/A production should be stripped, got %q", record.Studio)
	}
	if len(record.Genres) != 2 || record.Genres[0] != "Sci-Fi" {
		t.Errorf("genres = %+v", record.Genres)
	}
}

func TestFetchDetailsFalseResponseIsNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Response":"False","Error":"Incorrect IMDb ID."}`))
	}))
	defer server.Close()

	_, err := newClient(t, server.URL).FetchDetails(context.Background(), "tt0000000")
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not-found marker, got %v", err)
	}
}

func TestUnconfiguredFailsFast(t *testing.T) {
	requester := providers.NewRequester(time.Second, time.Millisecond, retry.Policy{MaxAttempts: 1})
	client := omdb.New("", "http://unused", respcache.New(t.TempDir(), nil), requester, nil)
	if _, err := client.Search(context.Background(), providers.Query{Title: "x"}); !errors.Is(err, services.ErrUnconfigured) {
		t.Fatalf("expected unconfigured marker, got %v", err)
	}
}

package tvdb_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"mpvscraper/internal/metadata"
	"mpvscraper/internal/providers"
	"mpvscraper/internal/providers/tvdb"
	"mpvscraper/internal/respcache"
	"mpvscraper/internal/retry"
	"mpvscraper/internal/services"
)

func newRequester() *providers.Requester {
	return providers.NewRequester(5*time.Second, time.Millisecond, retry.Policy{MaxAttempts: 1})
}

func TestSearchUnconfiguredFailsFast(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer server.Close()

	client := tvdb.New("", server.URL, respcache.New(t.TempDir(), nil), newRequester(), nil)
	_, err := client.Search(context.Background(), providers.Query{Title: "Lost", Kind: metadata.KindTV})
	if !errors.Is(err, services.ErrUnconfigured) {
		t.Fatalf("expected unconfigured marker, got %v", err)
	}
	if calls != 0 {
		t.Errorf("unconfigured client touched the network %d times", calls)
	}
}

func TestSearchLogsInOnceAndCachesResults(t *testing.T) {
	logins, searches := 0, 0
	mux := http.NewServeMux()
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		logins++
		w.Write([]byte(`{"data":{"token":"tok-1"}}`))
	})
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		searches++
		if got := r.Header.Get("Authorization"); got != "Bearer tok-1" {
			t.Errorf("authorization = %q", got)
		}
		if got := r.URL.Query().Get("type"); got != "series" {
			t.Errorf("type = %q", got)
		}
		w.Write([]byte(`{"data":[{"tvdb_id":"371980","name":"Severance","year":"2022"}]}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	cache := respcache.New(t.TempDir(), nil)
	client := tvdb.New("key", server.URL, cache, newRequester(), nil)
	query := providers.Query{Title: "Severance", Kind: metadata.KindTV}

	for i := 0; i < 2; i++ {
		candidates, err := client.Search(context.Background(), query)
		if err != nil {
			t.Fatalf("Search #%d: %v", i+1, err)
		}
		if len(candidates) != 1 || candidates[0].ID != "371980" || candidates[0].Name != "Severance" {
			t.Fatalf("candidates = %+v", candidates)
		}
	}

	if logins != 1 {
		t.Errorf("logins = %d, want 1 (token cached)", logins)
	}
	if searches != 1 {
		t.Errorf("searches = %d, want 1 (response cached)", searches)
	}
}

func TestFetchDetailsNormalizesRecord(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"token":"tok"}}`))
	})
	mux.HandleFunc("/series/42/extended", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{
			"id":42,"name":"Severance","overview":"Work-life balance, surgically.",
			"image":"https://art/poster.jpg","firstAired":"2022-02-18","siteRating":8.5,
			"genres":[{"name":"Drama"},{"name":"Sci-Fi"}],
			"originalNetwork":{"name":"Apple TV+"},
			"companies":[{"name":"Red Hour","companyType":{"companyTypeName":"Studio"}}],
			"episodes":[
				{"seasonNumber":1,"number":1,"name":"Good News About Hell","aired":"2022-02-18","image":"https://art/e1.jpg"},
				{"seasonNumber":1,"number":2,"name":"Half Loop","aired":"2022-02-18"}
			]}}`))
	})
	mux.HandleFunc("/series/42/artworks", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"artworks":[{"image":"https://art/logo.png","language":"eng","type":23}]}}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := tvdb.New("key", server.URL, respcache.New(t.TempDir(), nil), newRequester(), nil)
	record, err := client.FetchDetails(context.Background(), "42")
	if err != nil {
		t.Fatalf("FetchDetails: %v", err)
	}

	if record.Source != "tvdb" || record.Kind != metadata.KindTV {
		t.Errorf("source/kind = %q/%q", record.Source, record.Kind)
	}
	if record.DisplayName != "Severance" {
		t.Errorf("name = %q", record.DisplayName)
	}
	if record.Rating != 0.85 {
		t.Errorf("rating = %v, want 0.85", record.Rating)
	}
	if record.LogoURL != "https://art/logo.png" {
		t.Errorf("logo = %q", record.LogoURL)
	}
	if record.Studio != "Red Hour" {
		t.Errorf("studio = %q", record.Studio)
	}
	if record.Network != "Apple TV+" {
		t.Errorf("network = %q", record.Network)
	}
	if len(record.Episodes) != 2 || record.Episodes[0].Name != "Good News About Hell" {
		t.Errorf("episodes = %+v", record.Episodes)
	}
	if record.TVDBID != "42" {
		t.Errorf("tvdb id = %q", record.TVDBID)
	}
}

func TestFetchDetailsEmptySeriesIsNotFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"token":"tok"}}`))
	})
	mux.HandleFunc("/series/9/extended", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{}}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := tvdb.New("key", server.URL, respcache.New(t.TempDir(), nil), newRequester(), nil)
	_, err := client.FetchDetails(context.Background(), "9")
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not-found marker, got %v", err)
	}
}

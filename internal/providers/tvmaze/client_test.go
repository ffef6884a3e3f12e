package tvmaze_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"mpvscraper/internal/providers"
	"mpvscraper/internal/providers/tvmaze"
	"mpvscraper/internal/respcache"
	"mpvscraper/internal/retry"
)

func newClient(t *testing.T, baseURL string) *tvmaze.Client {
	t.Helper()
	requester := providers.NewRequester(5*time.Second, time.Millisecond, retry.Policy{MaxAttempts: 1})
	return tvmaze.New(baseURL, respcache.New(t.TempDir(), nil), requester, nil)
}

func TestSearchNeedsNoKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search/shows" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Write([]byte(`[{"show":{"id":82,"name":"Game of Thrones","premiered":"2011-04-17"}}]`))
	}))
	defer server.Close()

	candidates, err := newClient(t, server.URL).Search(context.Background(), providers.Query{Title: "Game of Thrones"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(candidates) != 1 || candidates[0].ID != "82" || candidates[0].Year != "2011" {
		t.Fatalf("candidates = %+v", candidates)
	}
}

func TestFetchDetailsStripsHTMLAndLoadsEpisodes(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/shows/82", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":82,"name":"Game of Thrones","premiered":"2011-04-17",
			"summary":"<p>Seven noble families fight for control of <b>Westeros</b>.</p>",
			"image":{"original":"https://img/poster.jpg"},
			"rating":{"average":9.3},"network":{"name":"HBO"},"genres":["Drama","Fantasy"]}`))
	})
	mux.HandleFunc("/shows/82/episodes", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			{"season":1,"number":1,"name":"Winter Is Coming","summary":"<p>Lord Stark is summoned.</p>","airdate":"2011-04-17","image":{"original":"https://img/e1.jpg"}},
			{"season":1,"number":2,"name":"The Kingsroad","airdate":"2011-04-24"}]`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	record, err := newClient(t, server.URL).FetchDetails(context.Background(), "82")
	if err != nil {
		t.Fatalf("FetchDetails: %v", err)
	}
	if record.Overview != "Seven noble families fight for control of Westeros." {
		t.Errorf("overview = %q", record.Overview)
	}
	if record.Rating != 0.93 {
		t.Errorf("rating = %v", record.Rating)
	}
	if len(record.Episodes) != 2 {
		t.Fatalf("episodes = %+v", record.Episodes)
	}
	if record.Episodes[0].Overview != "Lord Stark is summoned." {
		t.Errorf("episode overview = %q", record.Episodes[0].Overview)
	}
}

package fallback_test

import (
	"context"
	"errors"
	"testing"

	"mpvscraper/internal/fallback"
	"mpvscraper/internal/metadata"
	"mpvscraper/internal/providers"
	"mpvscraper/internal/services"
)

type stubClient struct {
	name       string
	candidates []metadata.Candidate
	record     *metadata.Record
	searchErr  error
	detailsErr error
	searches   int
}

func (s *stubClient) Name() string { return s.name }

func (s *stubClient) Search(ctx context.Context, query providers.Query) ([]metadata.Candidate, error) {
	s.searches++
	return s.candidates, s.searchErr
}

func (s *stubClient) FetchDetails(ctx context.Context, id string) (*metadata.Record, error) {
	if s.detailsErr != nil {
		return nil, s.detailsErr
	}
	return s.record, nil
}

func goodTVRecord(source string) *metadata.Record {
	return &metadata.Record{
		ID: "1", Source: source, Kind: metadata.KindTV,
		DisplayName: "Show", Overview: "An overview.",
		PosterURL: "https://img/poster.jpg", LogoURL: "https://img/logo.png",
		Episodes: []metadata.Episode{{Season: 1, Number: 1}},
	}
}

func candidate() []metadata.Candidate {
	return []metadata.Candidate{{ID: "1", Name: "Show"}}
}

var tvQuery = providers.Query{Title: "Show", Kind: metadata.KindTV}

func TestFirstNonPoorRecordWins(t *testing.T) {
	primary := &stubClient{name: "tvdb", candidates: candidate(), record: goodTVRecord("tvdb")}
	secondary := &stubClient{name: "tmdb", candidates: candidate(), record: goodTVRecord("tmdb")}

	engine := fallback.New([]providers.Client{primary, secondary}, nil)
	record, err := engine.Resolve(context.Background(), tvQuery)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if record.Source != "tvdb" {
		t.Errorf("resolved from %q, want primary", record.Source)
	}
	if record.Merged {
		t.Error("clean resolution should not be marked merged")
	}
	if secondary.searches != 0 {
		t.Error("secondary should not be consulted when primary passes")
	}
}

func TestPoorPrimaryFallsThroughToSecondary(t *testing.T) {
	poor := goodTVRecord("tvdb")
	poor.Episodes = nil // any missing required field makes the record poor
	primary := &stubClient{name: "tvdb", candidates: candidate(), record: poor}
	secondary := &stubClient{name: "tmdb", candidates: candidate(), record: goodTVRecord("tmdb")}

	engine := fallback.New([]providers.Client{primary, secondary}, nil)
	record, err := engine.Resolve(context.Background(), tvQuery)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if record.Source != "tmdb" {
		t.Errorf("resolved from %q, want secondary", record.Source)
	}
}

func TestAllPoorMergesSupplementaryFields(t *testing.T) {
	first := goodTVRecord("tvdb")
	first.LogoURL = ""
	first.Studio = ""
	first.Overview = "" // poor: missing overview and logo

	second := goodTVRecord("tmdb")
	second.Episodes = nil // poor: no episodes
	second.LogoURL = "https://tmdb/logo.png"
	second.Studio = "Bad Wolf"

	engine := fallback.New([]providers.Client{
		&stubClient{name: "tvdb", candidates: candidate(), record: first},
		&stubClient{name: "tmdb", candidates: candidate(), record: second},
	}, nil)

	record, err := engine.Resolve(context.Background(), tvQuery)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if record.Source != "tvdb" {
		t.Errorf("best available should be first non-empty, got %q", record.Source)
	}
	if record.LogoURL != "https://tmdb/logo.png" {
		t.Errorf("logo not merged: %q", record.LogoURL)
	}
	if record.Studio != "Bad Wolf" {
		t.Errorf("studio not merged: %q", record.Studio)
	}
	if !record.Merged {
		t.Error("degraded result must be marked merged")
	}
}

type stubLogos struct {
	logo   string
	err    error
	lookups int
}

func (s *stubLogos) SeriesLogo(ctx context.Context, tvdbID string) (string, error) {
	s.lookups++
	return s.logo, s.err
}

func TestMergeConsultsLogoSource(t *testing.T) {
	record := goodTVRecord("tvdb")
	record.LogoURL = ""
	record.Overview = ""
	record.TVDBID = "42"

	logos := &stubLogos{logo: "https://fanart/logo.png"}
	engine := fallback.New([]providers.Client{
		&stubClient{name: "tvdb", candidates: candidate(), record: record},
	}, nil, fallback.WithLogoSource(logos))

	resolved, err := engine.Resolve(context.Background(), tvQuery)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if resolved.LogoURL != "https://fanart/logo.png" {
		t.Errorf("logo = %q", resolved.LogoURL)
	}
	if logos.lookups != 1 {
		t.Errorf("logo lookups = %d", logos.lookups)
	}
}

func TestLogoSourceFailureIsNotFatal(t *testing.T) {
	record := goodTVRecord("tvdb")
	record.LogoURL = ""
	record.Overview = ""
	record.TVDBID = "42"

	engine := fallback.New([]providers.Client{
		&stubClient{name: "tvdb", candidates: candidate(), record: record},
	}, nil, fallback.WithLogoSource(&stubLogos{err: services.ErrUnconfigured}))

	resolved, err := engine.Resolve(context.Background(), tvQuery)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if resolved.LogoURL != "" {
		t.Errorf("logo = %q, want empty", resolved.LogoURL)
	}
}

func TestAllEmptyResolvesExhausted(t *testing.T) {
	engine := fallback.New([]providers.Client{
		&stubClient{name: "tvdb"},
		&stubClient{name: "tmdb", searchErr: services.ErrUnconfigured},
		&stubClient{name: "tvmaze", candidates: candidate(), detailsErr: services.ErrNotFound},
	}, nil)

	_, err := engine.Resolve(context.Background(), tvQuery)
	if !errors.Is(err, services.ErrExhausted) {
		t.Fatalf("expected exhausted marker, got %v", err)
	}
}

func TestFailingProviderDoesNotBreakChain(t *testing.T) {
	engine := fallback.New([]providers.Client{
		&stubClient{name: "tvdb", searchErr: errors.New("connection reset")},
		&stubClient{name: "tmdb", candidates: candidate(), record: goodTVRecord("tmdb")},
	}, nil)

	record, err := engine.Resolve(context.Background(), tvQuery)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if record.Source != "tmdb" {
		t.Errorf("resolved from %q", record.Source)
	}
}

func TestCancelledContextStopsResolve(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	engine := fallback.New([]providers.Client{
		&stubClient{name: "tvdb", candidates: candidate(), record: goodTVRecord("tvdb")},
	}, nil)

	if _, err := engine.Resolve(ctx, tvQuery); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestPoorPredicate(t *testing.T) {
	movie := &metadata.Record{
		Kind: metadata.KindMovie, DisplayName: "Movie",
		PosterURL: "p", Overview: "o",
	}
	if fallback.Poor(movie, metadata.KindMovie) {
		t.Error("movie with poster and overview is not poor")
	}
	movie.Overview = ""
	if !fallback.Poor(movie, metadata.KindMovie) {
		t.Error("movie missing overview is poor")
	}

	tv := goodTVRecord("tvdb")
	if fallback.Poor(tv, metadata.KindTV) {
		t.Error("complete tv record is not poor")
	}
	tv.LogoURL = ""
	if !fallback.Poor(tv, metadata.KindTV) {
		t.Error("tv record missing any required field is poor")
	}
}

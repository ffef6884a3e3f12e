package providers

import (
	"context"
	"strconv"
	"strings"

	"mpvscraper/internal/metadata"
)

// Query describes one lookup against a provider.
type Query struct {
	Title string
	Year  int
	Kind  metadata.Kind
}

// CacheSuffix returns a stable token for building cache keys from the query.
func (q Query) CacheSuffix() string {
	year := "any"
	if q.Year > 0 {
		year = strconv.Itoa(q.Year)
	}
	return strings.ToLower(strings.TrimSpace(q.Title)) + "_" + year
}

// Client is the capability every metadata source exposes. The fallback
// engine treats clients interchangeably and tries them in priority order.
type Client interface {
	// Name identifies the provider in logs and source tags.
	Name() string
	// Search returns candidate matches for the query, an empty slice when
	// the provider has no match, or an error for transport failures.
	Search(ctx context.Context, query Query) ([]metadata.Candidate, error)
	// FetchDetails resolves a candidate id into a normalized partial
	// record. A provider with no data for the id returns ErrNotFound.
	FetchDetails(ctx context.Context, id string) (*metadata.Record, error)
}

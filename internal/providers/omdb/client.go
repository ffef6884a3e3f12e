// Package omdb implements the OMDb provider client, a movie-only fallback
// source keyed by IMDb ids.
package omdb

import (
	"context"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"mpvscraper/internal/logging"
	"mpvscraper/internal/metadata"
	"mpvscraper/internal/providers"
	"mpvscraper/internal/respcache"
	"mpvscraper/internal/services"
	"mpvscraper/internal/textutil"
)

const component = "omdb"

// Client talks to the OMDb API. The whole surface is a single endpoint;
// search-by-title and fetch-by-id differ only in the query parameter.
type Client struct {
	apiKey    string
	baseURL   string
	cache     *respcache.Cache
	requester *providers.Requester
	logger    *slog.Logger
}

var _ providers.Client = (*Client)(nil)

// New creates an OMDb client.
func New(apiKey, baseURL string, cache *respcache.Cache, requester *providers.Requester, logger *slog.Logger) *Client {
	return &Client{
		apiKey:    strings.TrimSpace(apiKey),
		baseURL:   strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		cache:     cache,
		requester: requester,
		logger:    logging.NewComponentLogger(logger, component),
	}
}

func (c *Client) Name() string { return component }

type record struct {
	Title      string `json:"Title"`
	Year       string `json:"Year"`
	Plot       string `json:"Plot"`
	Poster     string `json:"Poster"`
	Genre      string `json:"Genre"`
	Production string `json:"Production"`
	IMDBRating string `json:"imdbRating"`
	IMDBID     string `json:"imdbID"`
	Response   string `json:"Response"`
	Error      string `json:"Error"`
}

// Search looks the title up directly; OMDb has no candidate list, so a hit
// yields exactly one candidate carrying the IMDb id. "Response": "False" is
// a valid empty result, not an error.
func (c *Client) Search(ctx context.Context, query providers.Query) ([]metadata.Candidate, error) {
	hit, err := c.lookup(ctx, "omdb_search_"+textutil.CacheToken(query.CacheSuffix()), func(params url.Values) {
		params.Set("t", query.Title)
		if query.Year > 0 {
			params.Set("y", strconv.Itoa(query.Year))
		}
	})
	if err != nil {
		return nil, err
	}
	if hit == nil {
		return nil, nil
	}
	return []metadata.Candidate{{ID: hit.IMDBID, Name: hit.Title, Year: hit.Year}}, nil
}

// FetchDetails resolves an IMDb id into a normalized movie record.
func (c *Client) FetchDetails(ctx context.Context, id string) (*metadata.Record, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, services.Wrap(services.ErrValidation, component, "details", "imdb id required", nil)
	}

	hit, err := c.lookup(ctx, "omdb_details_"+textutil.CacheToken(id), func(params url.Values) {
		params.Set("i", id)
		params.Set("plot", "full")
	})
	if err != nil {
		return nil, err
	}
	if hit == nil {
		return nil, services.Wrap(services.ErrNotFound, component, "details", id+" has no record", nil)
	}

	out := &metadata.Record{
		ID:          hit.IMDBID,
		Source:      component,
		Kind:        metadata.KindMovie,
		DisplayName: hit.Title,
		Overview:    cleanValue(hit.Plot),
		Studio:      cleanValue(hit.Production),
		FirstAired:  cleanValue(hit.Year),
	}
	if poster := cleanValue(hit.Poster); poster != "" {
		out.PosterURL = poster
	}
	if rating, err := strconv.ParseFloat(cleanValue(hit.IMDBRating), 64); err == nil {
		out.Rating = metadata.NormalizeRating(rating)
	}
	for _, genre := range strings.Split(cleanValue(hit.Genre), ",") {
		if genre = strings.TrimSpace(genre); genre != "" {
			out.Genres = append(out.Genres, genre)
		}
	}
	return out, nil
}

func (c *Client) lookup(ctx context.Context, cacheKey string, build func(url.Values)) (*record, error) {
	if c.apiKey == "" {
		return nil, services.Wrap(services.ErrUnconfigured, component, "lookup", "api key missing", nil)
	}

	var hit record
	if !c.cache.GetJSON(cacheKey, &hit) {
		params := url.Values{"apikey": {c.apiKey}}
		build(params)
		if err := c.requester.GetJSON(ctx, component, c.baseURL+"/?"+params.Encode(), nil, &hit); err != nil {
			return nil, err
		}
		if err := c.cache.SetJSON(cacheKey, hit); err != nil {
			c.logger.Debug("cache write failed", logging.String("key", cacheKey), logging.Error(err))
		}
	}

	if strings.EqualFold(hit.Response, "False") {
		c.logger.Debug("omdb has no match", logging.String("detail", hit.Error))
		return nil, nil
	}
	return &hit, nil
}

// cleanValue strips OMDb's "N/A" placeholder.
func cleanValue(value string) string {
	value = strings.TrimSpace(value)
	if strings.EqualFold(value, "N/A") {
		return ""
	}
	return value
}

// Package tmdb implements The Movie Database v3 provider client. One client
// instance serves a single media kind; the fallback chains instantiate it
// per kind.
package tmdb

import (
	"context"
	"fmt"
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

const (
	component = "tmdb"
	imageBase = "https://image.tmdb.org/t/p/original"
)

// Client talks to the TMDB v3 API using API-key query authentication.
type Client struct {
	apiKey    string
	baseURL   string
	language  string
	kind      metadata.Kind
	cache     *respcache.Cache
	requester *providers.Requester
	logger    *slog.Logger
}

var _ providers.Client = (*Client)(nil)

// New creates a TMDB client bound to one media kind.
func New(apiKey, baseURL, language string, kind metadata.Kind, cache *respcache.Cache, requester *providers.Requester, logger *slog.Logger) *Client {
	return &Client{
		apiKey:    strings.TrimSpace(apiKey),
		baseURL:   strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		language:  strings.TrimSpace(language),
		kind:      kind,
		cache:     cache,
		requester: requester,
		logger:    logging.NewComponentLogger(logger, component),
	}
}

func (c *Client) Name() string { return component }

type searchResponse struct {
	Results []struct {
		ID           int64  `json:"id"`
		Title        string `json:"title"`
		Name         string `json:"name"`
		ReleaseDate  string `json:"release_date"`
		FirstAirDate string `json:"first_air_date"`
	} `json:"results"`
}

// Search queries search/movie or search/tv depending on the client's kind.
func (c *Client) Search(ctx context.Context, query providers.Query) ([]metadata.Candidate, error) {
	if c.apiKey == "" {
		return nil, services.Wrap(services.ErrUnconfigured, component, "search", "api key missing", nil)
	}

	cacheKey := fmt.Sprintf("tmdb_search_%s_%s", c.kind, textutil.CacheToken(query.CacheSuffix()))
	var response searchResponse
	if !c.cache.GetJSON(cacheKey, &response) {
		params := url.Values{
			"api_key": {c.apiKey},
			"query":   {query.Title},
		}
		if c.language != "" {
			params.Set("language", c.language)
		}
		path := "/search/movie"
		if c.kind == metadata.KindTV {
			path = "/search/tv"
			if query.Year > 0 {
				params.Set("first_air_date_year", strconv.Itoa(query.Year))
			}
		} else if query.Year > 0 {
			params.Set("primary_release_year", strconv.Itoa(query.Year))
		}

		if err := c.requester.GetJSON(ctx, component, c.baseURL+path+"?"+params.Encode(), nil, &response); err != nil {
			return nil, err
		}
		if err := c.cache.SetJSON(cacheKey, response); err != nil {
			c.logger.Debug("cache write failed", logging.String("key", cacheKey), logging.Error(err))
		}
	}

	candidates := make([]metadata.Candidate, 0, len(response.Results))
	for _, hit := range response.Results {
		name := hit.Title
		date := hit.ReleaseDate
		if c.kind == metadata.KindTV {
			name = hit.Name
			date = hit.FirstAirDate
		}
		year := ""
		if len(date) >= 4 {
			year = date[:4]
		}
		candidates = append(candidates, metadata.Candidate{
			ID:   strconv.FormatInt(hit.ID, 10),
			Name: name,
			Year: year,
		})
	}
	return candidates, nil
}

type detailsResponse struct {
	ID           int64  `json:"id"`
	Title        string `json:"title"`
	Name         string `json:"name"`
	Overview     string `json:"overview"`
	PosterPath   string `json:"poster_path"`
	ReleaseDate  string `json:"release_date"`
	FirstAirDate string `json:"first_air_date"`
	VoteAverage  float64 `json:"vote_average"`
	Genres       []struct {
		Name string `json:"name"`
	} `json:"genres"`
	ProductionCompanies []struct {
		Name string `json:"name"`
	} `json:"production_companies"`
	Networks []struct {
		Name string `json:"name"`
	} `json:"networks"`
}

type imagesResponse struct {
	Logos []imageEntry `json:"logos"`
}

type imageEntry struct {
	FilePath    string  `json:"file_path"`
	Language    string  `json:"iso_639_1"`
	VoteAverage float64 `json:"vote_average"`
}

// FetchDetails resolves a TMDB id into a normalized record, combining the
// details and images endpoints. TV records carry no episode list; TMDB
// serves as a fallback source here, not the episode supplier.
func (c *Client) FetchDetails(ctx context.Context, id string) (*metadata.Record, error) {
	if c.apiKey == "" {
		return nil, services.Wrap(services.ErrUnconfigured, component, "details", "api key missing", nil)
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, services.Wrap(services.ErrValidation, component, "details", "id required", nil)
	}

	segment := "movie"
	if c.kind == metadata.KindTV {
		segment = "tv"
	}

	cacheKey := fmt.Sprintf("tmdb_%s_%s_details", segment, id)
	var details detailsResponse
	if !c.cache.GetJSON(cacheKey, &details) {
		endpoint := fmt.Sprintf("%s/%s/%s?%s", c.baseURL, segment, url.PathEscape(id), url.Values{
			"api_key":  {c.apiKey},
			"language": {c.language},
		}.Encode())
		if err := c.requester.GetJSON(ctx, component, endpoint, nil, &details); err != nil {
			return nil, err
		}
		if err := c.cache.SetJSON(cacheKey, details); err != nil {
			c.logger.Debug("cache write failed", logging.String("key", cacheKey), logging.Error(err))
		}
	}

	name := details.Title
	aired := details.ReleaseDate
	if c.kind == metadata.KindTV {
		name = details.Name
		aired = details.FirstAirDate
	}

	record := &metadata.Record{
		ID:          id,
		Source:      component,
		Kind:        c.kind,
		DisplayName: name,
		Overview:    details.Overview,
		Rating:      metadata.NormalizeRating(details.VoteAverage),
		FirstAired:  aired,
	}
	if details.PosterPath != "" {
		record.PosterURL = imageBase + details.PosterPath
	}
	for _, genre := range details.Genres {
		if genre.Name != "" {
			record.Genres = append(record.Genres, genre.Name)
		}
	}
	if len(details.ProductionCompanies) > 0 {
		record.Studio = details.ProductionCompanies[0].Name
	}
	if len(details.Networks) > 0 {
		record.Network = details.Networks[0].Name
	}

	if logo, err := c.logo(ctx, segment, id); err != nil {
		c.logger.Debug("logo lookup failed", logging.String("id", id), logging.Error(err))
	} else {
		record.LogoURL = logo
	}

	return record, nil
}

func (c *Client) logo(ctx context.Context, segment, id string) (string, error) {
	cacheKey := fmt.Sprintf("tmdb_%s_%s_images", segment, id)
	var images imagesResponse
	if !c.cache.GetJSON(cacheKey, &images) {
		endpoint := fmt.Sprintf("%s/%s/%s/images?api_key=%s", c.baseURL, segment, url.PathEscape(id), url.QueryEscape(c.apiKey))
		if err := c.requester.GetJSON(ctx, component, endpoint, nil, &images); err != nil {
			return "", err
		}
		if err := c.cache.SetJSON(cacheKey, images); err != nil {
			c.logger.Debug("cache write failed", logging.String("key", cacheKey), logging.Error(err))
		}
	}

	entry := pickLogo(images.Logos)
	if entry == "" {
		return "", nil
	}
	return imageBase + entry, nil
}

// pickLogo selects the best logo: English entries first, PNG preferred over
// SVG, highest vote within a group, first entry as the final fallback.
func pickLogo(logos []imageEntry) string {
	best := ""
	bestScore := -1.0
	for _, logo := range logos {
		if logo.FilePath == "" || logo.Language != "en" {
			continue
		}
		score := logo.VoteAverage
		if strings.HasSuffix(logo.FilePath, ".png") {
			score += 10
		}
		if score > bestScore {
			best = logo.FilePath
			bestScore = score
		}
	}
	if best != "" {
		return best
	}
	for _, logo := range logos {
		if logo.FilePath != "" {
			return logo.FilePath
		}
	}
	return ""
}

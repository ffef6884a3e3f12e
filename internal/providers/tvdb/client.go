// Package tvdb implements the TheTVDB v4 provider client, the primary
// metadata source for series.
package tvdb

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"mpvscraper/internal/logging"
	"mpvscraper/internal/metadata"
	"mpvscraper/internal/providers"
	"mpvscraper/internal/respcache"
	"mpvscraper/internal/services"
	"mpvscraper/internal/textutil"
)

const (
	component     = "tvdb"
	tokenCacheKey = "tvdb_token_v4"
)

// Client talks to TheTVDB v4 API. Login exchanges the static API key for a
// short-lived bearer token, which is cached like any other response and
// refreshed on expiry under a mutex.
type Client struct {
	apiKey    string
	baseURL   string
	cache     *respcache.Cache
	requester *providers.Requester
	logger    *slog.Logger

	tokenMu sync.Mutex
}

var _ providers.Client = (*Client)(nil)

// New creates a TVDB client. An empty API key yields a client that fails
// fast with the unconfigured marker instead of attempting a network call.
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

type searchEnvelope struct {
	Data []struct {
		TVDBID   string `json:"tvdb_id"`
		Name     string `json:"name"`
		Year     string `json:"year"`
		Overview string `json:"overview"`
	} `json:"data"`
}

// Search queries the series index. An empty result is a valid outcome that
// drives the fallback chain, never an error.
func (c *Client) Search(ctx context.Context, query providers.Query) ([]metadata.Candidate, error) {
	if c.apiKey == "" {
		return nil, services.Wrap(services.ErrUnconfigured, component, "search", "api key missing", nil)
	}

	cacheKey := "tvdb_search_" + textutil.CacheToken(query.Title)
	var envelope searchEnvelope
	if !c.cache.GetJSON(cacheKey, &envelope) {
		endpoint := c.baseURL + "/search?" + url.Values{
			"query": {query.Title},
			"type":  {"series"},
		}.Encode()
		if err := c.authorizedGet(ctx, endpoint, &envelope); err != nil {
			return nil, err
		}
		if err := c.cache.SetJSON(cacheKey, envelope); err != nil {
			c.logger.Debug("cache write failed", logging.String("key", cacheKey), logging.Error(err))
		}
	}

	candidates := make([]metadata.Candidate, 0, len(envelope.Data))
	for _, hit := range envelope.Data {
		candidates = append(candidates, metadata.Candidate{
			ID:   hit.TVDBID,
			Name: hit.Name,
			Year: hit.Year,
		})
	}
	return candidates, nil
}

type seriesEnvelope struct {
	Data struct {
		ID         int64   `json:"id"`
		Name       string  `json:"name"`
		Overview   string  `json:"overview"`
		Image      string  `json:"image"`
		FirstAired string  `json:"firstAired"`
		Score      float64 `json:"score"`
		SiteRating float64 `json:"siteRating"`
		Genres     []struct {
			Name string `json:"name"`
		} `json:"genres"`
		OriginalNetwork struct {
			Name string `json:"name"`
		} `json:"originalNetwork"`
		Companies []struct {
			Name        string `json:"name"`
			CompanyType struct {
				Name string `json:"companyTypeName"`
			} `json:"companyType"`
		} `json:"companies"`
		Episodes []struct {
			SeasonNumber int    `json:"seasonNumber"`
			Number       int    `json:"number"`
			Name         string `json:"name"`
			Overview     string `json:"overview"`
			Aired        string `json:"aired"`
			Image        string `json:"image"`
		} `json:"episodes"`
	} `json:"data"`
}

type artworksEnvelope struct {
	Data struct {
		Artworks []struct {
			Image    string `json:"image"`
			Language string `json:"language"`
			Type     int64  `json:"type"`
		} `json:"artworks"`
	} `json:"data"`
}

// FetchDetails resolves a series id into a normalized record, merging the
// extended payload (episodes included) with the clearLogo artwork lookup.
func (c *Client) FetchDetails(ctx context.Context, id string) (*metadata.Record, error) {
	if c.apiKey == "" {
		return nil, services.Wrap(services.ErrUnconfigured, component, "details", "api key missing", nil)
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, services.Wrap(services.ErrValidation, component, "details", "series id required", nil)
	}

	cacheKey := "tvdb_series_" + id + "_extended"
	var envelope seriesEnvelope
	if !c.cache.GetJSON(cacheKey, &envelope) {
		endpoint := c.baseURL + "/series/" + url.PathEscape(id) + "/extended?meta=episodes&short=false"
		if err := c.authorizedGet(ctx, endpoint, &envelope); err != nil {
			return nil, err
		}
		if err := c.cache.SetJSON(cacheKey, envelope); err != nil {
			c.logger.Debug("cache write failed", logging.String("key", cacheKey), logging.Error(err))
		}
	}

	series := envelope.Data
	if series.ID == 0 && series.Name == "" {
		return nil, services.Wrap(services.ErrNotFound, component, "details", "series "+id+" has no data", nil)
	}

	record := &metadata.Record{
		ID:          id,
		TVDBID:      id,
		Source:      component,
		Kind:        metadata.KindTV,
		DisplayName: series.Name,
		Overview:    series.Overview,
		PosterURL:   series.Image,
		FirstAired:  series.FirstAired,
		Network:     series.OriginalNetwork.Name,
	}

	rating := series.SiteRating
	if rating == 0 {
		rating = series.Score
	}
	if rating > 10 {
		// The v4 score field is an unbounded popularity figure; only
		// siteRating maps onto the 0-10 scale.
		rating = 0
	}
	record.Rating = metadata.NormalizeRating(rating)

	for _, genre := range series.Genres {
		if name := strings.TrimSpace(genre.Name); name != "" {
			record.Genres = append(record.Genres, name)
		}
	}
	for _, company := range series.Companies {
		if strings.EqualFold(company.CompanyType.Name, "studio") && company.Name != "" {
			record.Studio = company.Name
			break
		}
	}
	for _, episode := range series.Episodes {
		record.Episodes = append(record.Episodes, metadata.Episode{
			Season:   episode.SeasonNumber,
			Number:   episode.Number,
			Name:     episode.Name,
			Overview: episode.Overview,
			AirDate:  episode.Aired,
			ImageURL: episode.Image,
		})
	}

	if logo, err := c.clearLogo(ctx, id); err != nil {
		c.logger.Debug("logo lookup failed", logging.String("series", id), logging.Error(err))
	} else {
		record.LogoURL = logo
	}

	return record, nil
}

// clearLogoType is TheTVDB's artwork type id for series clear logos.
const clearLogoType = 23

func (c *Client) clearLogo(ctx context.Context, id string) (string, error) {
	cacheKey := "tvdb_series_" + id + "_artworks"
	var envelope artworksEnvelope
	if !c.cache.GetJSON(cacheKey, &envelope) {
		endpoint := c.baseURL + "/series/" + url.PathEscape(id) + "/artworks?" + url.Values{
			"lang": {"eng"},
			"type": {strconv.Itoa(clearLogoType)},
		}.Encode()
		if err := c.authorizedGet(ctx, endpoint, &envelope); err != nil {
			return "", err
		}
		if err := c.cache.SetJSON(cacheKey, envelope); err != nil {
			c.logger.Debug("cache write failed", logging.String("key", cacheKey), logging.Error(err))
		}
	}

	for _, artwork := range envelope.Data.Artworks {
		if artwork.Type == clearLogoType && artwork.Image != "" {
			return artwork.Image, nil
		}
	}
	return "", nil
}

type loginEnvelope struct {
	Data struct {
		Token string `json:"token"`
	} `json:"data"`
}

// token returns a bearer token, logging in when the cached one has expired.
// The cache applies its normal TTL, which keeps the token comfortably inside
// TheTVDB's one-month validity window.
func (c *Client) token(ctx context.Context) (string, error) {
	c.tokenMu.Lock()
	defer c.tokenMu.Unlock()

	var cached loginEnvelope
	if c.cache.GetJSON(tokenCacheKey, &cached) && cached.Data.Token != "" {
		return cached.Data.Token, nil
	}

	var envelope loginEnvelope
	err := c.requester.PostJSON(ctx, component, c.baseURL+"/login", nil,
		map[string]string{"apikey": c.apiKey}, &envelope)
	if err != nil {
		return "", err
	}
	if envelope.Data.Token == "" {
		return "", services.Wrap(services.ErrUnconfigured, component, "login", "empty token in response", nil)
	}

	if err := c.cache.SetJSON(tokenCacheKey, envelope); err != nil {
		c.logger.Debug("token cache write failed", logging.Error(err))
	}
	c.logger.Debug("refreshed tvdb bearer token")
	return envelope.Data.Token, nil
}

func (c *Client) authorizedGet(ctx context.Context, endpoint string, out any) error {
	token, err := c.token(ctx)
	if err != nil {
		return err
	}
	header := http.Header{"Authorization": {fmt.Sprintf("Bearer %s", token)}}
	return c.requester.GetJSON(ctx, component, endpoint, header, out)
}

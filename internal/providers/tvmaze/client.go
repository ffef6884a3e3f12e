// Package tvmaze implements the TVmaze provider client. TVmaze needs no API
// key, which makes it the natural last resort in the series fallback chain
// and a reliable episode supplier.
package tvmaze

import (
	"context"
	"log/slog"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"mpvscraper/internal/logging"
	"mpvscraper/internal/metadata"
	"mpvscraper/internal/providers"
	"mpvscraper/internal/respcache"
	"mpvscraper/internal/services"
	"mpvscraper/internal/textutil"
)

const component = "tvmaze"

// Client talks to the TVmaze API.
type Client struct {
	baseURL   string
	cache     *respcache.Cache
	requester *providers.Requester
	logger    *slog.Logger
}

var _ providers.Client = (*Client)(nil)

// New creates a TVmaze client.
func New(baseURL string, cache *respcache.Cache, requester *providers.Requester, logger *slog.Logger) *Client {
	return &Client{
		baseURL:   strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		cache:     cache,
		requester: requester,
		logger:    logging.NewComponentLogger(logger, component),
	}
}

func (c *Client) Name() string { return component }

type show struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Premiered string `json:"premiered"`
	Summary   string `json:"summary"`
	Image     struct {
		Original string `json:"original"`
	} `json:"image"`
	Rating struct {
		Average float64 `json:"average"`
	} `json:"rating"`
	Network struct {
		Name string `json:"name"`
	} `json:"network"`
	Genres []string `json:"genres"`
}

type searchHit struct {
	Show show `json:"show"`
}

// Search queries the show index.
func (c *Client) Search(ctx context.Context, query providers.Query) ([]metadata.Candidate, error) {
	cacheKey := "tvmaze_search_" + textutil.CacheToken(query.Title)
	var hits []searchHit
	if !c.cache.GetJSON(cacheKey, &hits) {
		endpoint := c.baseURL + "/search/shows?" + url.Values{"q": {query.Title}}.Encode()
		if err := c.requester.GetJSON(ctx, component, endpoint, nil, &hits); err != nil {
			return nil, err
		}
		if err := c.cache.SetJSON(cacheKey, hits); err != nil {
			c.logger.Debug("cache write failed", logging.String("key", cacheKey), logging.Error(err))
		}
	}

	candidates := make([]metadata.Candidate, 0, len(hits))
	for _, hit := range hits {
		year := ""
		if len(hit.Show.Premiered) >= 4 {
			year = hit.Show.Premiered[:4]
		}
		candidates = append(candidates, metadata.Candidate{
			ID:   strconv.FormatInt(hit.Show.ID, 10),
			Name: hit.Show.Name,
			Year: year,
		})
	}
	return candidates, nil
}

type episode struct {
	Season  int    `json:"season"`
	Number  int    `json:"number"`
	Name    string `json:"name"`
	Summary string `json:"summary"`
	Airdate string `json:"airdate"`
	Image   struct {
		Original string `json:"original"`
	} `json:"image"`
}

// FetchDetails resolves a show id into a normalized record with the full
// episode list. Summaries arrive as HTML fragments and are stripped to text.
func (c *Client) FetchDetails(ctx context.Context, id string) (*metadata.Record, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, services.Wrap(services.ErrValidation, component, "details", "show id required", nil)
	}

	cacheKey := "tvmaze_show_" + id
	var showData show
	if !c.cache.GetJSON(cacheKey, &showData) {
		endpoint := c.baseURL + "/shows/" + url.PathEscape(id)
		if err := c.requester.GetJSON(ctx, component, endpoint, nil, &showData); err != nil {
			return nil, err
		}
		if err := c.cache.SetJSON(cacheKey, showData); err != nil {
			c.logger.Debug("cache write failed", logging.String("key", cacheKey), logging.Error(err))
		}
	}
	if showData.ID == 0 && showData.Name == "" {
		return nil, services.Wrap(services.ErrNotFound, component, "details", "show "+id+" has no data", nil)
	}

	record := &metadata.Record{
		ID:          id,
		Source:      component,
		Kind:        metadata.KindTV,
		DisplayName: showData.Name,
		Overview:    stripHTML(showData.Summary),
		PosterURL:   showData.Image.Original,
		Rating:      metadata.NormalizeRating(showData.Rating.Average),
		Network:     showData.Network.Name,
		Genres:      showData.Genres,
		FirstAired:  showData.Premiered,
	}

	episodes, err := c.episodes(ctx, id)
	if err != nil {
		c.logger.Debug("episode lookup failed", logging.String("show", id), logging.Error(err))
	} else {
		record.Episodes = episodes
	}

	return record, nil
}

func (c *Client) episodes(ctx context.Context, id string) ([]metadata.Episode, error) {
	cacheKey := "tvmaze_show_" + id + "_episodes"
	var list []episode
	if !c.cache.GetJSON(cacheKey, &list) {
		endpoint := c.baseURL + "/shows/" + url.PathEscape(id) + "/episodes"
		if err := c.requester.GetJSON(ctx, component, endpoint, nil, &list); err != nil {
			return nil, err
		}
		if err := c.cache.SetJSON(cacheKey, list); err != nil {
			c.logger.Debug("cache write failed", logging.String("key", cacheKey), logging.Error(err))
		}
	}

	episodes := make([]metadata.Episode, 0, len(list))
	for _, ep := range list {
		episodes = append(episodes, metadata.Episode{
			Season:   ep.Season,
			Number:   ep.Number,
			Name:     ep.Name,
			Overview: stripHTML(ep.Summary),
			AirDate:  ep.Airdate,
			ImageURL: ep.Image.Original,
		})
	}
	return episodes, nil
}

var htmlTags = regexp.MustCompile(`<[^>]+>`)

func stripHTML(value string) string {
	return strings.TrimSpace(htmlTags.ReplaceAllString(value, ""))
}

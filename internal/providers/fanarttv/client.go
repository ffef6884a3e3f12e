// Package fanarttv implements the fanart.tv logo source. It is not a full
// metadata provider; the fallback engine consults it only during the merge
// step, when a selected record lacks a logo and a TVDB id is known.
package fanarttv

import (
	"context"
	"log/slog"
	"net/url"
	"strings"

	"mpvscraper/internal/logging"
	"mpvscraper/internal/providers"
	"mpvscraper/internal/respcache"
	"mpvscraper/internal/services"
)

const component = "fanarttv"

// Client fetches series clear logos from fanart.tv, keyed by TVDB ids.
type Client struct {
	apiKey    string
	baseURL   string
	cache     *respcache.Cache
	requester *providers.Requester
	logger    *slog.Logger
}

// New creates a fanart.tv client.
func New(apiKey, baseURL string, cache *respcache.Cache, requester *providers.Requester, logger *slog.Logger) *Client {
	return &Client{
		apiKey:    strings.TrimSpace(apiKey),
		baseURL:   strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		cache:     cache,
		requester: requester,
		logger:    logging.NewComponentLogger(logger, component),
	}
}

type artwork struct {
	URL  string `json:"url"`
	Lang string `json:"lang"`
}

type seriesArt struct {
	HDTVLogo  []artwork `json:"hdtvlogo"`
	ClearLogo []artwork `json:"clearlogo"`
}

// SeriesLogo returns the best English clear logo URL for the TVDB series id,
// or an empty string when fanart.tv has none.
func (c *Client) SeriesLogo(ctx context.Context, tvdbID string) (string, error) {
	if c.apiKey == "" {
		return "", services.Wrap(services.ErrUnconfigured, component, "logo", "api key missing", nil)
	}
	tvdbID = strings.TrimSpace(tvdbID)
	if tvdbID == "" {
		return "", services.Wrap(services.ErrValidation, component, "logo", "tvdb id required", nil)
	}

	cacheKey := "fanarttv_tv_" + tvdbID
	var art seriesArt
	if !c.cache.GetJSON(cacheKey, &art) {
		endpoint := c.baseURL + "/tv/" + url.PathEscape(tvdbID) + "?" + url.Values{"api_key": {c.apiKey}}.Encode()
		if err := c.requester.GetJSON(ctx, component, endpoint, nil, &art); err != nil {
			return "", err
		}
		if err := c.cache.SetJSON(cacheKey, art); err != nil {
			c.logger.Debug("cache write failed", logging.String("key", cacheKey), logging.Error(err))
		}
	}

	return pickLogo(art.HDTVLogo, art.ClearLogo), nil
}

// pickLogo prefers English entries across both logo groups, then any entry.
func pickLogo(groups ...[]artwork) string {
	for _, group := range groups {
		for _, entry := range group {
			if entry.URL != "" && strings.EqualFold(entry.Lang, "en") {
				return entry.URL
			}
		}
	}
	for _, group := range groups {
		for _, entry := range group {
			if entry.URL != "" {
				return entry.URL
			}
		}
	}
	return ""
}

// Package fallback implements the cross-provider decision engine. Providers
// are tried strictly in priority order; each step's decision depends on the
// previous one, so the chain is never parallelized.
package fallback

import (
	"context"
	"errors"
	"log/slog"

	"mpvscraper/internal/logging"
	"mpvscraper/internal/metadata"
	"mpvscraper/internal/providers"
	"mpvscraper/internal/services"
)

// LogoSource supplies supplementary logo artwork during the merge step.
// It is consulted only when the selected record lacks a logo and carries a
// TVDB id.
type LogoSource interface {
	SeriesLogo(ctx context.Context, tvdbID string) (string, error)
}

// Engine resolves one lookup against an ordered provider chain.
type Engine struct {
	chain  []providers.Client
	logos  LogoSource
	logger *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogoSource attaches a supplementary logo provider for the merge step.
func WithLogoSource(source LogoSource) Option {
	return func(e *Engine) { e.logos = source }
}

// New builds an engine over the given provider priority order.
func New(chain []providers.Client, logger *slog.Logger, opts ...Option) *Engine {
	e := &Engine{
		chain:  chain,
		logger: logging.NewComponentLogger(logger, "fallback"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Resolve walks the chain until a record passes the quality predicate. When
// every provider's answer is poor, the first non-empty record is selected
// and supplementary fields (logo, studio) are merged in from later
// providers before resolving as a degraded result. When every provider is
// empty, the lookup is exhausted — a soft outcome the caller logs and
// continues past, never a crash.
func (e *Engine) Resolve(ctx context.Context, query providers.Query) (*metadata.Record, error) {
	var partials []*metadata.Record

	for _, client := range e.chain {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		record, err := e.tryProvider(ctx, client, query)
		if err != nil {
			// A failing provider counts as empty; the chain continues.
			level := slog.LevelWarn
			if services.Soft(err) || errors.Is(err, services.ErrUnconfigured) {
				level = slog.LevelDebug
			}
			e.logger.Log(ctx, level, "provider step failed",
				logging.String("provider", client.Name()),
				logging.String("title", query.Title),
				logging.Error(err))
			continue
		}
		if record.Empty() {
			continue
		}

		if !Poor(record, query.Kind) {
			e.logger.Debug("resolved",
				logging.String("provider", client.Name()),
				logging.String("title", query.Title))
			return record, nil
		}
		partials = append(partials, record)
	}

	if len(partials) == 0 {
		return nil, services.Wrap(services.ErrExhausted, "fallback", "resolve", "no provider produced data for "+query.Title, nil)
	}

	return e.merge(ctx, partials), nil
}

func (e *Engine) tryProvider(ctx context.Context, client providers.Client, query providers.Query) (*metadata.Record, error) {
	candidates, err := client.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, services.Wrap(services.ErrNotFound, client.Name(), "search", "no candidates for "+query.Title, nil)
	}
	// First search hit wins; disambiguation is an outer concern.
	return client.FetchDetails(ctx, candidates[0].ID)
}

// merge selects the first (highest-priority) partial and fills its missing
// supplementary fields from later providers, marking the result as merged.
func (e *Engine) merge(ctx context.Context, partials []*metadata.Record) *metadata.Record {
	selected := partials[0]
	for _, later := range partials[1:] {
		if selected.LogoURL == "" && later.LogoURL != "" {
			selected.LogoURL = later.LogoURL
			selected.Merged = true
		}
		if selected.Studio == "" && later.Studio != "" {
			selected.Studio = later.Studio
			selected.Merged = true
		}
	}

	if selected.LogoURL == "" && selected.TVDBID != "" && e.logos != nil {
		logo, err := e.logos.SeriesLogo(ctx, selected.TVDBID)
		switch {
		case err != nil:
			e.logger.Debug("supplementary logo lookup failed",
				logging.String("tvdb_id", selected.TVDBID),
				logging.Error(err))
		case logo != "":
			selected.LogoURL = logo
			selected.Merged = true
		}
	}

	selected.Merged = true
	e.logger.Debug("resolved degraded record",
		logging.String("provider", selected.Source),
		logging.String("title", selected.DisplayName))
	return selected
}

// Poor applies the quality predicate: a record is poor when ANY required
// field is missing. Series require poster, logo, a non-empty episode list,
// and an overview; movies require poster and overview.
func Poor(record *metadata.Record, kind metadata.Kind) bool {
	if record.Empty() {
		return true
	}
	if kind == metadata.KindTV {
		return record.PosterURL == "" ||
			record.LogoURL == "" ||
			len(record.Episodes) == 0 ||
			record.Overview == ""
	}
	return record.PosterURL == "" || record.Overview == ""
}

// Package metadata defines the canonical partial-record shape every provider
// client normalizes into. Different providers populate different subsets of
// fields; absence of a field is meaningful and drives the fallback chain
// rather than being an error.
package metadata

import (
	"math"
	"strings"
)

// Kind distinguishes the two media types the library holds.
type Kind string

const (
	KindTV    Kind = "tv"
	KindMovie Kind = "movie"
)

// Candidate is a single provider search hit. The first hit wins;
// disambiguation is not this pipeline's concern.
type Candidate struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Year string `json:"year,omitempty"`
}

// Episode holds per-episode detail for series records.
type Episode struct {
	Season   int    `json:"season"`
	Number   int    `json:"number"`
	Name     string `json:"name,omitempty"`
	Overview string `json:"overview,omitempty"`
	AirDate  string `json:"air_date,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
}

// Record is the best-effort union of provider metadata for one show or
// movie. Built by a provider client; the fallback engine may merge the logo
// and studio from a later provider once, after which it is immutable.
type Record struct {
	ID          string    `json:"id"`
	Source      string    `json:"source"`
	Kind        Kind      `json:"kind"`
	DisplayName string    `json:"display_name"`
	Overview    string    `json:"overview,omitempty"`
	PosterURL   string    `json:"poster_url,omitempty"`
	LogoURL     string    `json:"logo_url,omitempty"`
	Rating      float64   `json:"rating"`
	Episodes    []Episode `json:"episodes,omitempty"`
	Genres      []string  `json:"genres,omitempty"`
	Network     string    `json:"network,omitempty"`
	Studio      string    `json:"studio,omitempty"`
	FirstAired  string    `json:"first_aired,omitempty"`
	// TVDBID carries the numeric TVDB identifier when known, so logo
	// lookups against fanart.tv can reuse it.
	TVDBID string `json:"tvdb_id,omitempty"`
	// Merged marks a degraded record assembled from more than one provider.
	Merged bool `json:"merged,omitempty"`
}

// Empty reports whether the record carries no usable metadata at all.
func (r *Record) Empty() bool {
	if r == nil {
		return true
	}
	return strings.TrimSpace(r.DisplayName) == "" &&
		strings.TrimSpace(r.Overview) == "" &&
		strings.TrimSpace(r.PosterURL) == "" &&
		len(r.Episodes) == 0
}

// NormalizeRating converts a provider's 0–10 score to the 0–1 scale the
// gamelist format expects, clamped and rounded to two decimals.
func NormalizeRating(score float64) float64 {
	normalized := score / 10
	if normalized < 0 {
		normalized = 0
	}
	if normalized > 1 {
		normalized = 1
	}
	return math.Round(normalized*100) / 100
}

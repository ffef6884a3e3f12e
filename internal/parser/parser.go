// Package parser extracts show, season, and episode information from media
// filenames laid out in the "Show - S01E01[-E02] - Title.ext" convention,
// and movie titles from "Title (Year)" names.
package parser

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// EpisodeInfo is the parsed form of one episode filename. An anthology file
// spanning two episodes carries both numbers in Start/End; a single episode
// has Start == End.
type EpisodeInfo struct {
	Show   string
	Season int
	Start  int
	End    int
	Titles []string
}

// Span reports whether the file covers more than one episode.
func (e EpisodeInfo) Span() bool { return e.End > e.Start }

// MovieInfo is the parsed form of one movie filename.
type MovieInfo struct {
	Title string
	Year  int
}

var (
	episodePattern = regexp.MustCompile(`(?i)^(.*?)\s*-\s*S(\d{1,2})E(\d{1,3})(?:-E(\d{1,3}))?(?:\s*-\s*(.+?))?$`)
	moviePattern   = regexp.MustCompile(`^(.*?)\s*\((\d{4})\)`)
	seasonEpisode  = regexp.MustCompile(`(?i)S\d{1,2}E\d{1,3}`)
)

// qualityTags are release markers stripped from movie titles.
var qualityTags = []string{
	"1080p", "720p", "2160p", "4k", "bluray", "blu-ray", "brrip", "webrip",
	"web-dl", "webdl", "hdtv", "dvdrip", "x264", "x265", "h264", "h265",
	"hevc", "remux", "proper", "repack",
}

// ParseEpisode parses a "Show - S01E01[-E02] - Title" filename. Titles
// joined with " & " or " – " split into one title per spanned episode.
// Returns false for names that do not follow the convention.
func ParseEpisode(filename string) (EpisodeInfo, bool) {
	base := stripExtension(filename)

	match := episodePattern.FindStringSubmatch(base)
	if match == nil {
		return EpisodeInfo{}, false
	}

	season, err := strconv.Atoi(match[2])
	if err != nil {
		return EpisodeInfo{}, false
	}
	start, err := strconv.Atoi(match[3])
	if err != nil {
		return EpisodeInfo{}, false
	}
	end := start
	if match[4] != "" {
		if parsed, err := strconv.Atoi(match[4]); err == nil && parsed > start {
			end = parsed
		}
	}

	info := EpisodeInfo{
		Show:   strings.TrimSpace(match[1]),
		Season: season,
		Start:  start,
		End:    end,
	}
	if info.Show == "" {
		return EpisodeInfo{}, false
	}

	if title := strings.TrimSpace(match[5]); title != "" {
		info.Titles = splitTitles(title)
	}
	return info, true
}

// ParseMovie parses a "Title (Year)" movie filename, stripping quality tags
// trailing the year. Episode-style names are rejected so a misfiled episode
// never becomes a movie lookup.
func ParseMovie(filename string) (MovieInfo, bool) {
	base := stripExtension(filename)

	if seasonEpisode.MatchString(base) {
		return MovieInfo{}, false
	}

	if match := moviePattern.FindStringSubmatch(base); match != nil {
		year, err := strconv.Atoi(match[2])
		if err != nil {
			return MovieInfo{}, false
		}
		title := strings.TrimSpace(match[1])
		if title == "" {
			return MovieInfo{}, false
		}
		return MovieInfo{Title: title, Year: year}, true
	}

	// No year in the name: take everything up to the first quality tag.
	title := stripQualityTags(base)
	if title == "" {
		return MovieInfo{}, false
	}
	return MovieInfo{Title: title}, true
}

func stripExtension(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// splitTitles breaks an anthology title into per-episode titles on " & "
// and en-dash separators.
func splitTitles(title string) []string {
	separators := []string{" & ", " – "}
	parts := []string{title}
	for _, sep := range separators {
		var next []string
		for _, part := range parts {
			for _, piece := range strings.Split(part, sep) {
				if piece = strings.TrimSpace(piece); piece != "" {
					next = append(next, piece)
				}
			}
		}
		parts = next
	}
	return parts
}

func stripQualityTags(base string) string {
	cleaned := strings.NewReplacer(".", " ", "_", " ").Replace(base)
	words := strings.Fields(cleaned)
	var kept []string
	for _, word := range words {
		if isQualityTag(word) {
			break
		}
		kept = append(kept, word)
	}
	return strings.Join(kept, " ")
}

func isQualityTag(word string) bool {
	lowered := strings.ToLower(strings.Trim(word, "[]()"))
	for _, tag := range qualityTags {
		if lowered == tag {
			return true
		}
	}
	return false
}

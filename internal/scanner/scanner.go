// Package scanner walks the library root one level deep, producing the show
// folders and movie files the scrape pipeline operates on.
package scanner

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// MoviesDirName is the special top-level folder holding movie files instead
// of a show's episodes.
const MoviesDirName = "Movies"

// videoExtensions is the set of file extensions treated as playable media.
var videoExtensions = map[string]struct{}{
	".mp4": {}, ".mkv": {}, ".avi": {}, ".mov": {},
	".wmv": {}, ".flv": {}, ".webm": {}, ".m4v": {},
}

// Show is one series folder containing at least one video file.
type Show struct {
	Name  string
	Path  string
	Files []string
}

// Movie is one video file under the Movies folder.
type Movie struct {
	Path string
}

// Result is the library inventory one scan produces.
type Result struct {
	Root      string
	Shows     []Show
	MoviesDir string
	Movies    []Movie
}

// IsVideo reports whether path carries a recognized video extension.
func IsVideo(path string) bool {
	_, ok := videoExtensions[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Scan inventories root: every visible first-level directory except Movies/
// becomes a show when it holds at least one video file; video files under
// Movies/ become movies. Hidden entries are skipped throughout.
func Scan(root string) (Result, error) {
	result := Result{Root: root}

	entries, err := os.ReadDir(root)
	if err != nil {
		return Result{}, fmt.Errorf("read library root: %w", err)
	}

	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") || !entry.IsDir() {
			continue
		}

		path := filepath.Join(root, name)
		if name == MoviesDirName {
			result.MoviesDir = path
			movies, err := scanMovies(path)
			if err != nil {
				return Result{}, err
			}
			result.Movies = movies
			continue
		}

		files, err := videoFiles(path)
		if err != nil {
			return Result{}, err
		}
		if len(files) == 0 {
			continue
		}
		result.Shows = append(result.Shows, Show{Name: name, Path: path, Files: files})
	}

	sort.Slice(result.Shows, func(i, j int) bool { return result.Shows[i].Name < result.Shows[j].Name })
	return result, nil
}

func scanMovies(dir string) ([]Movie, error) {
	files, err := videoFiles(dir)
	if err != nil {
		return nil, err
	}
	movies := make([]Movie, 0, len(files))
	for _, file := range files {
		movies = append(movies, Movie{Path: file})
	}
	return movies, nil
}

func videoFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read directory %s: %w", dir, err)
	}

	var files []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") || entry.IsDir() || !IsVideo(name) {
			continue
		}
		files = append(files, filepath.Join(dir, name))
	}
	sort.Strings(files)
	return files, nil
}

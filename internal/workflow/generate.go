package workflow

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"mpvscraper/internal/fileutil"
	"mpvscraper/internal/gamelist"
	"mpvscraper/internal/metadata"
	"mpvscraper/internal/parser"
	"mpvscraper/internal/scanner"
	"mpvscraper/internal/txlog"
)

// Generate writes the top-level and per-directory gamelist.xml files from
// the snapshots a previous scrape left behind. Directories without a
// snapshot still get entries built from filenames alone.
func (w *Workflow) Generate(ctx context.Context) error {
	lock, err := w.lock()
	if err != nil {
		return err
	}
	defer lock.Unlock()

	txn, err := txlog.Open(w.cfg.TransactionLogPath(), w.logger)
	if err != nil {
		return err
	}
	defer txn.Close()

	return w.generateLocked(ctx, txn)
}

func (w *Workflow) generateLocked(ctx context.Context, txn *txlog.Logger) error {
	library, err := scanner.Scan(w.cfg.Paths.MediaDir)
	if err != nil {
		return err
	}

	var folders []gamelist.Folder
	for _, show := range library.Shows {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := w.generateShow(txn, show); err != nil {
			return err
		}
		folder := gamelist.Folder{Path: show.Name, Name: show.Name}
		if fileutil.NonEmptyFile(filepath.Join(show.Path, imagesDirName, "poster.png")) {
			folder.Image = filepath.Join(show.Name, imagesDirName, "poster.png")
		}
		if record, _ := gamelist.LoadSnapshot(show.Path); record != nil && record.DisplayName != "" {
			folder.Name = record.DisplayName
		}
		folders = append(folders, folder)
	}

	if library.MoviesDir != "" && len(library.Movies) > 0 {
		if err := w.generateMovies(txn, library.MoviesDir, library.Movies); err != nil {
			return err
		}
		folders = append(folders, gamelist.Folder{
			Path: scanner.MoviesDirName,
			Name: scanner.MoviesDirName,
		})
	}

	dest := filepath.Join(library.Root, "gamelist.xml")
	if err := w.journalWrite(txn, dest); err != nil {
		return err
	}
	if err := gamelist.WriteTop(folders, dest); err != nil {
		return err
	}
	w.logger.Info("gamelists generated", "shows", len(library.Shows), "movies", len(library.Movies))
	return nil
}

func (w *Workflow) generateShow(txn *txlog.Logger, show scanner.Show) error {
	record, err := gamelist.LoadSnapshot(show.Path)
	if err != nil {
		return err
	}

	episodes := map[string]metadata.Episode{}
	rating := ""
	var genre, developer, publisher string
	if record != nil {
		for _, ep := range record.Episodes {
			episodes[episodeKey(ep.Season, ep.Number)] = ep
		}
		if record.Rating > 0 {
			if rating, err = gamelist.FormatRating(record.Rating); err != nil {
				w.logger.Warn("dropping out-of-range rating", "show", show.Name, "error", err)
				rating = ""
			}
		}
		genre = strings.Join(record.Genres, ", ")
		developer = record.Network
		publisher = record.Studio
	}

	logoRel := ""
	if fileutil.NonEmptyFile(filepath.Join(show.Path, imagesDirName, "logo.png")) {
		logoRel = filepath.Join(imagesDirName, "logo.png")
	}

	var games []gamelist.Game
	for _, file := range show.Files {
		base := filepath.Base(file)
		info, ok := parser.ParseEpisode(base)
		if !ok {
			continue
		}
		game := gamelist.Game{
			Path:      base,
			Name:      displayEpisodeName(info, episodes),
			Rating:    rating,
			Marquee:   logoRel,
			Genre:     genre,
			Developer: developer,
			Publisher: publisher,
		}
		if ep, ok := episodes[episodeKey(info.Season, info.Start)]; ok {
			if ep.Overview != "" {
				game.Desc = ep.Overview
			}
			if ep.AirDate != "" {
				game.ReleaseDate = releaseDate(ep.AirDate)
			}
		}
		imageRel := filepath.Join(imagesDirName, episodeKey(info.Season, info.Start)+".png")
		if fileutil.NonEmptyFile(filepath.Join(show.Path, imageRel)) {
			game.Image = imageRel
		}
		games = append(games, game)
	}

	dest := filepath.Join(show.Path, "gamelist.xml")
	if err := w.journalWrite(txn, dest); err != nil {
		return err
	}
	return gamelist.WriteShow(games, dest)
}

func (w *Workflow) generateMovies(txn *txlog.Logger, moviesDir string, movies []scanner.Movie) error {
	index, err := gamelist.LoadIndex(moviesDir)
	if err != nil {
		return err
	}

	var games []gamelist.Game
	for _, movie := range movies {
		base := filepath.Base(movie.Path)
		info, ok := parser.ParseMovie(base)
		if !ok {
			continue
		}
		game := gamelist.Game{
			Path: base,
			Name: fmt.Sprintf("%s (%d)", info.Title, info.Year),
		}
		if record := index[base]; record != nil {
			if record.DisplayName != "" {
				game.Name = record.DisplayName
			}
			game.Desc = record.Overview
			game.Genre = strings.Join(record.Genres, ", ")
			game.Publisher = record.Studio
			if record.Rating > 0 {
				if rating, err := gamelist.FormatRating(record.Rating); err == nil {
					game.Rating = rating
				}
			}
			if record.FirstAired != "" {
				game.ReleaseDate = releaseDate(record.FirstAired)
			}
		}
		imageRel := filepath.Join(imagesDirName, sanitizedPoster(info.Title))
		if fileutil.NonEmptyFile(filepath.Join(moviesDir, imageRel)) {
			game.Image = imageRel
		}
		games = append(games, game)
	}

	dest := filepath.Join(moviesDir, "gamelist.xml")
	if err := w.journalWrite(txn, dest); err != nil {
		return err
	}
	return gamelist.WriteShow(games, dest)
}

// displayEpisodeName prefers provider episode titles, falling back to the
// titles parsed from the filename, then to the bare episode key.
func displayEpisodeName(info parser.EpisodeInfo, episodes map[string]metadata.Episode) string {
	var names []string
	end := info.Start
	if info.Span() {
		end = info.End
	}
	for number := info.Start; number <= end; number++ {
		if ep, ok := episodes[episodeKey(info.Season, number)]; ok && ep.Name != "" {
			names = append(names, ep.Name)
		}
	}
	if len(names) == 0 && len(info.Titles) > 0 {
		names = info.Titles
	}
	if len(names) == 0 {
		return episodeKey(info.Season, info.Start)
	}
	return strings.Join(names, " & ")
}

// releaseDate converts a provider YYYY-MM-DD date into the gamelist
// timestamp form. Unrecognized input is dropped.
func releaseDate(airDate string) string {
	cleaned := strings.ReplaceAll(strings.TrimSpace(airDate), "-", "")
	if len(cleaned) != 8 {
		return ""
	}
	return cleaned + "T000000"
}

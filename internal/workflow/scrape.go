package workflow

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"mpvscraper/internal/artwork"
	"mpvscraper/internal/download"
	"mpvscraper/internal/fileutil"
	"mpvscraper/internal/gamelist"
	"mpvscraper/internal/metadata"
	"mpvscraper/internal/parser"
	"mpvscraper/internal/providers"
	"mpvscraper/internal/scanner"
	"mpvscraper/internal/services"
	"mpvscraper/internal/textutil"
	"mpvscraper/internal/txlog"
)

const imagesDirName = "images"

// Scan inventories the library without mutating anything.
func (w *Workflow) Scan(ctx context.Context) (scanner.Result, error) {
	if err := ctx.Err(); err != nil {
		return scanner.Result{}, err
	}
	return scanner.Scan(w.cfg.Paths.MediaDir)
}

// ScrapeAll resolves metadata and artwork for every show and movie in the
// library. Soft per-unit failures are counted, not propagated.
func (w *Workflow) ScrapeAll(ctx context.Context, opts RunOptions) (Summary, error) {
	lock, err := w.lock()
	if err != nil {
		return Summary{}, err
	}
	defer lock.Unlock()

	txn, err := txlog.Open(w.cfg.TransactionLogPath(), w.logger)
	if err != nil {
		return Summary{}, err
	}
	defer txn.Close()

	return w.scrapeAllLocked(ctx, txn, opts)
}

func (w *Workflow) scrapeAllLocked(ctx context.Context, txn *txlog.Logger, opts RunOptions) (Summary, error) {
	library, err := scanner.Scan(w.cfg.Paths.MediaDir)
	if err != nil {
		return Summary{}, err
	}

	mgr := w.newManager()
	var summary Summary
	for _, show := range library.Shows {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		unit, err := w.queueShow(ctx, txn, mgr, show, opts)
		if err != nil {
			return summary, err
		}
		summary = summary.add(unit)
		w.progress(opts, fmt.Sprintf("show %s", show.Name))
	}

	if library.MoviesDir != "" && len(library.Movies) > 0 {
		unit, err := w.queueMovies(ctx, txn, mgr, library.MoviesDir, library.Movies, opts)
		if err != nil {
			return summary, err
		}
		summary = summary.add(unit)
		w.progress(opts, "movies")
	}

	results, err := mgr.ExecuteAll(ctx)
	w.writePlaceholders(results)
	return summary, err
}

// ScrapeShow scrapes a single show directory by name, with fuzzy matching
// against the library when the exact name is absent.
func (w *Workflow) ScrapeShow(ctx context.Context, name string, opts RunOptions) (Summary, error) {
	lock, err := w.lock()
	if err != nil {
		return Summary{}, err
	}
	defer lock.Unlock()

	library, err := scanner.Scan(w.cfg.Paths.MediaDir)
	if err != nil {
		return Summary{}, err
	}
	show, err := findShow(library.Shows, name)
	if err != nil {
		return Summary{}, err
	}

	txn, err := txlog.Open(w.cfg.TransactionLogPath(), w.logger)
	if err != nil {
		return Summary{}, err
	}
	defer txn.Close()

	mgr := w.newManager()
	summary, err := w.queueShow(ctx, txn, mgr, show, opts)
	if err != nil {
		return summary, err
	}
	results, err := mgr.ExecuteAll(ctx)
	w.writePlaceholders(results)
	return summary, err
}

// ScrapeMovie scrapes a single movie file by name under the Movies folder.
func (w *Workflow) ScrapeMovie(ctx context.Context, name string, opts RunOptions) (Summary, error) {
	lock, err := w.lock()
	if err != nil {
		return Summary{}, err
	}
	defer lock.Unlock()

	library, err := scanner.Scan(w.cfg.Paths.MediaDir)
	if err != nil {
		return Summary{}, err
	}
	movie, err := findMovie(library.Movies, name)
	if err != nil {
		return Summary{}, err
	}

	txn, err := txlog.Open(w.cfg.TransactionLogPath(), w.logger)
	if err != nil {
		return Summary{}, err
	}
	defer txn.Close()

	mgr := w.newManager()
	summary, err := w.queueMovies(ctx, txn, mgr, library.MoviesDir, []scanner.Movie{movie}, opts)
	if err != nil {
		return summary, err
	}
	results, err := mgr.ExecuteAll(ctx)
	w.writePlaceholders(results)
	return summary, err
}

// queueShow resolves one show and queues its artwork tasks. Only context
// cancellation and journal failures propagate; lookup failures degrade.
func (w *Workflow) queueShow(ctx context.Context, txn *txlog.Logger, mgr *download.Manager, show scanner.Show, opts RunOptions) (Summary, error) {
	imagesDir := filepath.Join(show.Path, imagesDirName)
	posterDest := filepath.Join(imagesDir, "poster.png")
	logoDest := filepath.Join(imagesDir, "logo.png")

	if !opts.Refresh && gamelist.SnapshotExists(show.Path) && fileutil.NonEmptyFile(posterDest) {
		w.logger.Debug("show already scraped", "show", show.Name)
		return Summary{Skipped: 1}, nil
	}

	record, err := w.tv.Resolve(ctx, providers.Query{Title: show.Name, Kind: metadata.KindTV})
	if err != nil {
		if ctx.Err() != nil {
			return Summary{}, ctx.Err()
		}
		w.logger.Warn("show lookup failed", "show", show.Name, "error", err)
		// Placeholders keep the gamelist presentable even with no metadata.
		if err := w.placeholder(txn, posterDest, placeholderPosterWidth, placeholderPosterHeight); err != nil {
			return Summary{}, err
		}
		if err := w.placeholder(txn, logoDest, placeholderLogoWidth, placeholderLogoHeight); err != nil {
			return Summary{}, err
		}
		return Summary{Failed: 1}, nil
	}

	if err := w.queueTask(txn, mgr, download.Task{
		URL:           record.PosterURL,
		Dest:          posterDest,
		Kind:          download.KindPoster,
		Label:         show.Name + " poster",
		SkipIfPresent: !opts.Refresh,
	}, opts); err != nil {
		return Summary{}, err
	}
	if err := w.queueTask(txn, mgr, download.Task{
		URL:           record.LogoURL,
		Dest:          logoDest,
		Kind:          download.KindLogo,
		Label:         show.Name + " logo",
		SkipIfPresent: !opts.Refresh,
	}, opts); err != nil {
		return Summary{}, err
	}

	sources := episodeVideoSources(show.Files)
	for _, ep := range record.Episodes {
		if ep.Season <= 0 || ep.Number <= 0 {
			continue
		}
		key := episodeKey(ep.Season, ep.Number)
		dest := filepath.Join(imagesDir, key+".png")
		task := download.Task{
			URL:           ep.ImageURL,
			Dest:          dest,
			Kind:          download.KindScreenshot,
			Label:         fmt.Sprintf("%s %s", show.Name, key),
			SkipIfPresent: !opts.Refresh,
		}
		if task.URL == "" {
			source, ok := sources[key]
			if !ok {
				continue
			}
			task.VideoSource = source
		}
		if err := w.queueTask(txn, mgr, task, opts); err != nil {
			return Summary{}, err
		}
	}

	if err := w.journalWrite(txn, filepath.Join(show.Path, gamelist.SnapshotName)); err != nil {
		return Summary{}, err
	}
	if err := gamelist.SaveSnapshot(show.Path, record); err != nil {
		return Summary{}, err
	}

	summary := Summary{Scraped: 1}
	if record.Merged {
		summary.Degraded = 1
	}
	return summary, nil
}

// queueMovies resolves each movie and queues poster tasks, maintaining the
// per-directory record index.
func (w *Workflow) queueMovies(ctx context.Context, txn *txlog.Logger, mgr *download.Manager, moviesDir string, movies []scanner.Movie, opts RunOptions) (Summary, error) {
	imagesDir := filepath.Join(moviesDir, imagesDirName)
	index, err := gamelist.LoadIndex(moviesDir)
	if err != nil {
		return Summary{}, err
	}

	var summary Summary
	changed := false
	for _, movie := range movies {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		base := filepath.Base(movie.Path)
		info, ok := parser.ParseMovie(base)
		if !ok {
			w.logger.Warn("unparseable movie filename", "file", base)
			summary.Failed++
			continue
		}
		posterDest := filepath.Join(imagesDir, sanitizedPoster(info.Title))

		if !opts.Refresh && index[base] != nil && fileutil.NonEmptyFile(posterDest) {
			summary.Skipped++
			continue
		}

		record, err := w.movie.Resolve(ctx, providers.Query{Title: info.Title, Year: info.Year, Kind: metadata.KindMovie})
		if err != nil {
			if ctx.Err() != nil {
				return summary, ctx.Err()
			}
			w.logger.Warn("movie lookup failed", "file", base, "error", err)
			if err := w.placeholder(txn, posterDest, placeholderPosterWidth, placeholderPosterHeight); err != nil {
				return summary, err
			}
			summary.Failed++
			continue
		}

		if err := w.queueTask(txn, mgr, download.Task{
			URL:           record.PosterURL,
			Dest:          posterDest,
			Kind:          download.KindPoster,
			Label:         info.Title + " poster",
			SkipIfPresent: !opts.Refresh,
		}, opts); err != nil {
			return summary, err
		}

		index[base] = record
		changed = true
		summary.Scraped++
		if record.Merged {
			summary.Degraded++
		}
	}

	if changed {
		if err := w.journalWrite(txn, filepath.Join(moviesDir, gamelist.IndexName)); err != nil {
			return summary, err
		}
		if err := gamelist.SaveIndex(moviesDir, index); err != nil {
			return summary, err
		}
	}
	return summary, nil
}

// queueTask journals the destination and hands the task to the pool. Tasks
// that will be skipped (file already present) are not journaled so undo
// never touches files this run did not write.
func (w *Workflow) queueTask(txn *txlog.Logger, mgr *download.Manager, task download.Task, opts RunOptions) error {
	if task.SkipIfPresent && fileutil.NonEmptyFile(task.Dest) {
		mgr.Add(task)
		return nil
	}
	if err := w.journalWrite(txn, task.Dest); err != nil {
		return err
	}
	mgr.Add(task)
	return nil
}

// placeholder journals and writes a tile immediately, outside the pool.
func (w *Workflow) placeholder(txn *txlog.Logger, dest string, width, height int) error {
	if fileutil.NonEmptyFile(dest) {
		return nil
	}
	if err := w.journalWrite(txn, dest); err != nil {
		return err
	}
	return artwork.Placeholder(dest, width, height)
}

func (w *Workflow) journalWrite(txn *txlog.Logger, path string) error {
	if fileutil.FileExists(path) {
		return txn.LogModify(path, filepath.Join(w.cfg.StateDir(), "backups"))
	}
	return txn.LogCreate(path)
}

func (w *Workflow) progress(opts RunOptions, step string) {
	if opts.Progress != nil {
		opts.Progress(step)
	}
}

func episodeKey(season, number int) string {
	return fmt.Sprintf("S%02dE%02d", season, number)
}

// sanitizedPoster names a movie's poster file after its cleaned title.
func sanitizedPoster(title string) string {
	return textutil.SanitizeFileName(title) + ".png"
}

// episodeVideoSources maps SxxEyy keys to the video file covering that
// episode, including span files that cover several.
func episodeVideoSources(files []string) map[string]string {
	sources := make(map[string]string)
	for _, file := range files {
		info, ok := parser.ParseEpisode(filepath.Base(file))
		if !ok {
			continue
		}
		for number := info.Start; number <= max(info.Start, info.End); number++ {
			sources[episodeKey(info.Season, number)] = file
		}
	}
	return sources
}

func findShow(shows []scanner.Show, name string) (scanner.Show, error) {
	for _, show := range shows {
		if strings.EqualFold(show.Name, name) {
			return show, nil
		}
	}
	names := make([]string, len(shows))
	for i, show := range shows {
		names[i] = show.Name
	}
	if suggestion := closestMatch(name, names); suggestion != "" {
		return scanner.Show{}, services.Wrap(services.ErrValidation, "workflow", "scrape",
			fmt.Sprintf("no show named %q; did you mean %q?", name, suggestion), nil)
	}
	return scanner.Show{}, services.Wrap(services.ErrValidation, "workflow", "scrape",
		fmt.Sprintf("no show named %q in the library", name), nil)
}

func findMovie(movies []scanner.Movie, name string) (scanner.Movie, error) {
	names := make([]string, len(movies))
	for i, movie := range movies {
		base := filepath.Base(movie.Path)
		if strings.EqualFold(base, name) {
			return movie, nil
		}
		if info, ok := parser.ParseMovie(base); ok && strings.EqualFold(info.Title, name) {
			return movie, nil
		}
		names[i] = base
	}
	if suggestion := closestMatch(name, names); suggestion != "" {
		return scanner.Movie{}, services.Wrap(services.ErrValidation, "workflow", "scrape",
			fmt.Sprintf("no movie named %q; did you mean %q?", name, suggestion), nil)
	}
	return scanner.Movie{}, services.Wrap(services.ErrValidation, "workflow", "scrape",
		fmt.Sprintf("no movie named %q in the library", name), nil)
}

// closestMatch returns the best fuzzy candidate for a mistyped name, or ""
// when nothing comes close.
func closestMatch(name string, candidates []string) string {
	ranks := fuzzy.RankFindNormalizedFold(name, candidates)
	if len(ranks) == 0 {
		return ""
	}
	sort.Sort(ranks)
	return ranks[0].Target
}

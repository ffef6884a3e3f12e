package workflow

import (
	"context"
	"time"

	"mpvscraper/internal/jobs"
	"mpvscraper/internal/txlog"
)

// Run performs the full scan → scrape → generate pass under one lock and
// reports the outcome through the notification service.
func (w *Workflow) Run(ctx context.Context, opts RunOptions) (Summary, error) {
	lock, err := w.lock()
	if err != nil {
		return Summary{}, err
	}
	defer lock.Unlock()

	started := time.Now()
	txn, err := txlog.Open(w.cfg.TransactionLogPath(), w.logger)
	if err != nil {
		return Summary{}, err
	}
	defer txn.Close()

	summary, err := w.scrapeAllLocked(ctx, txn, opts)
	if err == nil {
		w.progress(opts, "generating gamelists")
		err = w.generateLocked(ctx, txn)
	}
	summary.Duration = time.Since(started)

	if err != nil {
		if notifyErr := w.notifier.NotifyRunFailed(context.WithoutCancel(ctx), w.cfg.Paths.MediaDir, err); notifyErr != nil {
			w.logger.Warn("failure notification not delivered", "error", notifyErr)
		}
		return summary, err
	}

	w.logger.Info("run finished", "summary", summary.String(), "duration", summary.Duration.Round(time.Second).String())
	if notifyErr := w.notifier.NotifyRunCompleted(ctx, w.cfg.Paths.MediaDir, summary.Notify()); notifyErr != nil {
		w.logger.Warn("completion notification not delivered", "error", notifyErr)
	}
	return summary, nil
}

// Undo replays the transaction log in reverse, restoring the library to its
// pre-run state. Returns the number of reverted files.
func (w *Workflow) Undo(ctx context.Context) (int, error) {
	lock, err := w.lock()
	if err != nil {
		return 0, err
	}
	defer lock.Unlock()

	if err := ctx.Err(); err != nil {
		return 0, err
	}

	reverted, err := txlog.Revert(w.cfg.TransactionLogPath(), w.logger)
	if err != nil {
		return 0, err
	}
	if notifyErr := w.notifier.NotifyUndoCompleted(ctx, w.cfg.Paths.MediaDir, reverted); notifyErr != nil {
		w.logger.Warn("undo notification not delivered", "error", notifyErr)
	}
	return reverted, nil
}

// RunJob adapts the full run into a background job target, counting one
// progress unit per show, one for the movies pass, and one for gamelist
// generation, and honoring cooperative cancellation between units.
func (w *Workflow) RunJob(opts RunOptions) jobs.Target {
	return func(ctx context.Context, progress *jobs.Progress) error {
		if result, err := w.Scan(ctx); err == nil {
			progress.Update(0, len(result.Shows)+2, "")
		}
		opts.Progress = func(step string) {
			progress.Update(1, 0, step)
		}
		_, err := w.Run(ctx, opts)
		return err
	}
}

// ScrapeShowJob adapts a single-show scrape into a background job target.
func (w *Workflow) ScrapeShowJob(name string, opts RunOptions) jobs.Target {
	return func(ctx context.Context, progress *jobs.Progress) error {
		progress.Update(0, 1, "")
		opts.Progress = func(step string) {
			progress.Update(1, 0, step)
		}
		_, err := w.ScrapeShow(ctx, name, opts)
		return err
	}
}

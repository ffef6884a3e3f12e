package workflow

import (
	"context"
	"time"

	"mpvscraper/internal/artwork"
	"mpvscraper/internal/deps"
	"mpvscraper/internal/download"
	"mpvscraper/internal/services"
)

// Placeholder dimensions per artwork kind, used when neither a provider
// image nor a frame capture produced a file.
const (
	placeholderPosterWidth  = 500
	placeholderPosterHeight = 750
	placeholderLogoWidth    = 400
	placeholderLogoHeight   = 150
)

func (w *Workflow) defaultCapture() download.Capture {
	return func(ctx context.Context, task download.Task) error {
		if !deps.Available(w.cfg.FFmpegBinary()) {
			return services.Wrap(services.ErrExternalTool, "workflow", "capture", "ffmpeg not available", nil)
		}
		opts := artwork.CaptureOptions{
			FFmpeg:  w.cfg.FFmpegBinary(),
			Offset:  w.cfg.Artwork.ScreenshotOffset,
			Width:   w.cfg.Artwork.ScreenshotWidth,
			Height:  w.cfg.Artwork.ScreenshotHeight,
			Timeout: time.Duration(w.cfg.Artwork.ScreenshotTimeout) * time.Second,
		}
		if deps.Available(w.cfg.FFprobeBinary()) {
			opts.FFprobe = w.cfg.FFprobeBinary()
		}
		return artwork.CaptureFrame(ctx, task.VideoSource, task.Dest, opts)
	}
}

func (w *Workflow) defaultPostProcess() download.PostProcess {
	return func(task download.Task) error {
		if task.Kind == download.KindLogo {
			return artwork.EnsureLogoSize(task.Dest, w.cfg.Artwork.MaxKB, w.cfg.Artwork.LogoMaxHeight)
		}
		return artwork.EnsurePNGSize(task.Dest, w.cfg.Artwork.MaxKB, w.cfg.Artwork.MaxWidth)
	}
}

// writePlaceholders fills in a tile for every task that neither downloaded
// nor captured, so gamelists never reference missing images.
func (w *Workflow) writePlaceholders(results []download.Result) {
	for _, res := range results {
		if res.OK || res.Skipped || res.Task.Dest == "" {
			continue
		}
		width, height := placeholderPosterWidth, placeholderPosterHeight
		switch res.Task.Kind {
		case download.KindLogo:
			width, height = placeholderLogoWidth, placeholderLogoHeight
		case download.KindScreenshot:
			width, height = w.cfg.Artwork.ScreenshotWidth, w.cfg.Artwork.ScreenshotHeight
		}
		if err := artwork.Placeholder(res.Task.Dest, width, height); err != nil {
			w.logger.Warn("placeholder write failed", "dest", res.Task.Dest, "error", err)
		}
	}
}

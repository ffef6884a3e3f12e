package artwork

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"mpvscraper/internal/services"
)

// CaptureOptions controls ffmpeg frame extraction for episode screenshots.
type CaptureOptions struct {
	FFmpeg  string
	FFprobe string
	// Offset is the capture timestamp in ffmpeg time syntax ("00:01:00").
	Offset  string
	Width   int
	Height  int
	Timeout time.Duration
}

// CaptureFrame extracts one frame from video into dest as PNG. The offset is
// clamped to the probed duration so short clips still yield a frame instead
// of an ffmpeg seek error.
func CaptureFrame(ctx context.Context, video, dest string, opts CaptureOptions) error {
	if opts.FFmpeg == "" {
		opts.FFmpeg = "ffmpeg"
	}
	if opts.Offset == "" {
		opts.Offset = "00:01:00"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}

	offset := opts.Offset
	if opts.FFprobe != "" {
		if duration, err := ProbeDuration(ctx, opts.FFprobe, video); err == nil {
			offset = clampOffset(offset, duration)
		}
	}

	if dir := filepath.Dir(dest); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("artwork: create directory: %w", err)
		}
	}

	args := []string{"-ss", offset, "-i", video, "-vframes", "1"}
	if opts.Width > 0 && opts.Height > 0 {
		args = append(args, "-vf", fmt.Sprintf("scale=%d:%d", opts.Width, opts.Height))
	}
	args = append(args, "-y", dest)

	runCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, opts.FFmpeg, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "artwork", "capture",
			fmt.Sprintf("%s: %s", video, lastLine(output)), err)
	}
	return nil
}

// ProbeDuration returns the container duration of video in seconds.
func ProbeDuration(ctx context.Context, ffprobe, video string) (float64, error) {
	cmd := exec.CommandContext(ctx, ffprobe,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		video)
	output, err := cmd.Output()
	if err != nil {
		return 0, services.Wrap(services.ErrExternalTool, "artwork", "probe", video, err)
	}

	duration, err := strconv.ParseFloat(strings.TrimSpace(string(output)), 64)
	if err != nil {
		return 0, services.Wrap(services.ErrExternalTool, "artwork", "probe", "unparseable duration for "+video, err)
	}
	return duration, nil
}

// clampOffset pulls the capture point inside the clip when the configured
// offset lands past its end, aiming for the midpoint of short videos.
func clampOffset(offset string, duration float64) string {
	seconds := parseOffsetSeconds(offset)
	if duration <= 0 || seconds < duration {
		return offset
	}
	return formatSeconds(duration / 2)
}

func parseOffsetSeconds(offset string) float64 {
	parts := strings.Split(offset, ":")
	total := 0.0
	for _, part := range parts {
		value, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return 0
		}
		total = total*60 + value
	}
	return total
}

func formatSeconds(seconds float64) string {
	whole := int(seconds)
	return fmt.Sprintf("%02d:%02d:%02d", whole/3600, (whole/60)%60, whole%60)
}

func lastLine(output []byte) string {
	lines := strings.Split(strings.TrimSpace(string(output)), "\n")
	if len(lines) == 0 {
		return ""
	}
	return strings.TrimSpace(lines[len(lines)-1])
}

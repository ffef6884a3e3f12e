// Package artwork downloads, re-encodes, and post-processes image files for
// the media library, with an ffmpeg frame-capture fallback for episodes that
// have no provider image.
package artwork

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"net/http"
	"os"
	"path/filepath"

	_ "image/gif"
	"image/png"

	_ "image/jpeg"

	_ "golang.org/x/image/webp"

	"mpvscraper/internal/retry"
	"mpvscraper/internal/services"
)

// Fetch downloads url, decodes whatever image format the provider served
// (png, jpeg, gif, webp), and writes it to dest as PNG. The download runs
// through the retry policy; decode failures are not retried.
func Fetch(ctx context.Context, client *http.Client, policy retry.Policy, url, dest string, headers map[string]string) error {
	if url == "" {
		return services.Wrap(services.ErrValidation, "artwork", "fetch", "empty url", nil)
	}

	data, err := retry.DoValue(ctx, policy, func() ([]byte, error) {
		return download(ctx, client, url, headers)
	})
	if err != nil {
		return err
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return services.Wrap(services.ErrValidation, "artwork", "decode", url, err)
	}

	return WritePNG(dest, img)
}

func download(ctx context.Context, client *http.Client, url string, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "artwork", "fetch", "build request", err)
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("artwork: download %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("artwork: download %s returned %d", url, resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

// WritePNG encodes img to dest atomically, creating parent directories.
func WritePNG(dest string, img image.Image) error {
	if dir := filepath.Dir(dest); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("artwork: create directory: %w", err)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("artwork: encode png: %w", err)
	}

	tmpPath := dest + ".tmp"
	if err := os.WriteFile(tmpPath, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("artwork: write image: %w", err)
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("artwork: rename image: %w", err)
	}
	return nil
}

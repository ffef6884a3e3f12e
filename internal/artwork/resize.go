package artwork

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"os"

	"golang.org/x/image/draw"
)

// EnsurePNGSize rewrites the PNG at path so it fits under maxKB and is at
// most maxWidth pixels wide, downscaling with CatmullRom. When the width cap
// alone does not reach the byte budget, the image shrinks in 80% steps until
// it fits or drops below a sane floor.
func EnsurePNGSize(path string, maxKB, maxWidth int) error {
	return ensureSize(path, maxKB, func(bounds image.Rectangle) (int, int) {
		if maxWidth <= 0 || bounds.Dx() <= maxWidth {
			return bounds.Dx(), bounds.Dy()
		}
		return maxWidth, bounds.Dy() * maxWidth / bounds.Dx()
	})
}

// EnsureLogoSize is EnsurePNGSize with a height cap instead of a width cap,
// matching the wide-and-short shape of clear logos.
func EnsureLogoSize(path string, maxKB, maxHeight int) error {
	return ensureSize(path, maxKB, func(bounds image.Rectangle) (int, int) {
		if maxHeight <= 0 || bounds.Dy() <= maxHeight {
			return bounds.Dx(), bounds.Dy()
		}
		return bounds.Dx() * maxHeight / bounds.Dy(), maxHeight
	})
}

const minDimension = 64

func ensureSize(path string, maxKB int, target func(image.Rectangle) (int, int)) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("artwork: read image: %w", err)
	}

	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("artwork: decode png %s: %w", path, err)
	}

	width, height := target(img.Bounds())
	resized := img
	if width != img.Bounds().Dx() || height != img.Bounds().Dy() {
		resized = scale(img, width, height)
	}

	encoded, err := encodePNG(resized)
	if err != nil {
		return err
	}

	if maxKB > 0 {
		budget := maxKB * 1024
		for len(encoded) > budget && width > minDimension && height > minDimension {
			width = width * 4 / 5
			height = height * 4 / 5
			resized = scale(img, width, height)
			if encoded, err = encodePNG(resized); err != nil {
				return err
			}
		}
	}

	if len(encoded) >= len(data) && resized == img {
		// Nothing gained; keep the original bytes.
		return nil
	}
	return WritePNG(path, resized)
}

func scale(img image.Image, width, height int) image.Image {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Over, nil)
	return dst
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("artwork: encode png: %w", err)
	}
	return buf.Bytes(), nil
}

package artwork

import (
	"image"
	"image/color"
)

// placeholderFill is the dark slate used when artwork cannot be fetched.
var placeholderFill = color.RGBA{R: 0x2b, G: 0x2b, B: 0x33, A: 0xff}

// Placeholder writes a solid-color PNG at dest so a failed artwork task
// degrades to a visible tile instead of a broken image reference.
func Placeholder(dest string, width, height int) error {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetRGBA(x, y, placeholderFill)
		}
	}
	return WritePNG(dest, img)
}

package render

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// Images smaller than this after cropping are treated as render
// failures: they are almost always an error page or an empty canvas.
const minCroppedSide = 50

// minRawBytes guards against services returning a tiny error payload
// with an image content type.
const minRawBytes = 100

// Normalized is the result of Normalize: opaque PNG bytes with the
// decorative border removed.
type Normalized struct {
	PNG    []byte
	Width  int
	Height int
}

// Normalize prepares a rendered diagram for embedding: it crops the
// transparent or near-white border, flattens any remaining alpha onto
// a white background, and rejects images that are too small to be a
// real diagram. Running it on its own output is a no-op.
func Normalize(raw []byte) (*Normalized, error) {
	if len(raw) < minRawBytes {
		return nil, fmt.Errorf("image too small to be valid: %d bytes", len(raw))
	}
	src, err := imaging.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	box := contentBox(src)
	if box.Empty() {
		return nil, errors.New("image has no visible content")
	}
	cropped := imaging.Crop(src, box)
	b := cropped.Bounds()
	if b.Dx() < minCroppedSide || b.Dy() < minCroppedSide {
		return nil, fmt.Errorf("cropped image %dx%d below %dpx minimum",
			b.Dx(), b.Dy(), minCroppedSide)
	}

	flat := imaging.New(b.Dx(), b.Dy(), color.White)
	flat = imaging.Overlay(flat, cropped, image.Pt(0, 0), 1.0)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, flat, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode normalised image: %w", err)
	}
	return &Normalized{PNG: buf.Bytes(), Width: b.Dx(), Height: b.Dy()}, nil
}

// contentBox finds the bounding box of the drawn content. For images
// with transparency the content is anything non-transparent; for fully
// opaque images it is anything darker than near-white.
func contentBox(img image.Image) image.Rectangle {
	bounds := img.Bounds()
	hasAlpha := false
	for y := bounds.Min.Y; y < bounds.Max.Y && !hasAlpha; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if _, _, _, a := img.At(x, y).RGBA(); a < 0xffff {
				hasAlpha = true
				break
			}
		}
	}

	visible := func(x, y int) bool {
		r, g, b, a := img.At(x, y).RGBA()
		if hasAlpha {
			return a > 0
		}
		// 8-bit grey above 245 counts as background.
		grey := (r + g + b) / 3 >> 8
		return grey <= 245
	}

	box := image.Rectangle{Min: bounds.Max, Max: bounds.Min}
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if !visible(x, y) {
				continue
			}
			if x < box.Min.X {
				box.Min.X = x
			}
			if y < box.Min.Y {
				box.Min.Y = y
			}
			if x+1 > box.Max.X {
				box.Max.X = x + 1
			}
			if y+1 > box.Max.Y {
				box.Max.Y = y + 1
			}
		}
	}
	if box.Min.X >= box.Max.X || box.Min.Y >= box.Max.Y {
		return image.Rectangle{}
	}
	return box
}

// Package imaging shrinks oversized scans before they are sent to the model.
package imaging

import (
	"bytes"
	"image"
	"image/color"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	// MaxDimension bounds the longer side of a re-encoded image.
	MaxDimension = 2000
	// JPEGQuality is used when re-encoding.
	JPEGQuality = 85
	// MaxPixels bounds the decoded size; larger images are passed through untouched.
	MaxPixels = 50_000_000
)

// Prepare returns data unchanged when it already fits in maxMegabytes.
// Otherwise it decodes, downsizes so the longer side is at most MaxDimension,
// flattens onto an opaque background and re-encodes as JPEG. Any decode or
// encode failure, or a header declaring more than MaxPixels, returns the
// original bytes.
func Prepare(data []byte, maxMegabytes float64) []byte {
	if float64(len(data)) <= maxMegabytes*1024*1024 {
		return data
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil || !WithinPixelBudget(cfg.Width, cfg.Height) {
		return data
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return data
	}

	b := src.Bounds()
	w, h := FitWithin(b.Dx(), b.Dy(), MaxDimension)

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	if w == b.Dx() && h == b.Dy() {
		draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Over)
	} else {
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return data
	}
	return buf.Bytes()
}

// WithinPixelBudget reports whether a w×h image may be decoded.
func WithinPixelBudget(w, h int) bool {
	return w > 0 && h > 0 && int64(w)*int64(h) <= MaxPixels
}

// FitWithin scales (w, h) down, preserving aspect ratio, so neither side exceeds max.
func FitWithin(w, h, max int) (int, int) {
	if w <= max && h <= max {
		return w, h
	}
	if w >= h {
		nh := h * max / w
		return max, maxInt(nh, 1)
	}
	nw := w * max / h
	return maxInt(nw, 1), max
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

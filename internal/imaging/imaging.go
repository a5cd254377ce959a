// Package imaging fetches remote images and stores them as bounded JPEG
// thumbnails.
package imaging

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"log/slog"
	"math"
	"os"
	"path/filepath"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// MaxWidth and MaxHeight bound every cover image and every inline [img] tag.
const (
	MaxWidth  = 989
	MaxHeight = 427
)

const jpegQuality = 75

// maxImagePixels caps the declared size of an image before it is decoded.
const maxImagePixels = 40_000_000

// Thumbnailer fetches an image, fits it into a bounding box and saves it as JPEG.
type Thumbnailer struct {
	fetcher Fetcher
	width   int
	height  int
}

// NewThumbnailer creates a Thumbnailer bound to MaxWidth×MaxHeight.
func NewThumbnailer(fetcher Fetcher) *Thumbnailer {
	return &Thumbnailer{
		fetcher: fetcher,
		width:   MaxWidth,
		height:  MaxHeight,
	}
}

// Save fetches imageURL and writes the resized JPEG to dest.
//
// It returns false with a nil error when the payload is not a decodable
// image, or declares more than maxImagePixels pixels; nothing is written in
// that case. Transport and filesystem problems are returned as errors.
func (t *Thumbnailer) Save(ctx context.Context, imageURL, dest string) (bool, error) {
	data, err := t.fetcher.Fetch(ctx, imageURL)
	if err != nil {
		return false, fmt.Errorf("failed to fetch image: %w", err)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		slog.Debug("image payload could not be decoded", "url", imageURL, "error", err)
		return false, nil
	}
	if int64(cfg.Width)*int64(cfg.Height) > maxImagePixels {
		slog.Warn("image too large to decode", "url", imageURL, "width", cfg.Width, "height", cfg.Height)
		return false, nil
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		slog.Debug("image payload could not be decoded", "url", imageURL, "error", err)
		return false, nil
	}
	slog.Debug("decoded image", "url", imageURL, "format", format, "width", img.Bounds().Dx(), "height", img.Bounds().Dy())

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, Fit(img, t.width, t.height), &jpeg.Options{Quality: jpegQuality}); err != nil {
		return false, fmt.Errorf("failed to encode jpeg: %w", err)
	}

	if err := writeFile(dest, buf.Bytes()); err != nil {
		return false, err
	}
	return true, nil
}

// Fit scales img down so that it fits within width×height, keeping its
// aspect ratio. Images that already fit keep their size. The result is
// flattened onto an opaque white canvas.
func Fit(img image.Image, width, height int) *image.RGBA {
	bounds := img.Bounds()
	w, h := fitSize(bounds.Dx(), bounds.Dy(), width, height)

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	if w == bounds.Dx() && h == bounds.Dy() {
		draw.Draw(dst, dst.Bounds(), img, bounds.Min, draw.Over)
		return dst
	}
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}

func fitSize(w, h, maxW, maxH int) (int, int) {
	if w <= maxW && h <= maxH {
		return w, h
	}

	var nw, nh int
	if w*maxH > h*maxW {
		nw = maxW
		nh = int(math.Round(float64(h) * float64(maxW) / float64(w)))
	} else {
		nh = maxH
		nw = int(math.Round(float64(w) * float64(maxH) / float64(h)))
	}
	return max(nw, 1), max(nh, 1)
}

// writeFile replaces dest through a temporary file in the same directory,
// so a reader never sees a partial image.
func writeFile(dest string, data []byte) error {
	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create image directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(dest)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temporary image file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write image %s: %w", dest, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write image %s: %w", dest, err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return fmt.Errorf("failed to set image permissions: %w", err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return fmt.Errorf("failed to move image into place: %w", err)
	}
	return nil
}

// Package imaging turns client-submitted base64 photos into bounded,
// opaque JPEG bytes suitable for object storage and report embedding.
package imaging

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"math"
	"strings"

	_ "image/gif"
	_ "image/png"

	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"io.winapps.sitefollowup/internal/errs"
)

const (
	DefaultMaxDimension = 1920
	DefaultQuality      = 85
)

// Options controls normalization. The zero value is invalid; use
// DefaultOptions and override fields as needed.
type Options struct {
	// MaxDimension bounds the larger of width/height; larger inputs are
	// downsampled proportionally.
	MaxDimension int
	// Quality is the JPEG quality for re-encoding (70-85 in practice).
	Quality int
	// Background is the color composited under transparent regions.
	// White unless configured otherwise.
	Background color.Color
}

func DefaultOptions() Options {
	return Options{
		MaxDimension: DefaultMaxDimension,
		Quality:      DefaultQuality,
		Background:   color.White,
	}
}

// ParseBackground maps a configured background name to a flattening
// color. Anything other than "black" means white.
func ParseBackground(s string) color.Color {
	if strings.EqualFold(strings.TrimSpace(s), "black") {
		return color.Black
	}
	return color.White
}

// Normalize decodes a base64 photo (raw or data-URL form), flattens any
// alpha channel or palette onto the background color, downsamples so the
// larger dimension does not exceed opts.MaxDimension, and re-encodes as
// JPEG. Pure transform; no network or disk I/O.
func Normalize(raw string, opts Options) ([]byte, error) {
	// Data-URL form is "<metadata>,<base64>"; the base64 alphabet has no
	// comma, so splitting on the first one is safe for raw input too.
	encoded := raw
	if idx := strings.IndexByte(raw, ','); idx >= 0 {
		encoded = raw[idx+1:]
	}

	imgBytes, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return nil, &errs.InvalidImageError{Reason: "malformed base64", Err: err}
	}

	src, _, err := image.Decode(bytes.NewReader(imgBytes))
	if err != nil {
		return nil, &errs.InvalidImageError{Reason: "undecodable image bytes", Err: err}
	}

	rgb := flatten(src, opts.Background)
	rgb = downsample(rgb, opts.MaxDimension)

	var out bytes.Buffer
	if err := jpeg.Encode(&out, rgb, &jpeg.Options{Quality: opts.Quality}); err != nil {
		return nil, &errs.InvalidImageError{Reason: "jpeg encode failed", Err: err}
	}
	return out.Bytes(), nil
}

// flatten composites src onto an opaque background, collapsing alpha
// channels and palette modes to plain RGB.
func flatten(src image.Image, bg color.Color) *image.RGBA {
	if bg == nil {
		bg = color.White
	}
	bounds := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), src, bounds.Min, draw.Over)
	return dst
}

// downsample scales the image so max(width, height) == maxDim, preserving
// aspect ratio with the other dimension rounded to the nearest pixel.
// Images already within bounds pass through untouched.
func downsample(src *image.RGBA, maxDim int) *image.RGBA {
	if maxDim <= 0 {
		return src
	}
	w := src.Bounds().Dx()
	h := src.Bounds().Dy()
	larger := w
	if h > w {
		larger = h
	}
	if larger <= maxDim {
		return src
	}

	ratio := float64(maxDim) / float64(larger)
	newW := int(math.Round(float64(w) * ratio))
	newH := int(math.Round(float64(h) * ratio))
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Over, nil)
	return dst
}

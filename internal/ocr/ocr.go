// Package ocr recovers text from PDF pages whose embedded text layer is
// missing or too thin, by rasterizing the page and running an OCR engine.
package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"

	"golang.org/x/image/draw"
)

// Engine recognizes text in a PNG-encoded page image.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, png []byte) (string, error)
}

// Rasterizer opens a PDF for page rendering.
type Rasterizer interface {
	Name() string
	Open(ctx context.Context, pdf []byte) (PageSource, error)
}

// PageSource renders individual pages of an opened PDF. Index is 0-based.
type PageSource interface {
	Render(ctx context.Context, index, dpi int) (image.Image, error)
	Close() error
}

// UnavailableError reports that an OCR engine or rasterizer cannot run in
// this environment (missing binary, library or credentials).
type UnavailableError struct {
	Component string
	Reason    string
	Err       error
}

func (e *UnavailableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("ocr %s unavailable: %s: %v", e.Component, e.Reason, e.Err)
	}
	return fmt.Sprintf("ocr %s unavailable: %s", e.Component, e.Reason)
}

func (e *UnavailableError) Unwrap() error {
	return e.Err
}

// Preprocess converts img to grayscale and scales it down so that its longest
// side does not exceed maxDim. maxDim <= 0 disables scaling.
func Preprocess(img image.Image, maxDim int) *image.Gray {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	if maxDim > 0 && (w > maxDim || h > maxDim) {
		if w >= h {
			h = h * maxDim / w
			w = maxDim
		} else {
			w = w * maxDim / h
			h = maxDim
		}
		if w < 1 {
			w = 1
		}
		if h < 1 {
			h = 1
		}
		dst := image.NewGray(image.Rect(0, 0, w, h))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
		return dst
	}

	dst := image.NewGray(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

// EncodePNG encodes img for an Engine.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := enc.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

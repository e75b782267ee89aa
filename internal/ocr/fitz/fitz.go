// Package fitz implements ocr.Rasterizer with MuPDF through go-fitz.
package fitz

import (
	"context"
	"fmt"
	"image"
	"sync"

	"github.com/dgallion1/examscope/internal/ocr"
	gofitz "github.com/gen2brain/go-fitz"
)

// Rasterizer renders pages in-process.
type Rasterizer struct{}

func New() *Rasterizer { return &Rasterizer{} }

func (r *Rasterizer) Name() string { return "fitz" }

func (r *Rasterizer) Open(_ context.Context, pdf []byte) (ocr.PageSource, error) {
	doc, err := gofitz.NewFromMemory(pdf)
	if err != nil {
		return nil, fmt.Errorf("fitz open: %w", err)
	}
	return &source{doc: doc}, nil
}

// source serializes access: a MuPDF document is not safe for concurrent use.
type source struct {
	mu  sync.Mutex
	doc *gofitz.Document
}

func (s *source) Render(ctx context.Context, index, dpi int) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= s.doc.NumPage() {
		return nil, fmt.Errorf("page %d out of range", index)
	}
	img, err := s.doc.ImageDPI(index, float64(dpi))
	if err != nil {
		return nil, fmt.Errorf("fitz render page %d: %w", index, err)
	}
	return img, nil
}

func (s *source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Close()
}

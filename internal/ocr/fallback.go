package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgallion1/examscope/internal/document"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

// Options configures the fallback.
type Options struct {
	DPI          int
	MinPageChars int
	Concurrency  int
	Timeout      time.Duration // Per page
	MaxDimension int
}

// Result summarizes one Apply call.
type Result struct {
	OCRAvailable bool
	Attempted    int // Pages sent to the engine
	Improved     int // Pages whose text was replaced
	Failed       int // Pages whose render or recognition failed
}

// Fallback runs OCR over the insufficient pages of a document.
type Fallback struct {
	engine     Engine
	rasterizer Rasterizer
	opts       Options
	log        *slog.Logger
}

// NewFallback creates a fallback. A nil engine or rasterizer makes every
// Apply a no-op that reports OCR as unavailable.
func NewFallback(engine Engine, rasterizer Rasterizer, opts Options, log *slog.Logger) *Fallback {
	if opts.DPI <= 0 {
		opts.DPI = 300
	}
	if opts.MinPageChars <= 0 {
		opts.MinPageChars = document.DefaultMinPageChars
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 2
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	return &Fallback{engine: engine, rasterizer: rasterizer, opts: opts, log: log}
}

// Available reports whether both an engine and a rasterizer are configured.
func (f *Fallback) Available() bool {
	return f != nil && f.engine != nil && f.rasterizer != nil
}

// EngineName returns the configured engine name, or "none".
func (f *Fallback) EngineName() string {
	if !f.Available() {
		return "none"
	}
	return f.engine.Name()
}

// Apply OCRs every insufficient page of doc in place. Page text is only ever
// replaced by a longer OCR result, so text never shrinks. Nothing is rendered
// when all pages are sufficient. Per-page failures are logged and counted.
func (f *Fallback) Apply(ctx context.Context, doc *document.Document, pdf []byte) Result {
	res := Result{OCRAvailable: f.Available()}

	pending := doc.InsufficientPages()
	if len(pending) == 0 || !res.OCRAvailable {
		return res
	}

	ctx, span := otel.Tracer("examscope/ocr").Start(ctx, "ocr.Fallback.Apply")
	defer span.End()
	span.SetAttributes(
		attribute.String("ocr.engine", f.engine.Name()),
		attribute.Int("ocr.pages", len(pending)),
	)

	src, err := f.rasterizer.Open(ctx, pdf)
	if err != nil {
		f.log.Warn("ocr rasterizer open failed", "rasterizer", f.rasterizer.Name(), "error", err)
		res.Failed = len(pending)
		return res
	}
	defer src.Close()

	texts := make([]string, len(pending))
	errs := make([]error, len(pending))

	var g errgroup.Group
	g.SetLimit(f.opts.Concurrency)
	for i, idx := range pending {
		g.Go(func() error {
			texts[i], errs[i] = f.recognizePage(ctx, src, idx)
			return nil
		})
	}
	_ = g.Wait()

	for i, idx := range pending {
		res.Attempted++
		if errs[i] != nil {
			res.Failed++
			f.log.Warn("ocr page failed", "page", idx, "error", errs[i])
			continue
		}
		page := &doc.Pages[idx]
		if document.TextLength(texts[i]) > document.TextLength(page.Text) {
			page.Text = texts[i]
			page.Method = document.MethodOCR
			page.Evaluate(f.opts.MinPageChars)
			res.Improved++
		}
	}

	span.SetAttributes(attribute.Int("ocr.improved", res.Improved), attribute.Int("ocr.failed", res.Failed))
	f.log.Info("ocr fallback complete",
		"engine", f.engine.Name(),
		"attempted", res.Attempted,
		"improved", res.Improved,
		"failed", res.Failed,
	)
	return res
}

func (f *Fallback) recognizePage(ctx context.Context, src PageSource, idx int) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, f.opts.Timeout)
	defer cancel()

	img, err := src.Render(ctx, idx, f.opts.DPI)
	if err != nil {
		return "", fmt.Errorf("render page %d: %w", idx, err)
	}
	data, err := EncodePNG(Preprocess(img, f.opts.MaxDimension))
	if err != nil {
		return "", err
	}
	text, err := f.engine.Recognize(ctx, data)
	if err != nil {
		return "", fmt.Errorf("recognize page %d: %w", idx, err)
	}
	return text, nil
}

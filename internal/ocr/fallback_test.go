package ocr

import (
	"context"
	"errors"
	"image"
	"image/color"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dgallion1/examscope/internal/document"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeRasterizer struct {
	opens   atomic.Int32
	renders atomic.Int32
	openErr error
	failOn  map[int]bool
	delay   time.Duration
}

func (r *fakeRasterizer) Name() string { return "fake" }

func (r *fakeRasterizer) Open(_ context.Context, _ []byte) (PageSource, error) {
	r.opens.Add(1)
	if r.openErr != nil {
		return nil, r.openErr
	}
	return &fakeSource{r: r}, nil
}

type fakeSource struct{ r *fakeRasterizer }

func (s *fakeSource) Render(ctx context.Context, index, dpi int) (image.Image, error) {
	s.r.renders.Add(1)
	if s.r.delay > 0 {
		select {
		case <-time.After(s.r.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.r.failOn[index] {
		return nil, errors.New("render failed")
	}
	// Encode the page index in the image width so the engine can tell pages apart.
	img := image.NewRGBA(image.Rect(0, 0, 10+index, 10))
	img.Set(0, 0, color.White)
	return img, nil
}

func (s *fakeSource) Close() error { return nil }

type fakeEngine struct {
	mu    sync.Mutex
	calls int
	texts map[int]string // keyed by image width - 10
}

func (e *fakeEngine) Name() string { return "fake-engine" }

func (e *fakeEngine) Recognize(_ context.Context, png []byte) (string, error) {
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()
	img, err := decodePNG(png)
	if err != nil {
		return "", err
	}
	return e.texts[img.Bounds().Dx()-10], nil
}

func TestFallback_NoOCRWhenAllPagesSufficient(t *testing.T) {
	doc := &document.Document{Pages: []document.Page{
		document.NewPage(0, strings.Repeat("a", 60), 50),
		document.NewPage(1, strings.Repeat("b", 70), 50),
	}}
	r := &fakeRasterizer{}
	e := &fakeEngine{}
	f := NewFallback(e, r, Options{MinPageChars: 50}, testLogger())

	res := f.Apply(context.Background(), doc, []byte("%PDF"))
	if r.opens.Load() != 0 || r.renders.Load() != 0 || e.calls != 0 {
		t.Errorf("expected no rasterizer or engine calls, got opens=%d renders=%d calls=%d",
			r.opens.Load(), r.renders.Load(), e.calls)
	}
	if !res.OCRAvailable || res.Attempted != 0 {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestFallback_ReplacesOnlyWhenLonger(t *testing.T) {
	doc := &document.Document{Pages: []document.Page{
		document.NewPage(0, strings.Repeat("a", 60), 50),
		document.NewPage(1, "", 50),
		document.NewPage(2, "twelve chars", 50),
		document.NewPage(3, "embedded", 50),
	}}
	e := &fakeEngine{texts: map[int]string{
		1: "Q1. " + strings.Repeat("scanned text ", 5),
		2: "short",
		3: "embedded text recovered",
	}}
	f := NewFallback(e, &fakeRasterizer{}, Options{MinPageChars: 50, Concurrency: 3}, testLogger())

	res := f.Apply(context.Background(), doc, nil)

	if res.Attempted != 3 || res.Improved != 2 || res.Failed != 0 {
		t.Errorf("expected attempted=3 improved=2 failed=0, got %+v", res)
	}
	if doc.Pages[0].Method != document.MethodEmbedded {
		t.Error("sufficient page should be untouched")
	}
	if doc.Pages[1].Method != document.MethodOCR || !doc.Pages[1].Sufficient {
		t.Errorf("expected page 1 replaced and sufficient, got %+v", doc.Pages[1])
	}
	if doc.Pages[2].Text != "twelve chars" || doc.Pages[2].Method != document.MethodEmbedded {
		t.Errorf("expected page 2 kept since OCR text is shorter, got %+v", doc.Pages[2])
	}
	if doc.Pages[3].Text != "embedded text recovered" || doc.Pages[3].Sufficient {
		t.Errorf("expected page 3 replaced but still insufficient, got %+v", doc.Pages[3])
	}
}

func TestFallback_NeverShrinksText(t *testing.T) {
	original := []string{"", "a", "some embedded words", strings.Repeat("x", 49)}
	doc := &document.Document{}
	for i, text := range original {
		doc.Pages = append(doc.Pages, document.NewPage(i, text, 50))
	}
	e := &fakeEngine{texts: map[int]string{0: "", 1: "", 2: "some", 3: strings.Repeat("y", 80)}}
	f := NewFallback(e, &fakeRasterizer{}, Options{MinPageChars: 50}, testLogger())
	f.Apply(context.Background(), doc, nil)

	for i, p := range doc.Pages {
		if document.TextLength(p.Text) < document.TextLength(original[i]) {
			t.Errorf("page %d shrank from %q to %q", i, original[i], p.Text)
		}
	}
}

func TestFallback_PageFailuresAreIsolated(t *testing.T) {
	doc := &document.Document{Pages: []document.Page{
		document.NewPage(0, "", 50),
		document.NewPage(1, "", 50),
	}}
	r := &fakeRasterizer{failOn: map[int]bool{0: true}}
	e := &fakeEngine{texts: map[int]string{1: strings.Repeat("ocr ", 20)}}
	f := NewFallback(e, r, Options{}, testLogger())

	res := f.Apply(context.Background(), doc, nil)
	if res.Failed != 1 || res.Improved != 1 {
		t.Errorf("expected failed=1 improved=1, got %+v", res)
	}
	if doc.Pages[0].Method != document.MethodEmbedded {
		t.Error("failed page should keep its embedded text")
	}
}

func TestFallback_PerPageTimeout(t *testing.T) {
	doc := &document.Document{Pages: []document.Page{document.NewPage(0, "", 50)}}
	r := &fakeRasterizer{delay: time.Second}
	f := NewFallback(&fakeEngine{}, r, Options{Timeout: 20 * time.Millisecond}, testLogger())

	start := time.Now()
	res := f.Apply(context.Background(), doc, nil)
	if time.Since(start) > 500*time.Millisecond {
		t.Errorf("expected timeout to cut the render short, took %s", time.Since(start))
	}
	if res.Failed != 1 {
		t.Errorf("expected the timed-out page to be counted as failed, got %+v", res)
	}
}

func TestFallback_Unavailable(t *testing.T) {
	doc := &document.Document{Pages: []document.Page{document.NewPage(0, "", 50)}}
	f := NewFallback(nil, &fakeRasterizer{}, Options{}, testLogger())
	res := f.Apply(context.Background(), doc, nil)
	if res.OCRAvailable || res.Attempted != 0 {
		t.Errorf("expected unavailable no-op, got %+v", res)
	}
	if f.EngineName() != "none" {
		t.Errorf("expected engine name none, got %q", f.EngineName())
	}
}

func TestFallback_OpenErrorCountsAllPages(t *testing.T) {
	doc := &document.Document{Pages: []document.Page{
		document.NewPage(0, "", 50),
		document.NewPage(1, "", 50),
	}}
	r := &fakeRasterizer{openErr: errors.New("bad pdf")}
	f := NewFallback(&fakeEngine{}, r, Options{}, testLogger())
	res := f.Apply(context.Background(), doc, nil)
	if res.Failed != 2 {
		t.Errorf("expected 2 failed pages, got %+v", res)
	}
}

func TestPreprocess(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 400, 200))
	for x := 0; x < 400; x++ {
		for y := 0; y < 200; y++ {
			src.Set(x, y, color.RGBA{R: 255, A: 255})
		}
	}

	t.Run("scales longest side", func(t *testing.T) {
		got := Preprocess(src, 100)
		if got.Bounds().Dx() != 100 || got.Bounds().Dy() != 50 {
			t.Errorf("expected 100x50, got %v", got.Bounds())
		}
	})
	t.Run("no scaling below limit", func(t *testing.T) {
		got := Preprocess(src, 1000)
		if got.Bounds().Dx() != 400 || got.Bounds().Dy() != 200 {
			t.Errorf("expected 400x200, got %v", got.Bounds())
		}
		if got.GrayAt(10, 10).Y == 0 || got.GrayAt(10, 10).Y == 255 {
			t.Errorf("expected red converted to mid gray, got %d", got.GrayAt(10, 10).Y)
		}
	})
}

func TestUnavailableError(t *testing.T) {
	inner := errors.New("exec: not found")
	var err error = &UnavailableError{Component: "pdftoppm", Reason: "binary not found", Err: inner}
	if !errors.Is(err, inner) {
		t.Error("expected UnavailableError to unwrap")
	}
	if !strings.Contains(err.Error(), "pdftoppm") {
		t.Errorf("expected component in message, got %q", err.Error())
	}
}

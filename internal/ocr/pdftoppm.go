package ocr

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
)

// Pdftoppm rasterizes pages with the poppler pdftoppm binary.
type Pdftoppm struct {
	path string
}

// NewPdftoppm locates the pdftoppm binary.
func NewPdftoppm() (*Pdftoppm, error) {
	path, err := exec.LookPath("pdftoppm")
	if err != nil {
		return nil, &UnavailableError{Component: "pdftoppm", Reason: "binary not found", Err: err}
	}
	return &Pdftoppm{path: path}, nil
}

func (p *Pdftoppm) Name() string { return "pdftoppm" }

func (p *Pdftoppm) Open(_ context.Context, pdf []byte) (PageSource, error) {
	dir, err := os.MkdirTemp("", "examscope-ocr-*")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	in := filepath.Join(dir, "input.pdf")
	if err := os.WriteFile(in, pdf, 0o600); err != nil {
		os.RemoveAll(dir)
		return nil, fmt.Errorf("write temp pdf: %w", err)
	}
	return &pdftoppmSource{bin: p.path, dir: dir, input: in}, nil
}

type pdftoppmSource struct {
	bin   string
	dir   string
	input string
}

func (s *pdftoppmSource) Render(ctx context.Context, index, dpi int) (image.Image, error) {
	n := strconv.Itoa(index + 1)
	prefix := filepath.Join(s.dir, "page-"+n)
	cmd := exec.CommandContext(ctx, s.bin,
		"-png", "-r", strconv.Itoa(dpi),
		"-f", n, "-l", n, "-singlefile",
		s.input, prefix,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("pdftoppm: %w: %s", err, out)
	}

	out := prefix + ".png"
	defer os.Remove(out)
	f, err := os.Open(out)
	if err != nil {
		return nil, fmt.Errorf("open rendered page: %w", err)
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode rendered page: %w", err)
	}
	return img, nil
}

func (s *pdftoppmSource) Close() error {
	return os.RemoveAll(s.dir)
}

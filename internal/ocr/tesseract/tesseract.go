// Package tesseract implements ocr.Engine with the local Tesseract library.
package tesseract

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/dgallion1/examscope/internal/ocr"
	"github.com/otiai10/gosseract/v2"
)

// Engine runs Tesseract through gosseract. A fresh client is created per
// call because gosseract clients are not safe for concurrent use.
type Engine struct {
	language      string
	dpi           int
	clientFactory func() *gosseract.Client
}

// New returns an engine after checking that the Tesseract library and the
// requested language data are installed.
func New(language string, dpi int) (*Engine, error) {
	if language == "" {
		language = "eng"
	}
	langs, err := gosseract.GetAvailableLanguages()
	if err != nil {
		return nil, &ocr.UnavailableError{Component: "tesseract", Reason: "tessdata not found", Err: err}
	}
	for _, l := range strings.Split(language, "+") {
		if !slices.Contains(langs, l) {
			return nil, &ocr.UnavailableError{Component: "tesseract", Reason: fmt.Sprintf("language %q not installed", l)}
		}
	}
	return &Engine{language: language, dpi: dpi, clientFactory: gosseract.NewClient}, nil
}

func (e *Engine) Name() string { return "tesseract" }

// Version reports the linked Tesseract version.
func (e *Engine) Version() string { return gosseract.Version() }

func (e *Engine) Recognize(ctx context.Context, png []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	c := e.clientFactory()
	if err := e.configure(c, png); err != nil {
		c.Close()
		return "", err
	}

	// Text blocks inside cgo, so it runs off the caller and owns the client
	// until it returns.
	type result struct {
		text string
		err  error
	}
	done := make(chan result, 1)
	go func() {
		defer c.Close()
		text, err := c.Text()
		done <- result{text, err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-done:
		if r.err != nil {
			return "", fmt.Errorf("recognize text: %w", r.err)
		}
		return strings.TrimSpace(r.text), nil
	}
}

func (e *Engine) configure(c *gosseract.Client, png []byte) error {
	if err := c.SetImageFromBytes(png); err != nil {
		return fmt.Errorf("set image: %w", err)
	}
	if err := c.SetLanguage(strings.Split(e.language, "+")...); err != nil {
		return fmt.Errorf("set languages: %w", err)
	}
	if e.dpi > 0 {
		if err := c.SetVariable(gosseract.SettableVariable("user_defined_dpi"), fmt.Sprint(e.dpi)); err != nil {
			return fmt.Errorf("set dpi: %w", err)
		}
	}
	return nil
}

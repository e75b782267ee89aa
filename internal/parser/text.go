package parser

import (
	"io"
	"strings"

	"github.com/dgallion1/examscope/internal/document"
)

// TextParser handles plain text files as a single page.
type TextParser struct {
	MinPageChars int
}

func (p *TextParser) Parse(r io.Reader, filename string) (*document.Document, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	text := strings.ReplaceAll(string(src), "\x00", "")
	return singlePage(filename, "txt", text, p.MinPageChars), nil
}

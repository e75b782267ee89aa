package parser

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dgallion1/examscope/internal/document"
)

// Parser converts raw upload bytes into a paged Document.
type Parser interface {
	Parse(r io.Reader, filename string) (*document.Document, error)
}

// Options tune parsing. The zero value uses the defaults.
type Options struct {
	MinPageChars      int  // Sufficiency threshold applied to every page
	FallbackPdftotext bool // Try the pdftotext binary when the PDF library fails
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".pdf":      true,
	".txt":      true,
	".md":       true,
	".markdown": true,
	".html":     true,
	".htm":      true,
	".docx":     true,
}

// ErrUnsupportedFormat is returned for file types no parser handles.
var ErrUnsupportedFormat = errors.New("unsupported file type")

// ForFile returns the appropriate parser for a filename.
func ForFile(filename string, opts Options) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".pdf":
		return &PDFParser{MinPageChars: opts.MinPageChars, FallbackPdftotext: opts.FallbackPdftotext}, nil
	case ".txt":
		return &TextParser{MinPageChars: opts.MinPageChars}, nil
	case ".md", ".markdown":
		return &MarkdownParser{MinPageChars: opts.MinPageChars}, nil
	case ".html", ".htm":
		return &HTMLParser{MinPageChars: opts.MinPageChars}, nil
	case ".docx":
		return &DOCXParser{MinPageChars: opts.MinPageChars}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// FormatOf returns the lowercase extension without the dot ("pdf", "docx").
func FormatOf(filename string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
}

// CorruptDocumentError means the upload could not be parsed at all.
type CorruptDocumentError struct {
	Filename string
	Err      error
}

func (e *CorruptDocumentError) Error() string {
	return fmt.Sprintf("corrupt document %s: %v", e.Filename, e.Err)
}

func (e *CorruptDocumentError) Unwrap() error {
	return e.Err
}

// singlePage wraps page-less formats. These pages are never rasterized, so
// they are always marked sufficient when they carry any text at all.
func singlePage(filename, format, text string, minChars int) *document.Document {
	page := document.NewPage(0, normalizeNewlines(text), minChars)
	if strings.TrimSpace(page.Text) != "" {
		page.Sufficient = true
	}
	return &document.Document{
		Source: filename,
		Format: format,
		Pages:  []document.Page{page},
	}
}

func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

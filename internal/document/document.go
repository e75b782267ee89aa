package document

import (
	"strings"
	"unicode/utf8"
)

// PageBreak separates pages in merged document text.
const PageBreak = "\f"

// DefaultMinPageChars is the trimmed length below which a page is considered
// to carry too little embedded text.
const DefaultMinPageChars = 50

// ExtractionMethod records how a page's text was obtained.
type ExtractionMethod string

const (
	MethodEmbedded ExtractionMethod = "embedded"
	MethodOCR      ExtractionMethod = "ocr"
)

// Document is a parsed upload: an ordered sequence of pages.
type Document struct {
	Source string // Original filename
	Format string // "pdf", "docx", "txt", ...
	Pages  []Page
}

// Page is a single physical page (or the whole body for page-less formats).
type Page struct {
	Index      int              // 0-based position in the document
	Text       string           // Extracted text
	Method     ExtractionMethod // embedded or ocr
	Sufficient bool             // Trimmed text length >= threshold
}

// Question is a contiguous span of document text isolated by the segmenter.
type Question struct {
	Text    string // Raw question text, trimmed
	Page    int    // Originating page index (best effort)
	Ordinal int    // 0-based position within the document
}

// PageCount returns the number of pages.
func (d *Document) PageCount() int {
	return len(d.Pages)
}

// NewPage builds a page with embedded text and evaluates sufficiency.
func NewPage(index int, text string, minChars int) Page {
	p := Page{Index: index, Text: text, Method: MethodEmbedded}
	p.Evaluate(minChars)
	return p
}

// Evaluate recomputes the sufficiency flag against minChars.
func (p *Page) Evaluate(minChars int) {
	if minChars <= 0 {
		minChars = DefaultMinPageChars
	}
	p.Sufficient = TextLength(p.Text) >= minChars
}

// InsufficientPages returns the indexes of pages that need OCR.
func (d *Document) InsufficientPages() []int {
	var idx []int
	for i, p := range d.Pages {
		if !p.Sufficient {
			idx = append(idx, i)
		}
	}
	return idx
}

// OCRPages counts pages whose text came from OCR.
func (d *Document) OCRPages() int {
	n := 0
	for _, p := range d.Pages {
		if p.Method == MethodOCR {
			n++
		}
	}
	return n
}

// MergedText joins page texts in index order, separated by PageBreak.
func (d *Document) MergedText() string {
	var sb strings.Builder
	for i, p := range d.Pages {
		if i > 0 {
			sb.WriteString(PageBreak)
		}
		sb.WriteString(strings.ReplaceAll(p.Text, PageBreak, "\n"))
	}
	return sb.String()
}

// HasText reports whether any page carries non-whitespace text.
func (d *Document) HasText() bool {
	for _, p := range d.Pages {
		if strings.TrimSpace(p.Text) != "" {
			return true
		}
	}
	return false
}

// TextLength is the rune count of s after trimming surrounding whitespace.
func TextLength(s string) int {
	return utf8.RuneCountInString(strings.TrimSpace(s))
}

package parser

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/dgallion1/examscope/internal/document"
	pdflib "github.com/ledongthuc/pdf"
)

// PDFParser handles PDF files. It reads embedded text page by page with the
// Go library, then falls back to pdftotext if enabled and available.
type PDFParser struct {
	MinPageChars      int
	FallbackPdftotext bool
}

func (p *PDFParser) Parse(r io.Reader, filename string) (*document.Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read pdf: %w", err)
	}
	return p.ParseBytes(data, filename)
}

// ParseBytes extracts one page per physical page. Unreadable pages come back
// empty rather than failing the whole document.
func (p *PDFParser) ParseBytes(data []byte, filename string) (*document.Document, error) {
	texts, err := extractPDFPages(data)
	if err != nil && p.FallbackPdftotext {
		var ferr error
		texts, ferr = extractPdftotext(data)
		if ferr != nil {
			err = fmt.Errorf("%w (pdftotext: %v)", err, ferr)
		} else {
			err = nil
		}
	}
	if err != nil {
		return nil, &CorruptDocumentError{Filename: filename, Err: err}
	}

	doc := &document.Document{Source: filename, Format: "pdf"}
	for i, text := range texts {
		doc.Pages = append(doc.Pages, document.NewPage(i, text, p.MinPageChars))
	}
	return doc, nil
}

func extractPDFPages(data []byte) (texts []string, err error) {
	// The library panics on some malformed cross-reference tables.
	defer func() {
		if rec := recover(); rec != nil {
			texts = nil
			err = fmt.Errorf("pdf reader panic: %v", rec)
		}
	}()

	reader, err := pdflib.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}

	numPages := reader.NumPage()
	if numPages == 0 {
		return nil, fmt.Errorf("pdf has no pages")
	}
	texts = make([]string, numPages)
	for i := 1; i <= numPages; i++ {
		texts[i-1] = pageText(reader, i)
	}
	return texts, nil
}

func pageText(reader *pdflib.Reader, n int) (text string) {
	defer func() {
		if rec := recover(); rec != nil {
			text = ""
		}
	}()
	page := reader.Page(n)
	if page.V.IsNull() {
		return ""
	}
	text, err := page.GetPlainText(nil)
	if err != nil {
		return ""
	}
	return text
}

func extractPdftotext(data []byte) ([]string, error) {
	tmp, err := os.CreateTemp("", "examscope-pdf-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	tmp.Close()

	cmd := exec.Command("pdftotext", "-layout", tmpPath, "-")
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("pdftotext: %w", err)
	}
	return splitPages(string(out)), nil
}

// splitPages splits pdftotext output on form feeds. pdftotext terminates
// every page, including the last, with one.
func splitPages(text string) []string {
	text = strings.TrimSuffix(text, document.PageBreak)
	return strings.Split(text, document.PageBreak)
}

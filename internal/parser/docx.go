package parser

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/examscope/internal/document"
	"github.com/fumiama/go-docx"
)

// DOCXParser handles .docx files. Paragraphs are joined with newlines;
// headings are kept as ordinary lines.
type DOCXParser struct {
	MinPageChars int
}

func (p *DOCXParser) Parse(r io.Reader, filename string) (*document.Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read docx: %w", err)
	}

	doc, err := parseDocx(data)
	if err != nil {
		return nil, &CorruptDocumentError{Filename: filename, Err: err}
	}

	var lines []string
	for _, item := range doc.Document.Body.Items {
		switch it := item.(type) {
		case *docx.Paragraph:
			if t := docxParagraphText(it); t != "" {
				lines = append(lines, t)
			}
		case *docx.Table:
			lines = append(lines, docxTableText(it)...)
		}
	}

	return singlePage(filename, "docx", strings.Join(lines, "\n"), p.MinPageChars), nil
}

func parseDocx(data []byte) (doc *docx.Docx, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			doc, err = nil, fmt.Errorf("docx reader panic: %v", rec)
		}
	}()
	doc, err = docx.Parse(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}
	return doc, nil
}

func docxParagraphText(para *docx.Paragraph) string {
	var buf strings.Builder
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		for _, rc := range run.Children {
			switch t := rc.(type) {
			case *docx.Text:
				buf.WriteString(t.Text)
			case *docx.Tab:
				buf.WriteByte(' ')
			}
		}
	}
	return strings.TrimSpace(buf.String())
}

func docxTableText(tbl *docx.Table) []string {
	var lines []string
	for _, row := range tbl.TableRows {
		for _, cell := range row.TableCells {
			for _, para := range cell.Paragraphs {
				if t := docxParagraphText(para); t != "" {
					lines = append(lines, t)
				}
			}
		}
	}
	return lines
}

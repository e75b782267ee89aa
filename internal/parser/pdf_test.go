package parser

import (
	"errors"
	"strings"
	"testing"

	"github.com/dgallion1/examscope/internal/parser/parsertest"
)

func TestPDFParser_PagesInOrder(t *testing.T) {
	long := "1. A Carnot engine operates between two reservoirs. Calculate its efficiency."
	data := parsertest.BuildPDF([]string{long, "", "short"})

	p := &PDFParser{MinPageChars: 50}
	doc, err := p.ParseBytes(data, "paper.pdf")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.PageCount() != 3 {
		t.Fatalf("expected 3 pages, got %d", doc.PageCount())
	}
	if doc.Format != "pdf" || doc.Source != "paper.pdf" {
		t.Errorf("unexpected format/source: %q %q", doc.Format, doc.Source)
	}
	if !strings.Contains(doc.Pages[0].Text, "Carnot engine") {
		t.Errorf("expected page 0 to contain text, got %q", doc.Pages[0].Text)
	}
	if !doc.Pages[0].Sufficient {
		t.Error("expected page 0 to be sufficient")
	}
	if doc.Pages[1].Sufficient || strings.TrimSpace(doc.Pages[1].Text) != "" {
		t.Errorf("expected page 1 empty and insufficient, got %+v", doc.Pages[1])
	}
	if doc.Pages[2].Sufficient {
		t.Error("expected short page 2 to be insufficient")
	}
	for i, pg := range doc.Pages {
		if pg.Index != i {
			t.Errorf("page %d has index %d", i, pg.Index)
		}
	}
}

func TestPDFParser_CorruptInput(t *testing.T) {
	inputs := map[string][]byte{
		"garbage":   []byte("this is not a pdf at all"),
		"empty":     {},
		"truncated": parsertest.BuildPDF([]string{"hello world"})[:40],
	}
	for name, data := range inputs {
		t.Run(name, func(t *testing.T) {
			p := &PDFParser{}
			_, err := p.ParseBytes(data, "bad.pdf")
			if err == nil {
				t.Fatal("expected error for corrupt pdf")
			}
			var cde *CorruptDocumentError
			if !errors.As(err, &cde) {
				t.Fatalf("expected CorruptDocumentError, got %T: %v", err, err)
			}
			if cde.Filename != "bad.pdf" {
				t.Errorf("expected filename bad.pdf, got %q", cde.Filename)
			}
		})
	}
}

func TestSplitPages(t *testing.T) {
	got := splitPages("one\ftwo\f\f")
	want := []string{"one", "two", ""}
	if len(got) != len(want) {
		t.Fatalf("expected %d pages, got %d (%q)", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("page %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

package document

import (
	"strings"
	"testing"
)

func TestNewPage_Sufficiency(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		minChars int
		want     bool
	}{
		{"empty", "", 50, false},
		{"whitespace only", "   \n\t  ", 50, false},
		{"below threshold", strings.Repeat("a", 49), 50, false},
		{"at threshold", strings.Repeat("a", 50), 50, true},
		{"padded below threshold", "  " + strings.Repeat("a", 49) + "  ", 50, false},
		{"default threshold", strings.Repeat("a", DefaultMinPageChars), 0, true},
		{"custom threshold", "hello", 5, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPage(0, tt.text, tt.minChars)
			if p.Sufficient != tt.want {
				t.Errorf("expected sufficient=%v, got %v", tt.want, p.Sufficient)
			}
			if p.Method != MethodEmbedded {
				t.Errorf("expected method %q, got %q", MethodEmbedded, p.Method)
			}
		})
	}
}

func TestDocument_MergedTextUsesPageBreaks(t *testing.T) {
	doc := &Document{Pages: []Page{
		{Index: 0, Text: "page one"},
		{Index: 1, Text: ""},
		{Index: 2, Text: "page\fthree"},
	}}
	got := doc.MergedText()
	want := "page one\f\fpage\nthree"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
	if strings.Count(got, PageBreak) != doc.PageCount()-1 {
		t.Errorf("expected %d page breaks, got %d", doc.PageCount()-1, strings.Count(got, PageBreak))
	}
}

func TestDocument_InsufficientAndOCRPages(t *testing.T) {
	doc := &Document{Pages: []Page{
		NewPage(0, strings.Repeat("x", 60), 50),
		NewPage(1, "short", 50),
		{Index: 2, Text: strings.Repeat("y", 80), Method: MethodOCR, Sufficient: true},
		NewPage(3, "", 50),
	}}
	got := doc.InsufficientPages()
	if len(got) != 2 || got[0] != 1 || got[1] != 3 {
		t.Errorf("expected insufficient pages [1 3], got %v", got)
	}
	if doc.OCRPages() != 1 {
		t.Errorf("expected 1 OCR page, got %d", doc.OCRPages())
	}
}

func TestDocument_HasText(t *testing.T) {
	empty := &Document{Pages: []Page{{Text: " "}, {Text: "\n"}}}
	if empty.HasText() {
		t.Error("expected whitespace-only document to have no text")
	}
	full := &Document{Pages: []Page{{Text: " "}, {Text: "Q1"}}}
	if !full.HasText() {
		t.Error("expected document with text to report HasText")
	}
}

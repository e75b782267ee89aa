// Package segment splits merged document text into question units.
package segment

import (
	"iter"
	"regexp"
	"strings"

	"github.com/dgallion1/examscope/internal/document"
)

// numbering matches a question marker at the start of a line or right after
// a page break: "1.", "12)", "a)", "(b)", "(iv)", "B.", "Q3.", "Question 4:".
var numbering = regexp.MustCompile(`(?m)(?:^|\f)[ \t]*(` +
	`(?i:q(?:uestion)?)[ \t]*\.?[ \t]*\d{1,3}[ \t]*[.):\-]?` +
	`|\d{1,3}[.)]` +
	`|\(?[A-Za-z]\)` +
	`|\((?:i{1,3}|iv|vi{0,3}|ix|x)\)` +
	`|[A-Z]\.` +
	`)(?:[ \t]|$)`)

// paragraphBreak separates paragraphs when a document has no numbering.
var paragraphBreak = regexp.MustCompile(`\n[ \t]*\n\s*|\f`)

// Segmenter splits text into questions. The zero value is not usable; call New.
type Segmenter struct {
	pattern *regexp.Regexp
}

func New() *Segmenter {
	return &Segmenter{pattern: numbering}
}

// Segment returns the questions of text in document order. The sequence is
// lazy and can be ranged over repeatedly with identical results. Text before
// the first numbered line is treated as a preamble and dropped. Non-empty
// text always yields at least one question.
func (s *Segmenter) Segment(text string) iter.Seq[document.Question] {
	return func(yield func(document.Question) bool) {
		if strings.TrimSpace(text) == "" {
			return
		}

		starts := s.starts(text)
		if len(starts) == 0 {
			splitParagraphs(text, yield)
			return
		}

		ordinal := 0
		for i, start := range starts {
			end := len(text)
			if i+1 < len(starts) {
				end = starts[i+1]
			}
			body := cleanSpan(text[start:end])
			if body == "" {
				continue
			}
			q := document.Question{Text: body, Page: pageAt(text, start), Ordinal: ordinal}
			ordinal++
			if !yield(q) {
				return
			}
		}
	}
}

// Collect drains Segment into a slice.
func (s *Segmenter) Collect(text string) []document.Question {
	var out []document.Question
	for q := range s.Segment(text) {
		out = append(out, q)
	}
	return out
}

func (s *Segmenter) starts(text string) []int {
	matches := s.pattern.FindAllStringSubmatchIndex(text, -1)
	starts := make([]int, 0, len(matches))
	for _, m := range matches {
		starts = append(starts, m[2])
	}
	return starts
}

func splitParagraphs(text string, yield func(document.Question) bool) {
	ordinal := 0
	pos := 0
	emit := func(start, end int) bool {
		body := cleanSpan(text[start:end])
		if body == "" {
			return true
		}
		q := document.Question{Text: body, Page: pageAt(text, start), Ordinal: ordinal}
		ordinal++
		return yield(q)
	}

	for _, br := range paragraphBreak.FindAllStringIndex(text, -1) {
		if !emit(pos, br[0]) {
			return
		}
		pos = br[1]
	}
	emit(pos, len(text))
}

// cleanSpan trims a span and turns any page breaks inside it into newlines.
func cleanSpan(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, document.PageBreak, "\n"))
}

// pageAt returns the index of the page containing byte offset pos.
func pageAt(text string, pos int) int {
	return strings.Count(text[:pos], document.PageBreak)
}

package chunker

import (
	"fmt"
	"strings"
	"testing"

	"github.com/dgallion1/examscope/internal/document"
)

func makeQuestions(n int, text string) []document.Question {
	qs := make([]document.Question, n)
	for i := range qs {
		qs[i] = document.Question{Text: fmt.Sprintf("%d. %s", i+1, text), Ordinal: i}
	}
	return qs
}

func TestSplit_ByCount(t *testing.T) {
	qs := makeQuestions(25, "Define entropy.")
	batches := Split(qs, Config{BatchSize: 10, MaxTokens: 100000})
	if len(batches) != 3 {
		t.Fatalf("expected 3 batches, got %d", len(batches))
	}
	wantSizes := []int{10, 10, 5}
	wantOffsets := []int{0, 10, 20}
	for i, b := range batches {
		if len(b.Questions) != wantSizes[i] {
			t.Errorf("batch %d: expected %d questions, got %d", i, wantSizes[i], len(b.Questions))
		}
		if b.Offset != wantOffsets[i] {
			t.Errorf("batch %d: expected offset %d, got %d", i, wantOffsets[i], b.Offset)
		}
	}
}

func TestSplit_ByTokens(t *testing.T) {
	long := strings.Repeat("word ", 100) // ~133 tokens + overhead
	qs := makeQuestions(6, long)
	batches := Split(qs, Config{BatchSize: 10, MaxTokens: 400, CharLimit: 10000, PromptTokens: 0})
	if len(batches) < 3 {
		t.Fatalf("expected token budget to force at least 3 batches, got %d", len(batches))
	}
	for i, b := range batches {
		if len(b.Questions) > 1 && b.Tokens > 400 {
			t.Errorf("batch %d exceeds token budget: %d", i, b.Tokens)
		}
	}
}

func TestSplit_OversizedQuestionGetsOwnBatch(t *testing.T) {
	qs := []document.Question{
		{Text: "1. short"},
		{Text: "2. " + strings.Repeat("huge ", 1000)},
		{Text: "3. short"},
	}
	batches := Split(qs, Config{BatchSize: 10, MaxTokens: 200, CharLimit: 100000, PromptTokens: 0})
	if len(batches) != 3 {
		t.Fatalf("expected 3 batches, got %d", len(batches))
	}
	if len(batches[1].Questions) != 1 || batches[1].Offset != 1 {
		t.Errorf("expected oversized question alone at offset 1, got %+v", batches[1].Offset)
	}
}

func TestSplit_CoversEveryQuestionInOrder(t *testing.T) {
	qs := makeQuestions(37, "Explain the photoelectric effect in detail.")
	batches := Split(qs, Config{BatchSize: 7, MaxTokens: 250})
	next := 0
	for _, b := range batches {
		if b.Offset != next {
			t.Fatalf("expected offset %d, got %d", next, b.Offset)
		}
		for j, q := range b.Questions {
			if q.Ordinal != next+j {
				t.Fatalf("question out of order: want %d, got %d", next+j, q.Ordinal)
			}
		}
		next += len(b.Questions)
	}
	if next != len(qs) {
		t.Errorf("expected %d questions covered, got %d", len(qs), next)
	}
}

func TestSplit_Empty(t *testing.T) {
	if got := Split(nil, DefaultConfig()); len(got) != 0 {
		t.Errorf("expected no batches, got %d", len(got))
	}
}

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"", 0},
		{"a", 1},
		{"one two three", 3},
		{strings.Repeat("w ", 100), 133},
	}
	for _, tt := range tests {
		if got := EstimateTokens(tt.text); got != tt.want {
			t.Errorf("EstimateTokens(%q) = %d, want %d", tt.text, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("abcdef", 3); got != "abc..." {
		t.Errorf("expected abc..., got %q", got)
	}
	if got := Truncate("abc", 3); got != "abc" {
		t.Errorf("expected abc unchanged, got %q", got)
	}
	if got := Truncate("ééé", 2); got != "éé..." {
		t.Errorf("expected rune-aware truncation, got %q", got)
	}
}

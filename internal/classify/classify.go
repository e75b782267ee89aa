// Package classify assigns a chapter and topics to each question, either
// from a hosted model or from the keyword dictionary.
package classify

import (
	"context"
	"fmt"

	"github.com/dgallion1/examscope/internal/document"
)

// Unknown is the chapter of a question nothing could classify.
const Unknown = "Unknown"

// Source records which kind of classifier produced a result.
type Source string

const (
	SourceAI        Source = "ai"
	SourceHeuristic Source = "heuristic"
)

// Result is the classification of one question.
type Result struct {
	Chapter    string   `json:"chapter"`
	Topics     []string `json:"topics"`
	Confidence float64  `json:"confidence"`
	Source     Source   `json:"source"`
	Provider   string   `json:"provider,omitempty"`
}

// Classified reports whether the result names a real chapter.
func (r Result) Classified() bool {
	return r.Chapter != "" && r.Chapter != Unknown
}

func unknown(source Source, provider string) Result {
	return Result{Chapter: Unknown, Topics: []string{}, Source: source, Provider: provider}
}

// Strategy classifies one batch of questions.
type Strategy interface {
	Name() string
	Classify(ctx context.Context, batch []document.Question) Outcome
}

// Outcome is one of Complete, Partial or Failed.
type Outcome interface {
	outcome()
}

// Complete holds one result per question, in batch order.
type Complete struct {
	Results []Result
}

// Partial holds one result per question; the entries at Degraded positions
// could not be read from the reply and are Unknown.
type Partial struct {
	Results  []Result
	Degraded []int
}

// Failed means the batch produced no usable results.
type Failed struct {
	Err error
}

func (Complete) outcome() {}
func (Partial) outcome()  {}
func (Failed) outcome()   {}

// MalformedResponseError is returned when a model reply contains nothing
// that can be read as classifications.
type MalformedResponseError struct {
	Provider string
	Raw      string
	Err      error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed response from %s: %v", e.Provider, e.Err)
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}

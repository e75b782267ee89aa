// Package report turns per-question classifications into the analysis
// summary and renders it for export.
package report

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/dgallion1/examscope/internal/classify"
	"github.com/dgallion1/examscope/internal/document"
)

// Method names which classifiers produced a report.
type Method string

const (
	MethodAI        Method = "ai"
	MethodHeuristic Method = "heuristic"
	MethodMixed     Method = "mixed"
)

// DefaultSampleCount is the number of sample questions kept.
const DefaultSampleCount = 3

// Sample is one question shown in the report with its classification.
type Sample struct {
	Question   string          `json:"question"`
	Chapter    string          `json:"chapter"`
	Topics     []string        `json:"topics"`
	Source     classify.Source `json:"source"`
	Provider   string          `json:"provider,omitempty"`
	Confidence *float64        `json:"confidence,omitempty"` // AI results only
}

// Report is the analysis summary. Chapters and Unclassified always add up
// to TotalQuestions.
type Report struct {
	ID                string         `json:"report_id"`
	Filename          string         `json:"filename"`
	Files             []string       `json:"files,omitempty"`
	TotalQuestions    int            `json:"total_questions"`
	Chapters          map[string]int `json:"chapters"`
	Topics            map[string]int `json:"topics"`
	UnclassifiedCount int            `json:"unclassified_count"`
	PrimarySubject    string         `json:"primary_subject"`
	SampleQuestions   []string       `json:"sample_questions"`
	Samples           []Sample       `json:"samples"`
	Method            Method         `json:"analysis_method"`
	ProvidersUsed     []string       `json:"providers_used"`
	Pages             int            `json:"pages"`
	OCRPages          int            `json:"ocr_pages"`
	OCRAvailable      bool           `json:"ocr_available"`
	Warnings          []string       `json:"warnings"`
	CreatedAt         time.Time      `json:"created_at"`
}

// Options controls aggregation.
type Options struct {
	SampleCount int // negative means DefaultSampleCount
}

// Aggregate builds a report from questions and their results, matched by
// position. A question without a result counts as unclassified.
func Aggregate(questions []document.Question, results []classify.Result, opts Options) *Report {
	k := opts.SampleCount
	if k < 0 {
		k = DefaultSampleCount
	}

	r := newReport()
	r.TotalQuestions = len(questions)

	var sawAI, sawHeuristic bool
	for i, q := range questions {
		res := classify.Result{Chapter: classify.Unknown, Source: classify.SourceHeuristic}
		if i < len(results) {
			res = results[i]
		}

		if res.Classified() {
			r.Chapters[res.Chapter]++
		} else {
			r.UnclassifiedCount++
		}
		for _, t := range res.Topics {
			r.Topics[t]++
		}

		switch res.Source {
		case classify.SourceAI:
			sawAI = true
			r.addProvider(res.Provider)
		default:
			sawHeuristic = true
		}

		if i < k {
			r.SampleQuestions = append(r.SampleQuestions, q.Text)
			r.Samples = append(r.Samples, sampleOf(q, res))
		}
	}
	r.Method = methodOf(sawAI, sawHeuristic)
	r.PrimarySubject = r.primarySubject()
	return r
}

func newReport() *Report {
	return &Report{
		ID:              uuid.NewString(),
		Chapters:        make(map[string]int),
		Topics:          make(map[string]int),
		SampleQuestions: []string{},
		Samples:         []Sample{},
		ProvidersUsed:   []string{},
		Warnings:        []string{},
		CreatedAt:       time.Now().UTC(),
	}
}

func sampleOf(q document.Question, res classify.Result) Sample {
	s := Sample{
		Question: q.Text,
		Chapter:  res.Chapter,
		Topics:   res.Topics,
		Source:   res.Source,
		Provider: res.Provider,
	}
	if s.Topics == nil {
		s.Topics = []string{}
	}
	if res.Source == classify.SourceAI {
		c := res.Confidence
		s.Confidence = &c
	}
	return s
}

// methodOf reports heuristic when nothing was classified at all.
func methodOf(ai, heuristic bool) Method {
	switch {
	case ai && heuristic:
		return MethodMixed
	case ai:
		return MethodAI
	default:
		return MethodHeuristic
	}
}

func (r *Report) addProvider(name string) {
	if name == "" {
		return
	}
	for _, p := range r.ProvidersUsed {
		if p == name {
			return
		}
	}
	r.ProvidersUsed = append(r.ProvidersUsed, name)
}

// primarySubject is the most frequent chapter, or Unknown when nothing
// was classified.
func (r *Report) primarySubject() string {
	if top := r.RankedChapters(); len(top) > 0 {
		return top[0].Name
	}
	return classify.Unknown
}

// Count is one row of a ranked view.
type Count struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// RankedChapters lists chapters by count, highest first; ties by name.
func (r *Report) RankedChapters() []Count {
	return ranked(r.Chapters)
}

// RankedTopics lists topics by count, highest first; ties by name.
func (r *Report) RankedTopics() []Count {
	return ranked(r.Topics)
}

func ranked(m map[string]int) []Count {
	out := make([]Count, 0, len(m))
	for k, v := range m {
		out = append(out, Count{Name: k, Count: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Merge combines per-file reports into one. Samples are taken from the
// inputs in order up to sampleCount.
func Merge(sampleCount int, reports ...*Report) *Report {
	if sampleCount < 0 {
		sampleCount = DefaultSampleCount
	}
	m := newReport()

	var sawAI, sawHeuristic bool
	for _, r := range reports {
		if r == nil {
			continue
		}
		m.Files = append(m.Files, r.Filename)
		m.TotalQuestions += r.TotalQuestions
		m.UnclassifiedCount += r.UnclassifiedCount
		m.Pages += r.Pages
		m.OCRPages += r.OCRPages
		m.OCRAvailable = m.OCRAvailable || r.OCRAvailable
		for k, v := range r.Chapters {
			m.Chapters[k] += v
		}
		for k, v := range r.Topics {
			m.Topics[k] += v
		}
		for _, p := range r.ProvidersUsed {
			m.addProvider(p)
		}
		for _, w := range r.Warnings {
			m.Warnings = append(m.Warnings, r.Filename+": "+w)
		}
		for i, s := range r.Samples {
			if len(m.Samples) >= sampleCount {
				break
			}
			m.Samples = append(m.Samples, s)
			if i < len(r.SampleQuestions) {
				m.SampleQuestions = append(m.SampleQuestions, r.SampleQuestions[i])
			}
		}

		if r.TotalQuestions == 0 {
			continue
		}
		switch r.Method {
		case MethodAI:
			sawAI = true
		case MethodMixed:
			sawAI, sawHeuristic = true, true
		default:
			sawHeuristic = true
		}
	}
	m.Method = methodOf(sawAI, sawHeuristic)
	m.PrimarySubject = m.primarySubject()
	if len(m.Files) == 1 {
		m.Filename = m.Files[0]
	} else {
		m.Filename = fmt.Sprintf("%d files", len(m.Files))
	}
	return m
}

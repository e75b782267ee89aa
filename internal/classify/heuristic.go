package classify

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/dgallion1/examscope/internal/document"
	"github.com/dgallion1/examscope/internal/keywords"
)

// DictionarySource yields the current keyword dictionary.
type DictionarySource interface {
	Get() *keywords.Dictionary
}

// HeuristicOptions controls topic extraction.
type HeuristicOptions struct {
	TopicCount     int // default 3
	TopicMinLength int // default 3
}

var tokenPattern = regexp.MustCompile(`[a-z]+`)

type compiled struct {
	dict     *keywords.Dictionary
	chapters [][]*regexp.Regexp
}

// Heuristic scores chapters by keyword stem matches. It never fails.
type Heuristic struct {
	src  DictionarySource
	opts HeuristicOptions

	mu    sync.Mutex
	cache *compiled
}

func NewHeuristic(src DictionarySource, opts HeuristicOptions) *Heuristic {
	if opts.TopicCount <= 0 {
		opts.TopicCount = 3
	}
	if opts.TopicMinLength <= 0 {
		opts.TopicMinLength = 3
	}
	return &Heuristic{src: src, opts: opts}
}

func (h *Heuristic) Name() string { return string(SourceHeuristic) }

// Classify classifies every question in the batch.
func (h *Heuristic) Classify(_ context.Context, batch []document.Question) Outcome {
	results := make([]Result, len(batch))
	for i, q := range batch {
		results[i] = h.ClassifyText(q.Text)
	}
	return Complete{Results: results}
}

// ClassifyText classifies a single question.
func (h *Heuristic) ClassifyText(text string) Result {
	c := h.matchers()
	dict := c.dict

	best, bestScore := -1, 0
	for i, stems := range c.chapters {
		score := 0
		for _, re := range stems {
			score += len(re.FindAllStringIndex(text, -1))
		}
		// Strictly greater keeps the earlier chapter on ties.
		if score > bestScore {
			best, bestScore = i, score
		}
	}

	r := unknown(SourceHeuristic, "")
	r.Topics = Topics(text, dict, h.opts.TopicCount, h.opts.TopicMinLength)
	if best >= 0 {
		r.Chapter = dict.Chapters[best].Name
		r.Confidence = float64(bestScore) / float64(bestScore+1)
	}
	return r
}

// matchers compiles the stem patterns for the current dictionary, reusing
// them until the dictionary changes.
func (h *Heuristic) matchers() *compiled {
	dict := h.src.Get()

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cache != nil && h.cache.dict == dict {
		return h.cache
	}

	c := &compiled{dict: dict, chapters: make([][]*regexp.Regexp, len(dict.Chapters))}
	for i, ch := range dict.Chapters {
		for _, stem := range ch.Stems {
			c.chapters[i] = append(c.chapters[i], stemPattern(stem))
		}
	}
	h.cache = c
	return c
}

// stemPattern matches a word starting with stem. Words of a multi-word stem
// may be separated by any whitespace.
func stemPattern(stem string) *regexp.Regexp {
	words := strings.Fields(stem)
	for i, w := range words {
		words[i] = regexp.QuoteMeta(w)
	}
	return regexp.MustCompile(`(?i)\b` + strings.Join(words, `\s+`) + `\w*`)
}

// Topics returns up to n distinct lowercase tokens of at least minLen letters
// that are not stopwords, most frequent first; ties keep first occurrence.
func Topics(text string, dict *keywords.Dictionary, n, minLen int) []string {
	type tok struct {
		word  string
		count int
	}
	seen := make(map[string]*tok)
	var order []*tok
	for _, w := range tokenPattern.FindAllString(strings.ToLower(text), -1) {
		if len(w) < minLen || dict.IsStopword(w) {
			continue
		}
		if t, ok := seen[w]; ok {
			t.count++
			continue
		}
		t := &tok{word: w, count: 1}
		seen[w] = t
		order = append(order, t)
	}
	sort.SliceStable(order, func(i, j int) bool {
		return order[i].count > order[j].count
	})

	topics := make([]string, 0, n)
	for _, t := range order {
		if len(topics) == n {
			break
		}
		topics = append(topics, t.word)
	}
	return topics
}

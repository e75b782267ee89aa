// Package chunker groups questions into batches for AI classification.
package chunker

import "github.com/dgallion1/examscope/internal/document"

// Config controls batching behavior.
type Config struct {
	BatchSize    int // Max questions per batch.
	MaxTokens    int // Max estimated prompt tokens per batch.
	CharLimit    int // Questions are truncated to this many characters before estimating.
	PromptTokens int // Fixed overhead of the instructions around the questions.
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		BatchSize:    10,
		MaxTokens:    3000,
		CharLimit:    500,
		PromptTokens: 250,
	}
}

// Batch is a contiguous run of questions. Offset is the position of the
// first question in the original slice, so results can be written back by index.
type Batch struct {
	Offset    int
	Questions []document.Question
	Tokens    int
}

// Split cuts questions into contiguous batches bounded by count and
// estimated tokens. A single question over the token budget still gets a
// batch of its own. Every question lands in exactly one batch, in order.
func Split(questions []document.Question, cfg Config) []Batch {
	def := DefaultConfig()
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = def.BatchSize
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = def.MaxTokens
	}
	if cfg.CharLimit <= 0 {
		cfg.CharLimit = def.CharLimit
	}
	if cfg.PromptTokens < 0 {
		cfg.PromptTokens = 0
	}

	var batches []Batch
	var cur Batch
	cur.Tokens = cfg.PromptTokens

	flush := func(next int) {
		if len(cur.Questions) > 0 {
			batches = append(batches, cur)
		}
		cur = Batch{Offset: next, Tokens: cfg.PromptTokens}
	}

	for i, q := range questions {
		tokens := EstimateTokens(Truncate(q.Text, cfg.CharLimit)) + perQuestionOverhead
		full := len(cur.Questions) >= cfg.BatchSize
		over := len(cur.Questions) > 0 && cur.Tokens+tokens > cfg.MaxTokens
		if full || over {
			flush(i)
		}
		if len(cur.Questions) == 0 {
			cur.Offset = i
		}
		cur.Questions = append(cur.Questions, q)
		cur.Tokens += tokens
	}
	flush(len(questions))

	return batches
}

// perQuestionOverhead covers the index label and JSON entry in the reply.
const perQuestionOverhead = 30

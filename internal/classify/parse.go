package classify

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// MaxTopics caps the topics kept from a model reply.
const MaxTopics = 5

const entrySchemaJSON = `{
  "type": "object",
  "required": ["chapter", "topics", "confidence"],
  "properties": {
    "index": {"type": "integer", "minimum": 0},
    "chapter": {"type": "string", "minLength": 1, "maxLength": 120},
    "topics": {"type": "array", "items": {"type": "string"}},
    "confidence": {"type": "number"}
  }
}`

var entrySchema = jsonschema.MustCompileString("classification-entry.json", entrySchemaJSON)

var codeBlockPattern = regexp.MustCompile("(?s)^```(?:json)?\\s*(.*?)\\s*```$")

var injectionPattern = regexp.MustCompile(
	`(?i)(ignore\s+(previous|all|above)|system\s*prompt|you\s+are\s+now|` +
		`act\s+as\s+|pretend\s+|forget\s+(everything|all)|new\s+instructions)`,
)

// wrapperKeys are the object keys a reply may nest its array under.
var wrapperKeys = []string{"results", "classifications", "questions"}

type entry struct {
	Index      *int     `json:"index"`
	Chapter    string   `json:"chapter"`
	Topics     []string `json:"topics"`
	Confidence float64  `json:"confidence"`
}

// ParseResponse reads a model reply for a batch of n questions. It returns
// n results in batch order plus the positions that had no valid entry. An
// error means nothing in the reply could be read.
func ParseResponse(providerName, raw string, n int) ([]Result, []int, error) {
	items, err := extractItems(raw, n)
	if err != nil {
		return nil, nil, &MalformedResponseError{Provider: providerName, Raw: raw, Err: err}
	}

	results := make([]Result, n)
	filled := make([]bool, n)
	for pos, item := range items {
		e, ok := validateEntry(item)
		if !ok {
			continue
		}
		idx := pos
		if e.Index != nil {
			idx = *e.Index
		}
		if idx < 0 || idx >= n || filled[idx] {
			continue
		}
		results[idx] = e.result(providerName)
		filled[idx] = true
	}

	var degraded []int
	for i := range results {
		if !filled[i] {
			results[i] = unknown(SourceAI, providerName)
			degraded = append(degraded, i)
		}
	}
	return results, degraded, nil
}

// extractItems finds the classification array in a reply. Each '[' or '{'
// is tried as the start of a JSON value so that brackets in surrounding
// commentary are skipped.
func extractItems(raw string, n int) ([]any, error) {
	s := stripCodeBlock(strings.TrimSpace(raw))
	if strings.IndexAny(s, "[{") < 0 {
		return nil, errors.New("no JSON value in reply")
	}

	var empty []any
	var lastErr error
	for i := 0; i < len(s); i++ {
		if s[i] != '[' && s[i] != '{' {
			continue
		}
		var v any
		if err := json.NewDecoder(strings.NewReader(s[i:])).Decode(&v); err != nil {
			lastErr = err
			continue
		}
		items, ok := classificationItems(v, n)
		if !ok {
			continue
		}
		if len(items) == 0 {
			if empty == nil {
				empty = items
			}
			continue
		}
		return items, nil
	}
	if empty != nil {
		return empty, nil
	}
	if lastErr != nil {
		return nil, fmt.Errorf("decode reply: %w", lastErr)
	}
	return nil, errors.New("reply holds no classification array")
}

// classificationItems accepts an array holding entry objects, an object
// wrapping one, or a single entry object when the batch has one question.
// Arrays without any object, such as "[0]", are prose labels.
func classificationItems(v any, n int) ([]any, bool) {
	switch t := v.(type) {
	case []any:
		return t, len(t) == 0 || hasObject(t)
	case map[string]any:
		for _, k := range wrapperKeys {
			if arr, ok := t[k].([]any); ok && (len(arr) == 0 || hasObject(arr)) {
				return arr, true
			}
		}
		if _, ok := t["chapter"]; ok && n == 1 {
			return []any{t}, true
		}
	}
	return nil, false
}

func hasObject(items []any) bool {
	for _, it := range items {
		if _, ok := it.(map[string]any); ok {
			return true
		}
	}
	return false
}

// validateEntry checks one reply entry against the schema and decodes it.
func validateEntry(item any) (entry, bool) {
	if err := entrySchema.Validate(item); err != nil {
		return entry{}, false
	}
	b, err := json.Marshal(item)
	if err != nil {
		return entry{}, false
	}
	var e entry
	if err := json.Unmarshal(b, &e); err != nil {
		return entry{}, false
	}
	e.Chapter = strings.TrimSpace(e.Chapter)
	if e.Chapter == "" || injectionPattern.MatchString(e.Chapter) {
		return entry{}, false
	}
	return e, true
}

func (e entry) result(providerName string) Result {
	r := Result{
		Chapter:    e.Chapter,
		Topics:     normalizeTopics(e.Topics),
		Confidence: clamp(e.Confidence),
		Source:     SourceAI,
		Provider:   providerName,
	}
	if strings.EqualFold(r.Chapter, Unknown) {
		r.Chapter = Unknown
		r.Confidence = 0
	}
	return r
}

func normalizeTopics(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, t := range in {
		t = strings.ToLower(strings.Join(strings.Fields(t), " "))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
		if len(out) == MaxTopics {
			break
		}
	}
	return out
}

func clamp(f float64) float64 {
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	}
	return f
}

// stripCodeBlock removes a surrounding markdown code fence.
func stripCodeBlock(s string) string {
	if m := codeBlockPattern.FindStringSubmatch(s); len(m) == 2 {
		return m[1]
	}
	return s
}

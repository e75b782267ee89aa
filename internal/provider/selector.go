package provider

import (
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"
)

// HeuristicName is the always-available last resort in provider listings.
const HeuristicName = "heuristic"

// Options configures the providers the selector may build.
type Options struct {
	GeminiModel      string
	GeminiBaseURL    string
	OpenAIModel      string
	OpenAIBaseURL    string
	AnthropicModel   string
	AnthropicBaseURL string
	Timeout          time.Duration
}

type candidate struct {
	name   string
	keyVar string
	model  string
	build  func(key string) Provider
}

type entry struct {
	key       string
	provider  Provider
	lastErr   string
	lastErrAt time.Time
}

// ProviderStatus describes one provider.
type ProviderStatus struct {
	Name       string    `json:"name"`
	Configured bool      `json:"configured"`
	Active     bool      `json:"active"`
	Model      string    `json:"model,omitempty"`
	LastError  string    `json:"last_error,omitempty"`
	LastErrAt  time.Time `json:"last_error_at,omitzero"`
	Reason     string    `json:"reason,omitempty"`
}

// Status is a snapshot of the selector.
type Status struct {
	Providers []ProviderStatus `json:"providers"`
	Default   string           `json:"default_provider"`
	Available []string         `json:"available_providers"`
}

// IsAvailable reports whether name is configured.
func (s Status) IsAvailable(name string) bool {
	for _, a := range s.Available {
		if a == name {
			return true
		}
	}
	return false
}

// Selector owns the provider clients and their preference order:
// gemini, then openai, then anthropic. Credentials are only re-read on
// Refresh.
type Selector struct {
	mu      sync.RWMutex
	lookup  func(string) string
	order   []candidate
	entries map[string]*entry
	log     *slog.Logger
}

// NewSelector builds the selector and performs an initial Refresh. lookup
// resolves credential variables; nil means os.Getenv.
func NewSelector(opts Options, lookup func(string) string, log *slog.Logger) *Selector {
	if lookup == nil {
		lookup = os.Getenv
	}
	s := &Selector{
		lookup:  lookup,
		entries: make(map[string]*entry),
		log:     log,
		order: []candidate{
			{
				name: NameGemini, keyVar: "GEMINI_API_KEY", model: opts.GeminiModel,
				build: func(key string) Provider {
					return NewGemini(key, opts.GeminiModel, opts.GeminiBaseURL, opts.Timeout)
				},
			},
			{
				name: NameOpenAI, keyVar: "OPENAI_API_KEY", model: opts.OpenAIModel,
				build: func(key string) Provider {
					return NewOpenAI(key, opts.OpenAIModel, opts.OpenAIBaseURL, opts.Timeout)
				},
			},
			{
				name: NameAnthropic, keyVar: "ANTHROPIC_API_KEY", model: opts.AnthropicModel,
				build: func(key string) Provider {
					return NewAnthropic(key, opts.AnthropicModel, opts.AnthropicBaseURL, opts.Timeout)
				},
			},
		},
	}
	s.Refresh()
	return s
}

// Refresh re-reads credentials. Clients are built for new keys, rebuilt for
// changed keys and closed for removed ones. Recorded errors are cleared for
// rebuilt clients.
func (s *Selector) Refresh() Status {
	s.mu.Lock()
	for _, sp := range s.order {
		key := strings.TrimSpace(s.lookup(sp.keyVar))
		cur := s.entries[sp.name]

		switch {
		case key == "" && cur != nil:
			cur.provider.Close()
			delete(s.entries, sp.name)
			s.log.Info("provider disabled", "provider", sp.name)
		case key != "" && cur == nil:
			s.entries[sp.name] = &entry{key: key, provider: sp.build(key)}
			s.log.Info("provider enabled", "provider", sp.name, "model", sp.model)
		case key != "" && cur.key != key:
			cur.provider.Close()
			s.entries[sp.name] = &entry{key: key, provider: sp.build(key)}
			s.log.Info("provider credentials changed", "provider", sp.name)
		}
	}
	s.mu.Unlock()
	return s.Status()
}

// Providers returns the configured providers in preference order.
func (s *Selector) Providers() []Provider {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Provider
	for _, sp := range s.order {
		if e, ok := s.entries[sp.name]; ok {
			out = append(out, e.provider)
		}
	}
	return out
}

// Status returns the current provider status.
func (s *Selector) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Status{Default: HeuristicName}
	for _, sp := range s.order {
		ps := ProviderStatus{Name: sp.name, Model: sp.model}
		e, ok := s.entries[sp.name]
		if !ok {
			ps.Reason = sp.keyVar + " not set"
			st.Providers = append(st.Providers, ps)
			continue
		}
		ps.Configured = true
		ps.Active = e.lastErr == ""
		ps.LastError = e.lastErr
		ps.LastErrAt = e.lastErrAt
		st.Providers = append(st.Providers, ps)
		if len(st.Available) == 0 {
			st.Default = sp.name
		}
		st.Available = append(st.Available, sp.name)
	}
	st.Available = append(st.Available, HeuristicName)
	return st
}

// RecordFailure stores the last error for a provider.
func (s *Selector) RecordFailure(name string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[name]; ok && err != nil {
		e.lastErr = err.Error()
		e.lastErrAt = time.Now()
	}
}

// RecordSuccess clears the last error for a provider.
func (s *Selector) RecordSuccess(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[name]; ok {
		e.lastErr = ""
		e.lastErrAt = time.Time{}
	}
}

// Close releases every client.
func (s *Selector) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for name, e := range s.entries {
		e.provider.Close()
		delete(s.entries, name)
	}
}

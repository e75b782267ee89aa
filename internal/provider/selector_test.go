package provider

import (
	"errors"
	"io"
	"log/slog"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeEnv map[string]string

func (f fakeEnv) lookup(k string) string { return f[k] }

func names(ps []Provider) []string {
	var out []string
	for _, p := range ps {
		out = append(out, p.Name())
	}
	return out
}

func TestSelector_PreferenceOrder(t *testing.T) {
	tests := []struct {
		name        string
		env         fakeEnv
		wantDefault string
		wantAvail   []string
	}{
		{"none", fakeEnv{}, "heuristic", []string{"heuristic"}},
		{"openai only", fakeEnv{"OPENAI_API_KEY": "sk"}, "openai", []string{"openai", "heuristic"}},
		{"all", fakeEnv{"GEMINI_API_KEY": "g", "OPENAI_API_KEY": "sk", "ANTHROPIC_API_KEY": "a"}, "gemini", []string{"gemini", "openai", "anthropic", "heuristic"}},
		{"anthropic and gemini", fakeEnv{"GEMINI_API_KEY": "g", "ANTHROPIC_API_KEY": "a"}, "gemini", []string{"gemini", "anthropic", "heuristic"}},
		{"blank key ignored", fakeEnv{"GEMINI_API_KEY": "   "}, "heuristic", []string{"heuristic"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSelector(Options{}, tt.env.lookup, testLogger())
			defer s.Close()

			st := s.Status()
			if st.Default != tt.wantDefault {
				t.Errorf("expected default %q, got %q", tt.wantDefault, st.Default)
			}
			if len(st.Available) != len(tt.wantAvail) {
				t.Fatalf("expected available %v, got %v", tt.wantAvail, st.Available)
			}
			for i := range tt.wantAvail {
				if st.Available[i] != tt.wantAvail[i] {
					t.Errorf("expected available %v, got %v", tt.wantAvail, st.Available)
				}
			}
			got := names(s.Providers())
			if len(got) != len(tt.wantAvail)-1 {
				t.Errorf("expected %d providers, got %v", len(tt.wantAvail)-1, got)
			}
		})
	}
}

func TestSelector_RefreshPicksUpCredentialChanges(t *testing.T) {
	env := fakeEnv{}
	s := NewSelector(Options{}, env.lookup, testLogger())
	defer s.Close()

	if len(s.Providers()) != 0 {
		t.Fatalf("expected no providers, got %v", names(s.Providers()))
	}

	env["OPENAI_API_KEY"] = "sk-1"
	if len(s.Providers()) != 0 {
		t.Fatal("credentials must not be re-read without Refresh")
	}
	st := s.Refresh()
	if !st.IsAvailable("openai") {
		t.Fatalf("expected openai after refresh, got %v", st.Available)
	}
	first := s.Providers()[0]

	env["OPENAI_API_KEY"] = "sk-2"
	s.Refresh()
	if s.Providers()[0] == first {
		t.Error("expected client to be rebuilt after key change")
	}

	delete(env, "OPENAI_API_KEY")
	st = s.Refresh()
	if st.IsAvailable("openai") {
		t.Error("expected openai to be removed after key removal")
	}
	if !st.IsAvailable(HeuristicName) {
		t.Error("heuristic must always be available")
	}
}

func TestSelector_RecordFailureAndSuccess(t *testing.T) {
	s := NewSelector(Options{GeminiModel: "gemini-x"}, fakeEnv{"GEMINI_API_KEY": "g"}.lookup, testLogger())
	defer s.Close()

	s.RecordFailure("gemini", errors.New("quota exceeded"))
	st := s.Status()
	g := st.Providers[0]
	if g.Name != "gemini" || g.Active || g.LastError != "quota exceeded" {
		t.Fatalf("unexpected status after failure: %+v", g)
	}
	if g.Model != "gemini-x" {
		t.Errorf("expected model gemini-x, got %q", g.Model)
	}
	if !st.IsAvailable("gemini") {
		t.Error("a failing but configured provider stays available")
	}

	s.RecordSuccess("gemini")
	g = s.Status().Providers[0]
	if !g.Active || g.LastError != "" {
		t.Errorf("expected active after success, got %+v", g)
	}

	s.RecordFailure("openai", errors.New("ignored"))
	for _, p := range s.Status().Providers {
		if p.Name == "openai" {
			if p.Configured || p.LastError != "" {
				t.Errorf("unconfigured provider should carry no error: %+v", p)
			}
			if p.Reason == "" {
				t.Error("expected a reason for an unconfigured provider")
			}
		}
	}
}

package keywords

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	d := Default()
	if len(d.Chapters) != 8 {
		t.Fatalf("expected 8 chapters, got %d", len(d.Chapters))
	}
	if d.Chapters[0].Name != "Mathematics" || d.Chapters[1].Name != "Physics" {
		t.Errorf("expected file order preserved, got %q, %q", d.Chapters[0].Name, d.Chapters[1].Name)
	}
	for _, w := range []string{"question", "marks", "energy", "the"} {
		if !d.IsStopword(w) {
			t.Errorf("expected %q to be a stopword", w)
		}
	}
	if d.IsStopword("thermodynamics") {
		t.Error("expected thermodynamics not to be a stopword")
	}
}

func TestParse_PreservesOrderAndNormalizes(t *testing.T) {
	data := []byte(`
chapters:
  Zoology: [" Mammal ", Reptile]
  Algebra: [matrix]
  Botany: []
stopwords: [The, AND]
`)
	d, err := Parse(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	names := []string{d.Chapters[0].Name, d.Chapters[1].Name, d.Chapters[2].Name}
	if names[0] != "Zoology" || names[1] != "Algebra" || names[2] != "Botany" {
		t.Errorf("expected order Zoology, Algebra, Botany, got %v", names)
	}
	if d.Chapters[0].Stems[0] != "mammal" || d.Chapters[0].Stems[1] != "reptile" {
		t.Errorf("expected lowercased trimmed stems, got %v", d.Chapters[0].Stems)
	}
	if !d.IsStopword("the") || !d.IsStopword("and") {
		t.Error("expected stopwords lowercased")
	}
}

func TestParse_Errors(t *testing.T) {
	tests := map[string]string{
		"not yaml":         "chapters: [",
		"chapters as list": "chapters: [a, b]",
		"no chapters":      "stopwords: [a]",
		"bad stems":        "chapters:\n  Physics: {a: b}",
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := Parse([]byte(data)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestStore_WatchReloads(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "keywords.yaml")
	if err := os.WriteFile(path, []byte("chapters:\n  Physics: [optics]\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	initial, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	s := NewStore(initial, log)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := s.Watch(ctx, path); err != nil {
		t.Fatalf("watch: %v", err)
	}

	// A broken file keeps the previous dictionary.
	if err := os.WriteFile(path, []byte("chapters: ["), 0o644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(100 * time.Millisecond)
	if s.Get().Chapters[0].Name != "Physics" {
		t.Fatalf("expected previous dictionary kept, got %q", s.Get().Chapters[0].Name)
	}

	if err := os.WriteFile(path, []byte("chapters:\n  Chemistry: [acid]\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if s.Get().Chapters[0].Name == "Chemistry" {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("expected reload to Chemistry, still %q", s.Get().Chapters[0].Name)
}

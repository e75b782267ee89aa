// Package keywords holds the chapter keyword dictionary and stopword list
// used by the heuristic classifier.
package keywords

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultYAML []byte

// Chapter is one dictionary entry. Stems are lowercase; a stem matches any
// word that starts with it.
type Chapter struct {
	Name  string
	Stems []string
}

// Dictionary is an ordered chapter list plus stopwords. It is immutable once
// built and safe to share.
type Dictionary struct {
	Chapters  []Chapter
	stopwords map[string]struct{}
}

// New builds a dictionary from ordered chapters and a stopword list.
func New(chapters []Chapter, stopwords []string) *Dictionary {
	d := &Dictionary{stopwords: make(map[string]struct{}, len(stopwords))}
	for _, ch := range chapters {
		c := Chapter{Name: strings.TrimSpace(ch.Name)}
		for _, s := range ch.Stems {
			if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
				c.Stems = append(c.Stems, s)
			}
		}
		if c.Name != "" {
			d.Chapters = append(d.Chapters, c)
		}
	}
	for _, w := range stopwords {
		d.stopwords[strings.ToLower(strings.TrimSpace(w))] = struct{}{}
	}
	return d
}

// IsStopword reports whether w (lowercase) is excluded from topics.
func (d *Dictionary) IsStopword(w string) bool {
	_, ok := d.stopwords[w]
	return ok
}

// StopwordCount returns the number of stopwords.
func (d *Dictionary) StopwordCount() int {
	return len(d.stopwords)
}

type fileFormat struct {
	Chapters  yaml.Node `yaml:"chapters"`
	Stopwords []string  `yaml:"stopwords"`
}

// Parse reads a YAML dictionary. Chapter order in the file is preserved.
func Parse(data []byte) (*Dictionary, error) {
	var f fileFormat
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse keywords: %w", err)
	}
	if f.Chapters.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("parse keywords: chapters must be a mapping")
	}

	var chapters []Chapter
	for i := 0; i+1 < len(f.Chapters.Content); i += 2 {
		name := f.Chapters.Content[i].Value
		var stems []string
		if err := f.Chapters.Content[i+1].Decode(&stems); err != nil {
			return nil, fmt.Errorf("parse keywords: chapter %q: %w", name, err)
		}
		chapters = append(chapters, Chapter{Name: name, Stems: stems})
	}
	if len(chapters) == 0 {
		return nil, fmt.Errorf("parse keywords: no chapters defined")
	}
	return New(chapters, f.Stopwords), nil
}

// Load reads a YAML dictionary from path.
func Load(path string) (*Dictionary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read keywords: %w", err)
	}
	return Parse(data)
}

// Default returns the built-in dictionary.
func Default() *Dictionary {
	d, err := Parse(defaultYAML)
	if err != nil {
		panic(err)
	}
	return d
}

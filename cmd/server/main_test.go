package main

import (
	"slices"
	"testing"
)

func TestVisionHints(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"eng", nil},
		{"en", []string{"en"}},
		{"eng+DE+fr", []string{"de", "fr"}},
		{"", nil},
	}
	for _, tt := range tests {
		if got := visionHints(tt.in); !slices.Equal(got, tt.want) {
			t.Errorf("visionHints(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

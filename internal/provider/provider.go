// Package provider wraps the hosted LLM APIs used for classification and
// selects between them.
package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Generation settings shared by every provider.
const (
	Temperature = 0.1
	MaxTokens   = 2000
)

// Provider names, in preference order.
const (
	NameGemini    = "gemini"
	NameOpenAI    = "openai"
	NameAnthropic = "anthropic"
)

// Provider sends a single system+user prompt and returns the raw reply text.
type Provider interface {
	Name() string
	Model() string
	Complete(ctx context.Context, system, prompt string) (string, error)
	Close()
}

// UnavailableError covers every failure that means "try another provider":
// transport errors, auth failures, rate limits, 5xx and timeouts.
type UnavailableError struct {
	Provider   string
	StatusCode int // 0 when no HTTP response was received
	Err        error
}

func (e *UnavailableError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("provider %s unavailable (status %d): %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("provider %s unavailable: %v", e.Provider, e.Err)
}

func (e *UnavailableError) Unwrap() error {
	return e.Err
}

// IsUnavailable reports whether err is (or wraps) an UnavailableError.
func IsUnavailable(err error) bool {
	var ue *UnavailableError
	return errors.As(err, &ue)
}

// unavailable wraps transport-level errors, including context deadlines.
func unavailable(provider string, status int, err error) error {
	return &UnavailableError{Provider: provider, StatusCode: status, Err: err}
}

// statusError maps a non-200 HTTP status to an UnavailableError. A 400 is
// almost always a model or account mismatch, which another provider may not
// have, so it is treated the same way.
func statusError(provider string, status int, body []byte) error {
	msg := truncate(strings.TrimSpace(string(body)), 200)
	return unavailable(provider, status, fmt.Errorf("status %d: %s", status, msg))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

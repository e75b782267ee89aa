package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAI calls the Chat Completions API through go-openai.
type OpenAI struct {
	client *openai.Client
	http   *http.Client
	model  string
}

func NewOpenAI(apiKey, model, baseURL string, timeout time.Duration) *OpenAI {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	hc := &http.Client{Timeout: timeout}
	cfg.HTTPClient = hc
	return &OpenAI{client: openai.NewClientWithConfig(cfg), http: hc, model: model}
}

func (o *OpenAI) Name() string  { return NameOpenAI }
func (o *OpenAI) Model() string { return o.model }

func (o *OpenAI) Complete(ctx context.Context, system, prompt string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       o.model,
		Temperature: Temperature,
		MaxTokens:   MaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", o.classify(err)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

// classify turns go-openai errors into UnavailableError with the HTTP status
// when one is known.
func (o *OpenAI) classify(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return unavailable(o.Name(), apiErr.HTTPStatusCode, fmt.Errorf("openai api: %s", apiErr.Message))
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return unavailable(o.Name(), reqErr.HTTPStatusCode, fmt.Errorf("openai request: %w", reqErr.Err))
	}
	return unavailable(o.Name(), 0, fmt.Errorf("openai: %w", err))
}

func (o *OpenAI) Close() {
	o.http.CloseIdleConnections()
}

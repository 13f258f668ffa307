package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// DefaultOpenAIBaseURL is the public OpenAI API.
const DefaultOpenAIBaseURL = "https://api.openai.com/v1"

// OpenAI calls an OpenAI-compatible chat completions endpoint.
type OpenAI struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewOpenAI creates a client. baseURL may point at any compatible server;
// empty means DefaultOpenAIBaseURL. A nil httpClient uses
// http.DefaultClient.
func NewOpenAI(apiKey string, httpClient *http.Client, baseURL string) *OpenAI {
	if baseURL == "" {
		baseURL = DefaultOpenAIBaseURL
	}
	return &OpenAI{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

func (c *OpenAI) Name() string { return "openai" }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
}

func (c *OpenAI) Complete(ctx context.Context, req Request) (string, error) {
	if err := checkRequest(c.apiKey, req); err != nil {
		return "", err
	}
	system := req.System
	if system == "" {
		system = SystemPrompt
	}

	hReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", nil)
	if err != nil {
		return "", fmt.Errorf("provider: build request: %w", err)
	}
	hReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	payload := chatRequest{
		Model: req.Model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: req.UserMessage()},
		},
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}
	body, err := doJSON(ctx, c.httpClient, hReq, payload)
	if err != nil {
		return "", err
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("provider: parse response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("%w: response has no choices", ErrNoResult)
	}
	content := parsed.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return "", fmt.Errorf("%w: empty content", ErrNoResult)
	}
	return content, nil
}

var _ Provider = (*OpenAI)(nil)

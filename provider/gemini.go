package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// DefaultGeminiBaseURL is the public Gemini API.
const DefaultGeminiBaseURL = "https://generativelanguage.googleapis.com"

// Gemini calls the Gemini generateContent endpoint.
type Gemini struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewGemini creates a client. Empty baseURL means DefaultGeminiBaseURL.
func NewGemini(apiKey string, httpClient *http.Client, baseURL string) *Gemini {
	if baseURL == "" {
		baseURL = DefaultGeminiBaseURL
	}
	return &Gemini{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

func (c *Gemini) Name() string { return "gemini" }

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	SystemInstruction *geminiContent  `json:"systemInstruction,omitempty"`
	Contents          []geminiContent `json:"contents"`
	GenerationConfig  struct {
		Temperature     float64 `json:"temperature"`
		MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
	} `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

func (c *Gemini) Complete(ctx context.Context, req Request) (string, error) {
	if err := checkRequest(c.apiKey, req); err != nil {
		return "", err
	}
	model := req.Model
	if model == "" {
		model = "gemini-2.5-flash"
	}
	system := req.System
	if system == "" {
		system = SystemPrompt
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, url.PathEscape(model))
	hReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("provider: build request: %w", err)
	}
	hReq.Header.Set("x-goog-api-key", c.apiKey)

	var payload geminiRequest
	payload.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: system}}}
	payload.Contents = []geminiContent{{
		Role:  "user",
		Parts: []geminiPart{{Text: req.UserMessage()}},
	}}
	payload.GenerationConfig.Temperature = req.Temperature
	payload.GenerationConfig.MaxOutputTokens = req.MaxTokens

	body, err := doJSON(ctx, c.httpClient, hReq, payload)
	if err != nil {
		return "", err
	}

	var parsed geminiResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("provider: parse response: %w", err)
	}

	var text strings.Builder
	for _, cand := range parsed.Candidates {
		for _, p := range cand.Content.Parts {
			text.WriteString(p.Text)
		}
	}
	if strings.TrimSpace(text.String()) == "" {
		return "", fmt.Errorf("%w: response has no text", ErrNoResult)
	}
	return text.String(), nil
}

var _ Provider = (*Gemini)(nil)

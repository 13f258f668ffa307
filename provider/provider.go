package provider

import (
	"context"
	"fmt"
	"strings"
)

// Context describes where the command will run.
type Context struct {
	WorkingDir string `json:"cwd"`
	OS         string `json:"os"`
}

// Request is one completion request.
type Request struct {
	Model       string
	System      string
	Context     Context
	Text        string
	MaxTokens   int
	Temperature float64
}

// UserMessage renders the request context ahead of the user's text.
func (r Request) UserMessage() string {
	cwd := r.Context.WorkingDir
	if cwd == "" {
		cwd = "/"
	}
	osName := r.Context.OS
	if osName == "" {
		osName = "Linux"
	}
	return fmt.Sprintf("Current directory: %s\nOperating System: %s\n%s", cwd, osName, r.Text)
}

// Provider sends a completion request and returns the model's raw text.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: must honor cancellation and deadlines.
type Provider interface {
	Name() string
	Complete(ctx context.Context, req Request) (string, error)
}

// Func adapts a function to Provider.
type Func struct {
	ID string
	Fn func(ctx context.Context, req Request) (string, error)
}

func (f Func) Name() string { return f.ID }

func (f Func) Complete(ctx context.Context, req Request) (string, error) {
	return f.Fn(ctx, req)
}

func checkRequest(apiKey string, req Request) error {
	if strings.TrimSpace(apiKey) == "" {
		return ErrMissingAPIKey
	}
	if strings.TrimSpace(req.Text) == "" {
		return ErrEmptyPrompt
	}
	return nil
}

var _ Provider = Func{}

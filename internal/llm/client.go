// Package llm wraps the generative-text service behind a narrow
// completion interface so callers never depend on a concrete provider.
package llm

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// Request carries one completion call: a fixed role instruction, the
// per-call user context, and sampling parameters.
type Request struct {
	System      string
	User        string
	Model       string
	Temperature float32
	TopP        float32
	MaxTokens   int32
}

// Client is the minimal contract the rest of the system needs from a
// text-completion backend. Implementations must treat every call as
// input -> nondeterministic text; results are never memoized.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// GenAIClient talks to the Gemini API.
type GenAIClient struct {
	client       *genai.Client
	defaultModel string
}

// NewGenAIClient creates a client from an API key.
func NewGenAIClient(ctx context.Context, apiKey, defaultModel string) (*GenAIClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("llm: API key is required")
	}
	if defaultModel == "" {
		defaultModel = "gemini-2.5-flash"
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("llm: create client: %w", err)
	}
	return &GenAIClient{client: client, defaultModel: defaultModel}, nil
}

// Complete performs a single text completion.
func (c *GenAIClient) Complete(ctx context.Context, req Request) (string, error) {
	model := req.Model
	if model == "" {
		model = c.defaultModel
	}

	cfg := &genai.GenerateContentConfig{}
	if req.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.Temperature > 0 {
		cfg.Temperature = genai.Ptr(req.Temperature)
	}
	if req.TopP > 0 {
		cfg.TopP = genai.Ptr(req.TopP)
	}
	if req.MaxTokens > 0 {
		cfg.MaxOutputTokens = req.MaxTokens
	}

	result, err := c.client.Models.GenerateContent(ctx, model, genai.Text(req.User), cfg)
	if err != nil {
		return "", fmt.Errorf("llm: completion failed: %w", err)
	}

	text := strings.TrimSpace(result.Text())
	if text == "" {
		return "", fmt.Errorf("llm: empty completion")
	}
	return text, nil
}

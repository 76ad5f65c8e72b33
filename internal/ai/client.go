// Package ai talks to the LLM provider that drafts itineraries and answers
// trip-planning chat.
//
// Providers sit behind Client. New wraps the chosen provider in a circuit
// breaker, so callers only ever see domain.UnavailableError for provider
// trouble and plain text on success.
package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"travelatlas/internal/domain"
)

// Roles accepted in Message.Role.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of a conversation.
type Message struct {
	Role    string `json:"role" binding:"required,oneof=user assistant"`
	Content string `json:"content" binding:"required,max=8000"`
}

// Request is a provider-neutral completion request.
type Request struct {
	System      string
	Messages    []Message
	MaxTokens   int
	Temperature float64
}

// Client completes a conversation and returns the assistant text.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Options selects and tunes the provider.
type Options struct {
	Provider  string
	APIKey    string
	Model     string
	MaxTokens int
	Timeout   time.Duration
}

var defaultModels = map[string]string{
	"openai":    "gpt-4o-mini",
	"anthropic": "claude-sonnet-4-5",
}

// New builds the configured provider behind a circuit breaker. A missing
// API key yields a client that always reports the provider as unavailable,
// so the rest of the API keeps working without AI.
func New(opts Options) (Client, error) {
	opts.Provider = strings.ToLower(strings.TrimSpace(opts.Provider))
	if opts.Provider == "" {
		opts.Provider = "openai"
	}
	if strings.TrimSpace(opts.Model) == "" {
		opts.Model = defaultModels[opts.Provider]
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 4096
	}

	var provider Client
	switch opts.Provider {
	case "openai":
		provider = newOpenAI(opts)
	case "anthropic":
		provider = newAnthropic(opts)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", opts.Provider)
	}
	if strings.TrimSpace(opts.APIKey) == "" {
		provider = disabled{}
	}
	return NewBreaker(opts.Provider, provider, opts.Timeout), nil
}

type disabled struct{}

func (disabled) Complete(context.Context, Request) (string, error) {
	return "", domain.UnavailableError{Service: "ai", Err: fmt.Errorf("no api key configured")}
}

func withDefaults(req Request, maxTokens int) Request {
	if req.MaxTokens <= 0 {
		req.MaxTokens = maxTokens
	}
	return req
}

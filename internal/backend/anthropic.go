package backend

import (
	"context"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/lexgraph/chainbench/pkg/anthropic"
)

const defaultMaxTokens = 2048

// AnthropicBackend completes prompts through the Anthropic Messages API,
// throttled by a client-side rate limiter.
type AnthropicBackend struct {
	client    anthropic.Client
	model     string
	maxTokens int64
	limiter   *rate.Limiter
}

// AnthropicOption configures an AnthropicBackend.
type AnthropicOption func(*AnthropicBackend)

// WithMaxTokens overrides the completion token cap.
func WithMaxTokens(n int64) AnthropicOption {
	return func(b *AnthropicBackend) {
		b.maxTokens = n
	}
}

// WithRequestsPerMinute throttles Complete calls. Zero or negative disables
// throttling.
func WithRequestsPerMinute(rpm float64) AnthropicOption {
	return func(b *AnthropicBackend) {
		if rpm > 0 {
			b.limiter = rate.NewLimiter(rate.Limit(rpm/60.0), 1)
		}
	}
}

// NewAnthropic builds a backend for one model.
func NewAnthropic(client anthropic.Client, model string, opts ...AnthropicOption) *AnthropicBackend {
	b := &AnthropicBackend{
		client:    client,
		model:     model,
		maxTokens: defaultMaxTokens,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Complete sends the prompt as a single user message and returns the
// concatenated text blocks of the response.
func (b *AnthropicBackend) Complete(ctx context.Context, prompt string) (Completion, error) {
	if b.limiter != nil {
		if err := b.limiter.Wait(ctx); err != nil {
			return Completion{}, eris.Wrap(err, "backend: rate limit wait")
		}
	}

	resp, err := b.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     b.model,
		MaxTokens: b.maxTokens,
		Messages:  []anthropic.Message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return Completion{}, eris.Wrap(err, "backend: complete")
	}

	resp.Usage.LogCost(b.model, "complete")

	return Completion{
		Text:         resp.Text(),
		InputTokens:  int(resp.Usage.InputTokens),
		OutputTokens: int(resp.Usage.OutputTokens),
	}, nil
}

// ModelID returns the configured model identifier.
func (b *AnthropicBackend) ModelID() string {
	return b.model
}

// Package backend abstracts the text-completion capability consumed by the
// chain executor.
package backend

import "context"

// Completion is one completed prompt: the raw response text plus token
// accounting when the provider reports it.
type Completion struct {
	Text         string
	InputTokens  int
	OutputTokens int
}

// Backend is the single capability the executor consumes. Complete is
// synchronous; the executor treats any returned error as a terminal failure
// for that step's attempt, never as a signal to retry.
type Backend interface {
	Complete(ctx context.Context, prompt string) (Completion, error)
	ModelID() string
}

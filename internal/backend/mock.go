package backend

import (
	"context"
	"strings"
	"sync"
)

// MockRule maps a prompt substring to a canned response. Rules are evaluated
// in declaration order; the first match wins.
type MockRule struct {
	Substring string
	Response  string
	Err       error
}

// Mock is a configurable in-memory backend for tests and dry runs. It records
// every prompt it receives. Safe for concurrent use: one Mock is shared
// across instances by the batch runner.
type Mock struct {
	rules           []MockRule
	defaultResponse string

	mu    sync.Mutex
	calls []string
}

// NewMock builds a mock backend. The default response for unmatched prompts
// is "{}".
func NewMock(rules ...MockRule) *Mock {
	return &Mock{
		rules:           rules,
		defaultResponse: "{}",
	}
}

// SetDefaultResponse overrides the response for unmatched prompts.
func (m *Mock) SetDefaultResponse(resp string) {
	m.defaultResponse = resp
}

// Complete returns the first matching canned response.
func (m *Mock) Complete(_ context.Context, prompt string) (Completion, error) {
	m.mu.Lock()
	m.calls = append(m.calls, prompt)
	m.mu.Unlock()
	for _, rule := range m.rules {
		if rule.Substring != "" && strings.Contains(prompt, rule.Substring) {
			if rule.Err != nil {
				return Completion{}, rule.Err
			}
			return Completion{Text: rule.Response}, nil
		}
	}
	return Completion{Text: m.defaultResponse}, nil
}

// ModelID returns "mock".
func (m *Mock) ModelID() string {
	return "mock"
}

// Calls returns the prompts sent to this backend, in order.
func (m *Mock) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.calls))
	copy(out, m.calls)
	return out
}

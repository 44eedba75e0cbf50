//go:build !integration

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexgraph/chainbench/internal/config"
)

func TestInitBackendMock(t *testing.T) {
	cfg = &config.Config{}
	cfg.Run.Backend = "mock"

	be, err := initBackend()
	require.NoError(t, err)
	assert.Equal(t, "mock", be.ModelID())
}

func TestInitBackendAnthropic(t *testing.T) {
	cfg = &config.Config{}
	cfg.Run.Backend = "anthropic"
	cfg.Anthropic.Key = "sk-ant-test"
	cfg.Anthropic.Model = "claude-sonnet-4-5-20250929"
	cfg.Anthropic.MaxTokens = 1024
	cfg.Anthropic.RequestsPerMinute = 30

	be, err := initBackend()
	require.NoError(t, err)
	assert.Equal(t, "claude-sonnet-4-5-20250929", be.ModelID())
}

func TestInitBackendUnknown(t *testing.T) {
	cfg = &config.Config{}
	cfg.Run.Backend = "carrier-pigeon"

	_, err := initBackend()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported backend")
}

//go:build !integration

package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/lexgraph/chainbench/internal/model"
)

func TestFormatRunsList(t *testing.T) {
	now := time.Date(2026, 3, 10, 14, 45, 0, 0, time.UTC)
	runs := []model.EvalRun{
		{
			ID:        "abc12345-6789-0000-0000-000000000000",
			Label:     "baseline",
			Model:     "claude-sonnet-4-5-20250929",
			Steps:     []string{"s1", "s2", "s3"},
			Instances: 40,
			Voided:    3,
			CreatedAt: now,
		},
		{
			ID:        "def12345-6789-0000-0000-000000000000",
			Model:     "mock",
			Steps:     []string{"s1"},
			Instances: 5,
			CreatedAt: now.Add(-time.Hour),
		},
	}

	var buf bytes.Buffer
	formatRunsList(&buf, runs)

	output := buf.String()
	assert.Contains(t, output, "ID")
	assert.Contains(t, output, "MODEL")
	assert.Contains(t, output, "abc12345")
	assert.Contains(t, output, "baseline")
	assert.Contains(t, output, "claude-sonnet-4-5-20250929")
	assert.Contains(t, output, "s1,s2,s3")
	assert.Contains(t, output, "2026-03-10 14:45")
	assert.Contains(t, output, "mock")
}

func TestFormatRunsList_LongLabelTruncated(t *testing.T) {
	runs := []model.EvalRun{
		{
			ID:        "abc12345-6789-0000-0000-000000000000",
			Label:     "a-very-long-label-that-keeps-going-and-going",
			Model:     "mock",
			Steps:     []string{"s1"},
			CreatedAt: time.Now(),
		},
	}

	var buf bytes.Buffer
	formatRunsList(&buf, runs)

	assert.Contains(t, buf.String(), "a-very-long-label-tha...")
	assert.NotContains(t, buf.String(), "going-and-going")
}

func TestTruncateID(t *testing.T) {
	assert.Equal(t, "abc12345", truncateID("abc12345-6789-0000-0000-000000000000"))
	assert.Equal(t, "short", truncateID("short"))
}

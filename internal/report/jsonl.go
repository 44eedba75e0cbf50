// Package report persists run results as JSONL and aggregates them into
// chain-level summaries.
package report

import (
	"bufio"
	"encoding/json"
	"io"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"

	"github.com/lexgraph/chainbench/internal/model"
)

// maxLineBytes bounds a single JSONL line; prompts embed full opinions.
const maxLineBytes = 16 << 20

// Writer streams run results to a JSONL destination, one result per line.
type Writer struct {
	w     io.Writer
	enc   *json.Encoder
	count int
}

// NewWriter wraps an io.Writer.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w, enc: json.NewEncoder(w)}
}

// Write appends one result line.
func (w *Writer) Write(run *model.RunResult) error {
	if err := w.enc.Encode(run); err != nil {
		return eris.Wrap(err, "report: encode result")
	}
	w.count++
	return nil
}

// Count returns the number of results written.
func (w *Writer) Count() int { return w.count }

// WriteFile writes all results to a JSONL file, creating parent directories.
func WriteFile(path string, runs []*model.RunResult) (int, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return 0, eris.Wrap(err, "report: create output dir")
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return 0, eris.Wrap(err, "report: create output file")
	}
	defer f.Close()

	w := NewWriter(f)
	for _, run := range runs {
		if err := w.Write(run); err != nil {
			return w.Count(), err
		}
	}
	if err := f.Sync(); err != nil {
		return w.Count(), eris.Wrap(err, "report: sync output file")
	}
	return w.Count(), nil
}

// Read decodes run results from a JSONL stream. Blank lines are skipped.
// Parsed payloads and ground truths come back as generic JSON values.
func Read(r io.Reader) ([]*model.RunResult, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64<<10), maxLineBytes)

	var out []*model.RunResult
	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var run model.RunResult
		if err := json.Unmarshal(raw, &run); err != nil {
			return nil, eris.Wrapf(err, "report: line %d", line)
		}
		out = append(out, &run)
	}
	if err := scanner.Err(); err != nil {
		return nil, eris.Wrap(err, "report: scan input")
	}
	return out, nil
}

// ReadFile decodes run results from a JSONL file.
func ReadFile(path string) ([]*model.RunResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "report: open results file")
	}
	defer f.Close()
	return Read(f)
}

package model

import (
	"encoding/json"
	"time"
)

// EvalRun is the flat record persisted once per evaluation batch: what ran,
// over how many instances, and the aggregated summary blob.
type EvalRun struct {
	ID         string          `json:"id"`
	Label      string          `json:"label,omitempty"`
	Model      string          `json:"model"`
	Steps      []string        `json:"steps"`
	Instances  int             `json:"instances"`
	Voided     int             `json:"voided"`
	OutputPath string          `json:"output_path,omitempty"`
	Summary    json.RawMessage `json:"summary,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

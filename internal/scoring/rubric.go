package scoring

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Rubric scores free text by presence of fixed named components. Each
// component is worth an equal share of 1.0; a component counts as present
// when its trimmed length exceeds MinComponentLen.
type Rubric struct {
	Components      []string `yaml:"components"`
	MinComponentLen int      `yaml:"min_component_len"`
	Threshold       float64  `yaml:"threshold"`
}

// DefaultRubric is the IRAC presence rubric: issue, rule, application and
// conclusion at 0.25 each, present above 10 characters, correct at 0.75
// (three of four components).
func DefaultRubric() Rubric {
	return Rubric{
		Components:      []string{"issue", "rule", "application", "conclusion"},
		MinComponentLen: 10,
		Threshold:       0.75,
	}
}

// LoadRubric reads a rubric override from a YAML file. Missing fields fall
// back to the defaults.
func LoadRubric(path string) (Rubric, error) {
	r := DefaultRubric()
	data, err := os.ReadFile(path)
	if err != nil {
		return r, eris.Wrap(err, "scoring: read rubric")
	}
	if err := yaml.Unmarshal(data, &r); err != nil {
		return DefaultRubric(), eris.Wrap(err, "scoring: parse rubric")
	}
	if len(r.Components) == 0 {
		r.Components = DefaultRubric().Components
	}
	if r.MinComponentLen <= 0 {
		r.MinComponentLen = DefaultRubric().MinComponentLen
	}
	if r.Threshold <= 0 {
		r.Threshold = DefaultRubric().Threshold
	}
	return r, nil
}

// Score evaluates component texts against the rubric. Returns the summed
// score, the correctness verdict (score >= Threshold, boundary inclusive)
// and the per-component presence map.
func (r Rubric) Score(components map[string]string) (float64, bool, map[string]bool) {
	present := make(map[string]bool, len(r.Components))
	if len(r.Components) == 0 {
		return 0, false, present
	}
	share := 1.0 / float64(len(r.Components))
	score := 0.0
	for _, name := range r.Components {
		ok := len(strings.TrimSpace(components[name])) > r.MinComponentLen
		present[name] = ok
		if ok {
			score += share
		}
	}
	return score, score >= r.Threshold, present
}

// Missing returns the rubric components absent from the given texts.
func (r Rubric) Missing(components map[string]string) []string {
	_, _, present := r.Score(components)
	var out []string
	for _, name := range r.Components {
		if !present[name] {
			out = append(out, name)
		}
	}
	return out
}

package chain

import (
	"github.com/rotisserie/eris"

	"github.com/lexgraph/chainbench/internal/scoring"
)

// DefaultOrder is the full chain in execution order. Both distinguish
// variants run; synthesis depends on the backbone one.
var DefaultOrder = []string{"s1", "s2", "s3", "s4", "s5:cb", "s5:rag", "s6", "s7"}

// BuildSteps assembles step implementations for the given identifiers, in
// the given order. The rubric parameterizes synthesis scoring and the
// verifier backs the integrity gate.
func BuildSteps(ids []string, rubric scoring.Rubric, verifier *scoring.Verifier) ([]Step, error) {
	steps := make([]Step, 0, len(ids))
	for _, id := range ids {
		switch id {
		case "s1":
			steps = append(steps, NewKnownAuthority())
		case "s2":
			steps = append(steps, NewUnknownAuthority())
		case "s3":
			steps = append(steps, NewValidateAuthority())
		case "s4":
			steps = append(steps, NewFactExtraction())
		case "s5:cb":
			steps = append(steps, NewDistinguishBackbone())
		case "s5:rag":
			steps = append(steps, NewDistinguishEnriched())
		case "s6":
			steps = append(steps, NewSynthesis(rubric))
		case "s7":
			steps = append(steps, NewIntegrity(verifier))
		default:
			return nil, eris.Errorf("chain: unknown step %q", id)
		}
	}
	return steps, nil
}

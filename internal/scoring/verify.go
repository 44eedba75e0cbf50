package scoring

import "github.com/lexgraph/chainbench/internal/cite"

// CitationCheck is the existence verdict for one citation string. A citation
// exists when it is in the known-real set and not in the fabricated set.
type CitationCheck struct {
	Cite      string `json:"cite"`
	Canonical string `json:"canonical"`
	Exists    bool   `json:"exists"`
	Fake      bool   `json:"fake"`
	Known     bool   `json:"known"`
}

// Verifier looks citations up against closed canonical sets of known-real
// and known-fabricated citations. Immutable after construction.
type Verifier struct {
	fake  map[string]struct{}
	known map[string]struct{}
}

// NewVerifier canonicalizes both sets and returns a Verifier.
func NewVerifier(fakeCites, knownCites []string) *Verifier {
	v := &Verifier{
		fake:  make(map[string]struct{}, len(fakeCites)),
		known: make(map[string]struct{}, len(knownCites)),
	}
	for _, c := range fakeCites {
		v.fake[cite.Canonicalize(c)] = struct{}{}
	}
	for _, c := range knownCites {
		v.known[cite.Canonicalize(c)] = struct{}{}
	}
	return v
}

// Check verifies a single citation.
func (v *Verifier) Check(citation string) CitationCheck {
	canonical := cite.Canonicalize(citation)
	_, fake := v.fake[canonical]
	_, known := v.known[canonical]
	return CitationCheck{
		Cite:      citation,
		Canonical: canonical,
		Exists:    known && !fake,
		Fake:      fake,
		Known:     known,
	}
}

// CheckAll verifies every citation and reports whether all of them exist.
// An empty list is vacuously valid.
func (v *Verifier) CheckAll(citations []string) ([]CitationCheck, bool) {
	checks := make([]CitationCheck, 0, len(citations))
	allValid := true
	for _, c := range citations {
		check := v.Check(c)
		checks = append(checks, check)
		if !check.Exists {
			allValid = false
		}
	}
	return checks, allValid
}

// Package scoring holds the pure primitives that turn a structured model
// answer and a ground-truth structure into a (score, correct) pair.
package scoring

import "strings"

// FoldLabel normalizes a categorical label for comparison: trimmed and
// lowercased. No further normalization is applied to closed-enum values.
func FoldLabel(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ExactMatch reports whether a predicted label equals the ground-truth label
// after case/whitespace folding. Empty predictions never match.
func ExactMatch(pred, truth string) bool {
	p := FoldLabel(pred)
	return p != "" && p == FoldLabel(truth)
}

// JointMatch scores two independent categorical fields together: both match
// 1.0/correct, exactly one 0.5/not-correct, neither 0.0/not-correct.
func JointMatch(predA, truthA, predB, truthB string) (float64, bool) {
	a := FoldLabel(predA) == FoldLabel(truthA)
	b := FoldLabel(predB) == FoldLabel(truthB)
	switch {
	case a && b:
		return 1.0, true
	case a || b:
		return 0.5, false
	default:
		return 0.0, false
	}
}

// BinaryMatch scores a single boolean field: 1.0/correct on equality,
// 0.0/not-correct otherwise.
func BinaryMatch(pred, truth bool) (float64, bool) {
	if pred == truth {
		return 1.0, true
	}
	return 0.0, false
}

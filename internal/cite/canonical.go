// Package cite canonicalizes U.S. Reports citations and derives the
// canonical identifiers used to key cases and case pairs.
package cite

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
)

var spacedReporter = strings.NewReplacer(
	"U. S.", "U.S.",
	"u. s.", "u.s.",
)

var fold = cases.Fold()

// Canonicalize reduces a citation string to its canonical comparison form:
// "347 U.S. 483" and "347 u. s. 483" both become "347_us_483".
// Canonicalizing an already-canonical string is a no-op.
func Canonicalize(citation string) string {
	s := spacedReporter.Replace(strings.TrimSpace(citation))
	s = strings.ReplaceAll(s, ".", "")
	s = strings.Join(strings.Fields(s), "_")
	return fold.String(s)
}

// CaseID returns the canonical case identifier, e.g.
// "scotus::347_us_483::1954".
func CaseID(usCite string, term int) string {
	return fmt.Sprintf("scotus::%s::%d", Canonicalize(usCite), term)
}

// PairID returns the canonical cited/citing pair identifier, e.g.
// "pair::347_us_483::349_us_294".
func PairID(citedUSCite, citingUSCite string) string {
	return fmt.Sprintf("pair::%s::%s", Canonicalize(citedUSCite), Canonicalize(citingUSCite))
}

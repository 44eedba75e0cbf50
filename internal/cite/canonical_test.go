package cite

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalize(t *testing.T) {
	assert.Equal(t, "347_us_483", Canonicalize("347 U.S. 483"))
	assert.Equal(t, "410_us_113", Canonicalize("410 U. S. 113"))
	assert.Equal(t, "410_us_113", Canonicalize("  410  u. s.  113 "))
}

func TestCanonicalize_Idempotent(t *testing.T) {
	once := Canonicalize("347 U.S. 483")
	assert.Equal(t, once, Canonicalize(once))
}

func TestCanonicalize_PunctuationAndCaseInsensitive(t *testing.T) {
	a := Canonicalize("347 U.S. 483")
	b := Canonicalize("347 US 483")
	c := Canonicalize("347 u.s. 483")
	assert.Equal(t, a, b)
	assert.Equal(t, a, c)
}

func TestCaseID(t *testing.T) {
	assert.Equal(t, "scotus::347_us_483::1954", CaseID("347 U.S. 483", 1954))
}

func TestPairID(t *testing.T) {
	assert.Equal(t, "pair::347_us_483::349_us_294", PairID("347 U.S. 483", "349 U.S. 294"))
}

func TestExtract(t *testing.T) {
	text := "See Brown v. Board, 347 U.S. 483 (1954), and Bolling, 349 U. S. 294. " +
		"Brown, 347 U.S. 483, controls."
	got := Extract(text)
	assert.Equal(t, []string{"347 U.S. 483", "349 U. S. 294"}, got)
}

func TestExtract_NoCitations(t *testing.T) {
	assert.Empty(t, Extract("no citations in this text"))
}

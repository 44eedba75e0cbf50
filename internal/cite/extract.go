package cite

import (
	"regexp"
	"strings"
)

// usCitePattern matches U.S. Reports citations such as "347 U.S. 483" or
// "347 U. S. 483".
var usCitePattern = regexp.MustCompile(`(?i)\d{1,3}\s+U\.?\s*S\.?\s+\d{1,4}`)

// Extract returns the U.S. Reports citations found in text, whitespace
// collapsed, deduplicated by canonical form in order of first appearance.
func Extract(text string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, match := range usCitePattern.FindAllString(text, -1) {
		cleaned := strings.Join(strings.Fields(match), " ")
		canonical := Canonicalize(cleaned)
		if _, ok := seen[canonical]; ok {
			continue
		}
		seen[canonical] = struct{}{}
		out = append(out, cleaned)
	}
	return out
}

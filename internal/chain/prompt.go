package chain

import "unicode/utf8"

const (
	// Opinion text caps keep prompts inside model context limits.
	anchorOpinionLimit      = 50000
	counterpartOpinionLimit = 30000

	truncationMarker = "\n\n[TRUNCATED]"
)

// truncate caps text at limit bytes, backing off to a rune boundary so the
// cut never emits invalid UTF-8.
func truncate(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut] + truncationMarker
}

// jsonOnlyFooter is appended to every prompt; the chain contract is that the
// model emits payload only and the executor owns status.
const jsonOnlyFooter = `Return a single JSON object matching the schema exactly.
No extra keys. No surrounding text. No markdown code fences.`

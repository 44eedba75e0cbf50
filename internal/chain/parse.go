package chain

import (
	"encoding/json"
	"strconv"
	"strings"
)

// stripFences removes a surrounding markdown code fence when the response
// opens with one, returning the enclosed body.
func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	var body []string
	inBlock := false
	for _, line := range strings.Split(s, "\n") {
		switch {
		case strings.HasPrefix(line, "```") && !inBlock:
			inBlock = true
		case strings.HasPrefix(line, "```") && inBlock:
			return strings.Join(body, "\n")
		case inBlock:
			body = append(body, line)
		}
	}
	return strings.Join(body, "\n")
}

// decodeObject parses a raw model response into a generic JSON object.
// Malformed input is a scoring condition: the error strings are returned for
// the result record instead of failing the step.
func decodeObject(raw string) (map[string]any, []string) {
	var data map[string]any
	if err := json.Unmarshal([]byte(stripFences(raw)), &data); err != nil {
		return nil, []string{"JSON parse error: " + err.Error()}
	}
	if data == nil {
		return nil, []string{"response is not a JSON object"}
	}
	return data, nil
}

// asString coerces a decoded JSON value to a string, "" when absent or of an
// unusable type.
func asString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	default:
		return ""
	}
}

// asInt coerces a decoded JSON value to an int. Accepts numbers and numeric
// strings the way models tend to emit them.
func asInt(v any) (int, bool) {
	switch t := v.(type) {
	case float64:
		return int(t), true
	case json.Number:
		n, err := t.Int64()
		if err != nil {
			return 0, false
		}
		return int(n), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

// asBool coerces a decoded JSON value to a bool. String forms "true", "yes"
// and "1" count as true; absent values are false.
func asBool(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "true", "yes", "1":
			return true
		}
		return false
	case float64:
		return t != 0
	default:
		return false
	}
}

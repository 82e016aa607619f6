package llm

import (
	"encoding/json"
	"errors"
	"strings"
)

// Models often wrap JSON answers in markdown fences or surround them with
// prose. DecodeFirstObject is the single parse-or-fallback step all callers
// go through: either it yields a decoded object, or the caller takes its
// deterministic fallback path. It never panics on malformed input.

// ErrNoJSONObject is returned when no balanced top-level JSON object can be
// found in the model output.
var ErrNoJSONObject = errors.New("no JSON object found in model output")

// StripFences removes a leading/trailing markdown code fence, including an
// optional language tag such as ```json.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	s = strings.TrimPrefix(s, "```")
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		// Drop the language tag line ("json", "JSON", or empty).
		first := strings.TrimSpace(s[:idx])
		if len(first) <= 8 && !strings.ContainsAny(first, "{}[]") {
			s = s[idx+1:]
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// FirstJSONObject extracts the first balanced top-level JSON object from s
// using brace matching that is aware of string literals and escapes.
func FirstJSONObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

// DecodeFirstObject strips fences, locates the first top-level JSON object
// and unmarshals it into v.
func DecodeFirstObject(raw string, v any) error {
	cleaned := StripFences(raw)
	obj, ok := FirstJSONObject(cleaned)
	if !ok {
		return ErrNoJSONObject
	}
	return json.Unmarshal([]byte(obj), v)
}

package classify

import (
	"fmt"
	"strings"
)

// ExtractJSON pulls the first balanced JSON array or object out of an
// untrusted collaborator response. Responses routinely arrive wrapped in
// prose or markdown code fences, so locate the first opening bracket and
// scan to its matching close, honoring strings and escapes.
func ExtractJSON(raw string) (string, error) {
	start := strings.IndexAny(raw, "[{")
	if start < 0 {
		return "", fmt.Errorf("no JSON payload in response: %s", truncate(raw, 120))
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(raw); i++ {
		c := raw[i]
		switch {
		case escaped:
			escaped = false
		case inString:
			if c == '\\' {
				escaped = true
			} else if c == '"' {
				inString = false
			}
		case c == '"':
			inString = true
		case c == '[' || c == '{':
			depth++
		case c == ']' || c == '}':
			depth--
			if depth == 0 {
				return raw[start : i+1], nil
			}
		}
	}
	return "", fmt.Errorf("unbalanced JSON in response: %s", truncate(raw, 120))
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

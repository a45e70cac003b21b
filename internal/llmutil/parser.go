// internal/llmutil/parser.go
package llmutil

import (
	"fmt"
	"regexp"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// fencedRegex extracts the body of a markdown code fence. \x60 is a backtick,
// which raw strings cannot contain.
var fencedRegex = regexp.MustCompile("(?s)\x60\x60\x60[a-zA-Z]*\\s*(.*?)\\s*\x60\x60\x60")

// CleanJSON strips the wrapping models commonly put around a JSON object:
// markdown fences, a bare "json" language tag, and surrounding prose.
func CleanJSON(response string) string {
	s := strings.TrimSpace(response)
	if m := fencedRegex.FindStringSubmatch(s); len(m) > 1 {
		s = m[1]
	}
	s = strings.TrimSpace(strings.ReplaceAll(s, "`", ""))
	s = strings.TrimSpace(strings.TrimPrefix(s, "json"))

	if !strings.HasPrefix(s, "{") {
		first := strings.Index(s, "{")
		last := strings.LastIndex(s, "}")
		if first != -1 && last > first {
			s = s[first : last+1]
		}
	}
	return s
}

// ParseJSONResponse decodes a model reply into T after cleaning it.
func ParseJSONResponse[T any](response string) (*T, error) {
	cleaned := CleanJSON(response)
	var result T
	if err := json.Unmarshal([]byte(cleaned), &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal model JSON response: %w. Extracted JSON (truncated): %s", err, truncateString(cleaned, 200))
	}
	return &result, nil
}

func truncateString(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

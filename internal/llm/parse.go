package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// StripCodeFence removes a surrounding markdown code fence from model
// output. Models sometimes wrap JSON in ```json ... ``` despite being told
// not to.
func StripCodeFence(content string) string {
	s := strings.TrimSpace(content)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	// language tag, if any, ends at the first newline
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		first := strings.TrimSpace(s[:idx])
		if first == "" || isFenceTag(first) {
			s = s[idx+1:]
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func isFenceTag(s string) bool {
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return true
}

// DecodeObject parses content as a single flat JSON object of strings.
func DecodeObject(content []byte) (map[string]string, error) {
	var out map[string]string
	if err := json.Unmarshal(content, &out); err != nil {
		return nil, fmt.Errorf("decode answer object: %w", err)
	}
	return out, nil
}

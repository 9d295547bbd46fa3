package content

import (
	"encoding/json"
	"strings"
)

// SerializeKeywords stores keywords as a JSON array of strings.
func SerializeKeywords(keywords []string) string {
	if len(keywords) == 0 {
		return "[]"
	}
	b, err := json.Marshal(keywords)
	if err != nil {
		return "[]"
	}
	return string(b)
}

// DeserializeKeywords reads the stored form back. Empty or null input is an
// empty list; anything that is not a JSON array of strings is reported with
// ok=false and also yields an empty list.
func DeserializeKeywords(stored string) (keywords []string, ok bool) {
	stored = strings.TrimSpace(stored)
	if stored == "" || stored == "null" {
		return []string{}, true
	}

	if err := json.Unmarshal([]byte(stored), &keywords); err != nil {
		return []string{}, false
	}
	if keywords == nil {
		keywords = []string{}
	}
	return keywords, true
}

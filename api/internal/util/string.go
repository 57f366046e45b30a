package util

import "strings"

// StripCodeFences убирает ```json / ``` в любом месте ответа модели.
func StripCodeFences(s string) string {
	if strings.Contains(s, "```json") {
		s = strings.ReplaceAll(s, "```json", "")
		s = strings.ReplaceAll(s, "```", "")
	} else if strings.Contains(s, "```") {
		s = strings.ReplaceAll(s, "```", "")
	}
	return strings.TrimSpace(s)
}

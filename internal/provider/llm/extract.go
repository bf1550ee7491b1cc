// internal/provider/llm/extract.go
package llm

import "strings"

// ExtractJSON pulls the first JSON object out of a model response. Models
// occasionally wrap the payload in markdown fences or prose.
func ExtractJSON(text string) string {
	cleaned := strings.TrimSpace(text)

	if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```json")
		cleaned = strings.TrimPrefix(cleaned, "```")
		if idx := strings.LastIndex(cleaned, "```"); idx >= 0 {
			cleaned = cleaned[:idx]
		}
		cleaned = strings.TrimSpace(cleaned)
	}

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start < 0 || end < start {
		return ""
	}
	return cleaned[start : end+1]
}

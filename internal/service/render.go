// internal/service/render.go
package service

import "strings"

// RenderTemplate replaces {{var}} placeholders with values from data. Empty
// values render as <unknown> so a half-filled payload is visible in the
// delivery row instead of silently blank.
func RenderTemplate(template string, data map[string]string) string {
	result := template
	for k, v := range data {
		if v == "" {
			v = "<unknown>"
		}
		result = strings.ReplaceAll(result, "{{"+k+"}}", v)
	}
	return result
}

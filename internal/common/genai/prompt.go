package genai

import "strings"

// RenderPrompt substitutes vars into template. Placeholders are written {name}; unknown
// placeholders are left as they are.
func RenderPrompt(template string, vars map[string]string) string {
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}

// Package template implements the minimal placeholder substitution used
// for per-recipient mail bodies: {{ name }} is replaced with data["name"],
// whitespace inside the braces tolerated, unknown keys become the empty
// string. No escaping, no nesting, no control flow.
package template

import "regexp"

var placeholderRe = regexp.MustCompile(`\{\{\s*(\w+)\s*\}\}`)

// Render substitutes every placeholder in tmpl from data. It is pure:
// same inputs, same output, no side effects.
func Render(tmpl string, data map[string]string) string {
	return placeholderRe.ReplaceAllStringFunc(tmpl, func(m string) string {
		key := placeholderRe.FindStringSubmatch(m)[1]
		return data[key]
	})
}

package services

import "strings"

// sanitizer HTML-entity encodes the markup-injection character set before
// signup fields are transmitted. A single-pass Replacer never re-encodes
// the '&' it just produced.
var sanitizer = strings.NewReplacer(
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#x27;",
	"&", "&amp;",
	"/", "&#x2F;",
	`\`, "&#x5C;",
	"(", "&#x28;",
	")", "&#x29;",
	"{", "&#x7B;",
	"}", "&#x7D;",
	"[", "&#x5B;",
	"]", "&#x5D;",
)

// SanitizeInput encodes characters that could carry HTML or markup injection.
func SanitizeInput(s string) string {
	return sanitizer.Replace(s)
}

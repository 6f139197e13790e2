package common

import (
	"regexp"
	"strings"
)

var emailRe = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// CleanEmail trims surrounding whitespace and strips a leading "mailto:"
// scheme that paste-from-mail-client input tends to carry.
func CleanEmail(email string) string {
	e := strings.TrimSpace(email)
	e = strings.TrimPrefix(e, "mailto:")
	return e
}

// ValidEmail reports whether email looks like an address we are willing to
// send to a backend. The check is intentionally shallow; the identity
// provider remains the authority.
func ValidEmail(email string) bool {
	return emailRe.MatchString(email)
}

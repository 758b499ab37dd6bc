// Email address helpers used by the request parser and credential cache
package utils

import (
	"regexp"
	"strings"
)

// Basic but effective email validation
var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// IsValidEmail validates email format, accepting "Name <email>" input
func IsValidEmail(email string) bool {
	email = ExtractEmail(email)
	return len(email) > 0 && emailRegex.MatchString(email)
}

// ExtractEmail handles "Name <email>" and plain email formats
func ExtractEmail(input string) string {
	input = strings.TrimSpace(input)

	// Handle "Name <email@domain.com>" format
	if start := strings.Index(input, "<"); start != -1 {
		if end := strings.Index(input[start:], ">"); end != -1 {
			return strings.TrimSpace(input[start+1 : start+end])
		}
	}

	return input
}

// LocalPart returns the text before the first '@', or the whole address
// when there is none.
func LocalPart(email string) string {
	email = ExtractEmail(email)
	if at := strings.Index(email, "@"); at != -1 {
		return email[:at]
	}
	return email
}

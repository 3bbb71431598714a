// Package redact strips sensitive fragments from strings before they are
// logged or surfaced in error responses. Reschedule errors frequently wrap
// database errors, which can carry connection strings, SQL fragments, or
// host names that must never reach a client.
package redact

import (
	"regexp"
)

// Placeholders substituted for redacted content.
const (
	RedactedCredential = "[REDACTED_CREDENTIAL]"
	RedactedSQL        = "[REDACTED_SQL]"
	RedactedHost       = "[REDACTED_HOST]"
	RedactedPath       = "[REDACTED_PATH]"
)

var (
	// Connection strings with embedded credentials, e.g. postgres://user:pw@host.
	dbConnRegex = regexp.MustCompile(`(?i)(postgres|postgresql|redis|mysql)://[^@\s]+@`)

	// Loose password/secret assignments in error text.
	credentialRegex = regexp.MustCompile(`(?i)(password|passwd|secret|token)([=:\s]['"]?)[^'"&\s]{3,}`)

	// SQL statement fragments leaked from driver errors.
	sqlRegex = regexp.MustCompile(
		`(?i)(SELECT|INSERT|UPDATE|DELETE|CREATE|ALTER|DROP)[\s\w,*()]+(?:FROM|INTO|SET|TABLE)(?:[\s\w,*()='"$]+)?`,
	)

	// host:port pairs from dial errors.
	hostPortRegex = regexp.MustCompile(
		`\b(?:[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?\.)+[a-zA-Z]{2,}(?::\d{1,5})?\b`,
	)

	// Filesystem paths, e.g. from migration or config file errors.
	unixPathRegex = regexp.MustCompile(`(/[\w.-]+){2,}`)

	placeholders = []struct {
		pattern     *regexp.Regexp
		placeholder string
	}{
		{dbConnRegex, RedactedCredential},
		{credentialRegex, RedactedCredential},
		{sqlRegex, RedactedSQL},
		{hostPortRegex, RedactedHost},
		{unixPathRegex, RedactedPath},
	}
)

// String redacts sensitive fragments from the input string.
func String(input string) string {
	if input == "" {
		return input
	}

	result := input
	for _, p := range placeholders {
		result = p.pattern.ReplaceAllString(result, p.placeholder)
	}
	return result
}

// Error redacts sensitive fragments from an error's Error() output.
func Error(err error) string {
	if err == nil {
		return ""
	}
	return String(err.Error())
}

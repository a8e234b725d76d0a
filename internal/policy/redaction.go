package policy

import "regexp"

// Operational logs must not leak visitor PII; the audit log keeps the
// verbatim text, only log lines are masked.

type redaction struct {
	pattern *regexp.Regexp
	mask    string
}

// Card redaction runs before phone so card numbers are not half-matched as
// phone numbers.
var redactions = []redaction{
	{regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`), "[REDACTED_EMAIL]"},
	{regexp.MustCompile(`\b(?:\d[ -]*?){13,19}\b`), "[REDACTED_CARD]"},
	{regexp.MustCompile(`\+?[0-9][0-9\-() ]{7,}[0-9]`), "[REDACTED_PHONE]"},
}

// RedactForLog masks common high-risk PII patterns in text destined for
// operational logs.
func RedactForLog(input string) (redacted string, changed bool) {
	out := input
	for _, r := range redactions {
		next := r.pattern.ReplaceAllString(out, r.mask)
		changed = changed || next != out
		out = next
	}
	return out, changed
}

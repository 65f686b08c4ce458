package policy

import "regexp"

var (
	emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	phonePattern = regexp.MustCompile(`\+?[0-9][0-9\-() ]{7,}[0-9]`)
	cardPattern  = regexp.MustCompile(`\b(?:\d[ -]*?){13,19}\b`)
	// Bot tokens look like "<digits>:<35 url-safe chars>".
	botTokenPattern = regexp.MustCompile(`\b[0-9]{6,12}:[A-Za-z0-9_\-]{30,}\b`)
)

// RedactPII masks common high-risk PII patterns and leaked bot tokens.
func RedactPII(input string) (redacted string, changed bool) {
	out := input

	next := emailPattern.ReplaceAllString(out, "[REDACTED_EMAIL]")
	changed = changed || next != out
	out = next

	next = botTokenPattern.ReplaceAllString(out, "[REDACTED_TOKEN]")
	changed = changed || next != out
	out = next

	// Run card redaction before phone to avoid card numbers being classified as phone.
	next = cardPattern.ReplaceAllString(out, "[REDACTED_CARD]")
	changed = changed || next != out
	out = next

	next = phonePattern.ReplaceAllString(out, "[REDACTED_PHONE]")
	changed = changed || next != out
	out = next

	return out, changed
}

// LogText prepares user-supplied text for a log line: redacted when enabled
// and cut to maxRunes.
func LogText(input string, redact bool, maxRunes int) string {
	out := input
	if redact {
		out, _ = RedactPII(out)
	}
	if maxRunes > 0 {
		runes := []rune(out)
		if len(runes) > maxRunes {
			out = string(runes[:maxRunes]) + "…"
		}
	}
	return out
}

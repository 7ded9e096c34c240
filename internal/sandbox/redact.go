package sandbox

import "strings"

const (
	redactionMarker  = "[REDACTED]"
	truncationMarker = "\n...[output truncated]"
)

// secretIndicators drive the whole-line redaction pass. Matching is a
// substring heuristic kept for compatibility; it will both over- and
// under-redact and is not a security guarantee.
var secretIndicators = []string{
	"password", "passwd", "secret", "api_key", "apikey", "token",
	"private_key", "private", "ssh", "-----begin private key-----",
	"-----begin rsa private key-----", "credential",
}

// Redact replaces every line whose lowercase form contains a
// secret-indicating substring with the redaction marker.
func Redact(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		low := strings.ToLower(line)
		for _, indicator := range secretIndicators {
			if strings.Contains(low, indicator) {
				lines[i] = redactionMarker
				break
			}
		}
	}
	return strings.Join(lines, "\n")
}

// Truncate caps text at max characters and appends an explicit marker
// when anything was cut. The cut lands on a rune boundary so truncated
// output stays valid UTF-8.
func Truncate(text string, max int) string {
	runes := []rune(text)
	if len(runes) > max {
		return string(runes[:max]) + truncationMarker
	}
	return text
}

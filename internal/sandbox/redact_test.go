package sandbox

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestRedact(t *testing.T) {
	in := "username=alice\nAPI_KEY=abc123\nregion=eu-west-1\nssh-rsa AAAA...\n"
	out := Redact(in)

	assert.Equal(t, "username=alice\n[REDACTED]\nregion=eu-west-1\n[REDACTED]\n", out)
}

func TestRedactCaseInsensitive(t *testing.T) {
	out := Redact("PASSWORD: hunter2")
	assert.Equal(t, "[REDACTED]", out)
}

func TestRedactCleanText(t *testing.T) {
	in := "nothing sensitive here\njust plain lines\n"
	assert.Equal(t, in, Redact(in))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 100))
	assert.Equal(t, "abc\n...[output truncated]", Truncate("abcdef", 3))
}

func TestTruncateRuneBoundary(t *testing.T) {
	out := Truncate("héllo wörld", 4)
	assert.Equal(t, "héll\n...[output truncated]", out)
	assert.True(t, utf8.ValidString(out))

	// max counts characters, not bytes.
	assert.Equal(t, "ééé", Truncate("ééé", 3))
}

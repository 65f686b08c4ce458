package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRedactPII(t *testing.T) {
	input := "Email me at sam@example.com or +966 (55) 123-9876 and use 4242 4242 4242 4242."
	out, changed := RedactPII(input)
	assert.True(t, changed)
	for _, marker := range []string{"[REDACTED_EMAIL]", "[REDACTED_PHONE]", "[REDACTED_CARD]"} {
		assert.Contains(t, out, marker)
	}
	assert.NotContains(t, out, "sam@example.com")
}

func TestRedactPIIBotToken(t *testing.T) {
	out, changed := RedactPII("my token is 123456789:AAFq8pZ1x-abcdefghijklmnopqrstuvwxyz0 ok")
	assert.True(t, changed)
	assert.Contains(t, out, "[REDACTED_TOKEN]")
	assert.NotContains(t, out, "AAFq8pZ1x")
}

func TestRedactPIIUnchanged(t *testing.T) {
	out, changed := RedactPII("مرحبا كيف حالك")
	assert.False(t, changed)
	assert.Equal(t, "مرحبا كيف حالك", out)
}

func TestLogText(t *testing.T) {
	assert.Equal(t, "write to [REDACTED_EMAIL]", LogText("write to a@b.io", true, 0))
	assert.Equal(t, "write to a@b.io", LogText("write to a@b.io", false, 0))
	assert.Equal(t, "مرحب…", LogText("مرحبا", false, 4))
}

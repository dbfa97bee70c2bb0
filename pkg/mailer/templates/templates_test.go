package templates

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderResetPassword(t *testing.T) {
	subject, text, html, err := Render(ResetPassword, map[string]any{
		"Name":          "Alice",
		"ResetURL":      "https://videotube.dev/reset-password?token=abc",
		"ExpiresInText": "15m0s",
	})
	require.NoError(t, err)
	assert.Contains(t, subject, "Reset")
	assert.Contains(t, text, "Alice")
	assert.Contains(t, text, "https://videotube.dev/reset-password?token=abc")
	assert.Contains(t, text, "15m0s")
	assert.Contains(t, html, `href="https://videotube.dev/reset-password?token=abc"`)
}

func TestRenderWelcome(t *testing.T) {
	subject, text, html, err := Render(Welcome, map[string]any{
		"Name":     "Alice",
		"Username": "alice",
	})
	require.NoError(t, err)
	assert.Contains(t, subject, "Welcome")
	assert.Contains(t, text, "@alice")
	assert.Contains(t, html, "<strong>@alice</strong>")
}

func TestRenderUnknownTemplate(t *testing.T) {
	_, _, _, err := Render("no-such-template", nil)
	assert.Error(t, err)
}

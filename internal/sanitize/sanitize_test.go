package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRich(t *testing.T) {
	out := Rich(`<p>Hello <strong>team</strong></p><script>alert(1)</script>`)
	assert.Contains(t, out, "<strong>team</strong>")
	assert.NotContains(t, out, "script")
}

func TestPlain(t *testing.T) {
	assert.Equal(t, "Tom & Jerry", Plain("Tom & Jerry"))
	assert.Equal(t, "bold", Plain("<b>bold</b>"))
	assert.Equal(t, "", Plain("<script>alert(1)</script>"))
}

func TestSafeURL(t *testing.T) {
	assert.True(t, SafeURL(""))
	assert.True(t, SafeURL("/media/42"))
	assert.True(t, SafeURL("https://cdn.example.com/a.png?x=1&y=2"))
	assert.True(t, SafeURL("mailto:hello@example.com"))
	assert.False(t, SafeURL("javascript:alert(1)"))
	assert.False(t, SafeURL("//evil.example.com/x"))
	assert.False(t, SafeURL("https://"))
}

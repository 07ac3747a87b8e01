package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeRedirectURI(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "https://app.example.com/callback", "https://app.example.com/callback"},
		{"root path dropped", "https://app.example.com/", "https://app.example.com"},
		{"trailing slash stripped", "https://app.example.com/callback/", "https://app.example.com/callback"},
		{"query preserved", "https://app.example.com/cb?env=prod", "https://app.example.com/cb?env=prod"},
		{"port preserved", "http://localhost:3000/cb", "http://localhost:3000/cb"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeRedirectURI(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeRedirectURI_Invalid(t *testing.T) {
	for _, in := range []string{"", "not-a-url", "/relative/path", "//missing-scheme.example.com"} {
		_, err := NormalizeRedirectURI(in)
		assert.Error(t, err, "input %q", in)
	}
}

func TestRedirectURIMatches(t *testing.T) {
	registered := []string{"https://app.example.com/callback", "https://other.example.com/"}

	assert.True(t, RedirectURIMatches("https://app.example.com/callback", registered))
	assert.True(t, RedirectURIMatches("https://app.example.com/callback/", registered))
	// Root path and host-only forms are equivalent
	assert.True(t, RedirectURIMatches("https://other.example.com", registered))

	assert.False(t, RedirectURIMatches("https://app.example.com/other", registered))
	assert.False(t, RedirectURIMatches("https://evil.example.com/callback", registered))
	assert.False(t, RedirectURIMatches("https://app.example.com/callback/deeper", registered))
	assert.False(t, RedirectURIMatches("", registered))
}

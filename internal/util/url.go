package util

import (
	"errors"
	"net/url"
	"strings"
)

// ErrInvalidRedirectURI indicates a redirect URI that is not an absolute URL
var ErrInvalidRedirectURI = errors.New("redirect URI must be an absolute URL")

// NormalizeRedirectURI canonicalizes a redirect URI for comparison.
// A bare root path ("https://app.example.com/") and the host-only form
// ("https://app.example.com") are treated as equivalent, and a single
// trailing slash on longer paths is ignored.
func NormalizeRedirectURI(raw string) (string, error) {
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return "", ErrInvalidRedirectURI
	}
	if parsed.Path == "/" {
		parsed.Path = ""
	} else {
		parsed.Path = strings.TrimSuffix(parsed.Path, "/")
	}
	return parsed.String(), nil
}

// RedirectURIMatches reports whether candidate matches any registered
// redirect URI after normalization. Matching is exact; no wildcard or
// prefix forms are allowed.
func RedirectURIMatches(candidate string, registered []string) bool {
	normalized, err := NormalizeRedirectURI(candidate)
	if err != nil {
		return false
	}
	for _, uri := range registered {
		reg, err := NormalizeRedirectURI(uri)
		if err != nil {
			continue
		}
		if reg == normalized {
			return true
		}
	}
	return false
}

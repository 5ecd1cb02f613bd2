package domain

import (
	"net/url"
	"strings"
)

// NormalizeURL trims raw and prepends https:// when it does not already start with "http".
// An empty input stays empty. ok is false when the result is not an absolute URL with a host.
func NormalizeURL(raw string) (normalized string, ok bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", true
	}
	if !strings.HasPrefix(s, "http") {
		s = "https://" + s
	}
	if strings.ContainsAny(s, " \t\r\n") {
		return s, false
	}

	u, err := url.Parse(s)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return s, false
	}
	return s, true
}

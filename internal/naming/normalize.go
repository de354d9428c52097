package naming

import (
	"net/url"
	"strings"
)

// Normalize returns the canonical form of rawURL.
//
// Leading and trailing slashes are trimmed first. A string that does not
// parse, or that lacks a scheme or a host, is returned trimmed but otherwise
// unchanged so relative references pass through opaquely. Otherwise the
// result is scheme://host, followed by the escaped path when usePath is set,
// all lower-cased. The port stays part of the host. Query and fragment are
// dropped.
//
// Normalize is idempotent: Normalize(Normalize(u, p), p) == Normalize(u, p).
func Normalize(rawURL string, usePath bool) string {
	trimmed := strings.Trim(rawURL, "/")

	u, err := url.Parse(trimmed)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return trimmed
	}

	var b strings.Builder
	b.WriteString(u.Scheme)
	b.WriteString("://")
	b.WriteString(u.Host)
	if usePath {
		if p := strings.TrimRight(u.EscapedPath(), "/"); p != "" {
			b.WriteString(p)
		}
	}
	return strings.ToLower(b.String())
}

// Origin returns the normalized scheme://host of rawURL.
func Origin(rawURL string) string {
	return Normalize(rawURL, false)
}

// SameOrigin reports whether a and b share a normalized origin.
// Inputs without a scheme or host never match.
func SameOrigin(a, b string) bool {
	oa, ob := Origin(a), Origin(b)
	return strings.Contains(oa, "://") && oa == ob
}

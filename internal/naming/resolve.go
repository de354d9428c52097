package naming

import (
	"net/url"
	"strings"
)

// ResourceURL returns the absolute URL a same-origin target is fetched from.
//
// The result is always the page origin followed by the target's
// host-relative path. Absolute and scheme-relative targets contribute their
// normalized path: lower-cased, without query or fragment. Relative targets
// are appended verbatim and resolve against the origin root, not the page's
// directory, so "img/a.png" on /blog/post becomes <origin>/img/a.png.
func ResourceURL(target, pageURL string) string {
	origin := Origin(pageURL)
	target = strings.TrimSpace(target)

	if u, err := url.Parse(target); err == nil && u.Host != "" {
		return origin + "/" + strings.ToLower(strings.Trim(u.EscapedPath(), "/"))
	}
	return origin + "/" + strings.TrimLeft(target, "/")
}

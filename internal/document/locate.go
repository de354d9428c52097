package document

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/nao1215/pageloader/internal/model"
	"github.com/nao1215/pageloader/internal/naming"
)

// Locate returns the references in doc that are eligible for localization.
//
// References are grouped by kind in model.ElementKinds order and keep
// document order within a kind. Empty targets are skipped, as is anything
// IsSameOrigin rejects. An empty document yields no references.
func Locate(doc *Document, pageURL string) ([]model.Reference, error) {
	dom, err := doc.DOM()
	if err != nil {
		return nil, err
	}

	var refs []model.Reference
	for _, kind := range model.ElementKinds {
		dom.Find(kind.Selector()).Each(func(_ int, s *goquery.Selection) {
			target, _ := s.Attr(kind.Attr())
			if strings.TrimSpace(target) == "" {
				return
			}
			if !IsSameOrigin(target, pageURL) {
				return
			}
			refs = append(refs, model.Reference{
				Kind:   kind,
				Target: target,
				Node:   s.Get(0),
			})
		})
	}
	return refs, nil
}

// IsSameOrigin reports whether target, as found in the page at pageURL,
// points at the page's own origin.
//
// Origin-relative targets (no scheme, no host) always qualify.
// Scheme-relative targets borrow the page scheme before comparing.
// Targets with a scheme but no host, such as data: or mailto:, never do.
func IsSameOrigin(target, pageURL string) bool {
	u, err := url.Parse(strings.TrimSpace(target))
	if err != nil {
		return false
	}
	if u.Scheme == "" && u.Host == "" {
		return true
	}
	if u.Host == "" {
		return false
	}
	if u.Scheme == "" {
		page, err := url.Parse(pageURL)
		if err != nil {
			return false
		}
		u.Scheme = page.Scheme
	}
	return naming.SameOrigin(u.String(), pageURL)
}

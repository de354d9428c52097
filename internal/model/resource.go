package model

import (
	"fmt"

	"golang.org/x/net/html"
)

// ElementKind is the closed set of elements whose targets can be localized.
// Each kind knows the attribute that carries its target, so no code has to
// probe an element for "src" or "href" at runtime.
type ElementKind int

const (
	// KindImage is an <img src>.
	KindImage ElementKind = iota

	// KindStylesheet is a <link href>.
	KindStylesheet

	// KindScript is a <script src>.
	KindScript
)

// ElementKinds lists every kind in locate order.
var ElementKinds = []ElementKind{KindImage, KindStylesheet, KindScript}

// Tag returns the HTML tag name of the kind.
func (k ElementKind) Tag() string {
	switch k {
	case KindImage:
		return "img"
	case KindStylesheet:
		return "link"
	case KindScript:
		return "script"
	default:
		return ""
	}
}

// Attr returns the attribute holding the resource target.
func (k ElementKind) Attr() string {
	if k == KindStylesheet {
		return "href"
	}
	return "src"
}

// Selector returns the CSS selector matching elements of this kind that
// carry the target attribute.
func (k ElementKind) Selector() string {
	return k.Tag() + "[" + k.Attr() + "]"
}

// String returns a human-readable kind name.
func (k ElementKind) String() string {
	switch k {
	case KindImage:
		return "image"
	case KindStylesheet:
		return "stylesheet"
	case KindScript:
		return "script"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k ElementKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *ElementKind) UnmarshalText(text []byte) error {
	parsed, ok := ParseElementKind(string(text))
	if !ok {
		return fmt.Errorf("unknown element kind %q", text)
	}
	*k = parsed
	return nil
}

// ParseElementKind returns the kind named by String.
func ParseElementKind(name string) (ElementKind, bool) {
	for _, k := range ElementKinds {
		if k.String() == name {
			return k, true
		}
	}
	return 0, false
}

// Reference is a resource reference discovered in a page.
type Reference struct {
	// Kind is the element kind the reference was found on.
	Kind ElementKind `json:"kind"`

	// Target is the raw attribute value as written in the page.
	Target string `json:"target"`

	// Node is the element carrying the attribute. The rewrite engine
	// mutates it directly. Nil for references built outside a DOM.
	Node *html.Node `json:"-"`
}

// LocalFile pairs a reference with the file its resource was saved to.
// The pairing is explicit so rewriting never depends on slice positions.
type LocalFile struct {
	// Reference is the reference this file localizes.
	Reference Reference `json:"reference"`

	// URL is the absolute URL the resource was fetched from.
	URL string `json:"url"`

	// Path is the filesystem path the resource was written to.
	Path string `json:"path"`
}

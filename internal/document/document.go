package document

import (
	"bytes"
	"fmt"

	"github.com/PuerkitoBio/goquery"
)

// Document is an HTML page held as raw bytes plus a lazily parsed DOM.
type Document struct {
	raw []byte
	dom *goquery.Document
}

// New wraps raw page bytes. Parsing is deferred until the DOM is needed.
func New(raw []byte) *Document {
	return &Document{raw: raw}
}

// Bytes returns the original page bytes.
func (d *Document) Bytes() []byte {
	return d.raw
}

// DOM returns the parsed document, parsing it on the first call.
// The returned DOM is shared: mutations are visible to later callers.
func (d *Document) DOM() (*goquery.Document, error) {
	if d.dom != nil {
		return d.dom, nil
	}
	dom, err := goquery.NewDocumentFromReader(bytes.NewReader(d.raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	d.dom = dom
	return dom, nil
}

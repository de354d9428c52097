package document

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"

	"github.com/nao1215/pageloader/internal/model"
)

// Strategy selects how references are rewritten.
type Strategy int

const (
	// StrategyDOM sets the attribute on each referenced node and
	// re-serializes the whole DOM. Attribute values are exact, but the
	// output is the parser's rendering of the page, not its original text.
	StrategyDOM Strategy = iota

	// StrategyText replaces every literal occurrence of each raw target in
	// the original bytes. Formatting is preserved, but a target string that
	// also appears elsewhere in the page is replaced there too.
	StrategyText
)

// ErrUnknownStrategy is returned by ParseStrategy for unrecognized names.
var ErrUnknownStrategy = errors.New("unknown rewrite strategy")

// ErrForeignReference is returned when a reference does not belong to the
// document being rewritten.
var ErrForeignReference = errors.New("reference does not belong to this document")

// ParseStrategy maps "dom" or "text" to a Strategy. Empty means StrategyDOM.
func ParseStrategy(name string) (Strategy, error) {
	switch strings.ToLower(name) {
	case "", "dom":
		return StrategyDOM, nil
	case "text":
		return StrategyText, nil
	default:
		return StrategyDOM, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
}

// String returns the strategy name accepted by ParseStrategy.
func (s Strategy) String() string {
	if s == StrategyText {
		return "text"
	}
	return "dom"
}

// Rewrite points every reference in files at its local copy and returns the
// resulting page bytes.
//
// Local paths are written relative to outputDir with forward slashes. When
// files is empty the original bytes are returned untouched.
func Rewrite(doc *Document, files []model.LocalFile, outputDir string, strategy Strategy) ([]byte, error) {
	if len(files) == 0 {
		return doc.Bytes(), nil
	}

	switch strategy {
	case StrategyText:
		return rewriteText(doc, files, outputDir)
	default:
		return rewriteDOM(doc, files, outputDir)
	}
}

func rewriteDOM(doc *Document, files []model.LocalFile, outputDir string) ([]byte, error) {
	dom, err := doc.DOM()
	if err != nil {
		return nil, err
	}

	for _, f := range files {
		rel, err := relativePath(outputDir, f.Path)
		if err != nil {
			return nil, err
		}
		if f.Reference.Node == nil {
			return nil, fmt.Errorf("%w: %s", ErrForeignReference, f.Reference.Target)
		}
		sel := dom.FindNodes(f.Reference.Node)
		if sel.Length() == 0 {
			return nil, fmt.Errorf("%w: %s", ErrForeignReference, f.Reference.Target)
		}
		sel.SetAttr(f.Reference.Kind.Attr(), rel)
	}

	var buf bytes.Buffer
	if err := html.Render(&buf, dom.Get(0)); err != nil {
		return nil, fmt.Errorf("failed to render HTML: %w", err)
	}
	return buf.Bytes(), nil
}

func rewriteText(doc *Document, files []model.LocalFile, outputDir string) ([]byte, error) {
	pairs := make([]string, 0, len(files)*2)
	for _, f := range files {
		rel, err := relativePath(outputDir, f.Path)
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, f.Reference.Target, rel)
	}
	return []byte(strings.NewReplacer(pairs...).Replace(string(doc.Bytes()))), nil
}

// relativePath returns path relative to base using forward slashes.
func relativePath(base, path string) (string, error) {
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return "", fmt.Errorf("failed to relativize %s against %s: %w", path, base, err)
	}
	return filepath.ToSlash(rel), nil
}

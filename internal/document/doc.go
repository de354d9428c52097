// Package document locates localizable resource references in an HTML page
// and rewrites them to point at downloaded copies.
//
// A Document keeps the page's raw bytes and parses them into a goquery DOM
// on first use. Locate walks that DOM for img, link and script elements and
// keeps the same-origin ones. Rewrite then points each kept reference at its
// local file, either by mutating the DOM nodes (StrategyDOM) or by textual
// substitution in the original bytes (StrategyText).
package document

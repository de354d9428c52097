// Package main provides the entry point for the pageloader CLI.
//
// pageloader downloads a web page together with the images, stylesheets and
// scripts it loads from its own origin, and rewrites the page so it opens
// offline from disk.
//
// Usage:
//
//	pageloader download https://ru.hexlet.io/courses
//	pageloader download -o /var/tmp page1 page2
//
// See --help for all available options.
package main

// main is the entry point for pageloader.
func main() {
	Execute()
}

// Package model defines the core data structures shared by pageloader's
// packages.
//
// This package contains the following main types:
//   - Run: The state of one page download, owned by the pipeline
//   - Reference: A resource reference discovered in a page
//   - LocalFile: A reference paired with the file it was downloaded to
//   - Summary: A flattened view of a finished Run for reports and history
//
// It also defines the typed errors every stage of a download can return.
//
// Design decision: We separate models into their own package to avoid circular
// dependencies. The document, fetch, pipeline and report packages all need
// these types, so centralizing them prevents import cycles.
package model

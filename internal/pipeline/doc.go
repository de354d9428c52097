// Package pipeline runs the download of a page as a sequence of steps.
//
// One run moves through fixed states, one step per transition:
//
//	fetch_page        Init             → FetchedPage
//	locate_resources  FetchedPage      → ResourcesLocated
//	fetch_resources   ResourcesLocated → ResourcesFetched
//	rewrite           ResourcesFetched → Rewritten
//	save              Rewritten        → Saved
//
// The first failing step moves the run to Errored and its error is returned
// unchanged, so callers can match the typed errors of the model package.
//
// Design decision: Each transition is its own Step rather than one long
// function because:
// 1. Every stage logs and fails the same way
// 2. Cancellation is checked between stages
// 3. Tests can drive the state machine with stub steps
//
// Download is the single entry point for one page. BatchProcessor downloads
// several pages concurrently with errgroup, each page an independent run.
package pipeline

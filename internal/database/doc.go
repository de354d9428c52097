// Package database provides SQLite-based storage for pageloader run history.
//
// This package implements the HistoryDB, which stores:
//   - One row per finished run (page URL, output directory, state, timing)
//   - The resources each successful run downloaded
//
// Design decision: We use SQLite (via modernc.org/sqlite) because:
// 1. No external dependencies - the database is a single file
// 2. CGO-free implementation allows easy cross-compilation
// 3. WAL mode lets a history listing run while a download is recording
//
// The history is a journal only. Downloads never read it, so every run
// fetches the page again.
package database

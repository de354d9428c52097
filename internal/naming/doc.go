// Package naming turns URLs into canonical strings and deterministic local
// file names.
//
// Two pieces live here:
//   - Normalize and Origin: canonical scheme://host[/path] strings used for
//     same-origin comparison and as the input of file naming
//   - FileName and ResourceDirName: the slug-based names the page and its
//     resources are saved under
//
// Every function is pure. The same URL always produces the same name, which
// is what makes the on-disk layout predictable without any state.
package naming

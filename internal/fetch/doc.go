// Package fetch performs the strict GET requests of a download run.
//
// A Fetcher answers with bytes only for 200 OK. Any other status, redirects
// included, is a *model.HTTPStatusError; network failures are a
// *model.TransportError. FetchTo streams a response body into a file on an
// afero filesystem after making sure the destination directory exists and
// accepts new files.
package fetch

// Package transport builds the HTTP clients pageloader fetches through.
//
// A Client produces *http.Client values that never follow redirects, carry a
// cookie jar and a User-Agent, and optionally route every connection through
// a SOCKS5 proxy. EmbeddedTor starts a private Tor daemon via tornago so the
// SOCKS5 path works without an external Tor installation.
package transport

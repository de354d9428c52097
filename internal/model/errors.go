package model

import (
	"fmt"
	"net/http"
)

// DirectoryError is returned when the output directory does not exist or is
// not a directory.
type DirectoryError struct {
	// Path is the directory that was checked.
	Path string

	// Err is the underlying stat error, if any.
	Err error
}

func (e *DirectoryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("output directory %s is not usable: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("output directory %s is not a directory", e.Path)
}

func (e *DirectoryError) Unwrap() error { return e.Err }

// NotWritableError is returned when a directory exists but files cannot be
// created in it.
type NotWritableError struct {
	// Path is the directory that rejected the write.
	Path string

	// Err is the underlying filesystem error.
	Err error
}

func (e *NotWritableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("directory %s is not writable: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("directory %s is not writable", e.Path)
}

func (e *NotWritableError) Unwrap() error { return e.Err }

// HTTPStatusError is returned when a response status is anything but 200.
// Redirect statuses are reported here too since redirects are never followed.
type HTTPStatusError struct {
	// URL is the requested URL.
	URL string

	// StatusCode is the status the server answered with.
	StatusCode int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("unexpected status %d %s for %s", e.StatusCode, http.StatusText(e.StatusCode), e.URL)
}

// TransportError is returned when a request could not complete: DNS, dial,
// TLS, timeout or a broken body stream.
type TransportError struct {
	// URL is the requested URL.
	URL string

	// Err is the underlying network error.
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("request to %s failed: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// NameGenerationError is returned when a URL yields an empty filename slug.
type NameGenerationError struct {
	// URL is the input the slug was derived from.
	URL string
}

func (e *NameGenerationError) Error() string {
	return fmt.Sprintf("cannot derive a file name from %q", e.URL)
}

// IOError is returned when a local filesystem operation fails.
type IOError struct {
	// Op names the operation, e.g. "write" or "create".
	Op string

	// Path is the file involved.
	Path string

	// Err is the underlying filesystem error.
	Err error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

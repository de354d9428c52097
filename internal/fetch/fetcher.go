package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/afero"
	"golang.org/x/time/rate"

	"github.com/nao1215/pageloader/internal/model"
	"github.com/nao1215/pageloader/internal/transport"
)

// DefaultMaxBodySize caps a single response body.
const DefaultMaxBodySize int64 = 50 * 1024 * 1024

// ErrBodyTooLarge is wrapped in a TransportError when a body exceeds the limit.
var ErrBodyTooLarge = errors.New("response body exceeds size limit")

// Fetcher issues GET requests and stores their bodies.
//
// Design decision: The Fetcher works on its own copy of the caller's
// http.Client with redirects disabled. Following a redirect would save a
// document other than the one the file is named after.
type Fetcher struct {
	client      *http.Client
	fs          afero.Fs
	limiter     *rate.Limiter
	maxBodySize int64
	userAgent   string
	logger      *slog.Logger

	// writable caches directories already proven writable.
	writable sync.Map
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithFs sets the filesystem FetchTo writes to. Defaults to the OS filesystem.
func WithFs(fs afero.Fs) Option {
	return func(f *Fetcher) {
		f.fs = fs
	}
}

// WithRateLimit paces requests to at most rps per second. Zero or less
// disables pacing.
func WithRateLimit(rps float64) Option {
	return func(f *Fetcher) {
		if rps <= 0 {
			f.limiter = nil
			return
		}
		f.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// WithMaxBodySize sets the per-response body limit.
func WithMaxBodySize(size int64) Option {
	return func(f *Fetcher) {
		f.maxBodySize = size
	}
}

// WithUserAgent sets the User-Agent header. Empty leaves the header to
// the client's transport.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) {
		f.logger = logger
	}
}

// New creates a Fetcher around a copy of client. A nil client means
// http.DefaultClient.
func New(client *http.Client, opts ...Option) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	c := *client
	c.CheckRedirect = func(_ *http.Request, _ []*http.Request) error {
		return http.ErrUseLastResponse
	}

	f := &Fetcher{
		client:      &c,
		fs:          afero.NewOsFs(),
		maxBodySize: DefaultMaxBodySize,
		userAgent:   transport.DefaultUserAgent,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fs returns the filesystem the Fetcher writes to.
func (f *Fetcher) Fs() afero.Fs {
	return f.fs
}

// Fetch returns the body of url. Only 200 OK succeeds.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	resp, err := f.get(ctx, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize+1))
	if err != nil {
		return nil, &model.TransportError{URL: url, Err: err}
	}
	if int64(len(body)) > f.maxBodySize {
		return nil, &model.TransportError{URL: url, Err: ErrBodyTooLarge}
	}
	return body, nil
}

// FetchTo streams the body of url into sinkPath.
//
// The destination directory is created when missing. If it exists but
// rejects new files the result is a *model.NotWritableError naming the
// directory. The file is only created after a 200 OK; a failed copy may
// leave a partial file behind.
func (f *Fetcher) FetchTo(ctx context.Context, url, sinkPath string) error {
	if err := f.EnsureWritableDir(filepath.Dir(sinkPath)); err != nil {
		return err
	}

	resp, err := f.get(ctx, url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	file, err := f.fs.Create(sinkPath)
	if err != nil {
		return &model.IOError{Op: "create", Path: sinkPath, Err: err}
	}

	sink := &sinkWriter{w: file}
	n, copyErr := io.Copy(sink, io.LimitReader(resp.Body, f.maxBodySize+1))
	closeErr := file.Close()

	switch {
	case sink.err != nil:
		return &model.IOError{Op: "write", Path: sinkPath, Err: sink.err}
	case copyErr != nil:
		return &model.TransportError{URL: url, Err: copyErr}
	case n > f.maxBodySize:
		return &model.TransportError{URL: url, Err: ErrBodyTooLarge}
	case closeErr != nil:
		return &model.IOError{Op: "close", Path: sinkPath, Err: closeErr}
	}

	f.logger.Debug("resource saved", "url", url, "path", sinkPath, "bytes", n)
	return nil
}

// EnsureWritableDir creates dir when missing and checks that files can be
// created in it by writing and removing a probe file.
func (f *Fetcher) EnsureWritableDir(dir string) error {
	if _, ok := f.writable.Load(dir); ok {
		return nil
	}

	info, err := f.fs.Stat(dir)
	switch {
	case err == nil && !info.IsDir():
		return &model.DirectoryError{Path: dir}
	case err != nil && !errors.Is(err, os.ErrNotExist):
		return &model.DirectoryError{Path: dir, Err: err}
	case err != nil:
		if err := f.fs.MkdirAll(dir, 0o750); err != nil {
			return &model.NotWritableError{Path: dir, Err: err}
		}
	}

	probe, err := afero.TempFile(f.fs, dir, ".pageloader-probe-*")
	if err != nil {
		return &model.NotWritableError{Path: dir, Err: err}
	}
	name := probe.Name()
	_ = probe.Close()     //nolint:errcheck // probe only
	_ = f.fs.Remove(name) //nolint:errcheck // probe only

	f.writable.Store(dir, struct{}{})
	return nil
}

// get performs the request and enforces the 200-only rule.
func (f *Fetcher) get(ctx context.Context, url string) (*http.Response, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("request to %s not started: %w", url, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &model.TransportError{URL: url, Err: err}
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	f.logger.Debug("fetching", "url", url)
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &model.TransportError{URL: url, Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close() //nolint:errcheck // body is discarded
		return nil, &model.HTTPStatusError{URL: url, StatusCode: resp.StatusCode}
	}
	return resp, nil
}

// sinkWriter remembers write errors so they can be told apart from read
// errors after io.Copy.
type sinkWriter struct {
	w   io.Writer
	err error
}

func (s *sinkWriter) Write(p []byte) (int, error) {
	n, err := s.w.Write(p)
	if err != nil {
		s.err = err
	}
	return n, err
}

package pipeline

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/spf13/afero"

	"github.com/nao1215/pageloader/internal/document"
	"github.com/nao1215/pageloader/internal/model"
)

const (
	hexletURL  = "https://ru.hexlet.io/courses"
	imageBytes = "\x89PNG\r\n\x1a\nphp profession icon"
)

const plainPage = `<!DOCTYPE html>
<html lang="ru">
<head><meta charset="utf-8"><title>Хекслет</title></head>
<body><h1>Курсы по программированию</h1></body>
</html>
`

const imagePage = `<!DOCTYPE html>
<html lang="ru">
<head><meta charset="utf-8"><title>Хекслет</title></head>
<body><img src="/assets/professions/php.png" alt="PHP"></body>
</html>
`

const fullPage = `<!DOCTYPE html>
<html lang="ru">
<head>
  <meta charset="utf-8">
  <title>Хекслет</title>
  <link rel="stylesheet" href="https://cdn2.hexlet.io/assets/menu.css">
  <link rel="stylesheet" href="/assets/application.css">
</head>
<body>
  <img src="/assets/professions/php.png" alt="PHP">
  <img src="https://ru.hexlet.io/assets/professions/php.png" alt="PHP again">
  <script src="https://js.stripe.com/v3/"></script>
  <script src="https://ru.hexlet.io/packs/js/runtime.js"></script>
</body>
</html>
`

// hostRewriteTransport sends every request to one test server regardless
// of the URL's host, so real-looking page URLs can be used.
type hostRewriteTransport struct {
	target *url.URL
}

func (t hostRewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	r.URL.Scheme = t.target.Scheme
	r.URL.Host = t.target.Host
	return http.DefaultTransport.RoundTrip(r)
}

// denyWriteFs rejects file creation directly inside dir.
type denyWriteFs struct {
	afero.Fs
	dir string
}

func (d *denyWriteFs) denied(name string) bool {
	return filepath.Dir(filepath.Clean(name)) == d.dir
}

func (d *denyWriteFs) Create(name string) (afero.File, error) {
	if d.denied(name) {
		return nil, &os.PathError{Op: "open", Path: name, Err: os.ErrPermission}
	}
	return d.Fs.Create(name)
}

func (d *denyWriteFs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	if flag&(os.O_WRONLY|os.O_RDWR|os.O_CREATE) != 0 && d.denied(name) {
		return nil, &os.PathError{Op: "open", Path: name, Err: os.ErrPermission}
	}
	return d.Fs.OpenFile(name, flag, perm)
}

type site struct {
	server *httptest.Server
	client *http.Client
	hits   map[string]*atomic.Int32
}

// newSite serves page at /courses plus the hexlet assets. Asset paths
// listed in missing answer 404.
func newSite(t *testing.T, page string, pageStatus int, missing ...string) *site {
	t.Helper()

	s := &site{hits: map[string]*atomic.Int32{}}
	routes := map[string]string{
		"/assets/professions/php.png": imageBytes,
		"/assets/application.css":     "body { color: #333; }",
		"/packs/js/runtime.js":        "console.log('runtime');",
	}
	for _, path := range missing {
		delete(routes, path)
	}
	for path := range routes {
		s.hits[path] = &atomic.Int32{}
	}

	s.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/courses" {
			w.WriteHeader(pageStatus)
			_, _ = w.Write([]byte(page))
			return
		}
		body, ok := routes[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		s.hits[r.URL.Path].Add(1)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(s.server.Close)

	target, err := url.Parse(s.server.URL)
	if err != nil {
		t.Fatal(err)
	}
	s.client = &http.Client{Transport: hostRewriteTransport{target: target}}
	return s
}

func TestDownloadPageWithoutResources(t *testing.T) {
	t.Parallel()

	s := newSite(t, plainPage, http.StatusOK)
	dir := t.TempDir()

	saved, err := Download(context.Background(), hexletURL, dir, s.client, discardLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := filepath.Join(dir, "ru-hexlet-io-courses.html")
	if saved != expected {
		t.Errorf("expected %s, got %s", expected, saved)
	}
	got, err := os.ReadFile(saved)
	if err != nil {
		t.Fatalf("failed to read saved page: %v", err)
	}
	if string(got) != plainPage {
		t.Error("expected page bytes to be saved unchanged")
	}
	if _, err := os.Stat(filepath.Join(dir, "ru-hexlet-io-courses_files")); !os.IsNotExist(err) {
		t.Errorf("expected no resource directory, stat returned %v", err)
	}
}

func TestDownloadEmptyPage(t *testing.T) {
	t.Parallel()

	s := newSite(t, "", http.StatusOK)
	dir := t.TempDir()

	saved, err := Download(context.Background(), hexletURL, dir, s.client, discardLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	info, err := os.Stat(saved)
	if err != nil {
		t.Fatalf("failed to stat saved page: %v", err)
	}
	if info.Size() != 0 {
		t.Errorf("expected an empty saved page, got %d bytes", info.Size())
	}
	if _, err := os.Stat(filepath.Join(dir, "ru-hexlet-io-courses_files")); !os.IsNotExist(err) {
		t.Errorf("expected no resource directory, stat returned %v", err)
	}
}

func TestDownloadPageWithImage(t *testing.T) {
	t.Parallel()

	s := newSite(t, imagePage, http.StatusOK)
	dir := t.TempDir()

	saved, err := Download(context.Background(), hexletURL, dir, s.client, discardLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	image, err := os.ReadFile(filepath.Join(dir, "ru-hexlet-io-courses_files", "ru-hexlet-io-assets-professions-php.png"))
	if err != nil {
		t.Fatalf("failed to read image: %v", err)
	}
	if string(image) != imageBytes {
		t.Error("expected image bytes to match the server response")
	}

	page, err := os.ReadFile(saved)
	if err != nil {
		t.Fatalf("failed to read saved page: %v", err)
	}
	if !strings.Contains(string(page), `src="ru-hexlet-io-courses_files/ru-hexlet-io-assets-professions-php.png"`) {
		t.Errorf("expected rewritten image reference, got:\n%s", page)
	}
}

func TestRunFullPage(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		name        string
		strategy    document.Strategy
		concurrency int
	}{
		{"dom sequential", document.StrategyDOM, 1},
		{"dom concurrent", document.StrategyDOM, 3},
		{"text sequential", document.StrategyText, 1},
	} {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			s := newSite(t, fullPage, http.StatusOK)
			dir := t.TempDir()

			run, err := Run(context.Background(), hexletURL, dir, s.client, discardLogger(),
				WithStrategy(tc.strategy),
				WithResourceConcurrency(tc.concurrency),
				WithUserAgent("pageloader-test"),
			)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if run.State != model.StateSaved {
				t.Errorf("expected saved, got %v", run.State)
			}
			if len(run.PerformedSteps) != 5 {
				t.Errorf("expected 5 performed steps, got %v", run.PerformedSteps)
			}
			if len(run.LocalFiles) != 4 {
				t.Fatalf("expected 4 local files, got %d", len(run.LocalFiles))
			}
			if run.LocalFiles[0].Path != run.LocalFiles[1].Path {
				t.Error("expected duplicate image references to share one file")
			}
			if n := s.hits["/assets/professions/php.png"].Load(); n != 1 {
				t.Errorf("expected the image to be fetched once, got %d", n)
			}

			page, err := os.ReadFile(run.SavedPath)
			if err != nil {
				t.Fatalf("failed to read saved page: %v", err)
			}
			out := string(page)
			for _, want := range []string{
				`href="ru-hexlet-io-courses_files/ru-hexlet-io-assets-application.css"`,
				`src="ru-hexlet-io-courses_files/ru-hexlet-io-packs-js-runtime.js"`,
				`href="https://cdn2.hexlet.io/assets/menu.css"`,
				`src="https://js.stripe.com/v3/"`,
			} {
				if !strings.Contains(out, want) {
					t.Errorf("expected saved page to contain %q", want)
				}
			}

			entries, err := os.ReadDir(filepath.Join(dir, "ru-hexlet-io-courses_files"))
			if err != nil {
				t.Fatal(err)
			}
			if len(entries) != 3 {
				t.Errorf("expected 3 resource files, got %d", len(entries))
			}
		})
	}
}

func TestDownloadPageNotFound(t *testing.T) {
	t.Parallel()

	s := newSite(t, "not found", http.StatusNotFound)
	dir := t.TempDir()

	_, err := Download(context.Background(), hexletURL, dir, s.client, discardLogger())
	var statusErr *model.HTTPStatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected HTTPStatusError, got %v", err)
	}
	if statusErr.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", statusErr.StatusCode)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("expected nothing written, found %d entries", len(entries))
	}
}

func TestDownloadResourceNotFound(t *testing.T) {
	t.Parallel()

	s := newSite(t, imagePage, http.StatusOK, "/assets/professions/php.png")
	dir := t.TempDir()

	run, err := Run(context.Background(), hexletURL, dir, s.client, discardLogger())
	var statusErr *model.HTTPStatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected HTTPStatusError, got %v", err)
	}
	if statusErr.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", statusErr.StatusCode)
	}
	if !strings.HasSuffix(statusErr.URL, "/assets/professions/php.png") {
		t.Errorf("expected the error to name the image URL, got %q", statusErr.URL)
	}
	if run.State != model.StateErrored {
		t.Errorf("expected errored, got %v", run.State)
	}
	if _, err := os.Stat(filepath.Join(dir, "ru-hexlet-io-courses.html")); !os.IsNotExist(err) {
		t.Error("expected no page file after a resource failure")
	}
}

func TestDownloadResourceDirNotWritable(t *testing.T) {
	t.Parallel()

	s := newSite(t, imagePage, http.StatusOK)
	base := afero.NewMemMapFs()
	if err := base.MkdirAll("/out/ru-hexlet-io-courses_files", 0o750); err != nil {
		t.Fatal(err)
	}
	fs := &denyWriteFs{Fs: base, dir: "/out/ru-hexlet-io-courses_files"}

	_, err := Download(context.Background(), hexletURL, "/out", s.client, discardLogger(), WithFs(fs))
	var notWritable *model.NotWritableError
	if !errors.As(err, &notWritable) {
		t.Fatalf("expected NotWritableError, got %v", err)
	}
	if notWritable.Path != "/out/ru-hexlet-io-courses_files" {
		t.Errorf("expected /out/ru-hexlet-io-courses_files, got %q", notWritable.Path)
	}
	if exists, _ := afero.Exists(base, "/out/ru-hexlet-io-courses.html"); exists {
		t.Error("expected no page file")
	}
}

func TestDownloadOutputDirErrors(t *testing.T) {
	t.Parallel()

	s := newSite(t, plainPage, http.StatusOK)

	t.Run("missing directory", func(t *testing.T) {
		t.Parallel()

		_, err := Download(context.Background(), hexletURL, "/missing", s.client, discardLogger(), WithFs(afero.NewMemMapFs()))
		var dirErr *model.DirectoryError
		if !errors.As(err, &dirErr) {
			t.Fatalf("expected DirectoryError, got %v", err)
		}
	})

	t.Run("file instead of directory", func(t *testing.T) {
		t.Parallel()

		fs := afero.NewMemMapFs()
		if err := afero.WriteFile(fs, "/out", []byte("x"), 0o600); err != nil {
			t.Fatal(err)
		}
		_, err := Download(context.Background(), hexletURL, "/out", s.client, discardLogger(), WithFs(fs))
		var dirErr *model.DirectoryError
		if !errors.As(err, &dirErr) {
			t.Fatalf("expected DirectoryError, got %v", err)
		}
	})

	t.Run("directory not writable", func(t *testing.T) {
		t.Parallel()

		base := afero.NewMemMapFs()
		if err := base.MkdirAll("/out", 0o750); err != nil {
			t.Fatal(err)
		}
		_, err := Download(context.Background(), hexletURL, "/out", s.client, discardLogger(), WithFs(&denyWriteFs{Fs: base, dir: "/out"}))
		var notWritable *model.NotWritableError
		if !errors.As(err, &notWritable) {
			t.Fatalf("expected NotWritableError, got %v", err)
		}
		if notWritable.Path != "/out" {
			t.Errorf("expected /out, got %q", notWritable.Path)
		}
	})
}

func TestDownloadCancelled(t *testing.T) {
	t.Parallel()

	s := newSite(t, imagePage, http.StatusOK)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Download(ctx, hexletURL, t.TempDir(), s.client, discardLogger())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

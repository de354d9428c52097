package naming

import (
	"net/url"
	"path"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/nao1215/pageloader/internal/model"
)

// DefaultExt is the extension used when a URL path has no usable one.
const DefaultExt = "html"

// ResourceDirSuffix is appended to a page slug to name its resource directory.
const ResourceDirSuffix = "_files"

var (
	nonAlnum = regexp.MustCompile(`[^a-zA-Z0-9]+`)
	alnumExt = regexp.MustCompile(`^[a-zA-Z0-9]+$`)
)

// options holds FileName settings.
type options struct {
	defaultExt string
	usePath    bool
}

// Option configures FileName.
type Option func(*options)

// WithDefaultExt sets the extension used when the URL path carries none.
// An empty ext produces a bare slug.
func WithDefaultExt(ext string) Option {
	return func(o *options) {
		o.defaultExt = ext
	}
}

// WithoutPath derives the name from the origin only.
func WithoutPath() Option {
	return func(o *options) {
		o.usePath = false
	}
}

// FileName derives a deterministic local file name from rawURL.
//
// The extension is taken from the last path segment when it is purely ASCII
// letters and digits; otherwise the default extension applies. The slug is
// the normalized URL without its scheme and extension, with accents folded
// to ASCII and every run of other characters replaced by a single hyphen.
// Percent-escapes stay escaped, so "caf%C3%A9" yields "caf-c3-a9". Hyphens at
// either end are kept. A slug made of hyphens alone is a NameGenerationError.
//
// The result never contains a slash or whitespace. Distinct URLs may map to
// the same name; collisions are not detected.
func FileName(rawURL string, opts ...Option) (string, error) {
	o := &options{
		defaultExt: DefaultExt,
		usePath:    true,
	}
	for _, opt := range opts {
		opt(o)
	}

	ext := o.defaultExt
	if o.usePath {
		if e := extension(rawURL); e != "" {
			ext = e
		}
	}
	ext = strings.ToLower(ext)

	name := Normalize(rawURL, o.usePath)
	if i := strings.Index(name, "://"); i >= 0 {
		name = name[i+len("://"):]
	}
	if ext != "" && len(name) > len(ext)+1 && strings.EqualFold(name[len(name)-len(ext)-1:], "."+ext) {
		name = name[:len(name)-len(ext)-1]
	}

	slug := nonAlnum.ReplaceAllString(foldAccents(name), "-")
	if strings.Trim(slug, "-") == "" {
		return "", &model.NameGenerationError{URL: rawURL}
	}
	if ext == "" {
		return slug, nil
	}
	return slug + "." + ext, nil
}

// ResourceDirName returns the name of the directory holding pageURL's
// resources, e.g. "ru-hexlet-io-courses_files".
func ResourceDirName(pageURL string) (string, error) {
	slug, err := FileName(pageURL, WithDefaultExt(""))
	if err != nil {
		return "", err
	}
	return slug + ResourceDirSuffix, nil
}

// extension returns the extension of the URL path's last segment, without
// the dot, or "" when it is missing or not purely alphanumeric.
func extension(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	ext := strings.TrimPrefix(path.Ext(u.Path), ".")
	if !alnumExt.MatchString(ext) {
		return ""
	}
	return ext
}

// foldAccents strips combining marks so "é" becomes "e".
func foldAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return folded
}

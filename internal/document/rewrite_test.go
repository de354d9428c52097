package document

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nao1215/pageloader/internal/model"
)

func localFiles(t *testing.T, refs []model.Reference, outputDir string) []model.LocalFile {
	t.Helper()

	files := make([]model.LocalFile, 0, len(refs))
	for _, ref := range refs {
		name := strings.Trim(strings.NewReplacer("/", "-", ".", "-").Replace(ref.Target), "-") + ".bin"
		files = append(files, model.LocalFile{
			Reference: ref,
			Path:      filepath.Join(outputDir, "ru-hexlet-io-courses_files", name),
		})
	}
	return files
}

func TestRewriteNoFiles(t *testing.T) {
	t.Parallel()

	for _, strategy := range []Strategy{StrategyDOM, StrategyText} {
		t.Run(strategy.String(), func(t *testing.T) {
			t.Parallel()

			raw := []byte(hexletPage)
			doc := New(raw)
			if _, err := Locate(doc, "https://example.com"); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			got, err := Rewrite(doc, nil, t.TempDir(), strategy)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !bytes.Equal(got, raw) {
				t.Error("expected original bytes to be returned unchanged")
			}
		})
	}
}

func TestRewriteDOM(t *testing.T) {
	t.Parallel()

	outputDir := t.TempDir()
	doc := New([]byte(hexletPage))
	refs, err := Locate(doc, "https://ru.hexlet.io/courses")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := Rewrite(doc, localFiles(t, refs, outputDir), outputDir, StrategyDOM)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := string(got)

	for _, want := range []string{
		`src="ru-hexlet-io-courses_files/assets-professions-php-png.bin"`,
		`href="ru-hexlet-io-courses_files/assets-application-css.bin"`,
		`src="ru-hexlet-io-courses_files/https:--ru-hexlet-io-packs-js-runtime-js.bin"`,
		`href="https://cdn2.hexlet.io/assets/menu.css"`,
		`src="https://js.stripe.com/v3/"`,
		`Как мы учим`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q", want)
		}
	}
	if strings.Contains(out, `src="/assets/professions/php.png"`) {
		t.Error("expected image reference to be rewritten")
	}
}

func TestRewriteText(t *testing.T) {
	t.Parallel()

	outputDir := t.TempDir()
	raw := `<html><body><img src="/assets/professions/php.png"><p>keep   spacing</p></body></html>`
	doc := New([]byte(raw))
	refs, err := Locate(doc, "https://ru.hexlet.io/courses")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := Rewrite(doc, localFiles(t, refs, outputDir), outputDir, StrategyText)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := `<html><body><img src="ru-hexlet-io-courses_files/assets-professions-php-png.bin"><p>keep   spacing</p></body></html>`
	if string(got) != expected {
		t.Errorf("expected %q, got %q", expected, string(got))
	}
}

func TestRewriteForeignReference(t *testing.T) {
	t.Parallel()

	outputDir := t.TempDir()
	other := New([]byte(`<img src="/a.png">`))
	refs, err := Locate(other, "https://example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	doc := New([]byte(`<img src="/a.png">`))
	_, err = Rewrite(doc, localFiles(t, refs, outputDir), outputDir, StrategyDOM)
	if !errors.Is(err, ErrForeignReference) {
		t.Errorf("expected ErrForeignReference, got %v", err)
	}
}

func TestParseStrategy(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		input    string
		expected Strategy
		wantErr  bool
	}{
		{"", StrategyDOM, false},
		{"dom", StrategyDOM, false},
		{"DOM", StrategyDOM, false},
		{"text", StrategyText, false},
		{"regex", StrategyDOM, true},
	}

	for _, tc := range testCases {
		got, err := ParseStrategy(tc.input)
		if (err != nil) != tc.wantErr {
			t.Errorf("ParseStrategy(%q) error = %v, wantErr %v", tc.input, err, tc.wantErr)
			continue
		}
		if tc.wantErr && !errors.Is(err, ErrUnknownStrategy) {
			t.Errorf("expected ErrUnknownStrategy, got %v", err)
		}
		if got != tc.expected {
			t.Errorf("ParseStrategy(%q) = %v, expected %v", tc.input, got, tc.expected)
		}
	}
}

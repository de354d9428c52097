package document

import (
	"testing"

	"github.com/nao1215/pageloader/internal/model"
)

func TestLocate(t *testing.T) {
	t.Parallel()

	t.Run("keeps same-origin references in kind order", func(t *testing.T) {
		t.Parallel()

		refs, err := Locate(New([]byte(hexletPage)), "https://ru.hexlet.io/courses")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		expected := []struct {
			kind   model.ElementKind
			target string
		}{
			{model.KindImage, "/assets/professions/php.png"},
			{model.KindStylesheet, "/assets/application.css"},
			{model.KindStylesheet, "/courses"},
			{model.KindScript, "https://ru.hexlet.io/packs/js/runtime.js"},
			{model.KindScript, "//ru.hexlet.io/packs/js/app.js"},
		}
		if len(refs) != len(expected) {
			t.Fatalf("expected %d references, got %d: %+v", len(expected), len(refs), refs)
		}
		for i, want := range expected {
			if refs[i].Kind != want.kind || refs[i].Target != want.target {
				t.Errorf("reference %d: expected %v %q, got %v %q", i, want.kind, want.target, refs[i].Kind, refs[i].Target)
			}
			if refs[i].Node == nil {
				t.Errorf("reference %d: expected a DOM node", i)
			}
		}
	})

	t.Run("empty document", func(t *testing.T) {
		t.Parallel()

		refs, err := Locate(New(nil), "https://ru.hexlet.io/courses")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(refs) != 0 {
			t.Errorf("expected no references, got %d", len(refs))
		}
	})

	t.Run("document without resources", func(t *testing.T) {
		t.Parallel()

		refs, err := Locate(New([]byte("<html><body><p>hello</p></body></html>")), "https://ru.hexlet.io/courses")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(refs) != 0 {
			t.Errorf("expected no references, got %d", len(refs))
		}
	})
}

func TestIsSameOrigin(t *testing.T) {
	t.Parallel()

	const page = "https://ru.hexlet.io/courses"
	testCases := []struct {
		target   string
		expected bool
	}{
		{"/assets/a.png", true},
		{"assets/a.png", true},
		{"https://ru.hexlet.io/a.js", true},
		{"HTTPS://RU.HEXLET.IO/a.js", true},
		{"//ru.hexlet.io/a.js", true},
		{"http://ru.hexlet.io/a.js", false},
		{"https://cdn2.hexlet.io/a.css", false},
		{"//cdn2.hexlet.io/a.css", false},
		{"data:image/png;base64,AAAA", false},
		{"javascript:void(0)", false},
		{"mailto:support@hexlet.io", false},
		{"https://ru.hexlet.io:8443/a.js", false},
	}

	for _, tc := range testCases {
		t.Run(tc.target, func(t *testing.T) {
			t.Parallel()
			if got := IsSameOrigin(tc.target, page); got != tc.expected {
				t.Errorf("IsSameOrigin(%q) = %v, expected %v", tc.target, got, tc.expected)
			}
		})
	}
}

package naming

import "testing"

func TestNormalize(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		input    string
		usePath  bool
		expected string
	}{
		{"lower-cases scheme host and path", "HTTPS://RU.Hexlet.IO/Courses", true, "https://ru.hexlet.io/courses"},
		{"strips trailing slashes", "https://ru.hexlet.io/courses///", true, "https://ru.hexlet.io/courses"},
		{"drops query and fragment", "https://ru.hexlet.io/courses?page=2#top", true, "https://ru.hexlet.io/courses"},
		{"origin only", "https://ru.hexlet.io/courses", false, "https://ru.hexlet.io"},
		{"keeps port", "http://127.0.0.1:8080/assets/a.png", true, "http://127.0.0.1:8080/assets/a.png"},
		{"root path", "https://ru.hexlet.io/", true, "https://ru.hexlet.io"},
		{"relative passes through", "/assets/Application.css", true, "assets/Application.css"},
		{"no scheme", "ru.hexlet.io/courses", true, "ru.hexlet.io/courses"},
		{"empty", "", true, ""},
		{"escaped path", "https://example.com/caf%C3%A9", true, "https://example.com/caf%c3%a9"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := Normalize(tc.input, tc.usePath); got != tc.expected {
				t.Errorf("Normalize(%q, %v) = %q, expected %q", tc.input, tc.usePath, got, tc.expected)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"https://ru.hexlet.io/courses",
		"HTTPS://RU.HEXLET.IO/Courses/",
		"https://ru.hexlet.io/courses?x=1#y",
		"http://localhost:3000/a/b/c/",
		"https://example.com/caf%C3%A9/",
		"https://example.com/café",
		"/assets/a.png",
		"//cdn.example.com/x.js",
		"data:image/png;base64,AAAA",
		"",
		"///",
		"%zz",
	}

	for _, in := range inputs {
		for _, usePath := range []bool{true, false} {
			once := Normalize(in, usePath)
			twice := Normalize(once, usePath)
			if once != twice {
				t.Errorf("Normalize not idempotent for %q (usePath=%v): %q then %q", in, usePath, once, twice)
			}
		}
	}
}

func TestSameOrigin(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		a, b     string
		expected bool
	}{
		{"https://ru.hexlet.io/courses", "https://RU.hexlet.io/assets/a.png", true},
		{"https://ru.hexlet.io", "http://ru.hexlet.io", false},
		{"https://ru.hexlet.io", "https://cdn2.hexlet.io", false},
		{"http://127.0.0.1:8080", "http://127.0.0.1:9090", false},
		{"/a.png", "/a.png", false},
	}

	for _, tc := range testCases {
		if got := SameOrigin(tc.a, tc.b); got != tc.expected {
			t.Errorf("SameOrigin(%q, %q) = %v, expected %v", tc.a, tc.b, got, tc.expected)
		}
	}
}

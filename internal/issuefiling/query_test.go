package issuefiling

import (
	"net/url"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestEncodeURIComponent(t *testing.T) {
	tests := map[string]string{
		"a b":            "a%20b",
		"a+b":            "a%2Bb",
		"it's (ok)!*~":   "it's%20(ok)!*~",
		"<h4>x</h4>":     "%3Ch4%3Ex%3C%2Fh4%3E",
		"100%":           "100%25",
		"[System.Title]": "%5BSystem.Title%5D",
		"é":              "%C3%A9",
	}
	for in, want := range tests {
		if got := EncodeURIComponent(in); got != want {
			t.Errorf("EncodeURIComponent(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestQueryBuilder_Build(t *testing.T) {
	got := NewQueryBuilder("https://x.test/new").
		WithParam("title", "a b").
		WithParam("[System.Tags]", "Accessibility; x").
		Build()
	want := "https://x.test/new?title=a%20b&[System.Tags]=Accessibility%3B%20x"
	if got != want {
		t.Errorf("Build() = %q, want %q", got, want)
	}
	if got := NewQueryBuilder("https://x.test").Build(); got != "https://x.test" {
		t.Errorf("Build() without params = %q", got)
	}
}

func TestQueryBuilder_TruncatesLongURL(t *testing.T) {
	body := strings.Repeat("<h4>Issue</h4>some text ", 200)
	got := NewQueryBuilder("https://github.com/me/repo/issues/new").
		WithParam("title", "t").
		WithParam("body", body).
		Build()
	if len(got) > MaxURLLength {
		t.Fatalf("len = %d, want <= %d", len(got), MaxURLLength)
	}
	assertNoOpenEncodedTag(t, got)
	assertNoSplitEscape(t, got)
}

func TestTruncateURL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"short untouched", "abc%3Cdiv", 20, "abc%3Cdiv"},
		{"plain cut", "abcdefgh", 5, "abcde"},
		{"cut inside escape", "abc%20def", 5, "abc"},
		{"cut right after percent", "abc%20def", 4, "abc"},
		{"cut after full escape", "abc%20def", 6, "abc%20"},
		{"cut inside encoded tag", "ab%3Cdiv%3Exyz%3Cspan%3E", 18, "ab%3Cdiv%3Exyz"},
		{"cut inside tag escape", "ab%3Cdiv%3Exyz%3Cspan%3E", 23, "ab%3Cdiv%3Exyz"},
		{"closed tag kept", "ab%3Cdiv%3Exyz%3Cspan%3E", 24, "ab%3Cdiv%3Exyz%3Cspan%3E"},
		{"closed tag kept before cut", "ab%3Cdiv%3Exyz%3Cspan%3Eabc", 25, "ab%3Cdiv%3Exyz%3Cspan%3Ea"},
		{"cut between rune escapes", "abc%C3%A9%C3%A9", 12, "abc%C3%A9"},
		{"cut inside second rune escape", "abc%C3%A9%C3%A9", 14, "abc%C3%A9"},
		{"complete rune kept", "abc%C3%A9%C3%A9", 15, "abc%C3%A9%C3%A9"},
		{"three byte rune split", "a%E2%82%ACb", 7, "a"},
		{"three byte rune complete", "a%E2%82%ACb", 10, "a%E2%82%AC"},
		{"ascii escape kept", "a%20%3E%20b", 10, "a%20%3E%20"},
		{"split rune before tag", "x%3Cb%C3%A9%C3%A9", 14, "x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := truncateURL(tt.in, tt.max); got != tt.want {
				t.Errorf("truncateURL(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
			}
		})
	}
}

func assertNoOpenEncodedTag(t *testing.T, u string) {
	t.Helper()
	if open := strings.LastIndex(u, encodedOpenTag); open > strings.LastIndex(u, encodedCloseTag) {
		t.Errorf("URL ends inside an encoded tag: ...%s", u[open:])
	}
}

func assertNoSplitEscape(t *testing.T, u string) {
	t.Helper()
	if i := strings.LastIndexByte(u, '%'); i >= 0 && i > len(u)-3 {
		t.Errorf("URL ends inside a percent escape: ...%s", u[i:])
	}
}

func TestQueryBuilder_TruncationKeepsWholeRunes(t *testing.T) {
	for pad := 0; pad <= 8; pad++ {
		body := strings.Repeat("x", pad) + strings.Repeat("é", 1000)
		u := NewQueryBuilder("https://github.com/org/repo/issues/new").WithParam("body", body).Build()
		if len(u) > MaxURLLength {
			t.Fatalf("pad %d: len = %d", pad, len(u))
		}
		assertNoSplitEscape(t, u)
		decoded, err := url.PathUnescape(u)
		if err != nil {
			t.Fatalf("pad %d: unescape: %v", pad, err)
		}
		if !utf8.ValidString(decoded) {
			t.Errorf("pad %d: decoded URL is not valid UTF-8, tail %q", pad, u[len(u)-9:])
		}
	}
}

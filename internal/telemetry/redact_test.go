package telemetry

import "testing"

func TestRemoveEmail(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"no at sign", "nothing to see here", "nothing to see here"},
		{"bare handle", "ping @someone please", "ping @someone please"},
		{"trailing at", "weird@ value", "weird@ value"},
		{"only email", "user@example.com", EmailRemovedText},
		{"sentence", "prefix user@example.com suffix", "prefix " + EmailRemovedText + " suffix"},
		{"two emails", "a@b.com and c.d@e.org", EmailRemovedText + " and " + EmailRemovedText},
		{"url path", "https://contoso.com/users/me@contoso.com/profile", "https://contoso.com/users/" + EmailRemovedText + "/profile"},
		{"query string", "https://contoso.com/find?user=me@contoso.com&page=2", "https://contoso.com/find?user=" + EmailRemovedText + "&page=2"},
		{"fragment", "page#me@contoso.com", "page#" + EmailRemovedText},
		{"multi line", "line1\nx@y.z\nline3", "line1\n" + EmailRemovedText + "\nline3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RemoveEmail(tt.in); got != tt.want {
				t.Errorf("RemoveEmail(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestRemoveEmail_NoAtIsIdentity(t *testing.T) {
	inputs := []string{
		"https://example.com/path?q=1&r=2#frag",
		"a sentence, with punctuation; and more.",
		"null",
		"undefined",
		"   ",
	}
	for _, in := range inputs {
		if got := RemoveEmail(in); got != in {
			t.Errorf("RemoveEmail(%q) = %q, want unchanged", in, got)
		}
	}
}

// URL delimiters end an address, so the rest of a query string or path is kept.
func TestRemoveEmail_StopsAtURLDelimiters(t *testing.T) {
	tests := map[string]string{
		"user@example.com?x=1":               EmailRemovedText + "?x=1",
		"user@example.com/next":              EmailRemovedText + "/next",
		"user@example.com#top":               EmailRemovedText + "#top",
		"a=user@example.com&b=2":             "a=" + EmailRemovedText + "&b=2",
		"mailto:user@example.com?subject=hi": EmailRemovedText + "?subject=hi",
	}
	for in, want := range tests {
		if got := RemoveEmail(in); got != want {
			t.Errorf("RemoveEmail(%q) = %q, want %q", in, got, want)
		}
	}
}

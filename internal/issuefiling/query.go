package issuefiling

import (
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"
)

// MaxURLLength is the longest URL QueryBuilder produces.
const MaxURLLength = 2000

const (
	encodedOpenTag  = "%3C"
	encodedCloseTag = "%3E"
)

type queryParam struct {
	key   string
	value string
}

// QueryBuilder assembles a URL from a base and ordered query parameters. Keys are written as-is,
// values are encoded like encodeURIComponent.
type QueryBuilder struct {
	base   string
	params []queryParam
}

// NewQueryBuilder returns a builder for base.
func NewQueryBuilder(base string) *QueryBuilder {
	return &QueryBuilder{base: base}
}

// WithParam appends key=value.
func (q *QueryBuilder) WithParam(key, value string) *QueryBuilder {
	q.params = append(q.params, queryParam{key: key, value: value})
	return q
}

// Build returns the URL, truncated to MaxURLLength.
func (q *QueryBuilder) Build() string {
	var b strings.Builder
	b.WriteString(q.base)
	for i, p := range q.params {
		if i == 0 {
			b.WriteByte('?')
		} else {
			b.WriteByte('&')
		}
		b.WriteString(p.key)
		b.WriteByte('=')
		b.WriteString(EncodeURIComponent(p.value))
	}
	return truncateURL(b.String(), MaxURLLength)
}

// EncodeURIComponent escapes s the way JavaScript's encodeURIComponent does:
// everything except A-Z a-z 0-9 - _ . ! ~ * ' ( ) is percent-encoded, spaces as %20.
func EncodeURIComponent(s string) string {
	escaped := url.QueryEscape(s)
	r := strings.NewReplacer(
		"+", "%20",
		"%21", "!",
		"%27", "'",
		"%28", "(",
		"%29", ")",
		"%2A", "*",
	)
	return r.Replace(escaped)
}

// truncateURL cuts u to at most max bytes without splitting a %XX escape or the escapes of one
// multi-byte character, and without ending inside an encoded tag (an encoded "<" with no
// encoded ">" after it).
func truncateURL(u string, max int) string {
	if len(u) <= max {
		return u
	}
	cut := u[:max]
	// A % in the last two bytes starts an escape that was cut short.
	if i := strings.LastIndexByte(cut, '%'); i >= 0 && i > len(cut)-3 {
		cut = cut[:i]
	}
	cut = trimPartialRune(cut)
	open := strings.LastIndex(cut, encodedOpenTag)
	if open >= 0 && open > strings.LastIndex(cut, encodedCloseTag) {
		cut = cut[:open]
	}
	return cut
}

// trimPartialRune drops trailing %XX escapes that form an incomplete UTF-8 sequence.
func trimPartialRune(s string) string {
	end := len(s)
	continuations := 0
	for end >= 3 && s[end-3] == '%' {
		b, err := strconv.ParseUint(s[end-2:end], 16, 8)
		if err != nil || b < utf8.RuneSelf {
			break
		}
		if b&0xC0 == 0x80 {
			continuations++
			end -= 3
			continue
		}
		if continuations < utf8Len(byte(b))-1 {
			return s[:end-3]
		}
		return s
	}
	// Continuation bytes with no lead escape before them.
	return s[:end]
}

// utf8Len is the sequence length announced by a UTF-8 lead byte.
func utf8Len(lead byte) int {
	switch {
	case lead&0xE0 == 0xC0:
		return 2
	case lead&0xF0 == 0xE0:
		return 3
	case lead&0xF8 == 0xF0:
		return 4
	}
	return 1
}

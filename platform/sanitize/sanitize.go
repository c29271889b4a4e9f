// Package sanitize strips markup from free text that agents type into the
// dashboard before it is stored.
package sanitize

import (
	"strings"

	"golang.org/x/net/html"
)

// Text removes HTML tags and decodes entities. Input without markup is only
// trimmed, so plain notes are stored exactly as typed.
func Text(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return strings.TrimSpace(s)
	}

	z := html.NewTokenizer(strings.NewReader(s))
	var b strings.Builder
	skip := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			return strings.TrimSpace(b.String())
		case html.StartTagToken:
			if name, _ := z.TagName(); isRaw(name) {
				skip++
			}
		case html.EndTagToken:
			if name, _ := z.TagName(); isRaw(name) && skip > 0 {
				skip--
			}
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		}
	}
}

// TextPtr sanitizes an optional value.
func TextPtr(s *string) *string {
	if s == nil {
		return nil
	}
	result := Text(*s)
	return &result
}

func isRaw(tag []byte) bool {
	t := string(tag)
	return t == "script" || t == "style"
}

// Package sanitize provides text sanitization utilities for inbound chat
// messages before they reach logs, prompts, or stored session state.
package sanitize

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	// htmlTagRegex matches HTML tags
	htmlTagRegex = regexp.MustCompile(`<[^>]*>`)
)

// MaxMessageLen bounds inbound message bodies; WhatsApp caps far higher but
// nothing past this length carries quotation intent.
const MaxMessageLen = 2000

// StripHTML removes all HTML tags from a string, making it safe for text-only display.
func StripHTML(s string) string {
	result := htmlTagRegex.ReplaceAllString(s, "")
	result = strings.ReplaceAll(result, "&lt;", "<")
	result = strings.ReplaceAll(result, "&gt;", ">")
	result = strings.ReplaceAll(result, "&amp;", "&")
	result = strings.ReplaceAll(result, "&quot;", "\"")
	result = strings.ReplaceAll(result, "&#39;", "'")
	// Re-strip after entity decode to catch encoded tags
	result = htmlTagRegex.ReplaceAllString(result, "")
	return strings.TrimSpace(result)
}

// Message sanitizes one inbound chat message: strips HTML and control
// characters (keeping newlines and tabs), collapses repeated whitespace and
// truncates to MaxMessageLen.
func Message(s string) string {
	s = StripHTML(s)
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		b.WriteRune(r)
	}
	out := strings.Join(strings.Fields(b.String()), " ")
	if len(out) > MaxMessageLen {
		out = out[:MaxMessageLen]
	}
	return out
}

// Text sanitizes a string for safe text storage by stripping HTML.
func Text(s string) string {
	return StripHTML(s)
}

// TextPtr is a helper for optional string pointers
func TextPtr(s *string) *string {
	if s == nil {
		return nil
	}
	result := Text(*s)
	return &result
}

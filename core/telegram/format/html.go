// Package format holds small helpers for building Telegram HTML messages.
package format

import (
	"fmt"
	"html"
	"strings"
)

// Escape makes arbitrary text safe for Telegram HTML parse mode.
func Escape(s string) string {
	return html.EscapeString(s)
}

// Bold wraps escaped text in <b> tags.
func Bold(s string) string {
	return "<b>" + Escape(s) + "</b>"
}

// Italic wraps escaped text in <i> tags.
func Italic(s string) string {
	return "<i>" + Escape(s) + "</i>"
}

// Code wraps escaped text in an inline <code> span.
func Code(s string) string {
	return "<code>" + Escape(s) + "</code>"
}

// Pre wraps escaped text in a <pre> block. Empty input yields an empty string.
func Pre(s string) string {
	if s == "" {
		return ""
	}
	return "<pre>" + Escape(s) + "</pre>"
}

// Lines joins non-empty parts with newlines.
func Lines(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, "\n")
}

// KV renders a "key: value" line with the value escaped.
func KV(key, value string) string {
	return fmt.Sprintf("%s: %s", Escape(key), Escape(value))
}

package storage

import "strings"

// TextMatcher performs case-insensitive substring matching against a fixed query.
type TextMatcher struct {
	query string
}

// NewTextMatcher prepares a matcher for query. A blank query matches nothing.
func NewTextMatcher(query string) *TextMatcher {
	return &TextMatcher{query: strings.ToLower(strings.TrimSpace(query))}
}

// Matches reports whether any of fields contains the query.
func (m *TextMatcher) Matches(fields ...string) bool {
	if m.query == "" {
		return false
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), m.query) {
			return true
		}
	}
	return false
}

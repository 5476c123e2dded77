package utils

import (
	"net/url"
	"strings"
)

// BuildSearchURL appends the keyword as the q parameter of the marketplace
// search page.
func BuildSearchURL(base, keyword string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base + "?q=" + url.QueryEscape(keyword)
	}
	q := u.Query()
	q.Set("q", strings.TrimSpace(keyword))
	u.RawQuery = q.Encode()
	return u.String()
}

// SafePathSegment turns free text into something usable inside a file name
// or object key.
func SafePathSegment(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "untitled"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', ' ', '\t', '\n':
			return '_'
		}
		return r
	}, s)
}

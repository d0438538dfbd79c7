// Package sanitize cleans admin and visitor input before it is stored.
package sanitize

import (
	"html"
	"net/url"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	richPolicy   = bluemonday.UGCPolicy()
	strictPolicy = bluemonday.StrictPolicy()
)

// Rich keeps safe formatting markup for descriptions and bios.
func Rich(s string) string {
	return strings.TrimSpace(richPolicy.Sanitize(s))
}

// Plain strips all markup. Entities are decoded again since clients render
// these fields as text.
func Plain(s string) string {
	return strings.TrimSpace(html.UnescapeString(strictPolicy.Sanitize(s)))
}

// SafeURL accepts http(s), mailto and site-relative URLs.
func SafeURL(raw string) bool {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return true
	}
	if strings.HasPrefix(raw, "/") && !strings.HasPrefix(raw, "//") {
		return true
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return u.Host != ""
	case "mailto":
		return true
	}
	return false
}

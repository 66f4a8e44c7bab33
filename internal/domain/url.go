package domain

import (
	"net/url"
	"strings"
)

var validSchemes = map[string]bool{
	"http":             true,
	"https":            true,
	"ftp":              true,
	"chrome-extension": true,
	"web-extension":    true,
	"moz-extension":    true,
	"extension":        true,
}

// ValidURL reports whether raw uses a scheme that can be snoozed.
func ValidURL(raw string, allowFile bool) bool {
	i := strings.Index(raw, ":")
	if i <= 0 {
		return false
	}
	scheme := raw[:i]
	if scheme == "file" {
		return allowFile
	}
	return validSchemes[scheme]
}

// Hostname returns the host part of raw, or "" when it has none.
func Hostname(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

// ShortURL renders host+path, used as a title fallback.
func ShortURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	return u.Hostname() + u.EscapedPath()
}

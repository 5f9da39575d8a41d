package common

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var markdownLinkPattern = regexp.MustCompile(`^\[.*?\]\((https?://[^\)]+)\)$`)

// SanitizeURL performs basic cleanup on URLs to handle common copy-paste issues.
// Removes whitespace, trailing punctuation, markdown artifacts.
func SanitizeURL(rawURL string) string {
	cleaned := strings.TrimSpace(rawURL)

	// [click here](https://example.com) -> https://example.com
	if matches := markdownLinkPattern.FindStringSubmatch(cleaned); len(matches) > 1 {
		cleaned = matches[1]
	}

	for _, char := range []string{",", ")", "}", "]", "\"", "'", ">", ";"} {
		cleaned = strings.TrimSuffix(cleaned, char)
	}
	for _, char := range []string{"(", "[", "<", "\"", "'"} {
		cleaned = strings.TrimPrefix(cleaned, char)
	}

	return strings.TrimSpace(cleaned)
}

// ValidateHTTPURL returns an error unless raw is an absolute http(s) URL with a host.
func ValidateHTTPURL(raw string) error {
	if strings.Contains(raw, " ") {
		return fmt.Errorf("url contains spaces: %q", raw)
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("parse url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", parsed.Scheme)
	}
	if parsed.Host == "" || strings.ContainsAny(parsed.Host, "{}[]<>\"'") {
		return fmt.Errorf("invalid host in %q", raw)
	}
	return nil
}

// LastPathSegment returns the unescaped final path element of raw,
// or "" when the URL has no usable one.
func LastPathSegment(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	p := strings.TrimRight(parsed.Path, "/")
	if i := strings.LastIndex(p, "/"); i >= 0 {
		p = p[i+1:]
	}
	if unescaped, err := url.PathUnescape(p); err == nil {
		p = unescaped
	}
	return strings.TrimSpace(p)
}

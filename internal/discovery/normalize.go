// Package discovery turns a company identifier into an ordered, deduplicated set of up to three
// competitors. It cascades through search queries, a curated catalog and a placeholder set.
package discovery

import (
	"net/url"
	"strings"
)

// CompanyIdentifier is the normalized form of a raw company URL or name.
type CompanyIdentifier struct {
	RawInput     string `json:"raw_input"`
	CanonicalURL string `json:"canonical_url"`
	RootLabel    string `json:"root_label"`
}

// Normalize derives the company identifier from raw input such as "https://www.apple.com/iphone",
// "apple.com" or "Apple". The root label is the lowercase host label before the first dot,
// with a leading "www." removed.
func Normalize(raw string) (CompanyIdentifier, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return CompanyIdentifier{}, &InvalidInputError{Input: raw, Message: "company URL is required"}
	}

	withScheme := trimmed
	lower := strings.ToLower(trimmed)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		withScheme = "https://" + trimmed
	}

	scheme := "https"
	host := ""
	if parsed, err := url.Parse(withScheme); err == nil {
		host = parsed.Hostname()
		if parsed.Scheme != "" {
			scheme = strings.ToLower(parsed.Scheme)
		}
	}
	if host == "" {
		host = trimmed
	}
	host = strings.ToLower(host)

	label := strings.TrimPrefix(host, "www.")
	if i := strings.Index(label, "."); i >= 0 {
		label = label[:i]
	}
	// "www." or "https://.com" would otherwise plan queries for a blank name
	if label == "" {
		return CompanyIdentifier{}, &InvalidInputError{Input: raw, Message: "could not derive a company name"}
	}

	return CompanyIdentifier{
		RawInput:     raw,
		CanonicalURL: scheme + "://" + host,
		RootLabel:    label,
	}, nil
}

// hostOf returns the lowercase host of a link with any leading "www." removed.
// Links without a scheme are treated as https.
func hostOf(link string) string {
	link = strings.TrimSpace(link)
	if link == "" {
		return ""
	}
	if !strings.Contains(link, "://") {
		link = "https://" + link
	}
	parsed, err := url.Parse(link)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(parsed.Hostname()), "www.")
}

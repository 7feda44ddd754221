package fetch

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

const (
	// maxContentAreas is how many content containers are inspected, in document order
	maxContentAreas = 10
	// minAreaTextLength drops containers whose text is mostly labels and buttons
	minAreaTextLength = 100
)

// CleanText extracts the readable text of a page. Script, style and page chrome are removed,
// then the first content containers (main, article, section, div) with more than 100
// characters of text are joined with spaces. Pages without such containers fall back to body text.
func CleanText(rawHTML string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc.Find("script, style, noscript, nav, footer, header").Remove()

	areas := doc.Find("main, article, section, div")
	if areas.Length() > maxContentAreas {
		areas = areas.Slice(0, maxContentAreas)
	}

	var parts []string
	areas.Each(func(_ int, s *goquery.Selection) {
		text := spacedText(s)
		if utf8.RuneCountInString(text) > minAreaTextLength {
			parts = append(parts, text)
		}
	})

	if len(parts) == 0 {
		return spacedText(doc.Find("body")), nil
	}
	return strings.Join(parts, " "), nil
}

// spacedText joins every text node under the selection with single spaces, so that
// adjacent block elements do not run together.
func spacedText(s *goquery.Selection) string {
	var words []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			words = append(words, strings.Fields(n.Data)...)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range s.Nodes {
		walk(n)
	}
	return strings.Join(words, " ")
}

// ExtractDescription returns the page title and its meta description (or og:description),
// whichever are present, separated by a space.
func ExtractDescription(rawHTML string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	var parts []string
	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		parts = append(parts, title)
	}
	for _, selector := range []string{`meta[name="description"]`, `meta[property="og:description"]`} {
		if content, ok := doc.Find(selector).First().Attr("content"); ok && strings.TrimSpace(content) != "" {
			parts = append(parts, strings.TrimSpace(content))
			break
		}
	}
	return strings.Join(parts, " "), nil
}

// Truncate cuts s to at most n characters without splitting a multi-byte rune.
func Truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}

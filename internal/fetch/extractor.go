package fetch

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jonathan/competitor-analyzer/internal/db"
)

// DefaultMaxContentChars caps the text returned for one page.
const DefaultMaxContentChars = 5000

// FailurePlaceholder is the content reported for a page that could not be fetched.
func FailurePlaceholder(url string) string {
	return fmt.Sprintf("Could not extract content from %s", url)
}

// PageCache stores cleaned page text between requests. *db.DB implements it.
type PageCache interface {
	GetFreshPage(ctx context.Context, url string, maxAge time.Duration) (*db.CachedPage, error)
	ShouldSkipURL(ctx context.Context, url string) (bool, string, error)
	UpsertPage(ctx context.Context, page *db.CachedPage) error
	RecordFailedFetch(ctx context.Context, url string, httpStatus int, errorMsg string) error
}

// ExtractorOptions configures a ContentExtractor.
type ExtractorOptions struct {
	HTTP     *Options
	MaxChars int
	// Renderer is used when the plain HTTP fetch yields too little text; nil disables it
	Renderer Renderer
	Cache    PageCache
	CacheTTL time.Duration
	Verbose  bool
}

// ContentExtractor fetches competitor pages and returns their cleaned text.
type ContentExtractor struct {
	http     *Options
	maxChars int
	renderer Renderer
	cache    PageCache
	cacheTTL time.Duration
	verbose  bool
}

// NewContentExtractor creates an extractor. A nil opts uses defaults with no cache or browser.
func NewContentExtractor(opts *ExtractorOptions) *ContentExtractor {
	if opts == nil {
		opts = &ExtractorOptions{}
	}
	e := &ContentExtractor{
		http:     opts.HTTP,
		maxChars: opts.MaxChars,
		renderer: opts.Renderer,
		cache:    opts.Cache,
		cacheTTL: opts.CacheTTL,
		verbose:  opts.Verbose,
	}
	if e.http == nil {
		e.http = DefaultOptions()
	}
	if e.maxChars <= 0 {
		e.maxChars = DefaultMaxContentChars
	}
	if e.cacheTTL <= 0 {
		e.cacheTTL = db.DefaultPageCacheTTL
	}
	return e
}

// FetchAndClean returns the cleaned text of url, capped at the configured size.
// It never fails: any error yields FailurePlaceholder(url).
func (e *ContentExtractor) FetchAndClean(ctx context.Context, url string) string {
	url = EnsureScheme(url)
	log.Printf("[FETCH] Extracting content from: %s", url)

	text, err := e.Extract(ctx, url)
	if err != nil {
		log.Printf("[FETCH] Error extracting content from %s: %v", url, err)
		return FailurePlaceholder(url)
	}

	log.Printf("[FETCH] Extracted %d characters from %s", len([]rune(text)), url)
	return text
}

// Extract is FetchAndClean with the error exposed.
func (e *ContentExtractor) Extract(ctx context.Context, url string) (string, error) {
	url = EnsureScheme(url)

	if page := e.cached(ctx, url); page != nil && page.ParsedText != nil {
		if e.verbose {
			log.Printf("[FETCH] Cache hit for %s", url)
		}
		return Truncate(page.Text(), e.maxChars), nil
	}

	if e.cache != nil {
		skip, reason, err := e.cache.ShouldSkipURL(ctx, url)
		if err != nil {
			log.Printf("[FETCH] Cache skip check failed for %s: %v", url, err)
		} else if skip {
			return "", &Error{URL: url, Message: fmt.Sprintf("URL skipped: %s", reason)}
		}
	}

	result, err := URL(ctx, url, e.http)
	if err != nil {
		e.recordFailure(ctx, url, err)
		return "", err
	}

	text, err := CleanText(result.HTML)
	if err != nil {
		return "", &Error{URL: url, Message: "failed to clean HTML", Cause: err}
	}

	if e.renderer != nil && ShouldUseBrowser(text) {
		text = e.renderFallback(ctx, url, text)
	}

	text = Truncate(text, e.maxChars)
	status := result.StatusCode
	e.store(ctx, &db.CachedPage{URL: url, ParsedText: &text, HTTPStatus: &status})
	return text, nil
}

// Describe returns a short company description (page title plus meta description) for a homepage.
func (e *ContentExtractor) Describe(ctx context.Context, url string) (string, error) {
	url = EnsureScheme(url)

	if page := e.cached(ctx, url); page != nil && page.Description != nil {
		return *page.Description, nil
	}

	result, err := URL(ctx, url, e.http)
	if err != nil {
		return "", err
	}
	description, err := ExtractDescription(result.HTML)
	if err != nil {
		return "", &Error{URL: url, Message: "failed to parse homepage", Cause: err}
	}

	status := result.StatusCode
	e.store(ctx, &db.CachedPage{URL: url, Description: &description, HTTPStatus: &status})
	return description, nil
}

func (e *ContentExtractor) renderFallback(ctx context.Context, url, text string) string {
	if e.verbose {
		log.Printf("[FETCH] Only %d characters from HTTP fetch, rendering %s in browser", len(text), url)
	}
	rendered, err := e.renderer.Render(ctx, url)
	if err != nil {
		log.Printf("[FETCH] Browser fallback failed for %s: %v", url, err)
		return text
	}
	renderedText, err := CleanText(rendered)
	if err != nil || len(renderedText) <= len(text) {
		return text
	}
	return renderedText
}

func (e *ContentExtractor) cached(ctx context.Context, url string) *db.CachedPage {
	if e.cache == nil {
		return nil
	}
	page, err := e.cache.GetFreshPage(ctx, url, e.cacheTTL)
	if err != nil {
		log.Printf("[FETCH] Cache lookup failed for %s: %v", url, err)
		return nil
	}
	return page
}

func (e *ContentExtractor) store(ctx context.Context, page *db.CachedPage) {
	if e.cache == nil {
		return
	}
	expires := time.Now().Add(e.cacheTTL)
	page.ExpiresAt = &expires
	if err := e.cache.UpsertPage(ctx, page); err != nil {
		log.Printf("[FETCH] Failed to cache %s: %v", page.URL, err)
	}
}

func (e *ContentExtractor) recordFailure(ctx context.Context, url string, err error) {
	if e.cache == nil {
		return
	}
	status := 0
	var fetchErr *Error
	if errors.As(err, &fetchErr) {
		status = fetchErr.StatusCode
	}
	if recErr := e.cache.RecordFailedFetch(ctx, url, status, err.Error()); recErr != nil {
		log.Printf("[FETCH] Failed to record fetch failure for %s: %v", url, recErr)
	}
}

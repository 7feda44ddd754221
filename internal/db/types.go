package db

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
)

// CachedPage is a fetched competitor page with its cleaned text.
type CachedPage struct {
	ID          uuid.UUID `json:"id"`
	URL         string    `json:"url"`
	ParsedText  *string   `json:"parsed_text,omitempty"`
	Description *string   `json:"description,omitempty"`
	ContentHash *string   `json:"content_hash,omitempty"`
	HTTPStatus  *int      `json:"http_status,omitempty"`
	// Error tracking
	FetchStatus        string     `json:"fetch_status"` // 'success', 'error', 'not_found', 'timeout', 'blocked'
	ErrorMessage       *string    `json:"error_message,omitempty"`
	IsPermanentFailure bool       `json:"is_permanent_failure"`
	RetryCount         int        `json:"retry_count"`
	RetryAfter         *time.Time `json:"retry_after,omitempty"`
	// Timestamps
	FetchedAt      time.Time  `json:"fetched_at"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
	LastAccessedAt time.Time  `json:"last_accessed_at"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// FetchStatus constants for cached pages
const (
	FetchStatusSuccess  = "success"   // Page fetched successfully
	FetchStatusError    = "error"     // Generic error (may retry)
	FetchStatusNotFound = "not_found" // 404/410 - permanent failure
	FetchStatusTimeout  = "timeout"   // Request timed out (may retry)
	FetchStatusBlocked  = "blocked"   // 403/429 - blocked by server
)

// DefaultPageCacheTTL is the default time-to-live for cached pages (7 days)
const DefaultPageCacheTTL = 7 * 24 * time.Hour

// IsPermanentHTTPStatus returns true for status codes that indicate permanent failure
func IsPermanentHTTPStatus(status int) bool {
	switch status {
	case 404, 410, 451:
		return true
	default:
		return false
	}
}

// FetchStatusFromHTTP determines fetch status from HTTP status code
func FetchStatusFromHTTP(status int) string {
	switch {
	case status >= 200 && status < 300:
		return FetchStatusSuccess
	case status == 404 || status == 410:
		return FetchStatusNotFound
	case status == 403 || status == 429:
		return FetchStatusBlocked
	case status == 0:
		return FetchStatusTimeout
	default:
		return FetchStatusError
	}
}

// HashContent computes SHA-256 hash of content for change detection
func HashContent(content string) string {
	hash := sha256.Sum256([]byte(content))
	return hex.EncodeToString(hash[:])
}

// IsExpired returns true if the page cache has expired
func (p *CachedPage) IsExpired() bool {
	if p.ExpiresAt == nil {
		return false
	}
	return time.Now().After(*p.ExpiresAt)
}

// IsFresh returns true if the page was fetched within maxAge
func (p *CachedPage) IsFresh(maxAge time.Duration) bool {
	return time.Since(p.FetchedAt) < maxAge
}

// Text returns the cached text or "".
func (p *CachedPage) Text() string {
	if p.ParsedText == nil {
		return ""
	}
	return *p.ParsedText
}

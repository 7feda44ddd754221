package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const pageColumns = `id, url, parsed_text, description, content_hash, http_status, fetch_status, error_message,
	is_permanent_failure, retry_count, retry_after, fetched_at, expires_at, last_accessed_at, created_at, updated_at`

func scanPage(row pgx.Row) (*CachedPage, error) {
	var p CachedPage
	err := row.Scan(&p.ID, &p.URL, &p.ParsedText, &p.Description, &p.ContentHash, &p.HTTPStatus,
		&p.FetchStatus, &p.ErrorMessage, &p.IsPermanentFailure, &p.RetryCount, &p.RetryAfter,
		&p.FetchedAt, &p.ExpiresAt, &p.LastAccessedAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetPageByURL retrieves a cached page by URL
func (db *DB) GetPageByURL(ctx context.Context, pageURL string) (*CachedPage, error) {
	page, err := scanPage(db.pool.QueryRow(ctx,
		`SELECT `+pageColumns+` FROM page_cache WHERE url = $1`, pageURL))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get cached page: %w", err)
	}
	return page, nil
}

// GetFreshPage retrieves a page only if it's not stale and was successful
func (db *DB) GetFreshPage(ctx context.Context, pageURL string, maxAge time.Duration) (*CachedPage, error) {
	page, err := db.GetPageByURL(ctx, pageURL)
	if err != nil || page == nil {
		return nil, err
	}
	if !page.IsFresh(maxAge) || page.IsExpired() {
		return nil, nil
	}
	if page.FetchStatus != FetchStatusSuccess {
		return nil, nil
	}

	_ = db.TouchPage(ctx, page.ID)
	return page, nil
}

// ShouldSkipURL checks if a URL should be skipped due to previous permanent failure
// or an active retry backoff.
func (db *DB) ShouldSkipURL(ctx context.Context, pageURL string) (bool, string, error) {
	page, err := db.GetPageByURL(ctx, pageURL)
	if err != nil {
		return false, "", err
	}
	if page == nil {
		return false, "", nil
	}

	if page.IsPermanentFailure {
		reason := "permanent failure"
		if page.ErrorMessage != nil {
			reason = *page.ErrorMessage
		}
		return true, reason, nil
	}
	if page.RetryAfter != nil && time.Now().Before(*page.RetryAfter) {
		return true, "retry backoff", nil
	}
	return false, "", nil
}

// UpsertPage inserts or updates a successfully fetched page
func (db *DB) UpsertPage(ctx context.Context, page *CachedPage) error {
	var contentHash *string
	if page.ParsedText != nil {
		hash := HashContent(*page.ParsedText)
		contentHash = &hash
	}

	expiresAt := page.ExpiresAt
	if expiresAt == nil {
		t := time.Now().Add(DefaultPageCacheTTL)
		expiresAt = &t
	}

	fetchStatus := page.FetchStatus
	if fetchStatus == "" {
		fetchStatus = FetchStatusSuccess
	}

	err := db.pool.QueryRow(ctx,
		`INSERT INTO page_cache (url, parsed_text, description, content_hash, http_status, fetch_status,
		                         error_message, is_permanent_failure, retry_count, fetched_at, expires_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 0, NOW(), $9)
		 ON CONFLICT (url) DO UPDATE SET
		     parsed_text = COALESCE($2, page_cache.parsed_text),
		     description = COALESCE($3, page_cache.description),
		     content_hash = COALESCE($4, page_cache.content_hash),
		     http_status = $5,
		     fetch_status = $6,
		     error_message = $7,
		     is_permanent_failure = $8,
		     retry_count = 0,
		     retry_after = NULL,
		     fetched_at = NOW(),
		     expires_at = $9,
		     updated_at = NOW()
		 RETURNING id, fetched_at, created_at, updated_at`,
		page.URL, page.ParsedText, page.Description, contentHash, page.HTTPStatus, fetchStatus,
		page.ErrorMessage, page.IsPermanentFailure, expiresAt,
	).Scan(&page.ID, &page.FetchedAt, &page.CreatedAt, &page.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert cached page: %w", err)
	}
	return nil
}

// RecordFailedFetch records a failed fetch attempt with exponential backoff
func (db *DB) RecordFailedFetch(ctx context.Context, pageURL string, httpStatus int, errorMsg string) error {
	fetchStatus := FetchStatusFromHTTP(httpStatus)
	isPermanent := IsPermanentHTTPStatus(httpStatus)

	// Backoff: 1 min * 5^retry_count, capped at 2 hours. Permanent failures never retry.
	_, err := db.pool.Exec(ctx,
		`INSERT INTO page_cache (url, http_status, fetch_status, error_message, is_permanent_failure, retry_count, retry_after, fetched_at)
		 VALUES ($1, $2, $3, $4, $5, 1,
		         CASE WHEN $5 THEN NULL ELSE NOW() + INTERVAL '1 minute' END,
		         NOW())
		 ON CONFLICT (url) DO UPDATE SET
		     http_status = $2,
		     fetch_status = $3,
		     error_message = $4,
		     is_permanent_failure = $5 OR page_cache.is_permanent_failure,
		     retry_count = page_cache.retry_count + 1,
		     retry_after = CASE
		         WHEN $5 OR page_cache.is_permanent_failure THEN NULL
		         ELSE NOW() + LEAST(
		             INTERVAL '1 minute' * POWER(5, LEAST(page_cache.retry_count, 3)),
		             INTERVAL '2 hours'
		         )
		     END,
		     fetched_at = NOW(),
		     updated_at = NOW()`,
		pageURL, httpStatus, fetchStatus, errorMsg, isPermanent,
	)
	if err != nil {
		return fmt.Errorf("failed to record failed fetch: %w", err)
	}
	return nil
}

// TouchPage updates the last_accessed_at timestamp
func (db *DB) TouchPage(ctx context.Context, id uuid.UUID) error {
	_, err := db.pool.Exec(ctx, `UPDATE page_cache SET last_accessed_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to touch cached page: %w", err)
	}
	return nil
}

// ExpirePage marks a cached page as stale so the next request re-fetches it.
func (db *DB) ExpirePage(ctx context.Context, pageURL string) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE page_cache SET expires_at = NOW() - INTERVAL '1 hour', updated_at = NOW() WHERE url = $1`, pageURL)
	if err != nil {
		return fmt.Errorf("failed to expire cached page: %w", err)
	}
	return nil
}

// DeleteExpiredPages removes cache rows whose TTL has passed and returns how many were removed.
func (db *DB) DeleteExpiredPages(ctx context.Context) (int64, error) {
	tag, err := db.pool.Exec(ctx,
		`DELETE FROM page_cache WHERE expires_at IS NOT NULL AND expires_at < NOW() AND NOT is_permanent_failure`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired pages: %w", err)
	}
	return tag.RowsAffected(), nil
}

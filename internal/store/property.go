package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// PropertyTTL is how long a cached property stays fresh. An entry is stale
// once now >= cached_at + PropertyTTL and must not be returned to readers.
const PropertyTTL = 24 * time.Hour

// CachedProperty is a TTL-bounded copy of a property payload fetched from
// the remote read API. The payload is opaque to the cache; typed decoding is
// deferred to the consumer.
type CachedProperty struct {
	CaseNumber  string          `json:"case_number"`
	AuctionDate string          `json:"auction_date"`
	Payload     json.RawMessage `json:"payload"`
	CachedAt    time.Time       `json:"cached_at"`
	ExpiresAt   time.Time       `json:"expires_at"`
}

// CacheProperty writes a property payload to the cache, overwriting any
// prior entry for the case number. The entry is stamped with a fresh
// cached_at/expires_at pair.
func (s *Store) CacheProperty(caseNumber, auctionDate string, payload json.RawMessage) error {
	return s.CachePropertyContext(context.Background(), caseNumber, auctionDate, payload)
}

// CachePropertyContext writes a property payload with context support.
func (s *Store) CachePropertyContext(ctx context.Context, caseNumber, auctionDate string, payload json.RawMessage) error {
	if caseNumber == "" {
		return fmt.Errorf("case number is required")
	}

	now := s.now().UTC()
	expires := now.Add(PropertyTTL)

	query := `
	INSERT INTO properties (case_number, auction_date, payload, cached_at, expires_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(case_number) DO UPDATE SET
		auction_date = excluded.auction_date,
		payload = excluded.payload,
		cached_at = excluded.cached_at,
		expires_at = excluded.expires_at
	`

	_, err := s.conn.ExecContext(ctx, query,
		caseNumber,
		auctionDate,
		string(payload),
		now.Format(time.RFC3339),
		expires.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to cache property %s: %w", caseNumber, err)
	}

	return nil
}

// GetCachedProperty returns the cached entry for a case number, or nil if
// it is absent or stale.
//
// A stale entry is deleted as a side effect of the read ("read repairs
// expiry"). This keeps single-item reads correct without a background
// sweep, at the cost of leaving genuinely unread stale entries in storage
// until ClearExpiredCache runs.
func (s *Store) GetCachedProperty(caseNumber string) (*CachedProperty, error) {
	return s.GetCachedPropertyContext(context.Background(), caseNumber)
}

// GetCachedPropertyContext returns a cached entry with context support.
func (s *Store) GetCachedPropertyContext(ctx context.Context, caseNumber string) (*CachedProperty, error) {
	query := `
	SELECT case_number, auction_date, payload, cached_at, expires_at
	FROM properties
	WHERE case_number = ?
	`

	row := s.conn.QueryRowContext(ctx, query, caseNumber)

	prop, err := scanProperty(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cached property %s: %w", caseNumber, err)
	}

	if !s.now().UTC().Before(prop.ExpiresAt) {
		if _, err := s.conn.ExecContext(ctx, `DELETE FROM properties WHERE case_number = ?`, caseNumber); err != nil {
			return nil, fmt.Errorf("failed to delete stale property %s: %w", caseNumber, err)
		}
		return nil, nil
	}

	return prop, nil
}

// GetCachedPropertiesByAuction returns all cached properties for an auction
// date in case-number order.
//
// This is an index scan with NO staleness filtering: callers that need
// freshness must use GetCachedProperty per item or run ClearExpiredCache
// first. Known limitation, kept deliberately.
func (s *Store) GetCachedPropertiesByAuction(auctionDate string) ([]*CachedProperty, error) {
	return s.GetCachedPropertiesByAuctionContext(context.Background(), auctionDate)
}

// GetCachedPropertiesByAuctionContext performs the index scan with context
// support.
func (s *Store) GetCachedPropertiesByAuctionContext(ctx context.Context, auctionDate string) ([]*CachedProperty, error) {
	query := `
	SELECT case_number, auction_date, payload, cached_at, expires_at
	FROM properties
	WHERE auction_date = ?
	ORDER BY case_number ASC
	`

	rows, err := s.conn.QueryContext(ctx, query, auctionDate)
	if err != nil {
		return nil, fmt.Errorf("failed to query properties for auction %s: %w", auctionDate, err)
	}
	defer rows.Close()

	var props []*CachedProperty
	for rows.Next() {
		prop, err := scanProperty(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan property: %w", err)
		}
		props = append(props, prop)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating properties: %w", err)
	}

	return props, nil
}

// ClearExpiredCache deletes every property whose TTL has elapsed and
// returns the number removed. Safe to call at any time; idempotent.
func (s *Store) ClearExpiredCache() (int64, error) {
	return s.ClearExpiredCacheContext(context.Background())
}

// ClearExpiredCacheContext runs the expiry sweep with context support.
func (s *Store) ClearExpiredCacheContext(ctx context.Context) (int64, error) {
	res, err := s.conn.ExecContext(ctx,
		`DELETE FROM properties WHERE expires_at <= ?`,
		s.now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to clear expired cache: %w", err)
	}

	removed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count removed properties: %w", err)
	}

	return removed, nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for the scan helpers.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanProperty scans a single property row.
func scanProperty(row rowScanner) (*CachedProperty, error) {
	var prop CachedProperty
	var payload string
	var cachedAt, expiresAt string

	err := row.Scan(
		&prop.CaseNumber,
		&prop.AuctionDate,
		&payload,
		&cachedAt,
		&expiresAt,
	)
	if err != nil {
		return nil, err
	}

	prop.Payload = json.RawMessage(payload)

	if t, err := time.Parse(time.RFC3339, cachedAt); err == nil {
		prop.CachedAt = t
	}
	if t, err := time.Parse(time.RFC3339, expiresAt); err == nil {
		prop.ExpiresAt = t
	}

	return &prop, nil
}

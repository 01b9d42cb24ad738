package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// CachedAuction tracks which properties belong to an auction date and how
// many of them have been analyzed locally.
//
// Auction entries carry no TTL: they are replaced by the next cache write
// for the same date or removed by ClearAllOfflineData. A case number listed
// here may reference a property entry that has since expired; dangling
// references are legal and must be tolerated by consumers.
type CachedAuction struct {
	AuctionDate     string    `json:"auction_date"`
	CaseNumbers     []string  `json:"case_numbers"`
	CachedAt        time.Time `json:"cached_at"`
	TotalProperties int       `json:"total_properties"`
	AnalyzedCount   int       `json:"analyzed_count"`
}

// CacheAuction creates or overwrites the auction entry for a date.
// The analyzed count starts over at zero.
func (s *Store) CacheAuction(auctionDate string, caseNumbers []string) error {
	return s.CacheAuctionContext(context.Background(), auctionDate, caseNumbers)
}

// CacheAuctionContext creates or overwrites an auction entry with context
// support.
func (s *Store) CacheAuctionContext(ctx context.Context, auctionDate string, caseNumbers []string) error {
	if auctionDate == "" {
		return fmt.Errorf("auction date is required")
	}

	if caseNumbers == nil {
		caseNumbers = []string{}
	}
	casesJSON, err := json.Marshal(caseNumbers)
	if err != nil {
		return fmt.Errorf("failed to marshal case numbers: %w", err)
	}

	query := `
	INSERT INTO auctions (auction_date, case_numbers, cached_at, total_properties, analyzed_count)
	VALUES (?, ?, ?, ?, 0)
	ON CONFLICT(auction_date) DO UPDATE SET
		case_numbers = excluded.case_numbers,
		cached_at = excluded.cached_at,
		total_properties = excluded.total_properties,
		analyzed_count = 0
	`

	_, err = s.conn.ExecContext(ctx, query,
		auctionDate,
		string(casesJSON),
		s.now().UTC().Format(time.RFC3339),
		len(caseNumbers),
	)
	if err != nil {
		return fmt.Errorf("failed to cache auction %s: %w", auctionDate, err)
	}

	return nil
}

// GetCachedAuction returns the auction entry for a date, or nil if absent.
func (s *Store) GetCachedAuction(auctionDate string) (*CachedAuction, error) {
	return s.GetCachedAuctionContext(context.Background(), auctionDate)
}

// GetCachedAuctionContext returns an auction entry with context support.
func (s *Store) GetCachedAuctionContext(ctx context.Context, auctionDate string) (*CachedAuction, error) {
	query := `
	SELECT auction_date, case_numbers, cached_at, total_properties, analyzed_count
	FROM auctions
	WHERE auction_date = ?
	`

	row := s.conn.QueryRowContext(ctx, query, auctionDate)

	var auction CachedAuction
	var casesJSON, cachedAt string

	err := row.Scan(
		&auction.AuctionDate,
		&casesJSON,
		&cachedAt,
		&auction.TotalProperties,
		&auction.AnalyzedCount,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cached auction %s: %w", auctionDate, err)
	}

	if casesJSON != "" && casesJSON != "null" {
		if err := json.Unmarshal([]byte(casesJSON), &auction.CaseNumbers); err != nil {
			return nil, fmt.Errorf("failed to unmarshal case numbers: %w", err)
		}
	} else {
		auction.CaseNumbers = []string{}
	}

	if t, err := time.Parse(time.RFC3339, cachedAt); err == nil {
		auction.CachedAt = t
	}

	return &auction, nil
}

// UpdateAuctionProgress records how many properties of an auction have been
// analyzed locally.
//
// Updating a nonexistent auction date is silently ignored: the write path
// stays available even when the auction entry was never cached or has been
// reset.
func (s *Store) UpdateAuctionProgress(auctionDate string, analyzedCount int) error {
	return s.UpdateAuctionProgressContext(context.Background(), auctionDate, analyzedCount)
}

// UpdateAuctionProgressContext records analysis progress with context
// support.
func (s *Store) UpdateAuctionProgressContext(ctx context.Context, auctionDate string, analyzedCount int) error {
	_, err := s.conn.ExecContext(ctx,
		`UPDATE auctions SET analyzed_count = ? WHERE auction_date = ?`,
		analyzedCount, auctionDate,
	)
	if err != nil {
		return fmt.Errorf("failed to update auction progress for %s: %w", auctionDate, err)
	}
	return nil
}

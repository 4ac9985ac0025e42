package news

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository persists news alerts and their impacts, partitioned by owner.
type Repository interface {
	// ListAlerts returns the owner's alerts at or above minRelevance with
	// impacts attached, ordered by relevance then published date.
	ListAlerts(ctx context.Context, ownerID uuid.UUID, minRelevance int) ([]*Alert, error)

	// LatestScanTime returns the owner's most recent scanned_at.
	// (zero, false) when the user has never scanned.
	LatestScanTime(ctx context.Context, ownerID uuid.UUID) (time.Time, bool, error)

	// Count returns the owner's total stored alert count.
	Count(ctx context.Context, ownerID uuid.UUID) (int, error)

	// Headlines returns all of the owner's stored headlines for dedup.
	Headlines(ctx context.Context, ownerID uuid.UUID) ([]string, error)

	// SaveScan prunes the owner's alerts published before pruneBefore and
	// inserts the new alerts with their impacts, all in one transaction.
	// Alerts carry resolved PortfolioID values on their impacts.
	SaveScan(ctx context.Context, ownerID uuid.UUID, pruneBefore time.Time, alerts []*Alert) error
}

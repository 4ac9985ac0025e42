// Package news defines competitive-news alert entities produced by portfolio
// scans.
package news

import (
	"time"

	"github.com/google/uuid"
)

// CompetitorType classifies the company making the competitive move.
type CompetitorType string

const (
	CompetitorFoundationLab CompetitorType = "foundation_lab"
	CompetitorAINative      CompetitorType = "ai_native"
	CompetitorIncumbent     CompetitorType = "incumbent"
)

// Alert is one scanned competitive-news item scoped to one user.  Headline
// is the dedup key: unique per owner, case-insensitive, so re-scans never
// duplicate.  Alerts older than the retention window are pruned by
// published date, cascading impacts.
type Alert struct {
	ID             int64           `json:"id"`
	OwnerID        uuid.UUID       `json:"-"`
	Headline       string          `json:"headline"`
	Source         *string         `json:"source"`
	SourceURL      *string         `json:"source_url"`
	PublishedDate  *time.Time      `json:"published_date"`
	Summary        string          `json:"summary"`
	Competitor     *string         `json:"competitor"`
	CompetitorType *CompetitorType `json:"competitor_type"`
	RelevanceScore int             `json:"relevance_score"`
	ScannedAt      time.Time       `json:"scanned_at"`

	Impacts []*Impact `json:"impacts"`
}

// Impact ties one alert to one portfolio entry with an explanation of how
// the news affects that holding.
type Impact struct {
	ID          int64  `json:"id"`
	AlertID     int64  `json:"alert_id"`
	PortfolioID int64  `json:"portfolio_id"`
	CompanyName string `json:"company_name"` // joined for reads
	Explanation string `json:"explanation"`
}

// ScanStatus summarises a user's scan state for the UI.
type ScanStatus struct {
	LastScannedAt *time.Time `json:"last_scanned_at"`
	AlertCount    int        `json:"alert_count"`
	IsStale       bool       `json:"is_stale"`
}

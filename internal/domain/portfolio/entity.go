// Package portfolio defines portfolio membership entities and the weight
// redistribution rules.
package portfolio

import (
	"time"

	"github.com/google/uuid"

	"github.com/meridiancap/riskradar/internal/domain/rating"
)

// Entry is the membership of one completed assessment in one user's
// portfolio.  AssessmentID is unique per owner; Weight is the only mutable
// attribute after creation.
type Entry struct {
	ID           int64     `json:"id"`
	OwnerID      uuid.UUID `json:"-"`
	AssessmentID int64     `json:"assessment_id"`
	Weight       float64   `json:"weight"` // percent, 0-100
	AddedAt      time.Time `json:"added_at"`
}

// EntryView is an Entry joined with its assessment and company, the shape
// every read path and the news-scan context consume.
type EntryView struct {
	Entry

	CompanyName    string                 `json:"company_name"`
	CompanySector  *string                `json:"company_sector"`
	CompositeScore *int                   `json:"composite_score"`
	CompositeLabel *rating.CompositeLabel `json:"composite_rating"`
	DomainRatings  map[int]rating.Rating  `json:"domain_ratings"`
	UpdatedAt      time.Time              `json:"updated_at"`
}

// WeightUpdate is one item of a manual weight submission.
type WeightUpdate struct {
	EntryID int64   `json:"id"`
	Weight  float64 `json:"weight"`
}

// WeightSumTolerance is the accepted deviation from 100 for manual weight
// submissions.
const WeightSumTolerance = 0.1

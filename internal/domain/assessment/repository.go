package assessment

import (
	"context"

	"github.com/google/uuid"

	"github.com/meridiancap/riskradar/internal/domain/rating"
)

// ListFilter narrows and orders assessment listings.
type ListFilter struct {
	Status *Status
	Sector *string
	Search string // substring match on company name
	Sort   string // "name" | "score" | "sector" | default updated_at
	Order  string // "asc" | "desc"
}

// AnalysisUpdate is the full result set persisted when an analysis run (fresh
// or cloned) completes.  Repositories must apply it atomically: stale score
// rows deleted, new rows inserted, the assessment row updated to completed,
// and the history entry appended in one transaction so concurrent readers
// never observe a half-updated score set.
type AnalysisUpdate struct {
	Narrative       string
	DomainRatings   map[int]rating.Rating
	CompositeScore  int
	CompositeLabel  rating.CompositeLabel
	AIModel         string
	DomainSummaries map[int]string
	Scores          []*DomainScore
	History         HistoryEntry
}

// OverrideUpdate is the persisted outcome of one sub-question override.
// Score carries the already-resolved user/effective fields; History is nil
// when the effective rating did not change; Recalc refreshes the parent
// assessment's domain ratings and composite.  Applied atomically.
type OverrideUpdate struct {
	Score   *DomainScore
	History *HistoryEntry
	Recalc  rating.Result
}

// CompanyRepository persists the shared company identities.
type CompanyRepository interface {
	// FindByName looks a company up by case-insensitive name.
	// Returns (nil, nil) when absent.
	FindByName(ctx context.Context, name string) (*Company, error)

	// Create inserts c and fills its ID and timestamps.
	Create(ctx context.Context, c *Company) error

	// UpdateSector backfills the sector on an existing company.
	UpdateSector(ctx context.Context, id int64, sector string) error
}

// Repository persists assessments, their domain scores, and history.
// All owner-scoped reads return a not-found error for rows that exist but
// belong to another user; callers cannot distinguish the two cases.
type Repository interface {
	Create(ctx context.Context, a *Assessment) error
	GetOwned(ctx context.Context, ownerID uuid.UUID, id int64) (*Assessment, error)
	List(ctx context.Context, ownerID uuid.UUID, filter ListFilter) ([]*Assessment, error)
	Delete(ctx context.Context, ownerID uuid.UUID, id int64) error

	// FindDonor returns the most recently updated completed assessment for
	// the company by ANY owner, excluding excludeID.  (nil, nil) when none.
	FindDonor(ctx context.Context, companyID, excludeID int64) (*Assessment, error)

	// FindOwnedCompleted returns the owner's own completed assessment for
	// the company, if any.  (nil, nil) when none.
	FindOwnedCompleted(ctx context.Context, ownerID uuid.UUID, companyID int64) (*Assessment, error)

	SetStatus(ctx context.Context, id int64, status Status) error

	// SaveAnalysisResult atomically replaces the score set and completes
	// the assessment.  See AnalysisUpdate.
	SaveAnalysisResult(ctx context.Context, id int64, update AnalysisUpdate) error

	// MarkFailed transitions to error status and appends the
	// analysis_failed history row in one transaction.
	MarkFailed(ctx context.Context, id int64, message string) error

	// UpdateNotes sets notes and appends the notes_updated history row.
	UpdateNotes(ctx context.Context, ownerID uuid.UUID, id int64, notes *string) error

	ListScores(ctx context.Context, assessmentID int64) ([]*DomainScore, error)
	GetScore(ctx context.Context, assessmentID, scoreID int64) (*DomainScore, error)

	// ApplyOverride atomically persists one override and the refreshed
	// assessment composite.  See OverrideUpdate.
	ApplyOverride(ctx context.Context, assessmentID int64, update OverrideUpdate) error

	ListHistory(ctx context.Context, assessmentID int64) ([]*HistoryEntry, error)
	AddHistory(ctx context.Context, entry *HistoryEntry) error
}

// Package assessment defines the core evaluation entities: companies, their
// per-user assessments, sub-question domain scores, and the append-only
// history log.
package assessment

import (
	"time"

	"github.com/google/uuid"

	"github.com/meridiancap/riskradar/internal/domain/rating"
)

// Status is the assessment lifecycle state machine:
// pending -> analyzing -> completed | error.  Completed and error both
// re-enter analyzing on a manual re-run; no state is terminal at the
// data-model level, only at the single-run level.
type Status string

const (
	StatusPending   Status = "pending"
	StatusAnalyzing Status = "analyzing"
	StatusCompleted Status = "completed"
	StatusError     Status = "error"
)

// Valid reports whether s is a defined lifecycle state.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusAnalyzing, StatusCompleted, StatusError:
		return true
	}
	return false
}

// Company is the identity entity shared across users.  Created lazily on
// first assessment request for a name; never deleted automatically.
type Company struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Sector      *string   `json:"sector"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Assessment is one evaluation run for one company, owned by exactly one
// user.  CompositeScore and CompositeLabel are non-nil iff Status is
// completed.
type Assessment struct {
	ID        int64     `json:"id"`
	CompanyID int64     `json:"company_id"`
	OwnerID   uuid.UUID `json:"-"`
	Status    Status    `json:"status"`
	Narrative *string   `json:"narrative"`

	// DomainRatings holds slots 1..5; slot 5 is reserved and unused.
	DomainRatings map[int]rating.Rating `json:"domain_ratings"`

	CompositeScore *int                    `json:"composite_score"`
	CompositeLabel *rating.CompositeLabel  `json:"composite_rating"`
	AIModel        *string                 `json:"ai_model"`

	// UserModified is monotonic: set the first time any sub-question is
	// overridden and never reset, including after a fresh full re-run.
	// Once modified, always flagged.
	UserModified bool `json:"user_modified"`

	Notes *string `json:"notes"`

	// DomainSummaries is one synthesis paragraph per domain, keyed by slot.
	DomainSummaries map[int]string `json:"domain_summaries"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Joined company fields populated by list/get queries.
	CompanyName        string  `json:"company_name"`
	CompanySector      *string `json:"company_sector"`
	CompanyDescription *string `json:"company_description"`
}

// DomainScore is one sub-question's judgment within an assessment.  The AI
// fields are immutable once written; user fields change only through the
// override path, which recomputes EffectiveRating.
type DomainScore struct {
	ID           int64  `json:"id"`
	AssessmentID int64  `json:"assessment_id"`
	DomainNumber int    `json:"domain_number"`
	QuestionKey  string `json:"question_key"`
	QuestionText string `json:"question_text"`

	AIRating     rating.Rating     `json:"ai_rating"`
	AIReasoning  string            `json:"ai_reasoning"`
	AIConfidence rating.Confidence `json:"ai_confidence"`

	UserRating    *rating.Rating `json:"user_rating"`
	UserReasoning *string        `json:"user_reasoning"`

	// EffectiveRating is derived: UserRating if present, else AIRating.
	// Stored rather than computed on read so storage-level consistency can
	// be verified.  Never left unset.
	EffectiveRating rating.Rating `json:"effective_rating"`
}

// ResolveEffective returns the rating the scoring engine must use for this
// sub-question given a (possibly nil) override.
func ResolveEffective(aiRating rating.Rating, userRating *rating.Rating) rating.Rating {
	if userRating != nil {
		return *userRating
	}
	return aiRating
}

// QuestionScores projects domain scores into the scoring engine's input.
func QuestionScores(scores []*DomainScore) []rating.QuestionScore {
	out := make([]rating.QuestionScore, 0, len(scores))
	for _, s := range scores {
		out = append(out, rating.QuestionScore{
			DomainNumber: s.DomainNumber,
			Effective:    s.EffectiveRating,
		})
	}
	return out
}

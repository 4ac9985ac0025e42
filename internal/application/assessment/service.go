// Package assessment implements the assessment CRUD surface and the score
// override resolver.
package assessment

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	domain "github.com/meridiancap/riskradar/internal/domain/assessment"
	"github.com/meridiancap/riskradar/internal/domain/rating"
	"github.com/meridiancap/riskradar/internal/infrastructure/monitoring/logging"
	"github.com/meridiancap/riskradar/pkg/errors"
)

// CreateInput creates a company (lazily) and a pending assessment for it.
type CreateInput struct {
	CompanyName string
	Sector      *string
	Description *string
}

// CreateOutput identifies the created pair.
type CreateOutput struct {
	CompanyID    int64 `json:"company_id"`
	AssessmentID int64 `json:"assessment_id"`
}

// OverrideInput is one sub-question override request.  Nil UserRating with
// nil UserReasoning clears the override, restoring the AI rating as
// effective.
type OverrideInput struct {
	UserRating    *rating.Rating
	UserReasoning *string
}

// OverrideOutput returns the updated score and the refreshed composite.
type OverrideOutput struct {
	Score          *domain.DomainScore    `json:"score"`
	DomainRatings  map[int]rating.Rating  `json:"domain_ratings"`
	CompositeScore int                    `json:"composite_score"`
	CompositeLabel rating.CompositeLabel  `json:"composite_rating"`
}

// Detail is one assessment with its scores and history.
type Detail struct {
	Assessment *domain.Assessment     `json:"assessment"`
	Scores     []*domain.DomainScore  `json:"domain_scores"`
	History    []*domain.HistoryEntry `json:"history"`
}

// Service is the assessment application service.
type Service struct {
	companies   domain.CompanyRepository
	assessments domain.Repository
	log         logging.Logger
}

// NewService constructs the assessment service.
func NewService(companies domain.CompanyRepository, assessments domain.Repository, log logging.Logger) *Service {
	return &Service{
		companies:   companies,
		assessments: assessments,
		log:         log.Named("assessment"),
	}
}

// Create finds or creates the company, then creates a pending assessment
// owned by the caller with a "created" history row.
func (s *Service) Create(ctx context.Context, ownerID uuid.UUID, in CreateInput) (*CreateOutput, error) {
	name := strings.TrimSpace(in.CompanyName)
	if name == "" {
		return nil, errors.Validation("company_name is required")
	}
	if len(name) > 200 {
		return nil, errors.Validation("company_name must be at most 200 characters")
	}

	company, err := s.companies.FindByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if company == nil {
		company = &domain.Company{Name: name, Sector: in.Sector, Description: in.Description}
		if err := s.companies.Create(ctx, company); err != nil {
			return nil, err
		}
	} else if in.Sector != nil && *in.Sector != "" {
		if err := s.companies.UpdateSector(ctx, company.ID, *in.Sector); err != nil {
			return nil, err
		}
	}

	a := &domain.Assessment{
		CompanyID: company.ID,
		OwnerID:   ownerID,
		Status:    domain.StatusPending,
	}
	if err := s.assessments.Create(ctx, a); err != nil {
		return nil, err
	}
	if err := s.assessments.AddHistory(ctx, &domain.HistoryEntry{
		AssessmentID: a.ID,
		Action:       domain.ActionCreated,
	}); err != nil {
		return nil, err
	}

	s.log.Info("assessment created",
		logging.Int64("assessment_id", a.ID),
		logging.Int64("company_id", company.ID),
		logging.String("company", name))

	return &CreateOutput{CompanyID: company.ID, AssessmentID: a.ID}, nil
}

// List returns the caller's assessments, filtered and ordered.
func (s *Service) List(ctx context.Context, ownerID uuid.UUID, filter domain.ListFilter) ([]*domain.Assessment, error) {
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, errors.Validation("invalid status filter")
	}
	return s.assessments.List(ctx, ownerID, filter)
}

// Get returns one owned assessment with scores and history.
func (s *Service) Get(ctx context.Context, ownerID uuid.UUID, id int64) (*Detail, error) {
	a, err := s.assessments.GetOwned(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	scores, err := s.assessments.ListScores(ctx, id)
	if err != nil {
		return nil, err
	}
	history, err := s.assessments.ListHistory(ctx, id)
	if err != nil {
		return nil, err
	}
	return &Detail{Assessment: a, Scores: scores, History: history}, nil
}

// Override applies one sub-question override: the effective rating becomes
// the user rating when present, else reverts exactly to the stored AI
// rating.  An audit row is appended only when the effective rating actually
// changes; the parent assessment is always marked user-modified and its
// composite recomputed from the full score set.
func (s *Service) Override(ctx context.Context, ownerID uuid.UUID, assessmentID, scoreID int64, in OverrideInput) (*OverrideOutput, error) {
	if in.UserRating != nil && !in.UserRating.Valid() {
		return nil, errors.New(errors.CodeInvalidRating, fmt.Sprintf("invalid rating %q", *in.UserRating))
	}

	// Ownership gate before any score access.
	if _, err := s.assessments.GetOwned(ctx, ownerID, assessmentID); err != nil {
		return nil, err
	}

	score, err := s.assessments.GetScore(ctx, assessmentID, scoreID)
	if err != nil {
		return nil, err
	}

	oldEffective := score.EffectiveRating
	score.UserRating = in.UserRating
	score.UserReasoning = in.UserReasoning
	score.EffectiveRating = domain.ResolveEffective(score.AIRating, in.UserRating)

	var history *domain.HistoryEntry
	if oldEffective != score.EffectiveRating {
		oldVal := string(oldEffective)
		newVal := string(score.EffectiveRating)
		key := score.QuestionKey
		history = &domain.HistoryEntry{
			AssessmentID: assessmentID,
			Action:       domain.ActionScoreOverride,
			FieldChanged: &key,
			OldValue:     &oldVal,
			NewValue:     &newVal,
		}
	}

	// Recompute from the full set with the override applied.
	all, err := s.assessments.ListScores(ctx, assessmentID)
	if err != nil {
		return nil, err
	}
	for _, existing := range all {
		if existing.ID == score.ID {
			existing.UserRating = score.UserRating
			existing.UserReasoning = score.UserReasoning
			existing.EffectiveRating = score.EffectiveRating
		}
	}
	recalc := rating.Recalculate(domain.QuestionScores(all))

	if err := s.assessments.ApplyOverride(ctx, assessmentID, domain.OverrideUpdate{
		Score:   score,
		History: history,
		Recalc:  recalc,
	}); err != nil {
		return nil, err
	}

	return &OverrideOutput{
		Score:          score,
		DomainRatings:  recalc.DomainRatings,
		CompositeScore: recalc.CompositeScore,
		CompositeLabel: recalc.CompositeLabel,
	}, nil
}

// UpdateNotes replaces the free-text notes, recording the change.
func (s *Service) UpdateNotes(ctx context.Context, ownerID uuid.UUID, id int64, notes *string) error {
	return s.assessments.UpdateNotes(ctx, ownerID, id, notes)
}

// Delete removes an owned assessment; scores and history cascade.
func (s *Service) Delete(ctx context.Context, ownerID uuid.UUID, id int64) error {
	if err := s.assessments.Delete(ctx, ownerID, id); err != nil {
		return err
	}
	s.log.Info("assessment deleted", logging.Int64("assessment_id", id))
	return nil
}

// Package portfolio implements portfolio membership management and the
// streamed batch-add flow.
package portfolio

import (
	"context"

	"github.com/google/uuid"

	"github.com/meridiancap/riskradar/internal/application/analysis"
	assessmentdomain "github.com/meridiancap/riskradar/internal/domain/assessment"
	domain "github.com/meridiancap/riskradar/internal/domain/portfolio"
	"github.com/meridiancap/riskradar/internal/infrastructure/monitoring/logging"
	"github.com/meridiancap/riskradar/pkg/errors"
)

// AssessmentReader is the slice of the assessment repository the portfolio
// service consumes.
type AssessmentReader interface {
	GetOwned(ctx context.Context, ownerID uuid.UUID, id int64) (*assessmentdomain.Assessment, error)
	FindOwnedCompleted(ctx context.Context, ownerID uuid.UUID, companyID int64) (*assessmentdomain.Assessment, error)
}

// CompanyFinder resolves company names for the batch-add reuse check.
type CompanyFinder interface {
	FindByName(ctx context.Context, name string) (*assessmentdomain.Company, error)
}

// Analyzer runs the clone-or-analyze flow for one company name.
type Analyzer interface {
	AnalyzeCompany(ctx context.Context, ownerID uuid.UUID, name string, sector *string, progress func(string)) (*analysis.ItemOutcome, error)
}

// Service manages one user's weighted holdings.
type Service struct {
	entries     domain.Repository
	assessments AssessmentReader
	companies   CompanyFinder
	analyzer    Analyzer
	log         logging.Logger

	maxBatchAdd int
}

// NewService constructs the portfolio service.  maxBatchAdd caps the number
// of new companies a single batch-add may analyze.
func NewService(
	entries domain.Repository,
	assessments AssessmentReader,
	companies CompanyFinder,
	analyzer Analyzer,
	log logging.Logger,
	maxBatchAdd int,
) *Service {
	return &Service{
		entries:     entries,
		assessments: assessments,
		companies:   companies,
		analyzer:    analyzer,
		log:         log.Named("portfolio"),
		maxBatchAdd: maxBatchAdd,
	}
}

// List returns the caller's holdings, newest first.
func (s *Service) List(ctx context.Context, ownerID uuid.UUID) ([]*domain.EntryView, error) {
	return s.entries.List(ctx, ownerID)
}

// Add attaches completed assessments to the caller's portfolio.  Already
// attached IDs are skipped silently; weights are redistributed equally over
// the resulting set in the same transaction.
func (s *Service) Add(ctx context.Context, ownerID uuid.UUID, assessmentIDs []int64) error {
	if len(assessmentIDs) == 0 {
		return errors.Validation("at least one assessment id is required")
	}
	for _, id := range assessmentIDs {
		a, err := s.assessments.GetOwned(ctx, ownerID, id)
		if err != nil {
			return err
		}
		if a.Status != assessmentdomain.StatusCompleted {
			return errors.Newf(errors.CodeAssessmentIncomplete,
				"assessment %d is %s; only completed assessments can join a portfolio", id, a.Status)
		}
	}
	if err := s.entries.Add(ctx, ownerID, assessmentIDs); err != nil {
		return err
	}
	s.log.Info("portfolio entries added", logging.Int("count", len(assessmentIDs)))
	return nil
}

// Remove detaches one holding and redistributes the remainder equally.
func (s *Service) Remove(ctx context.Context, ownerID uuid.UUID, entryID int64) error {
	return s.entries.Remove(ctx, ownerID, entryID)
}

// UpdateWeights applies an explicit weight submission.  The submitted
// weights must sum to 100 within the tolerance or the whole submission is
// rejected with no partial application.
func (s *Service) UpdateWeights(ctx context.Context, ownerID uuid.UUID, updates []domain.WeightUpdate) error {
	if len(updates) == 0 {
		return errors.Validation("at least one weight is required")
	}
	for _, u := range updates {
		if u.Weight < 0 || u.Weight > 100 {
			return errors.Newf(errors.CodeWeightSumInvalid, "weight %.2f for entry %d is out of range", u.Weight, u.EntryID)
		}
	}
	if sum, ok := domain.ValidateWeightSum(updates); !ok {
		return errors.Newf(errors.CodeWeightSumInvalid, "weights sum to %.2f, expected 100 within %.1f", sum, domain.WeightSumTolerance)
	}
	return s.entries.UpdateWeights(ctx, ownerID, updates)
}

package portfolio

import (
	"context"

	"github.com/google/uuid"

	"github.com/meridiancap/riskradar/internal/application/analysis"
	assessmentdomain "github.com/meridiancap/riskradar/internal/domain/assessment"
	"github.com/meridiancap/riskradar/internal/infrastructure/monitoring/logging"
	"github.com/meridiancap/riskradar/internal/stream"
	"github.com/meridiancap/riskradar/pkg/errors"
)

// BatchAddInput is one batch-add request: already-completed assessments to
// attach at zero AI cost, plus new company names to assess.
type BatchAddInput struct {
	ExistingAssessmentIDs []int64
	NewCompanies          []string
	Sector                *string
}

// ExistingAddedPayload reports pre-existing assessments attached before the
// per-company loop begins.
type ExistingAddedPayload struct {
	Count int `json:"count"`
}

// ValidateBatchAdd checks the request size constraints without starting a
// run, so callers can reject a bad request before opening a stream.
func (s *Service) ValidateBatchAdd(in BatchAddInput) error {
	names := analysis.NormalizeCompanyNames(in.NewCompanies)
	if len(names) == 0 && len(in.ExistingAssessmentIDs) == 0 {
		return errors.Validation("nothing to add: no assessments and no companies given")
	}
	if len(names) > s.maxBatchAdd {
		return errors.Newf(errors.CodeBatchTooLarge, "batch size %d exceeds maximum %d", len(names), s.maxBatchAdd)
	}
	return nil
}

// BatchAdd attaches existing assessments, then runs each new company through
// the reuse-or-clone-or-analyze ladder, attaching every success to the
// portfolio.  Per-company failures are isolated; weights are redistributed
// once over the whole portfolio after all items are processed.
func (s *Service) BatchAdd(ctx context.Context, ownerID uuid.UUID, in BatchAddInput, emit stream.Emitter) ([]analysis.ItemResult, error) {
	if err := s.ValidateBatchAdd(in); err != nil {
		return nil, err
	}
	names := analysis.NormalizeCompanyNames(in.NewCompanies)

	// Existing completed assessments attach synchronously, before the loop.
	if len(in.ExistingAssessmentIDs) > 0 {
		added := 0
		for _, id := range in.ExistingAssessmentIDs {
			a, err := s.assessments.GetOwned(ctx, ownerID, id)
			if err != nil {
				return nil, err
			}
			if a.Status != assessmentdomain.StatusCompleted {
				return nil, errors.Newf(errors.CodeAssessmentIncomplete,
					"assessment %d is %s; only completed assessments can join a portfolio", id, a.Status)
			}
			held, err := s.entries.HasEntry(ctx, ownerID, id)
			if err != nil {
				return nil, err
			}
			if !held {
				added++
			}
		}
		if err := s.entries.Add(ctx, ownerID, in.ExistingAssessmentIDs); err != nil {
			return nil, err
		}
		emit.Emit(stream.EventExistingAdded, ExistingAddedPayload{Count: added})
	}

	emit.Emit(stream.EventBatchStart, analysis.BatchStartPayload{Total: len(names)})

	results := make([]analysis.ItemResult, 0, len(names))
	var attach []int64
	for i, name := range names {
		if err := ctx.Err(); err != nil {
			s.log.Warn("batch add cancelled",
				logging.Int("processed", len(results)),
				logging.Int("total", len(names)))
			// Items already completed still join the portfolio.
			if attachErr := s.attachAll(context.WithoutCancel(ctx), ownerID, attach); attachErr != nil {
				s.log.Error("attach after cancellation failed", logging.Err(attachErr))
			}
			return results, err
		}

		index := i
		emit.Emit(stream.EventCompanyStart, analysis.CompanyStartPayload{Index: index, CompanyName: name})

		outcome, err := s.resolveCompany(ctx, ownerID, name, in.Sector, func(message string) {
			emit.Emit(stream.EventProgress, stream.Progress{
				Message:     message,
				Index:       &index,
				CompanyName: name,
			})
		})
		if err != nil {
			emit.Emit(stream.EventCompanyError, analysis.CompanyErrorPayload{
				Index:       index,
				CompanyName: name,
				Error:       err.Error(),
			})
			results = append(results, analysis.ItemResult{
				CompanyName: name,
				Status:      analysis.ItemStatusError,
				Error:       err.Error(),
			})
			continue
		}

		attach = append(attach, outcome.AssessmentID)
		emit.Emit(stream.EventCompanyComplete, analysis.CompanyCompletePayload{
			Index:          index,
			CompanyName:    name,
			AssessmentID:   outcome.AssessmentID,
			CompositeScore: outcome.CompositeScore,
			CompositeLabel: outcome.CompositeLabel,
		})
		results = append(results, analysis.ItemResult{
			CompanyName:    name,
			Status:         analysis.ItemStatusCompleted,
			AssessmentID:   &outcome.AssessmentID,
			CompositeScore: &outcome.CompositeScore,
			CompositeLabel: &outcome.CompositeLabel,
		})
	}

	// One attach covers all successful items, so redistribution runs once
	// over the final portfolio.
	if err := s.attachAll(ctx, ownerID, attach); err != nil {
		emit.Emit(stream.EventError, stream.ErrorPayload{Message: err.Error()})
		return results, err
	}

	emit.Emit(stream.EventBatchComplete, analysis.BatchCompletePayload{Results: results})
	s.log.Info("batch add completed",
		logging.Int("existing", len(in.ExistingAssessmentIDs)),
		logging.Int("new", len(results)))
	return results, nil
}

// resolveCompany is the cost ladder for one new company: reuse the caller's
// own completed assessment if one exists, else clone-or-analyze.
func (s *Service) resolveCompany(ctx context.Context, ownerID uuid.UUID, name string, sector *string, progress func(string)) (*analysis.ItemOutcome, error) {
	company, err := s.companies.FindByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if company != nil {
		own, err := s.assessments.FindOwnedCompleted(ctx, ownerID, company.ID)
		if err != nil {
			return nil, err
		}
		if own != nil {
			progress("Already assessed, adding to portfolio...")
			outcome := &analysis.ItemOutcome{AssessmentID: own.ID}
			if own.CompositeScore != nil {
				outcome.CompositeScore = *own.CompositeScore
			}
			if own.CompositeLabel != nil {
				outcome.CompositeLabel = *own.CompositeLabel
			}
			return outcome, nil
		}
	}
	return s.analyzer.AnalyzeCompany(ctx, ownerID, name, sector, progress)
}

func (s *Service) attachAll(ctx context.Context, ownerID uuid.UUID, assessmentIDs []int64) error {
	if len(assessmentIDs) == 0 {
		return nil
	}
	return s.entries.Add(ctx, ownerID, assessmentIDs)
}

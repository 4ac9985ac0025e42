package analysis

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	domain "github.com/meridiancap/riskradar/internal/domain/assessment"
	"github.com/meridiancap/riskradar/internal/domain/rating"
	"github.com/meridiancap/riskradar/internal/infrastructure/monitoring/logging"
	"github.com/meridiancap/riskradar/internal/infrastructure/monitoring/prometheus"
	"github.com/meridiancap/riskradar/internal/stream"
	"github.com/meridiancap/riskradar/pkg/errors"
)

// Step totals for the single-run progress bar.  The clone path is fast and
// synchronous; the fresh path spends most of its time inside the AI call.
const (
	cloneSteps = 3
	freshSteps = 5
)

// CompletePayload is the terminal event payload of a successful single run.
type CompletePayload struct {
	AssessmentID   int64                 `json:"assessment_id"`
	CompositeScore int                   `json:"composite_score"`
	CompositeLabel rating.CompositeLabel `json:"composite_rating"`
}

// ItemOutcome is the successful result of analyzing one company, used by the
// batch driver and the portfolio batch-add flow.
type ItemOutcome struct {
	AssessmentID   int64
	CompositeScore int
	CompositeLabel rating.CompositeLabel
	Cloned         bool
}

// Orchestrator drives one assessment through the
// pending -> analyzing -> completed/error state machine, preferring a clone
// of an existing completed assessment over a fresh AI call.
type Orchestrator struct {
	companies   domain.CompanyRepository
	assessments domain.Repository
	analyst     Analyst
	locks       RunLock
	metrics     *prometheus.Metrics
	log         logging.Logger

	maxBatch int
}

// NewOrchestrator constructs the orchestrator.  maxBatch caps RunBatch input
// size.
func NewOrchestrator(
	companies domain.CompanyRepository,
	assessments domain.Repository,
	analyst Analyst,
	locks RunLock,
	metrics *prometheus.Metrics,
	log logging.Logger,
	maxBatch int,
) *Orchestrator {
	return &Orchestrator{
		companies:   companies,
		assessments: assessments,
		analyst:     analyst,
		locks:       locks,
		metrics:     metrics,
		log:         log.Named("analysis"),
		maxBatch:    maxBatch,
	}
}

// Run executes one analysis for an owned assessment, emitting step-numbered
// progress events and a terminal complete or error event.  A second Run on
// the same assessment while one is in flight is rejected.
func (o *Orchestrator) Run(ctx context.Context, ownerID uuid.UUID, assessmentID int64, emit stream.Emitter) error {
	a, err := o.assessments.GetOwned(ctx, ownerID, assessmentID)
	if err != nil {
		emit.Emit(stream.EventError, stream.ErrorPayload{Message: err.Error()})
		return err
	}

	release, err := o.locks.Acquire(ctx, assessmentID)
	if err != nil {
		emit.Emit(stream.EventError, stream.ErrorPayload{Message: err.Error()})
		return err
	}
	defer release()

	donor, err := o.assessments.FindDonor(ctx, a.CompanyID, a.ID)
	if err != nil {
		return o.fail(ctx, a.ID, emit, err)
	}

	if donor != nil {
		return o.runClone(ctx, a, donor, emit)
	}
	return o.runFresh(ctx, a, emit)
}

func (o *Orchestrator) runClone(ctx context.Context, a, donor *domain.Assessment, emit stream.Emitter) error {
	emit.Emit(stream.EventProgress, stream.Progress{
		Message:    fmt.Sprintf("Found existing analysis for %s, reusing results...", a.CompanyName),
		Step:       1,
		TotalSteps: cloneSteps,
	})

	recalc, err := o.clone(ctx, a, donor)
	if err != nil {
		return o.fail(ctx, a.ID, emit, err)
	}

	emit.Emit(stream.EventProgress, stream.Progress{Message: "Saving results...", Step: 2, TotalSteps: cloneSteps})
	emit.Emit(stream.EventProgress, stream.Progress{Message: "Complete!", Step: 3, TotalSteps: cloneSteps})
	emit.Emit(stream.EventComplete, CompletePayload{
		AssessmentID:   a.ID,
		CompositeScore: recalc.CompositeScore,
		CompositeLabel: recalc.CompositeLabel,
	})
	o.metrics.ObserveAnalysisRun(prometheus.OutcomeCloned)
	return nil
}

func (o *Orchestrator) runFresh(ctx context.Context, a *domain.Assessment, emit stream.Emitter) error {
	emit.Emit(stream.EventProgress, stream.Progress{Message: "Starting analysis...", Step: 1, TotalSteps: freshSteps})

	if err := o.assessments.SetStatus(ctx, a.ID, domain.StatusAnalyzing); err != nil {
		return o.fail(ctx, a.ID, emit, err)
	}

	emit.Emit(stream.EventProgress, stream.Progress{
		Message:    fmt.Sprintf("Analyzing %s...", a.CompanyName),
		Step:       2,
		TotalSteps: freshSteps,
	})
	progress := func(message string) {
		emit.Emit(stream.EventProgress, stream.Progress{Message: message, Step: 2, TotalSteps: freshSteps})
	}

	recalc, err := o.fresh(ctx, a, progress)
	if err != nil {
		return o.fail(ctx, a.ID, emit, err)
	}

	emit.Emit(stream.EventProgress, stream.Progress{Message: "Saving results...", Step: 3, TotalSteps: freshSteps})
	emit.Emit(stream.EventProgress, stream.Progress{Message: "Calculating composite score...", Step: 4, TotalSteps: freshSteps})
	emit.Emit(stream.EventProgress, stream.Progress{Message: "Complete!", Step: 5, TotalSteps: freshSteps})
	emit.Emit(stream.EventComplete, CompletePayload{
		AssessmentID:   a.ID,
		CompositeScore: recalc.CompositeScore,
		CompositeLabel: recalc.CompositeLabel,
	})
	o.metrics.ObserveAnalysisRun(prometheus.OutcomeCompleted)
	return nil
}

// clone copies the donor's scores into fresh rows for a, resets every
// effective rating back to the AI rating (donor overrides never travel), and
// recomputes the composite over the reset set.  Narrative and domain
// summaries are carried over verbatim.
func (o *Orchestrator) clone(ctx context.Context, a, donor *domain.Assessment) (rating.Result, error) {
	donorScores, err := o.assessments.ListScores(ctx, donor.ID)
	if err != nil {
		return rating.Result{}, err
	}

	scores := make([]*domain.DomainScore, 0, len(donorScores))
	for _, s := range donorScores {
		scores = append(scores, &domain.DomainScore{
			AssessmentID:    a.ID,
			DomainNumber:    s.DomainNumber,
			QuestionKey:     s.QuestionKey,
			QuestionText:    s.QuestionText,
			AIRating:        s.AIRating,
			AIReasoning:     s.AIReasoning,
			AIConfidence:    s.AIConfidence,
			EffectiveRating: s.AIRating,
		})
	}
	recalc := rating.Recalculate(domain.QuestionScores(scores))

	narrative := ""
	if donor.Narrative != nil {
		narrative = *donor.Narrative
	}
	model := ""
	if donor.AIModel != nil {
		model = *donor.AIModel
	}
	source := fmt.Sprintf("Cloned from assessment %d", donor.ID)

	update := domain.AnalysisUpdate{
		Narrative:       narrative,
		DomainRatings:   recalc.DomainRatings,
		CompositeScore:  recalc.CompositeScore,
		CompositeLabel:  recalc.CompositeLabel,
		AIModel:         model,
		DomainSummaries: donor.DomainSummaries,
		Scores:          scores,
		History: domain.HistoryEntry{
			AssessmentID: a.ID,
			Action:       domain.ActionAnalysisCloned,
			NewValue:     &source,
		},
	}
	if err := o.assessments.SaveAnalysisResult(ctx, a.ID, update); err != nil {
		return rating.Result{}, err
	}

	o.log.Info("analysis cloned",
		logging.Int64("assessment_id", a.ID),
		logging.Int64("donor_id", donor.ID),
		logging.Int("composite_score", recalc.CompositeScore))
	return recalc, nil
}

// fresh runs the external AI analysis and persists its result atomically.
// The AI's own stated composite is discarded: the composite saved here is
// always recomputed locally from the inserted score set.
func (o *Orchestrator) fresh(ctx context.Context, a *domain.Assessment, progress func(string)) (rating.Result, error) {
	result, err := o.analyst.AnalyzeCompany(ctx, CompanyInput{
		Name:        a.CompanyName,
		Sector:      a.CompanySector,
		Description: a.CompanyDescription,
	}, progress)
	if err != nil {
		return rating.Result{}, err
	}

	if result.Sector != "" && (a.CompanySector == nil || *a.CompanySector == "") {
		if err := o.companies.UpdateSector(ctx, a.CompanyID, result.Sector); err != nil {
			return rating.Result{}, err
		}
	}

	scores := make([]*domain.DomainScore, 0, len(result.Domains)*4)
	summaries := make(map[int]string, len(result.Domains))
	for _, d := range result.Domains {
		summaries[d.DomainNumber] = d.Summary
		for _, q := range d.Questions {
			scores = append(scores, &domain.DomainScore{
				AssessmentID:    a.ID,
				DomainNumber:    d.DomainNumber,
				QuestionKey:     q.QuestionKey,
				QuestionText:    rating.QuestionText(d.DomainNumber, q.QuestionKey),
				AIRating:        q.Rating,
				AIReasoning:     q.Reasoning,
				AIConfidence:    q.Confidence,
				EffectiveRating: q.Rating,
			})
		}
	}
	recalc := rating.Recalculate(domain.QuestionScores(scores))

	summary := fmt.Sprintf("Score: %d (%s)", recalc.CompositeScore, recalc.CompositeLabel)
	update := domain.AnalysisUpdate{
		Narrative:       result.Narrative,
		DomainRatings:   recalc.DomainRatings,
		CompositeScore:  recalc.CompositeScore,
		CompositeLabel:  recalc.CompositeLabel,
		AIModel:         result.Model,
		DomainSummaries: summaries,
		Scores:          scores,
		History: domain.HistoryEntry{
			AssessmentID: a.ID,
			Action:       domain.ActionAnalysisCompleted,
			NewValue:     &summary,
		},
	}
	if err := o.assessments.SaveAnalysisResult(ctx, a.ID, update); err != nil {
		return rating.Result{}, err
	}

	o.log.Info("analysis completed",
		logging.Int64("assessment_id", a.ID),
		logging.String("company", a.CompanyName),
		logging.Int("composite_score", recalc.CompositeScore),
		logging.String("composite_rating", string(recalc.CompositeLabel)))
	return recalc, nil
}

// fail marks the assessment errored with the failure message in its history,
// emits the terminal error event, and returns err unchanged.
func (o *Orchestrator) fail(ctx context.Context, assessmentID int64, emit stream.Emitter, err error) error {
	o.log.Error("analysis failed", logging.Int64("assessment_id", assessmentID), logging.Err(err))
	if markErr := o.assessments.MarkFailed(ctx, assessmentID, err.Error()); markErr != nil {
		o.log.Error("mark failed", logging.Int64("assessment_id", assessmentID), logging.Err(markErr))
	}
	emit.Emit(stream.EventError, stream.ErrorPayload{Message: err.Error()})
	o.metrics.ObserveAnalysisRun(prometheus.OutcomeError)
	return err
}

// AnalyzeCompany runs the full create-company, create-assessment,
// clone-or-analyze sequence for one company name.  Progress text goes to the
// optional sink; event framing is the caller's job.  On failure the created
// assessment is marked errored and the error returned for per-item handling.
func (o *Orchestrator) AnalyzeCompany(ctx context.Context, ownerID uuid.UUID, name string, sector *string, progress func(string)) (*ItemOutcome, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.Validation("company name is required")
	}

	company, err := o.companies.FindByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if company == nil {
		company = &domain.Company{Name: name, Sector: sector}
		if err := o.companies.Create(ctx, company); err != nil {
			return nil, err
		}
	}

	a := &domain.Assessment{
		CompanyID: company.ID,
		OwnerID:   ownerID,
		Status:    domain.StatusAnalyzing,
	}
	if err := o.assessments.Create(ctx, a); err != nil {
		return nil, err
	}
	if err := o.assessments.AddHistory(ctx, &domain.HistoryEntry{
		AssessmentID: a.ID,
		Action:       domain.ActionCreated,
	}); err != nil {
		return nil, err
	}
	a.CompanyName = company.Name
	a.CompanySector = company.Sector
	a.CompanyDescription = company.Description
	if a.CompanySector == nil {
		a.CompanySector = sector
	}
	if progress == nil {
		progress = func(string) {}
	}

	donor, err := o.assessments.FindDonor(ctx, a.CompanyID, a.ID)
	if err != nil {
		return nil, o.failItem(ctx, a.ID, err)
	}

	if donor != nil {
		progress(fmt.Sprintf("Found existing analysis for %s, reusing results...", name))
		recalc, err := o.clone(ctx, a, donor)
		if err != nil {
			return nil, o.failItem(ctx, a.ID, err)
		}
		return &ItemOutcome{
			AssessmentID:   a.ID,
			CompositeScore: recalc.CompositeScore,
			CompositeLabel: recalc.CompositeLabel,
			Cloned:         true,
		}, nil
	}

	progress(fmt.Sprintf("Analyzing %s...", name))
	recalc, err := o.fresh(ctx, a, progress)
	if err != nil {
		return nil, o.failItem(ctx, a.ID, err)
	}
	return &ItemOutcome{
		AssessmentID:   a.ID,
		CompositeScore: recalc.CompositeScore,
		CompositeLabel: recalc.CompositeLabel,
	}, nil
}

// failItem is the eventless counterpart of fail, used per batch item where
// the caller emits company_error itself.
func (o *Orchestrator) failItem(ctx context.Context, assessmentID int64, err error) error {
	o.log.Error("analysis failed", logging.Int64("assessment_id", assessmentID), logging.Err(err))
	if markErr := o.assessments.MarkFailed(ctx, assessmentID, err.Error()); markErr != nil {
		o.log.Error("mark failed", logging.Int64("assessment_id", assessmentID), logging.Err(markErr))
	}
	o.metrics.ObserveAnalysisRun(prometheus.OutcomeError)
	return err
}

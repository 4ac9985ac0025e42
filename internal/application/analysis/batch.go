package analysis

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/meridiancap/riskradar/internal/domain/rating"
	"github.com/meridiancap/riskradar/internal/infrastructure/monitoring/logging"
	"github.com/meridiancap/riskradar/internal/infrastructure/monitoring/prometheus"
	"github.com/meridiancap/riskradar/internal/stream"
	"github.com/meridiancap/riskradar/pkg/errors"
)

const (
	ItemStatusCompleted = "completed"
	ItemStatusError     = "error"
)

// ItemResult is one company's outcome within a batch run.
type ItemResult struct {
	CompanyName    string                 `json:"company_name"`
	Status         string                 `json:"status"`
	AssessmentID   *int64                 `json:"assessment_id,omitempty"`
	CompositeScore *int                   `json:"composite_score,omitempty"`
	CompositeLabel *rating.CompositeLabel `json:"composite_rating,omitempty"`
	Error          string                 `json:"error,omitempty"`
}

// BatchStartPayload opens a batch stream.
type BatchStartPayload struct {
	Total int `json:"total"`
}

// CompanyStartPayload announces item Index beginning.
type CompanyStartPayload struct {
	Index       int    `json:"index"`
	CompanyName string `json:"company_name"`
}

// CompanyCompletePayload announces item Index succeeding.
type CompanyCompletePayload struct {
	Index          int                   `json:"index"`
	CompanyName    string                `json:"company_name"`
	AssessmentID   int64                 `json:"assessment_id"`
	CompositeScore int                   `json:"composite_score"`
	CompositeLabel rating.CompositeLabel `json:"composite_rating"`
}

// CompanyErrorPayload announces item Index failing; the batch continues.
type CompanyErrorPayload struct {
	Index       int    `json:"index"`
	CompanyName string `json:"company_name"`
	Error       string `json:"error"`
}

// BatchCompletePayload closes a batch stream with the full ordered results.
type BatchCompletePayload struct {
	Results []ItemResult `json:"results"`
}

// NormalizeCompanyNames trims entries, drops empties, and removes
// case-insensitive duplicates while preserving first-occurrence order.
func NormalizeCompanyNames(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		key := strings.ToLower(name)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, name)
	}
	return out
}

// ValidateBatch checks the batch size constraints without starting a run,
// so callers can reject a bad request before opening a stream.
func (o *Orchestrator) ValidateBatch(names []string) error {
	companies := NormalizeCompanyNames(names)
	if len(companies) == 0 {
		return errors.Validation("at least one company name is required")
	}
	if len(companies) > o.maxBatch {
		return errors.Newf(errors.CodeBatchTooLarge, "batch size %d exceeds maximum %d", len(companies), o.maxBatch)
	}
	return nil
}

// RunBatch analyzes the given companies strictly in input order, one at a
// time.  A failing item is recorded and the batch continues; cancellation is
// honored between items, leaving already-committed items untouched.  The
// ordered result list is both emitted as batch_complete and returned.
func (o *Orchestrator) RunBatch(ctx context.Context, ownerID uuid.UUID, names []string, sector *string, emit stream.Emitter) ([]ItemResult, error) {
	if err := o.ValidateBatch(names); err != nil {
		return nil, err
	}
	companies := NormalizeCompanyNames(names)

	emit.Emit(stream.EventBatchStart, BatchStartPayload{Total: len(companies)})
	o.log.Info("batch started", logging.Int("total", len(companies)))

	results := make([]ItemResult, 0, len(companies))
	for i, name := range companies {
		if err := ctx.Err(); err != nil {
			o.log.Warn("batch cancelled",
				logging.Int("processed", len(results)),
				logging.Int("total", len(companies)))
			return results, err
		}

		index := i
		emit.Emit(stream.EventCompanyStart, CompanyStartPayload{Index: index, CompanyName: name})
		progress := func(message string) {
			emit.Emit(stream.EventProgress, stream.Progress{
				Message:     message,
				Index:       &index,
				CompanyName: name,
			})
		}

		outcome, err := o.AnalyzeCompany(ctx, ownerID, name, sector, progress)
		if err != nil {
			emit.Emit(stream.EventCompanyError, CompanyErrorPayload{
				Index:       index,
				CompanyName: name,
				Error:       err.Error(),
			})
			results = append(results, ItemResult{
				CompanyName: name,
				Status:      ItemStatusError,
				Error:       err.Error(),
			})
			o.metrics.ObserveBatchItem(prometheus.OutcomeError)
			continue
		}

		emit.Emit(stream.EventCompanyComplete, CompanyCompletePayload{
			Index:          index,
			CompanyName:    name,
			AssessmentID:   outcome.AssessmentID,
			CompositeScore: outcome.CompositeScore,
			CompositeLabel: outcome.CompositeLabel,
		})
		results = append(results, ItemResult{
			CompanyName:    name,
			Status:         ItemStatusCompleted,
			AssessmentID:   &outcome.AssessmentID,
			CompositeScore: &outcome.CompositeScore,
			CompositeLabel: &outcome.CompositeLabel,
		})
		if outcome.Cloned {
			o.metrics.ObserveBatchItem(prometheus.OutcomeCloned)
		} else {
			o.metrics.ObserveBatchItem(prometheus.OutcomeCompleted)
		}
	}

	emit.Emit(stream.EventBatchComplete, BatchCompletePayload{Results: results})
	o.log.Info("batch completed", logging.Int("total", len(results)))
	return results, nil
}

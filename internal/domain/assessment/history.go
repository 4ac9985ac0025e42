package assessment

import "time"

// HistoryAction is the closed set of audit event tags.  The persisted
// representation stays string-compatible with readers that expect free text.
type HistoryAction string

const (
	ActionCreated           HistoryAction = "created"
	ActionAnalysisCompleted HistoryAction = "analysis_completed"
	ActionAnalysisFailed    HistoryAction = "analysis_failed"
	ActionAnalysisCloned    HistoryAction = "analysis_cloned"
	ActionScoreOverride     HistoryAction = "score_override"
	ActionNotesUpdated      HistoryAction = "notes_updated"
)

// HistoryEntry is one append-only audit row.  Rows are never updated or
// deleted individually; they cascade with their assessment.
type HistoryEntry struct {
	ID           int64         `json:"id"`
	AssessmentID int64         `json:"assessment_id"`
	Action       HistoryAction `json:"action"`
	FieldChanged *string       `json:"field_changed"`
	OldValue     *string       `json:"old_value"`
	NewValue     *string       `json:"new_value"`
	Timestamp    time.Time     `json:"timestamp"`
}

// Package analysis implements the analysis orchestrator: the clone-or-analyze
// state machine for single runs and the sequential batch driver built on it.
package analysis

import (
	"context"

	"github.com/meridiancap/riskradar/internal/domain/rating"
)

// CompanyInput identifies the company to analyze.
type CompanyInput struct {
	Name        string
	Sector      *string
	Description *string
}

// QuestionResult is the AI's judgment for one sub-question.
type QuestionResult struct {
	QuestionKey string            `json:"question_key"`
	Rating      rating.Rating     `json:"rating"`
	Reasoning   string            `json:"reasoning"`
	Confidence  rating.Confidence `json:"confidence"`
}

// DomainResult is the AI's judgment for one domain.
type DomainResult struct {
	DomainNumber  int              `json:"domain_number"`
	DomainName    string           `json:"domain_name"`
	OverallRating rating.Rating    `json:"overall_rating"`
	Summary       string           `json:"summary"`
	Questions     []QuestionResult `json:"questions"`
}

// Result is the full structured output of one analysis call.  The AI's own
// CompositeScore and CompositeLabel are carried for transparency but are
// never persisted: the locally recomputed composite is authoritative.
type Result struct {
	CompanyName    string                `json:"company_name"`
	Sector         string                `json:"sector"`
	Domains        []DomainResult        `json:"domains"`
	Narrative      string                `json:"narrative"`
	CompositeScore int                   `json:"composite_score"`
	CompositeLabel rating.CompositeLabel `json:"composite_rating"`

	// Model identifies which model produced the result.
	Model string `json:"-"`
}

// Analyst is the external AI analysis capability.  Implementations must fail
// loudly when the response cannot be structurally validated against Result;
// they never silently degrade.  The progress sink receives human-readable
// phase updates and may be nil.
type Analyst interface {
	AnalyzeCompany(ctx context.Context, in CompanyInput, progress func(message string)) (*Result, error)
}

// RunLock serialises orchestrator runs per assessment: exactly one run may
// transition an assessment at a time.  Release is idempotent.
type RunLock interface {
	// Acquire returns a release func, or an ErrCodeAnalysisInProgress error
	// when another run currently holds the assessment.
	Acquire(ctx context.Context, assessmentID int64) (release func(), err error)
}

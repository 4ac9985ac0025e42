// Package news implements the incremental news scan orchestrator.
package news

import (
	"context"
	"time"

	domain "github.com/meridiancap/riskradar/internal/domain/news"
)

// SearchInput is the context handed to the external news-search capability.
// Since is a hard lower bound on published dates; MaxItems and MinRelevance
// bound what the capability is asked to return.
type SearchInput struct {
	PortfolioContext string
	Companies        []string
	Since            time.Time
	MinRelevance     int
	MaxItems         int
}

// CandidateImpact names one portfolio company the candidate affects.
type CandidateImpact struct {
	CompanyName string `json:"company_name"`
	Explanation string `json:"explanation"`
}

// Candidate is one alert item returned by the search capability, before
// dedup, relevance filtering, and impact resolution.
type Candidate struct {
	Headline       string                 `json:"headline"`
	Source         string                 `json:"source"`
	SourceURL      string                 `json:"source_url"`
	PublishedDate  *time.Time             `json:"published_date"`
	Summary        string                 `json:"summary"`
	Competitor     string                 `json:"competitor"`
	CompetitorType *domain.CompetitorType `json:"competitor_type"`
	RelevanceScore int                    `json:"relevance_score"`
	Impacts        []CandidateImpact      `json:"impacts"`
}

// Searcher is the external news-search capability.  Implementations must
// return a cleanly parseable structured result or an error; an unparseable
// response is total failure, never a partial list.  The progress sink may be
// nil.
type Searcher interface {
	Search(ctx context.Context, in SearchInput, progress func(message string)) ([]Candidate, error)
}

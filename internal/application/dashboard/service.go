// Package dashboard computes read-side aggregates over the caller's
// portfolio of completed assessments.
package dashboard

import (
	"context"
	"math"
	"sort"

	"github.com/google/uuid"

	portfoliodomain "github.com/meridiancap/riskradar/internal/domain/portfolio"
	"github.com/meridiancap/riskradar/internal/domain/rating"
	"github.com/meridiancap/riskradar/internal/infrastructure/monitoring/logging"
)

// Stats is the portfolio-wide headline aggregate.
type Stats struct {
	CompanyCount int `json:"company_count"`

	// WeightedAverageScore is the weight-weighted mean composite score,
	// zero when the portfolio is empty.
	WeightedAverageScore float64 `json:"weighted_average_score"`

	// RiskWeights sums portfolio weight per composite rating label.
	RiskWeights map[string]float64 `json:"risk_weights"`
}

// RiskBucket is one slice of the rating distribution.
type RiskBucket struct {
	Label rating.CompositeLabel `json:"label"`
	Count int                   `json:"count"`
}

// RatingCounts tallies effective domain ratings.
type RatingCounts struct {
	High   int `json:"high"`
	Medium int `json:"medium"`
	Low    int `json:"low"`
}

// DomainBreakdownEntry is the rating tally for one domain across the
// portfolio.
type DomainBreakdownEntry struct {
	DomainNumber int    `json:"domain_number"`
	DomainName   string `json:"domain_name"`
	RatingCounts
}

// SectorStat aggregates per sector.
type SectorStat struct {
	Sector       string  `json:"sector"`
	CompanyCount int     `json:"company_count"`
	AverageScore float64 `json:"average_score"`
}

// PortfolioLister supplies the holdings the aggregates run over.
type PortfolioLister interface {
	List(ctx context.Context, ownerID uuid.UUID) ([]*portfoliodomain.EntryView, error)
}

// StatsCache is a best-effort cache for the headline stats.  Misses and
// failures both fall through to recomputation.
type StatsCache interface {
	GetStats(ctx context.Context, ownerID uuid.UUID) (*Stats, bool)
	SetStats(ctx context.Context, ownerID uuid.UUID, stats *Stats)
}

// Service computes dashboard aggregates.
type Service struct {
	portfolio PortfolioLister
	cache     StatsCache
	log       logging.Logger
}

// NewService constructs the dashboard service.  cache may be nil.
func NewService(portfolio PortfolioLister, cache StatsCache, log logging.Logger) *Service {
	return &Service{portfolio: portfolio, cache: cache, log: log.Named("dashboard")}
}

// Stats returns the headline aggregate, serving a cached copy when fresh.
func (s *Service) Stats(ctx context.Context, ownerID uuid.UUID) (*Stats, error) {
	if s.cache != nil {
		if cached, ok := s.cache.GetStats(ctx, ownerID); ok {
			return cached, nil
		}
	}

	holdings, err := s.portfolio.List(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	stats := &Stats{CompanyCount: len(holdings), RiskWeights: make(map[string]float64)}
	weightSum := 0.0
	weightedScore := 0.0
	for _, h := range holdings {
		if h.CompositeScore == nil {
			continue
		}
		weightSum += h.Weight
		weightedScore += h.Weight * float64(*h.CompositeScore)
		if h.CompositeLabel != nil {
			stats.RiskWeights[string(*h.CompositeLabel)] = round2(stats.RiskWeights[string(*h.CompositeLabel)] + h.Weight)
		}
	}
	if weightSum > 0 {
		stats.WeightedAverageScore = round2(weightedScore / weightSum)
	}

	if s.cache != nil {
		s.cache.SetStats(ctx, ownerID, stats)
	}
	return stats, nil
}

// RiskDistribution counts holdings per composite rating label, ordered from
// highest to lowest risk.
func (s *Service) RiskDistribution(ctx context.Context, ownerID uuid.UUID) ([]RiskBucket, error) {
	holdings, err := s.portfolio.List(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	counts := make(map[rating.CompositeLabel]int)
	for _, h := range holdings {
		if h.CompositeLabel != nil {
			counts[*h.CompositeLabel]++
		}
	}

	order := []rating.CompositeLabel{
		rating.LabelHighRisk,
		rating.LabelMediumHighRisk,
		rating.LabelMediumRisk,
		rating.LabelMediumLowRisk,
		rating.LabelLowRisk,
	}
	out := make([]RiskBucket, 0, len(order))
	for _, label := range order {
		out = append(out, RiskBucket{Label: label, Count: counts[label]})
	}
	return out, nil
}

// DomainBreakdown tallies the stored domain ratings across the portfolio,
// one entry per catalog domain.
func (s *Service) DomainBreakdown(ctx context.Context, ownerID uuid.UUID) ([]DomainBreakdownEntry, error) {
	holdings, err := s.portfolio.List(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	out := make([]DomainBreakdownEntry, 0, len(rating.Domains))
	for _, d := range rating.Domains {
		entry := DomainBreakdownEntry{DomainNumber: d.Number, DomainName: d.Name}
		for _, h := range holdings {
			switch h.DomainRatings[d.Number] {
			case rating.RatingHigh:
				entry.High++
			case rating.RatingMedium:
				entry.Medium++
			case rating.RatingLow:
				entry.Low++
			}
		}
		out = append(out, entry)
	}
	return out, nil
}

// SectorBreakdown averages composite scores per sector, alphabetically.
// Holdings without a sector group under "Unclassified".
func (s *Service) SectorBreakdown(ctx context.Context, ownerID uuid.UUID) ([]SectorStat, error) {
	holdings, err := s.portfolio.List(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	type acc struct {
		count int
		total int
	}
	bySector := make(map[string]*acc)
	for _, h := range holdings {
		if h.CompositeScore == nil {
			continue
		}
		sector := "Unclassified"
		if h.CompanySector != nil && *h.CompanySector != "" {
			sector = *h.CompanySector
		}
		a := bySector[sector]
		if a == nil {
			a = &acc{}
			bySector[sector] = a
		}
		a.count++
		a.total += *h.CompositeScore
	}

	out := make([]SectorStat, 0, len(bySector))
	for sector, a := range bySector {
		out = append(out, SectorStat{
			Sector:       sector,
			CompanyCount: a.count,
			AverageScore: round2(float64(a.total) / float64(a.count)),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Sector < out[j].Sector })
	return out, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

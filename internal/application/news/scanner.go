package news

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/meridiancap/riskradar/internal/config"
	domain "github.com/meridiancap/riskradar/internal/domain/news"
	portfoliodomain "github.com/meridiancap/riskradar/internal/domain/portfolio"
	"github.com/meridiancap/riskradar/internal/infrastructure/monitoring/logging"
	"github.com/meridiancap/riskradar/internal/infrastructure/monitoring/prometheus"
	"github.com/meridiancap/riskradar/internal/stream"
	"github.com/meridiancap/riskradar/pkg/errors"
)

// PortfolioLister supplies the holdings a scan searches on behalf of.
type PortfolioLister interface {
	List(ctx context.Context, ownerID uuid.UUID) ([]*portfoliodomain.EntryView, error)
}

// ScanCompletePayload closes a successful scan stream.
type ScanCompletePayload struct {
	TotalAlerts int `json:"total_alerts"`
	NewAlerts   int `json:"new_alerts"`
}

// Scanner runs incremental, deduplicated news scans scoped to one user's
// portfolio.
type Scanner struct {
	alerts    domain.Repository
	portfolio PortfolioLister
	searcher  Searcher
	metrics   *prometheus.Metrics
	log       logging.Logger
	cfg       config.NewsConfig

	now func() time.Time
}

// NewScanner constructs the scanner.
func NewScanner(
	alerts domain.Repository,
	portfolio PortfolioLister,
	searcher Searcher,
	metrics *prometheus.Metrics,
	log logging.Logger,
	cfg config.NewsConfig,
) *Scanner {
	return &Scanner{
		alerts:    alerts,
		portfolio: portfolio,
		searcher:  searcher,
		metrics:   metrics,
		log:       log.Named("news"),
		cfg:       cfg,
		now:       time.Now,
	}
}

// Scan searches for news affecting the caller's portfolio since their last
// scan (or over the first-scan window), dedups against stored headlines,
// prunes expired alerts, and inserts the survivors atomically.  A search
// response that cannot be used aborts the scan with no persisted changes.
func (s *Scanner) Scan(ctx context.Context, ownerID uuid.UUID, emit stream.Emitter) (*ScanCompletePayload, error) {
	holdings, err := s.portfolio.List(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if len(holdings) == 0 {
		return nil, errors.New(errors.CodePortfolioEmpty, "portfolio is empty; nothing to scan for")
	}

	since, firstScan, err := s.scanWindow(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	if firstScan {
		emit.Emit(stream.EventProgress, stream.Progress{
			Message: fmt.Sprintf("First scan: searching news from the last %d days...", s.cfg.FirstScanWindowDays),
		})
	} else {
		emit.Emit(stream.EventProgress, stream.Progress{
			Message: fmt.Sprintf("Searching news since %s...", since.Format("2006-01-02")),
		})
	}

	companies := make([]string, 0, len(holdings))
	for _, h := range holdings {
		companies = append(companies, h.CompanyName)
	}
	candidates, err := s.searcher.Search(ctx, SearchInput{
		PortfolioContext: portfolioContext(holdings),
		Companies:        companies,
		Since:            since,
		MinRelevance:     s.cfg.ScanMinRelevance,
		MaxItems:         s.cfg.MaxAlertsPerScan,
	}, func(message string) {
		emit.Emit(stream.EventProgress, stream.Progress{Message: message})
	})
	if err != nil {
		s.log.Error("news search failed", logging.Err(err))
		emit.Emit(stream.EventError, stream.ErrorPayload{Message: err.Error()})
		s.metrics.ObserveScanRun(prometheus.OutcomeError)
		return nil, err
	}

	emit.Emit(stream.EventProgress, stream.Progress{
		Message: fmt.Sprintf("Processing %d candidate items...", len(candidates)),
	})

	fresh, duplicates, err := s.process(ctx, ownerID, holdings, candidates)
	if err != nil {
		emit.Emit(stream.EventError, stream.ErrorPayload{Message: err.Error()})
		s.metrics.ObserveScanRun(prometheus.OutcomeError)
		return nil, err
	}

	emit.Emit(stream.EventProgress, stream.Progress{
		Message: fmt.Sprintf("Saving %d new alerts...", len(fresh)),
	})
	pruneBefore := s.now().AddDate(0, 0, -s.cfg.RetentionDays)
	if err := s.alerts.SaveScan(ctx, ownerID, pruneBefore, fresh); err != nil {
		emit.Emit(stream.EventError, stream.ErrorPayload{Message: err.Error()})
		s.metrics.ObserveScanRun(prometheus.OutcomeError)
		return nil, err
	}

	total, err := s.alerts.Count(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	result := &ScanCompletePayload{TotalAlerts: total, NewAlerts: len(fresh)}
	emit.Emit(stream.EventComplete, result)
	s.metrics.ObserveScanRun(prometheus.OutcomeCompleted)
	s.log.Info("news scan completed",
		logging.Int("candidates", len(candidates)),
		logging.Int("new", len(fresh)),
		logging.Int("duplicates", duplicates),
		logging.Int("total", total))
	return result, nil
}

// Alerts returns the caller's stored alerts at or above the given relevance
// floor; a nil floor applies the configured read default.
func (s *Scanner) Alerts(ctx context.Context, ownerID uuid.UUID, minRelevance *int) ([]*domain.Alert, error) {
	floor := s.cfg.ReadMinRelevance
	if minRelevance != nil {
		if *minRelevance < 1 || *minRelevance > 10 {
			return nil, errors.Validation("min_relevance must be between 1 and 10")
		}
		floor = *minRelevance
	}
	return s.alerts.ListAlerts(ctx, ownerID, floor)
}

// Status reports the caller's scan state.  A scan is stale when it never ran
// or its last run is older than the configured staleness window.
func (s *Scanner) Status(ctx context.Context, ownerID uuid.UUID) (*domain.ScanStatus, error) {
	last, scanned, err := s.alerts.LatestScanTime(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	count, err := s.alerts.Count(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	status := &domain.ScanStatus{AlertCount: count, IsStale: true}
	if scanned {
		status.LastScannedAt = &last
		status.IsStale = s.now().Sub(last) > s.cfg.StaleAfter
	}
	return status, nil
}

// scanWindow picks the search lower bound: the last scan time, or the
// first-scan window for users who never scanned.
func (s *Scanner) scanWindow(ctx context.Context, ownerID uuid.UUID) (time.Time, bool, error) {
	last, scanned, err := s.alerts.LatestScanTime(ctx, ownerID)
	if err != nil {
		return time.Time{}, false, err
	}
	if scanned {
		return last, false, nil
	}
	return s.now().AddDate(0, 0, -s.cfg.FirstScanWindowDays), true, nil
}

// process dedups candidates against stored headlines, drops low-relevance
// items, resolves impact company names to portfolio entries, and returns the
// alerts to insert plus the duplicate count.
func (s *Scanner) process(ctx context.Context, ownerID uuid.UUID, holdings []*portfoliodomain.EntryView, candidates []Candidate) ([]*domain.Alert, int, error) {
	stored, err := s.alerts.Headlines(ctx, ownerID)
	if err != nil {
		return nil, 0, err
	}
	seen := make(map[string]struct{}, len(stored))
	for _, h := range stored {
		seen[strings.ToLower(h)] = struct{}{}
	}

	entryByCompany := make(map[string]int64, len(holdings))
	for _, h := range holdings {
		entryByCompany[strings.ToLower(h.CompanyName)] = h.ID
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].RelevanceScore > candidates[j].RelevanceScore
	})

	scannedAt := s.now()
	fresh := make([]*domain.Alert, 0, len(candidates))
	duplicates := 0
	for _, c := range candidates {
		key := strings.ToLower(strings.TrimSpace(c.Headline))
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			duplicates++
			continue
		}
		if c.RelevanceScore < s.cfg.ScanMinRelevance {
			continue
		}
		if s.cfg.MaxAlertsPerScan > 0 && len(fresh) >= s.cfg.MaxAlertsPerScan {
			break
		}
		seen[key] = struct{}{}

		alert := &domain.Alert{
			OwnerID:        ownerID,
			Headline:       strings.TrimSpace(c.Headline),
			Summary:        c.Summary,
			CompetitorType: c.CompetitorType,
			RelevanceScore: c.RelevanceScore,
			PublishedDate:  c.PublishedDate,
			ScannedAt:      scannedAt,
		}
		if c.Source != "" {
			source := c.Source
			alert.Source = &source
		}
		if c.SourceURL != "" {
			url := c.SourceURL
			alert.SourceURL = &url
		}
		if c.Competitor != "" {
			competitor := c.Competitor
			alert.Competitor = &competitor
		}
		for _, impact := range c.Impacts {
			entryID, ok := entryByCompany[strings.ToLower(strings.TrimSpace(impact.CompanyName))]
			if !ok {
				// Impacts naming companies outside the portfolio are
				// dropped without failing the alert.
				continue
			}
			alert.Impacts = append(alert.Impacts, &domain.Impact{
				PortfolioID: entryID,
				CompanyName: impact.CompanyName,
				Explanation: impact.Explanation,
			})
		}
		fresh = append(fresh, alert)
	}
	return fresh, duplicates, nil
}

// portfolioContext renders the holdings into the text block the search
// capability receives as context.
func portfolioContext(holdings []*portfoliodomain.EntryView) string {
	var b strings.Builder
	for _, h := range holdings {
		b.WriteString("- ")
		b.WriteString(h.CompanyName)
		if h.CompanySector != nil && *h.CompanySector != "" {
			b.WriteString(" (")
			b.WriteString(*h.CompanySector)
			b.WriteString(")")
		}
		if h.CompositeLabel != nil {
			b.WriteString(": ")
			b.WriteString(string(*h.CompositeLabel))
		}
		b.WriteString("\n")
	}
	return b.String()
}

package news

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridiancap/riskradar/internal/config"
	domain "github.com/meridiancap/riskradar/internal/domain/news"
	portfoliodomain "github.com/meridiancap/riskradar/internal/domain/portfolio"
	"github.com/meridiancap/riskradar/internal/domain/rating"
	"github.com/meridiancap/riskradar/internal/infrastructure/monitoring/logging"
	"github.com/meridiancap/riskradar/internal/infrastructure/monitoring/prometheus"
	"github.com/meridiancap/riskradar/internal/stream"
	"github.com/meridiancap/riskradar/pkg/errors"
)

// fakeAlertRepo is an in-memory news repository.
type fakeAlertRepo struct {
	mu     sync.Mutex
	nextID int64
	alerts map[int64]*domain.Alert

	saveCalls int
	saveErr   error
}

func newFakeAlertRepo() *fakeAlertRepo {
	return &fakeAlertRepo{nextID: 1, alerts: make(map[int64]*domain.Alert)}
}

func (r *fakeAlertRepo) ListAlerts(_ context.Context, ownerID uuid.UUID, minRelevance int) ([]*domain.Alert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.Alert, 0)
	for _, a := range r.alerts {
		if a.OwnerID == ownerID && a.RelevanceScore >= minRelevance {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *fakeAlertRepo) LatestScanTime(_ context.Context, ownerID uuid.UUID) (time.Time, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest time.Time
	found := false
	for _, a := range r.alerts {
		if a.OwnerID == ownerID && a.ScannedAt.After(latest) {
			latest = a.ScannedAt
			found = true
		}
	}
	return latest, found, nil
}

func (r *fakeAlertRepo) Count(_ context.Context, ownerID uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, a := range r.alerts {
		if a.OwnerID == ownerID {
			n++
		}
	}
	return n, nil
}

func (r *fakeAlertRepo) Headlines(_ context.Context, ownerID uuid.UUID) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0)
	for _, a := range r.alerts {
		if a.OwnerID == ownerID {
			out = append(out, a.Headline)
		}
	}
	return out, nil
}

func (r *fakeAlertRepo) SaveScan(_ context.Context, ownerID uuid.UUID, pruneBefore time.Time, alerts []*domain.Alert) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saveCalls++
	for id, a := range r.alerts {
		if a.OwnerID == ownerID && a.PublishedDate != nil && a.PublishedDate.Before(pruneBefore) {
			delete(r.alerts, id)
		}
	}
	for _, a := range alerts {
		cp := *a
		for {
			if _, taken := r.alerts[r.nextID]; !taken {
				break
			}
			r.nextID++
		}
		cp.ID = r.nextID
		r.nextID++
		r.alerts[cp.ID] = &cp
	}
	return nil
}

// fakeSearcher returns canned candidates and records the last input.
type fakeSearcher struct {
	candidates []Candidate
	err        error

	lastInput SearchInput
	calls     int
}

func (f *fakeSearcher) Search(_ context.Context, in SearchInput, progress func(string)) ([]Candidate, error) {
	f.calls++
	f.lastInput = in
	if progress != nil {
		progress("Searching news sources...")
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.candidates, nil
}

// fakePortfolio lists canned holdings.
type fakePortfolio struct {
	holdings []*portfoliodomain.EntryView
}

func (f *fakePortfolio) List(context.Context, uuid.UUID) ([]*portfoliodomain.EntryView, error) {
	return f.holdings, nil
}

type recordedEvent struct {
	name    string
	payload interface{}
}

type recordingEmitter struct {
	events []recordedEvent
}

func (e *recordingEmitter) Emit(event string, payload interface{}) {
	e.events = append(e.events, recordedEvent{name: event, payload: payload})
}

func (e *recordingEmitter) last() recordedEvent {
	return e.events[len(e.events)-1]
}

func testConfig() config.NewsConfig {
	return config.NewsConfig{
		RetentionDays:       90,
		FirstScanWindowDays: 30,
		ReadMinRelevance:    6,
		ScanMinRelevance:    5,
		MaxAlertsPerScan:    20,
		StaleAfter:          4 * time.Hour,
	}
}

func holding(id int64, name string, sector string) *portfoliodomain.EntryView {
	label := rating.LabelMediumRisk
	return &portfoliodomain.EntryView{
		Entry:          portfoliodomain.Entry{ID: id, AssessmentID: id},
		CompanyName:    name,
		CompanySector:  &sector,
		CompositeLabel: &label,
	}
}

func candidate(headline string, relevance int, impacts ...CandidateImpact) Candidate {
	published := time.Now().AddDate(0, 0, -2)
	return Candidate{
		Headline:       headline,
		Source:         "TechWire",
		SourceURL:      "https://example.com/" + strings.ReplaceAll(strings.ToLower(headline), " ", "-"),
		PublishedDate:  &published,
		Summary:        "summary of " + headline,
		Competitor:     "OpenAI",
		RelevanceScore: relevance,
		Impacts:        impacts,
	}
}

func newTestScanner(repo *fakeAlertRepo, pf *fakePortfolio, searcher *fakeSearcher) *Scanner {
	return NewScanner(repo, pf, searcher, prometheus.New(), logging.NewNop(), testConfig())
}

func TestScan_RefusesEmptyPortfolio(t *testing.T) {
	searcher := &fakeSearcher{}
	s := newTestScanner(newFakeAlertRepo(), &fakePortfolio{}, searcher)

	_, err := s.Scan(context.Background(), uuid.New(), &recordingEmitter{})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodePortfolioEmpty))
	assert.Zero(t, searcher.calls)
}

func TestScan_FirstScanUsesThirtyDayWindow(t *testing.T) {
	searcher := &fakeSearcher{candidates: []Candidate{candidate("Anthropic ships agent suite", 8)}}
	pf := &fakePortfolio{holdings: []*portfoliodomain.EntryView{holding(1, "Acme Corp", "Vertical Software")}}
	s := newTestScanner(newFakeAlertRepo(), pf, searcher)

	_, err := s.Scan(context.Background(), uuid.New(), &recordingEmitter{})
	require.NoError(t, err)

	wantSince := time.Now().AddDate(0, 0, -30)
	assert.WithinDuration(t, wantSince, searcher.lastInput.Since, time.Minute)
	assert.Equal(t, 5, searcher.lastInput.MinRelevance)
	assert.Contains(t, searcher.lastInput.PortfolioContext, "Acme Corp")
	assert.Contains(t, searcher.lastInput.PortfolioContext, "Vertical Software")
	assert.Equal(t, []string{"Acme Corp"}, searcher.lastInput.Companies)
}

func TestScan_IncrementalScanStartsAtLastScanTime(t *testing.T) {
	repo := newFakeAlertRepo()
	ownerID := uuid.New()
	lastScan := time.Now().Add(-6 * time.Hour)
	repo.alerts[99] = &domain.Alert{ID: 99, OwnerID: ownerID, Headline: "Old news", RelevanceScore: 7, ScannedAt: lastScan}

	searcher := &fakeSearcher{}
	pf := &fakePortfolio{holdings: []*portfoliodomain.EntryView{holding(1, "Acme Corp", "EdTech")}}
	s := newTestScanner(repo, pf, searcher)

	_, err := s.Scan(context.Background(), ownerID, &recordingEmitter{})
	require.NoError(t, err)
	assert.WithinDuration(t, lastScan, searcher.lastInput.Since, time.Second)
}

func TestScan_DedupsStoredHeadlinesCaseInsensitively(t *testing.T) {
	repo := newFakeAlertRepo()
	ownerID := uuid.New()
	repo.alerts[1] = &domain.Alert{
		ID: 1, OwnerID: ownerID,
		Headline: "OpenAI Launches Rival Product", RelevanceScore: 8,
		ScannedAt: time.Now().Add(-time.Hour),
	}

	searcher := &fakeSearcher{candidates: []Candidate{
		candidate("OPENAI LAUNCHES RIVAL PRODUCT", 9),
		candidate("Fresh competitive move", 7),
	}}
	pf := &fakePortfolio{holdings: []*portfoliodomain.EntryView{holding(1, "Acme Corp", "AdTech")}}
	s := newTestScanner(repo, pf, searcher)

	result, err := s.Scan(context.Background(), ownerID, &recordingEmitter{})
	require.NoError(t, err)
	assert.Equal(t, 1, result.NewAlerts)
	assert.Equal(t, 2, result.TotalAlerts)

	// Scanning again with identical candidates stores nothing new.
	result, err = s.Scan(context.Background(), ownerID, &recordingEmitter{})
	require.NoError(t, err)
	assert.Equal(t, 0, result.NewAlerts)
	assert.Equal(t, 2, result.TotalAlerts)
}

func TestScan_FiltersLowRelevanceAndResolvesImpacts(t *testing.T) {
	repo := newFakeAlertRepo()
	searcher := &fakeSearcher{candidates: []Candidate{
		candidate("Relevant move", 7,
			CandidateImpact{CompanyName: "acme corp", Explanation: "direct competitor"},
			CandidateImpact{CompanyName: "Unknown Co", Explanation: "dropped"}),
		candidate("Barely relevant noise", 3),
	}}
	pf := &fakePortfolio{holdings: []*portfoliodomain.EntryView{holding(11, "Acme Corp", "CRM / Customer Engagement")}}
	s := newTestScanner(repo, pf, searcher)

	result, err := s.Scan(context.Background(), uuid.New(), &recordingEmitter{})
	require.NoError(t, err)
	assert.Equal(t, 1, result.NewAlerts)

	var saved *domain.Alert
	for _, a := range repo.alerts {
		saved = a
	}
	require.NotNil(t, saved)
	assert.Equal(t, "Relevant move", saved.Headline)
	require.Len(t, saved.Impacts, 1)
	assert.Equal(t, int64(11), saved.Impacts[0].PortfolioID)
	assert.Equal(t, "direct competitor", saved.Impacts[0].Explanation)
}

func TestScan_PrunesExpiredAlerts(t *testing.T) {
	repo := newFakeAlertRepo()
	ownerID := uuid.New()
	expired := time.Now().AddDate(0, 0, -120)
	recent := time.Now().AddDate(0, 0, -10)
	repo.alerts[1] = &domain.Alert{ID: 1, OwnerID: ownerID, Headline: "Ancient news", RelevanceScore: 8, PublishedDate: &expired, ScannedAt: time.Now().Add(-time.Hour)}
	repo.alerts[2] = &domain.Alert{ID: 2, OwnerID: ownerID, Headline: "Recent news", RelevanceScore: 8, PublishedDate: &recent, ScannedAt: time.Now().Add(-time.Hour)}

	searcher := &fakeSearcher{}
	pf := &fakePortfolio{holdings: []*portfoliodomain.EntryView{holding(1, "Acme Corp", "EdTech")}}
	s := newTestScanner(repo, pf, searcher)

	result, err := s.Scan(context.Background(), ownerID, &recordingEmitter{})
	require.NoError(t, err)
	assert.Equal(t, 0, result.NewAlerts)
	assert.Equal(t, 1, result.TotalAlerts)
	_, stillStored := repo.alerts[1]
	assert.False(t, stillStored)
}

func TestScan_SearchFailureMakesNoChanges(t *testing.T) {
	repo := newFakeAlertRepo()
	searcher := &fakeSearcher{err: errors.New(errors.CodeScanParseFailed, "search response was not valid JSON")}
	pf := &fakePortfolio{holdings: []*portfoliodomain.EntryView{holding(1, "Acme Corp", "EdTech")}}
	s := newTestScanner(repo, pf, searcher)

	emitter := &recordingEmitter{}
	_, err := s.Scan(context.Background(), uuid.New(), emitter)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeScanParseFailed))
	assert.Zero(t, repo.saveCalls)

	last := emitter.last()
	assert.Equal(t, stream.EventError, last.name)
	assert.Contains(t, last.payload.(stream.ErrorPayload).Message, "not valid JSON")
}

func TestScan_CapsAlertsPerScanByRelevance(t *testing.T) {
	repo := newFakeAlertRepo()
	searcher := &fakeSearcher{candidates: []Candidate{
		candidate("Low item", 5),
		candidate("Top item", 10),
		candidate("Mid item", 7),
	}}
	pf := &fakePortfolio{holdings: []*portfoliodomain.EntryView{holding(1, "Acme Corp", "EdTech")}}

	cfg := testConfig()
	cfg.MaxAlertsPerScan = 2
	s := NewScanner(repo, pf, searcher, prometheus.New(), logging.NewNop(), cfg)

	result, err := s.Scan(context.Background(), uuid.New(), &recordingEmitter{})
	require.NoError(t, err)
	assert.Equal(t, 2, result.NewAlerts)

	headlines := make([]string, 0, 2)
	for _, a := range repo.alerts {
		headlines = append(headlines, a.Headline)
	}
	assert.ElementsMatch(t, []string{"Top item", "Mid item"}, headlines)
}

func TestAlerts_DefaultsReadFloor(t *testing.T) {
	repo := newFakeAlertRepo()
	ownerID := uuid.New()
	repo.alerts[1] = &domain.Alert{ID: 1, OwnerID: ownerID, Headline: "High relevance", RelevanceScore: 8}
	repo.alerts[2] = &domain.Alert{ID: 2, OwnerID: ownerID, Headline: "Scan floor only", RelevanceScore: 5}

	s := newTestScanner(repo, &fakePortfolio{}, &fakeSearcher{})

	got, err := s.Alerts(context.Background(), ownerID, nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "High relevance", got[0].Headline)

	floor := 5
	got, err = s.Alerts(context.Background(), ownerID, &floor)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	bad := 11
	_, err = s.Alerts(context.Background(), ownerID, &bad)
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
}

func TestStatus(t *testing.T) {
	repo := newFakeAlertRepo()
	ownerID := uuid.New()
	s := newTestScanner(repo, &fakePortfolio{}, &fakeSearcher{})

	// Never scanned: stale with no timestamp.
	status, err := s.Status(context.Background(), ownerID)
	require.NoError(t, err)
	assert.Nil(t, status.LastScannedAt)
	assert.True(t, status.IsStale)
	assert.Zero(t, status.AlertCount)

	// Fresh scan: not stale.
	repo.alerts[1] = &domain.Alert{ID: 1, OwnerID: ownerID, Headline: "h", RelevanceScore: 7, ScannedAt: time.Now().Add(-time.Hour)}
	status, err = s.Status(context.Background(), ownerID)
	require.NoError(t, err)
	require.NotNil(t, status.LastScannedAt)
	assert.False(t, status.IsStale)
	assert.Equal(t, 1, status.AlertCount)

	// Older than the staleness window: stale again.
	repo.alerts[1].ScannedAt = time.Now().Add(-5 * time.Hour)
	status, err = s.Status(context.Background(), ownerID)
	require.NoError(t, err)
	assert.True(t, status.IsStale)
}

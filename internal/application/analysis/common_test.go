package analysis

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	domain "github.com/meridiancap/riskradar/internal/domain/assessment"
	"github.com/meridiancap/riskradar/internal/domain/rating"
	"github.com/meridiancap/riskradar/internal/infrastructure/monitoring/logging"
	"github.com/meridiancap/riskradar/internal/infrastructure/monitoring/prometheus"
	"github.com/meridiancap/riskradar/pkg/errors"
)

// fakeCompanyRepo is an in-memory CompanyRepository.
type fakeCompanyRepo struct {
	mu        sync.Mutex
	nextID    int64
	companies map[int64]*domain.Company
}

func newFakeCompanyRepo() *fakeCompanyRepo {
	return &fakeCompanyRepo{nextID: 1, companies: make(map[int64]*domain.Company)}
}

func (r *fakeCompanyRepo) FindByName(_ context.Context, name string) (*domain.Company, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.companies {
		if strings.EqualFold(c.Name, name) {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeCompanyRepo) Create(_ context.Context, c *domain.Company) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c.ID = r.nextID
	r.nextID++
	cp := *c
	r.companies[c.ID] = &cp
	return nil
}

func (r *fakeCompanyRepo) UpdateSector(_ context.Context, id int64, sector string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.companies[id]; ok {
		c.Sector = &sector
	}
	return nil
}

// fakeAssessmentRepo is an in-memory assessment Repository covering the
// operations the orchestrator exercises.
type fakeAssessmentRepo struct {
	mu          sync.Mutex
	nextID      int64
	assessments map[int64]*domain.Assessment
	scores      map[int64][]*domain.DomainScore
	history     map[int64][]*domain.HistoryEntry
	companies   *fakeCompanyRepo

	saveErr error
}

func newFakeAssessmentRepo(companies *fakeCompanyRepo) *fakeAssessmentRepo {
	return &fakeAssessmentRepo{
		nextID:      1,
		assessments: make(map[int64]*domain.Assessment),
		scores:      make(map[int64][]*domain.DomainScore),
		history:     make(map[int64][]*domain.HistoryEntry),
		companies:   companies,
	}
}

func (r *fakeAssessmentRepo) joined(a *domain.Assessment) *domain.Assessment {
	cp := *a
	if c, ok := r.companies.companies[a.CompanyID]; ok {
		cp.CompanyName = c.Name
		cp.CompanySector = c.Sector
		cp.CompanyDescription = c.Description
	}
	return &cp
}

func (r *fakeAssessmentRepo) Create(_ context.Context, a *domain.Assessment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a.ID = r.nextID
	r.nextID++
	cp := *a
	r.assessments[a.ID] = &cp
	return nil
}

func (r *fakeAssessmentRepo) GetOwned(_ context.Context, ownerID uuid.UUID, id int64) (*domain.Assessment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.assessments[id]
	if !ok || a.OwnerID != ownerID {
		return nil, errors.NotFound("assessment not found")
	}
	return r.joined(a), nil
}

func (r *fakeAssessmentRepo) List(context.Context, uuid.UUID, domain.ListFilter) ([]*domain.Assessment, error) {
	return nil, nil
}

func (r *fakeAssessmentRepo) Delete(_ context.Context, ownerID uuid.UUID, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.assessments[id]
	if !ok || a.OwnerID != ownerID {
		return errors.NotFound("assessment not found")
	}
	delete(r.assessments, id)
	delete(r.scores, id)
	delete(r.history, id)
	return nil
}

func (r *fakeAssessmentRepo) FindDonor(_ context.Context, companyID, excludeID int64) (*domain.Assessment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var donor *domain.Assessment
	for _, a := range r.assessments {
		if a.CompanyID != companyID || a.ID == excludeID || a.Status != domain.StatusCompleted {
			continue
		}
		if donor == nil || a.UpdatedAt.After(donor.UpdatedAt) {
			donor = a
		}
	}
	if donor == nil {
		return nil, nil
	}
	return r.joined(donor), nil
}

func (r *fakeAssessmentRepo) FindOwnedCompleted(_ context.Context, ownerID uuid.UUID, companyID int64) (*domain.Assessment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.assessments {
		if a.OwnerID == ownerID && a.CompanyID == companyID && a.Status == domain.StatusCompleted {
			return r.joined(a), nil
		}
	}
	return nil, nil
}

func (r *fakeAssessmentRepo) SetStatus(_ context.Context, id int64, status domain.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.assessments[id]
	if !ok {
		return errors.NotFound("assessment not found")
	}
	a.Status = status
	return nil
}

func (r *fakeAssessmentRepo) SaveAnalysisResult(_ context.Context, id int64, update domain.AnalysisUpdate) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.assessments[id]
	if !ok {
		return errors.NotFound("assessment not found")
	}
	a.Status = domain.StatusCompleted
	a.Narrative = &update.Narrative
	a.DomainRatings = update.DomainRatings
	score := update.CompositeScore
	a.CompositeScore = &score
	label := update.CompositeLabel
	a.CompositeLabel = &label
	a.AIModel = &update.AIModel
	a.DomainSummaries = update.DomainSummaries
	r.scores[id] = nil
	var nextScoreID int64 = int64(len(r.scores)*100) + 1
	for _, s := range update.Scores {
		cp := *s
		cp.ID = nextScoreID
		nextScoreID++
		r.scores[id] = append(r.scores[id], &cp)
	}
	entry := update.History
	r.history[id] = append(r.history[id], &entry)
	return nil
}

func (r *fakeAssessmentRepo) MarkFailed(_ context.Context, id int64, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.assessments[id]
	if !ok {
		return errors.NotFound("assessment not found")
	}
	a.Status = domain.StatusError
	r.history[id] = append(r.history[id], &domain.HistoryEntry{
		AssessmentID: id,
		Action:       domain.ActionAnalysisFailed,
		NewValue:     &message,
	})
	return nil
}

func (r *fakeAssessmentRepo) UpdateNotes(context.Context, uuid.UUID, int64, *string) error {
	return nil
}

func (r *fakeAssessmentRepo) ListScores(_ context.Context, assessmentID int64) ([]*domain.DomainScore, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.DomainScore, 0, len(r.scores[assessmentID]))
	for _, s := range r.scores[assessmentID] {
		cp := *s
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakeAssessmentRepo) GetScore(_ context.Context, assessmentID, scoreID int64) (*domain.DomainScore, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.scores[assessmentID] {
		if s.ID == scoreID {
			cp := *s
			return &cp, nil
		}
	}
	return nil, errors.New(errors.CodeScoreNotFound, "score not found")
}

func (r *fakeAssessmentRepo) ApplyOverride(_ context.Context, assessmentID int64, update domain.OverrideUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, s := range r.scores[assessmentID] {
		if s.ID == update.Score.ID {
			cp := *update.Score
			r.scores[assessmentID][i] = &cp
		}
	}
	a := r.assessments[assessmentID]
	a.DomainRatings = update.Recalc.DomainRatings
	score := update.Recalc.CompositeScore
	a.CompositeScore = &score
	label := update.Recalc.CompositeLabel
	a.CompositeLabel = &label
	a.UserModified = true
	if update.History != nil {
		r.history[assessmentID] = append(r.history[assessmentID], update.History)
	}
	return nil
}

func (r *fakeAssessmentRepo) ListHistory(_ context.Context, assessmentID int64) ([]*domain.HistoryEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*domain.HistoryEntry(nil), r.history[assessmentID]...), nil
}

func (r *fakeAssessmentRepo) AddHistory(_ context.Context, entry *domain.HistoryEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *entry
	r.history[entry.AssessmentID] = append(r.history[entry.AssessmentID], &cp)
	return nil
}

// fakeAnalyst counts invocations and answers with canned results keyed by
// company name, or a single default result.
type fakeAnalyst struct {
	mu      sync.Mutex
	calls   int
	result  *Result
	results map[string]*Result
	errs    map[string]error
}

func (f *fakeAnalyst) AnalyzeCompany(_ context.Context, in CompanyInput, progress func(string)) (*Result, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if progress != nil {
		progress("Evaluating " + in.Name)
	}
	if err, ok := f.errs[in.Name]; ok {
		return nil, err
	}
	if r, ok := f.results[in.Name]; ok {
		return r, nil
	}
	if f.result != nil {
		return f.result, nil
	}
	return nil, errors.New(errors.CodeAICallFailed, "no canned result")
}

func (f *fakeAnalyst) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// noopLock always grants the run lock.
type noopLock struct{}

func (noopLock) Acquire(context.Context, int64) (func(), error) {
	return func() {}, nil
}

// heldLock simulates a concurrently running analysis.
type heldLock struct{}

func (heldLock) Acquire(context.Context, int64) (func(), error) {
	return nil, errors.New(errors.CodeAnalysisInProgress, "analysis already in progress")
}

// recordedEvent is one captured emission.
type recordedEvent struct {
	name    string
	payload interface{}
}

// recordingEmitter captures the event stream for assertions.
type recordingEmitter struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (e *recordingEmitter) Emit(event string, payload interface{}) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, recordedEvent{name: event, payload: payload})
}

func (e *recordingEmitter) names() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, 0, len(e.events))
	for _, ev := range e.events {
		out = append(out, ev.name)
	}
	return out
}

func (e *recordingEmitter) last() recordedEvent {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.events[len(e.events)-1]
}

func (e *recordingEmitter) count(name string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for _, ev := range e.events {
		if ev.name == name {
			n++
		}
	}
	return n
}

// canonicalResult is a well-formed AI result spanning all four domains.
func canonicalResult() *Result {
	mk := func(num int, name string, overall rating.Rating, keys []string, ratings []rating.Rating) DomainResult {
		d := DomainResult{DomainNumber: num, DomainName: name, OverallRating: overall, Summary: name + " summary"}
		for i, key := range keys {
			d.Questions = append(d.Questions, QuestionResult{
				QuestionKey: key,
				Rating:      ratings[i],
				Reasoning:   "because",
				Confidence:  rating.ConfidenceHigh,
			})
		}
		return d
	}
	return &Result{
		CompanyName: "Acme Corp",
		Sector:      "Software & SaaS",
		Domains: []DomainResult{
			mk(rating.DomainCustomerDemand, "Customer Demand", rating.RatingMedium,
				[]string{"durability_of_use_case", "cost_of_failure_switching", "customer_sophistication"},
				[]rating.Rating{rating.RatingMedium, rating.RatingMedium, rating.RatingMedium}),
			mk(rating.DomainMoats, "Moats", rating.RatingMedium,
				[]string{"data_control_system_of_record", "platform_vs_point", "pricing_model", "structural_moats"},
				[]rating.Rating{rating.RatingMedium, rating.RatingMedium, rating.RatingMedium, rating.RatingMedium}),
			mk(rating.DomainTechStack, "Tech Stack", rating.RatingMedium,
				[]string{"cloud_native_modern", "tech_debt"},
				[]rating.Rating{rating.RatingMedium, rating.RatingMedium}),
			mk(rating.DomainAICompetition, "AI Competition", rating.RatingMedium,
				[]string{"incumbent_ai_comparison", "ai_native_startups"},
				[]rating.Rating{rating.RatingMedium, rating.RatingMedium}),
		},
		Narrative:      "Acme faces moderate disruption risk.",
		CompositeScore: 9, // deliberately wrong: the stored value must be recomputed
		CompositeLabel: rating.LabelHighRisk,
		Model:          "gpt-4o",
	}
}

func newTestOrchestrator(analyst Analyst, locks RunLock, maxBatch int) (*Orchestrator, *fakeCompanyRepo, *fakeAssessmentRepo) {
	companies := newFakeCompanyRepo()
	assessments := newFakeAssessmentRepo(companies)
	o := NewOrchestrator(companies, assessments, analyst, locks, prometheus.New(), logging.NewNop(), maxBatch)
	return o, companies, assessments
}

package portfolio

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/meridiancap/riskradar/internal/application/analysis"
	assessmentdomain "github.com/meridiancap/riskradar/internal/domain/assessment"
	domain "github.com/meridiancap/riskradar/internal/domain/portfolio"
	"github.com/meridiancap/riskradar/internal/domain/rating"
	"github.com/meridiancap/riskradar/internal/infrastructure/monitoring/logging"
	"github.com/meridiancap/riskradar/pkg/errors"
)

// fakeEntryRepo is an in-memory portfolio repository applying the real
// redistribution rules.
type fakeEntryRepo struct {
	mu      sync.Mutex
	nextID  int64
	entries map[int64]*domain.Entry
}

func newFakeEntryRepo() *fakeEntryRepo {
	return &fakeEntryRepo{nextID: 1, entries: make(map[int64]*domain.Entry)}
}

func (r *fakeEntryRepo) ownedIDs(ownerID uuid.UUID) []int64 {
	ids := make([]int64, 0, len(r.entries))
	for _, e := range r.entries {
		if e.OwnerID == ownerID {
			ids = append(ids, e.ID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (r *fakeEntryRepo) redistribute(ownerID uuid.UUID) {
	for id, w := range domain.EqualWeights(r.ownedIDs(ownerID)) {
		r.entries[id].Weight = w
	}
}

func (r *fakeEntryRepo) List(_ context.Context, ownerID uuid.UUID) ([]*domain.EntryView, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.EntryView, 0)
	for _, id := range r.ownedIDs(ownerID) {
		out = append(out, &domain.EntryView{Entry: *r.entries[id]})
	}
	return out, nil
}

func (r *fakeEntryRepo) Add(_ context.Context, ownerID uuid.UUID, assessmentIDs []int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, aid := range assessmentIDs {
		exists := false
		for _, e := range r.entries {
			if e.OwnerID == ownerID && e.AssessmentID == aid {
				exists = true
				break
			}
		}
		if exists {
			continue
		}
		r.entries[r.nextID] = &domain.Entry{ID: r.nextID, OwnerID: ownerID, AssessmentID: aid}
		r.nextID++
	}
	r.redistribute(ownerID)
	return nil
}

func (r *fakeEntryRepo) Remove(_ context.Context, ownerID uuid.UUID, entryID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[entryID]
	if !ok || e.OwnerID != ownerID {
		return errors.New(errors.CodePortfolioEntryNotFound, "portfolio entry not found")
	}
	delete(r.entries, entryID)
	r.redistribute(ownerID)
	return nil
}

func (r *fakeEntryRepo) UpdateWeights(_ context.Context, ownerID uuid.UUID, updates []domain.WeightUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range updates {
		e, ok := r.entries[u.EntryID]
		if !ok || e.OwnerID != ownerID {
			return errors.New(errors.CodePortfolioEntryNotFound, "portfolio entry not found")
		}
	}
	for _, u := range updates {
		r.entries[u.EntryID].Weight = u.Weight
	}
	return nil
}

func (r *fakeEntryRepo) HasEntry(_ context.Context, ownerID uuid.UUID, assessmentID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entries {
		if e.OwnerID == ownerID && e.AssessmentID == assessmentID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeEntryRepo) weights(ownerID uuid.UUID) []float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]float64, 0)
	for _, id := range r.ownedIDs(ownerID) {
		out = append(out, r.entries[id].Weight)
	}
	return out
}

// fakeAssessments holds canned assessments keyed by id.
type fakeAssessments struct {
	mu          sync.Mutex
	assessments map[int64]*assessmentdomain.Assessment
}

func newFakeAssessments() *fakeAssessments {
	return &fakeAssessments{assessments: make(map[int64]*assessmentdomain.Assessment)}
}

func (f *fakeAssessments) put(a *assessmentdomain.Assessment) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.assessments[a.ID] = a
}

func (f *fakeAssessments) GetOwned(_ context.Context, ownerID uuid.UUID, id int64) (*assessmentdomain.Assessment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.assessments[id]
	if !ok || a.OwnerID != ownerID {
		return nil, errors.NotFound("assessment not found")
	}
	return a, nil
}

func (f *fakeAssessments) FindOwnedCompleted(_ context.Context, ownerID uuid.UUID, companyID int64) (*assessmentdomain.Assessment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.assessments {
		if a.OwnerID == ownerID && a.CompanyID == companyID && a.Status == assessmentdomain.StatusCompleted {
			return a, nil
		}
	}
	return nil, nil
}

// fakeCompanies resolves canned companies by name.
type fakeCompanies struct {
	companies map[string]*assessmentdomain.Company
}

func (f *fakeCompanies) FindByName(_ context.Context, name string) (*assessmentdomain.Company, error) {
	for _, c := range f.companies {
		if strings.EqualFold(c.Name, name) {
			return c, nil
		}
	}
	return nil, nil
}

// fakeAnalyzer answers AnalyzeCompany with canned outcomes and counts calls.
type fakeAnalyzer struct {
	mu       sync.Mutex
	calls    int
	nextID   int64
	errs     map[string]error
	outcomes map[string]*analysis.ItemOutcome
}

func newFakeAnalyzer() *fakeAnalyzer {
	return &fakeAnalyzer{nextID: 100}
}

func (f *fakeAnalyzer) AnalyzeCompany(_ context.Context, _ uuid.UUID, name string, _ *string, progress func(string)) (*analysis.ItemOutcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if progress != nil {
		progress("Analyzing " + name + "...")
	}
	if err, ok := f.errs[name]; ok {
		return nil, err
	}
	if out, ok := f.outcomes[name]; ok {
		return out, nil
	}
	f.nextID++
	return &analysis.ItemOutcome{
		AssessmentID:   f.nextID,
		CompositeScore: 6,
		CompositeLabel: rating.LabelMediumHighRisk,
	}, nil
}

func (f *fakeAnalyzer) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// recordingEmitter captures emitted events for assertions.
type recordingEmitter struct {
	mu     sync.Mutex
	events []recordedEvent
}

type recordedEvent struct {
	name    string
	payload interface{}
}

func (e *recordingEmitter) Emit(event string, payload interface{}) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, recordedEvent{name: event, payload: payload})
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

func (e *recordingEmitter) find(name string) (recordedEvent, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, ev := range e.events {
		if ev.name == name {
			return ev, true
		}
	}
	return recordedEvent{}, false
}

func completedAssessment(ownerID uuid.UUID, id, companyID int64, score int) *assessmentdomain.Assessment {
	label := rating.ScoreToCompositeLabel(float64(score))
	return &assessmentdomain.Assessment{
		ID:             id,
		CompanyID:      companyID,
		OwnerID:        ownerID,
		Status:         assessmentdomain.StatusCompleted,
		CompositeScore: &score,
		CompositeLabel: &label,
	}
}

func newTestService(maxBatchAdd int) (*Service, *fakeEntryRepo, *fakeAssessments, *fakeCompanies, *fakeAnalyzer) {
	entries := newFakeEntryRepo()
	assessments := newFakeAssessments()
	companies := &fakeCompanies{companies: make(map[string]*assessmentdomain.Company)}
	analyzer := newFakeAnalyzer()
	svc := NewService(entries, assessments, companies, analyzer, logging.NewNop(), maxBatchAdd)
	return svc, entries, assessments, companies, analyzer
}

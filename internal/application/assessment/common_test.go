package assessment

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	domain "github.com/meridiancap/riskradar/internal/domain/assessment"
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

// fakeRepo is an in-memory assessment Repository covering what the service
// exercises.
type fakeRepo struct {
	mu          sync.Mutex
	nextID      int64
	nextScoreID int64
	assessments map[int64]*domain.Assessment
	scores      map[int64][]*domain.DomainScore
	history     map[int64][]*domain.HistoryEntry
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		nextID:      1,
		nextScoreID: 1,
		assessments: make(map[int64]*domain.Assessment),
		scores:      make(map[int64][]*domain.DomainScore),
		history:     make(map[int64][]*domain.HistoryEntry),
	}
}

func (r *fakeRepo) Create(_ context.Context, a *domain.Assessment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a.ID = r.nextID
	r.nextID++
	cp := *a
	r.assessments[a.ID] = &cp
	return nil
}

func (r *fakeRepo) GetOwned(_ context.Context, ownerID uuid.UUID, id int64) (*domain.Assessment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.assessments[id]
	if !ok || a.OwnerID != ownerID {
		return nil, errors.NotFound("assessment not found")
	}
	cp := *a
	return &cp, nil
}

func (r *fakeRepo) List(context.Context, uuid.UUID, domain.ListFilter) ([]*domain.Assessment, error) {
	return nil, nil
}

func (r *fakeRepo) Delete(_ context.Context, ownerID uuid.UUID, id int64) error {
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

func (r *fakeRepo) FindDonor(context.Context, int64, int64) (*domain.Assessment, error) {
	return nil, nil
}

func (r *fakeRepo) FindOwnedCompleted(context.Context, uuid.UUID, int64) (*domain.Assessment, error) {
	return nil, nil
}

func (r *fakeRepo) SetStatus(_ context.Context, id int64, status domain.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.assessments[id]; ok {
		a.Status = status
	}
	return nil
}

func (r *fakeRepo) SaveAnalysisResult(context.Context, int64, domain.AnalysisUpdate) error {
	return nil
}

func (r *fakeRepo) MarkFailed(context.Context, int64, string) error {
	return nil
}

func (r *fakeRepo) UpdateNotes(_ context.Context, ownerID uuid.UUID, id int64, notes *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.assessments[id]
	if !ok || a.OwnerID != ownerID {
		return errors.NotFound("assessment not found")
	}
	a.Notes = notes
	r.history[id] = append(r.history[id], &domain.HistoryEntry{
		AssessmentID: id,
		Action:       domain.ActionNotesUpdated,
	})
	return nil
}

func (r *fakeRepo) ListScores(_ context.Context, assessmentID int64) ([]*domain.DomainScore, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.DomainScore, 0, len(r.scores[assessmentID]))
	for _, s := range r.scores[assessmentID] {
		cp := *s
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakeRepo) GetScore(_ context.Context, assessmentID, scoreID int64) (*domain.DomainScore, error) {
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

func (r *fakeRepo) ApplyOverride(_ context.Context, assessmentID int64, update domain.OverrideUpdate) error {
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

func (r *fakeRepo) ListHistory(_ context.Context, assessmentID int64) ([]*domain.HistoryEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*domain.HistoryEntry(nil), r.history[assessmentID]...), nil
}

func (r *fakeRepo) AddHistory(_ context.Context, entry *domain.HistoryEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *entry
	r.history[entry.AssessmentID] = append(r.history[entry.AssessmentID], &cp)
	return nil
}

// addScore seeds one stored domain score.
func (r *fakeRepo) addScore(s *domain.DomainScore) *domain.DomainScore {
	r.mu.Lock()
	defer r.mu.Unlock()
	s.ID = r.nextScoreID
	r.nextScoreID++
	cp := *s
	r.scores[s.AssessmentID] = append(r.scores[s.AssessmentID], &cp)
	return s
}

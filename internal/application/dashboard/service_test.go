package dashboard

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	portfoliodomain "github.com/meridiancap/riskradar/internal/domain/portfolio"
	"github.com/meridiancap/riskradar/internal/domain/rating"
	"github.com/meridiancap/riskradar/internal/infrastructure/monitoring/logging"
)

type fakePortfolio struct {
	holdings []*portfoliodomain.EntryView
	calls    int
}

func (f *fakePortfolio) List(context.Context, uuid.UUID) ([]*portfoliodomain.EntryView, error) {
	f.calls++
	return f.holdings, nil
}

type memoryCache struct {
	mu    sync.Mutex
	stats map[uuid.UUID]*Stats
}

func newMemoryCache() *memoryCache {
	return &memoryCache{stats: make(map[uuid.UUID]*Stats)}
}

func (c *memoryCache) GetStats(_ context.Context, ownerID uuid.UUID) (*Stats, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.stats[ownerID]
	return s, ok
}

func (c *memoryCache) SetStats(_ context.Context, ownerID uuid.UUID, stats *Stats) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats[ownerID] = stats
}

func view(score int, weight float64, sector string, domainRatings map[int]rating.Rating) *portfoliodomain.EntryView {
	label := rating.ScoreToCompositeLabel(float64(score))
	v := &portfoliodomain.EntryView{
		Entry:          portfoliodomain.Entry{Weight: weight},
		CompositeScore: &score,
		CompositeLabel: &label,
		DomainRatings:  domainRatings,
	}
	if sector != "" {
		v.CompanySector = &sector
	}
	return v
}

func TestStats_WeightedAverageAndRiskWeights(t *testing.T) {
	pf := &fakePortfolio{holdings: []*portfoliodomain.EntryView{
		view(8, 50, "EdTech", nil), // High Risk
		view(3, 25, "AdTech", nil), // Medium-Low Risk
		view(3, 25, "EdTech", nil), // Medium-Low Risk
	}}
	svc := NewService(pf, nil, logging.NewNop())

	stats, err := svc.Stats(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, 3, stats.CompanyCount)
	// (8*50 + 3*25 + 3*25) / 100 = 5.5
	assert.Equal(t, 5.5, stats.WeightedAverageScore)
	assert.Equal(t, 50.0, stats.RiskWeights[string(rating.LabelHighRisk)])
	assert.Equal(t, 50.0, stats.RiskWeights[string(rating.LabelMediumLowRisk)])
}

func TestStats_EmptyPortfolio(t *testing.T) {
	svc := NewService(&fakePortfolio{}, nil, logging.NewNop())

	stats, err := svc.Stats(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Zero(t, stats.CompanyCount)
	assert.Zero(t, stats.WeightedAverageScore)
	assert.Empty(t, stats.RiskWeights)
}

func TestStats_ServesCachedCopy(t *testing.T) {
	pf := &fakePortfolio{holdings: []*portfoliodomain.EntryView{view(5, 100, "", nil)}}
	cache := newMemoryCache()
	svc := NewService(pf, cache, logging.NewNop())
	ownerID := uuid.New()

	first, err := svc.Stats(context.Background(), ownerID)
	require.NoError(t, err)
	second, err := svc.Stats(context.Background(), ownerID)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, pf.calls)
}

func TestRiskDistribution_CoversAllLabelsInOrder(t *testing.T) {
	pf := &fakePortfolio{holdings: []*portfoliodomain.EntryView{
		view(2, 40, "", nil),
		view(7, 30, "", nil),
		view(7, 30, "", nil),
	}}
	svc := NewService(pf, nil, logging.NewNop())

	dist, err := svc.RiskDistribution(context.Background(), uuid.New())
	require.NoError(t, err)
	require.Len(t, dist, 5)
	// Highest risk leads the distribution.
	assert.Equal(t, rating.LabelHighRisk, dist[0].Label)
	assert.Zero(t, dist[0].Count)
	assert.Equal(t, rating.LabelMediumHighRisk, dist[1].Label)
	assert.Equal(t, 2, dist[1].Count)
	assert.Equal(t, rating.LabelLowRisk, dist[4].Label)
	assert.Equal(t, 1, dist[4].Count)
}

func TestDomainBreakdown(t *testing.T) {
	pf := &fakePortfolio{holdings: []*portfoliodomain.EntryView{
		view(6, 50, "", map[int]rating.Rating{
			rating.DomainCustomerDemand: rating.RatingHigh,
			rating.DomainMoats:          rating.RatingLow,
		}),
		view(6, 50, "", map[int]rating.Rating{
			rating.DomainCustomerDemand: rating.RatingHigh,
			rating.DomainMoats:          rating.RatingMedium,
		}),
	}}
	svc := NewService(pf, nil, logging.NewNop())

	breakdown, err := svc.DomainBreakdown(context.Background(), uuid.New())
	require.NoError(t, err)
	require.Len(t, breakdown, 4)

	assert.Equal(t, "Customer Demand", breakdown[0].DomainName)
	assert.Equal(t, 2, breakdown[0].High)
	assert.Equal(t, 1, breakdown[1].Medium)
	assert.Equal(t, 1, breakdown[1].Low)
	// Domains no holding rated stay all zero.
	assert.Zero(t, breakdown[2].High+breakdown[2].Medium+breakdown[2].Low)
}

func TestSectorBreakdown(t *testing.T) {
	pf := &fakePortfolio{holdings: []*portfoliodomain.EntryView{
		view(8, 30, "EdTech", nil),
		view(4, 30, "EdTech", nil),
		view(5, 40, "", nil),
	}}
	svc := NewService(pf, nil, logging.NewNop())

	sectors, err := svc.SectorBreakdown(context.Background(), uuid.New())
	require.NoError(t, err)
	require.Len(t, sectors, 2)

	assert.Equal(t, "EdTech", sectors[0].Sector)
	assert.Equal(t, 2, sectors[0].CompanyCount)
	assert.Equal(t, 6.0, sectors[0].AverageScore)
	assert.Equal(t, "Unclassified", sectors[1].Sector)
	assert.Equal(t, 5.0, sectors[1].AverageScore)
}

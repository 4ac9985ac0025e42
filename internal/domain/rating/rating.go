// Package rating implements the deterministic scoring engine: rating scale
// conversions, domain-level aggregation, and composite score computation.
// Everything here is pure; no I/O and no state.  Every mutation path in the
// application (fresh analysis, user override, cross-user clone) funnels its
// persisted composite through Recalculate so the stored composite is always
// consistent with the underlying sub-question state.
package rating

import "math"

// Rating is the three-level risk scale used for every sub-question and
// domain judgment.
type Rating string

const (
	RatingHigh   Rating = "high"
	RatingMedium Rating = "medium"
	RatingLow    Rating = "low"
)

// Valid reports whether r is one of the three defined levels.
func (r Rating) Valid() bool {
	switch r {
	case RatingHigh, RatingMedium, RatingLow:
		return true
	}
	return false
}

// Confidence is the AI's self-reported confidence scale.  Same levels as
// Rating but kept as a distinct type to prevent accidental cross-assignment.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Valid reports whether c is one of the three defined levels.
func (c Confidence) Valid() bool {
	switch c {
	case ConfidenceHigh, ConfidenceMedium, ConfidenceLow:
		return true
	}
	return false
}

// CompositeLabel is the five-level ordinal label summarising an assessment.
type CompositeLabel string

const (
	LabelLowRisk        CompositeLabel = "Low Risk"
	LabelMediumLowRisk  CompositeLabel = "Medium-Low Risk"
	LabelMediumRisk     CompositeLabel = "Medium Risk"
	LabelMediumHighRisk CompositeLabel = "Medium-High Risk"
	LabelHighRisk       CompositeLabel = "High Risk"
)

// domainWeights are the fixed per-domain weights for the composite.  Slot 5
// exists in storage but carries no weight and is currently unused.
var domainWeights = map[int]float64{
	DomainCustomerDemand: 0.30,
	DomainMoats:          0.30,
	DomainTechStack:      0.15,
	DomainAICompetition:  0.25,
}

// compositeThresholds map a composite score to its label.  Upper bounds are
// inclusive, checked in ascending order, first match wins.
var compositeThresholds = []struct {
	max   float64
	label CompositeLabel
}{
	{2.5, LabelLowRisk},
	{4.0, LabelMediumLowRisk},
	{5.5, LabelMediumRisk},
	{7.5, LabelMediumHighRisk},
	{10, LabelHighRisk},
}

// Score maps a rating onto the 1..3 numeric scale: low=1, medium=2, high=3.
// Unknown values map to 0 and are expected to be rejected upstream.
func (r Rating) Score() int {
	switch r {
	case RatingLow:
		return 1
	case RatingMedium:
		return 2
	case RatingHigh:
		return 3
	}
	return 0
}

// ComputeDomainRating averages the numeric scores of all effective ratings
// in one domain: mean >= 2.5 is high, >= 1.5 is medium, else low.
//
// An empty domain yields medium.  This is the conservative-default policy:
// a domain with no answered sub-questions must still produce a non-null
// rating, and medium neither understates nor overstates the unknown risk.
func ComputeDomainRating(effective []Rating) Rating {
	if len(effective) == 0 {
		return RatingMedium
	}
	sum := 0
	for _, r := range effective {
		sum += r.Score()
	}
	avg := float64(sum) / float64(len(effective))
	switch {
	case avg >= 2.5:
		return RatingHigh
	case avg >= 1.5:
		return RatingMedium
	default:
		return RatingLow
	}
}

// ComputeCompositeScore produces the 1..10 composite from per-domain
// ratings.  The weighted average is normalised only over domains that are
// present, then linearly rescaled from the [1,3] raw range onto [1,10].
// With no rated domains the midpoint 5 is returned as the safe default.
func ComputeCompositeScore(domainRatings map[int]Rating) int {
	weightedSum := 0.0
	totalWeight := 0.0
	for domain, weight := range domainWeights {
		r, ok := domainRatings[domain]
		if !ok || !r.Valid() {
			continue
		}
		weightedSum += float64(r.Score()) * weight
		totalWeight += weight
	}
	if totalWeight == 0 {
		return 5
	}
	raw := weightedSum / totalWeight
	return int(math.Round(((raw-1)/2)*9 + 1))
}

// ScoreToCompositeLabel maps a composite score to its five-level label.
// Total over [1,10]: every value maps to exactly one label, monotonically
// non-decreasing in risk.
func ScoreToCompositeLabel(score float64) CompositeLabel {
	for _, t := range compositeThresholds {
		if score <= t.max {
			return t.label
		}
	}
	return LabelHighRisk
}

// QuestionScore is the minimal input Recalculate needs for one sub-question.
type QuestionScore struct {
	DomainNumber int
	Effective    Rating
}

// Result is the output of one recalculation pass.
type Result struct {
	DomainRatings  map[int]Rating
	CompositeScore int
	CompositeLabel CompositeLabel
}

// Recalculate groups scores by domain, derives each domain's rating, and
// computes the composite score and label.  This is the single authoritative
// recomputation path: it must be invoked after any domain score is inserted,
// overridden, or cloned, and its output is the only way the stored composite
// is ever written.  Deterministic and idempotent over the same input.
func Recalculate(scores []QuestionScore) Result {
	byDomain := make(map[int][]Rating)
	for _, s := range scores {
		byDomain[s.DomainNumber] = append(byDomain[s.DomainNumber], s.Effective)
	}

	domainRatings := make(map[int]Rating, len(byDomain))
	for domain, effective := range byDomain {
		domainRatings[domain] = ComputeDomainRating(effective)
	}

	score := ComputeCompositeScore(domainRatings)
	return Result{
		DomainRatings:  domainRatings,
		CompositeScore: score,
		CompositeLabel: ScoreToCompositeLabel(float64(score)),
	}
}

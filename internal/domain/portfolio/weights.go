package portfolio

import "math"

// EqualWeights computes the equal redistribution for the ordered entry ID
// list: every entry gets round(100/N, 2) percent, and the rounding remainder
// is assigned entirely to the lowest-ID entry so the total is exactly 100.00.
// Returns nil for an empty portfolio.
//
// The returned weights are rounded to 2 decimals and always sum to 100
// within one cent, e.g. 3 entries yield 33.34/33.33/33.33.
func EqualWeights(entryIDs []int64) map[int64]float64 {
	n := len(entryIDs)
	if n == 0 {
		return nil
	}

	equal := round2(100 / float64(n))
	weights := make(map[int64]float64, n)
	lowest := entryIDs[0]
	for _, id := range entryIDs {
		weights[id] = equal
		if id < lowest {
			lowest = id
		}
	}

	remainder := round2(100 - equal*float64(n))
	if remainder != 0 {
		weights[lowest] = round2(equal + remainder)
	}
	return weights
}

// ValidateWeightSum checks a manual weight submission: the sum must equal
// 100 within WeightSumTolerance.  Returns the computed sum and whether it is
// acceptable; callers reject the whole submission on failure, never
// normalise silently.
func ValidateWeightSum(updates []WeightUpdate) (float64, bool) {
	sum := 0.0
	for _, u := range updates {
		sum += u.Weight
	}
	return sum, math.Abs(sum-100) <= WeightSumTolerance
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

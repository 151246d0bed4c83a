package traffic

import (
	"math"
	"sort"
)

// Distribution describes a list of values
type Distribution struct {
	Count  int     `json:"count" bson:"count"`
	Min    float64 `json:"min" bson:"min"`
	Max    float64 `json:"max" bson:"max"`
	Mean   float64 `json:"mean" bson:"mean"`
	Median float64 `json:"median" bson:"median"`
	StdDev float64 `json:"stddev" bson:"stddev"`
	P25    float64 `json:"p25" bson:"p25"`
	P75    float64 `json:"p75" bson:"p75"`
	P90    float64 `json:"p90" bson:"p90"`
	P95    float64 `json:"p95" bson:"p95"`
	P99    float64 `json:"p99" bson:"p99"`
}

// Percentile returns the p-th percentile (0-100) of an ascending slice,
// interpolating linearly between the two closest ranks. An empty slice
// yields 0.
func Percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[len(sorted)-1]
	}

	rank := p / 100 * float64(len(sorted)-1)
	lower := int(math.Floor(rank))
	upper := int(math.Ceil(rank))
	if lower == upper {
		return sorted[lower]
	}
	frac := rank - float64(lower)
	return sorted[lower] + (sorted[upper]-sorted[lower])*frac
}

// Describe computes the summary statistics of values. The standard
// deviation is the population one. The input is not modified.
func Describe(values []float64) Distribution {
	if len(values) == 0 {
		return Distribution{}
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	var sum float64
	for _, val := range sorted {
		sum += val
	}
	mean := sum / float64(len(sorted))

	var squares float64
	for _, val := range sorted {
		squares += (val - mean) * (val - mean)
	}

	return Distribution{
		Count:  len(sorted),
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
		Mean:   mean,
		Median: Percentile(sorted, 50),
		StdDev: math.Sqrt(squares / float64(len(sorted))),
		P25:    Percentile(sorted, 25),
		P75:    Percentile(sorted, 75),
		P90:    Percentile(sorted, 90),
		P95:    Percentile(sorted, 95),
		P99:    Percentile(sorted, 99),
	}
}

// RemoveOutliers drops values outside [Q1 - 1.5 IQR, Q3 + 1.5 IQR].
//
// With ignoreZeros the quartiles are computed from the positive values only
// and zeros are then filtered like any other value. When no value is
// positive the input is returned unchanged. Without ignoreZeros the
// quartiles use every value and zeros are always kept.
func RemoveOutliers(values []float64, ignoreZeros bool) []float64 {
	basis := values
	if ignoreZeros {
		basis = nil
		for _, val := range values {
			if val > 0 {
				basis = append(basis, val)
			}
		}
	}
	if len(basis) == 0 {
		return values
	}

	sorted := make([]float64, len(basis))
	copy(sorted, basis)
	sort.Float64s(sorted)

	q1 := Percentile(sorted, 25)
	q3 := Percentile(sorted, 75)
	iqr := q3 - q1
	lower := q1 - 1.5*iqr
	upper := q3 + 1.5*iqr

	filtered := make([]float64, 0, len(values))
	for _, val := range values {
		inRange := val >= lower && val <= upper
		if inRange || (!ignoreZeros && val == 0) {
			filtered = append(filtered, val)
		}
	}
	return filtered
}

package stats

import (
	"math"
	"sort"
)

// Median returns the median of the finite values. ok is false when no finite value remains.
func Median(values []float64) (float64, bool) {
	finite := make([]float64, 0, len(values))
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		finite = append(finite, v)
	}
	if len(finite) == 0 {
		return 0, false
	}

	sort.Float64s(finite)
	mid := len(finite) / 2
	if len(finite)%2 == 1 {
		return finite[mid], true
	}
	return (finite[mid-1] + finite[mid]) / 2, true
}

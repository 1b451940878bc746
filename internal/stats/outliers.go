package stats

import "sort"

// minOutlierSamples is the smallest data set for which quartiles give a
// usable spread estimate. Below this every value survives.
const minOutlierSamples = 4

// RejectOutliers filters values using the interquartile-range method:
// anything outside [Q1 - 1.5*IQR, Q3 + 1.5*IQR] is rejected. It returns the
// surviving values in their original order plus the indices of the rejected
// ones. Fewer than four values skips detection entirely.
func RejectOutliers(values []float64) (survivors []float64, rejected []int) {
	if len(values) < minOutlierSamples {
		return values, nil
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	q1 := sorted[len(sorted)/4]
	q3 := sorted[3*len(sorted)/4]
	iqr := q3 - q1
	lower := q1 - 1.5*iqr
	upper := q3 + 1.5*iqr

	survivors = make([]float64, 0, len(values))
	for i, v := range values {
		if v < lower || v > upper {
			rejected = append(rejected, i)
			continue
		}
		survivors = append(survivors, v)
	}
	return survivors, rejected
}

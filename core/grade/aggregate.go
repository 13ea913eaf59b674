package grade

import "sort"

// MinGrades is the number of grades needed for a final score.
const MinGrades = 3

// FinalScore is the mean of values without one lowest and one highest value, normalized.
// It reports false when there are fewer than MinGrades values.
func FinalScore(values []float64) (float64, bool) {
	if len(values) < MinGrades {
		return 0, false
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	var sum float64
	for _, v := range sorted[1 : len(sorted)-1] {
		sum += v
	}
	return Normalize(sum / float64(len(sorted)-2)), true
}

package bloom

import "math"

// distributionTolerance is how far (in percentage points) an actual level share
// may drift from its target before a distribution is considered unmet.
const distributionTolerance = 10.0

// SuggestDistribution returns a default percentage split across levels for a
// paper of the given size. Short papers lean on the lower levels.
func SuggestDistribution(totalMarks int) map[Level]float64 {
	if totalMarks <= 50 {
		return map[Level]float64{
			Remember:   20,
			Understand: 30,
			Apply:      25,
			Analyze:    15,
			Evaluate:   10,
			Create:     0,
		}
	}
	return map[Level]float64{
		Remember:   15,
		Understand: 25,
		Apply:      25,
		Analyze:    20,
		Evaluate:   10,
		Create:     5,
	}
}

// MeetsDistribution reports whether the share of questions at each level is
// within ten percentage points of its target. An empty set never meets a target.
func MeetsDistribution(got []Level, target map[Level]float64) bool {
	if len(got) == 0 {
		return false
	}

	counts := make(map[Level]int, len(levels))
	for _, l := range got {
		counts[l]++
	}

	total := float64(len(got))
	for level, want := range target {
		actual := float64(counts[level]) / total * 100
		if math.Abs(actual-want) > distributionTolerance {
			return false
		}
	}
	return true
}

package bloom

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	bloomWeightFactor = 0.6
	marksWeightFactor = 0.4
	easyCeiling       = 2.5
	mediumCeiling     = 4.5

	// longWhyQuestion is the length (in characters) above which a "why"
	// question is treated as analysis rather than understanding.
	longWhyQuestion = 100
)

var (
	recallOpener = regexp.MustCompile(`^(what|who|when|where)\s`)
	howOpener    = regexp.MustCompile(`^how\s`)
	whyOpener    = regexp.MustCompile(`^why\s`)
)

// Classification is the result of classifying a single question.
type Classification struct {
	BloomLevel Level      `json:"bloom_level"`
	Difficulty Difficulty `json:"difficulty"`
}

// Classify assigns a Bloom level and a difficulty to a question. It never fails
// and is deterministic for a given (text, marks) pair.
func Classify(text string, marks int) Classification {
	level := DetermineLevel(text)
	return Classification{
		BloomLevel: level,
		Difficulty: DetermineDifficulty(level, marks),
	}
}

// DetermineLevel scores the text against every level's keywords and returns
// the level with the most distinct keyword hits. Ties go to the lower level.
// Text with no keyword hits falls through to structural heuristics.
func DetermineLevel(text string) Level {
	lower := strings.ToLower(text)

	best := Level("")
	bestScore := 0
	for _, level := range levels {
		score := 0
		for _, re := range keywordPatterns[level] {
			if re.MatchString(lower) {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = level, score
		}
	}
	if bestScore == 0 {
		return classifyByHeuristics(text)
	}
	return best
}

func classifyByHeuristics(text string) Level {
	lower := strings.ToLower(text)

	switch {
	case recallOpener.MatchString(lower):
		return Remember
	case howOpener.MatchString(lower):
		if strings.Contains(lower, "work") || strings.Contains(lower, "implement") {
			return Apply
		}
		return Understand
	case whyOpener.MatchString(lower):
		if utf8.RuneCountInString(text) > longWhyQuestion {
			return Analyze
		}
		return Understand
	case containsAny(lower, "explain", "describe"):
		return Understand
	case containsAny(lower, "compare", "contrast", "difference"):
		return Analyze
	case containsAny(lower, "design", "create", "develop"):
		return Create
	default:
		return Understand
	}
}

// DetermineDifficulty combines the level weight (60%) with a marks tier (40%).
func DetermineDifficulty(level Level, marks int) Difficulty {
	combined := bloomWeightFactor*float64(level.Weight()) + marksWeightFactor*float64(marksTier(marks))
	switch {
	case combined <= easyCeiling:
		return Easy
	case combined <= mediumCeiling:
		return Medium
	default:
		return Hard
	}
}

func marksTier(marks int) int {
	switch {
	case marks <= 2:
		return 1
	case marks <= 5:
		return 2
	default:
		return 3
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// Package bloom classifies exam questions by Bloom's Taxonomy level and difficulty
// using keyword scoring and simple structural heuristics.
package bloom

import (
	"fmt"
	"strings"
)

// Level is a Bloom's Taxonomy cognitive level.
type Level string

const (
	Remember   Level = "Remember"
	Understand Level = "Understand"
	Apply      Level = "Apply"
	Analyze    Level = "Analyze"
	Evaluate   Level = "Evaluate"
	Create     Level = "Create"
)

// Difficulty is the coarse difficulty tier of a question.
type Difficulty string

const (
	Easy   Difficulty = "Easy"
	Medium Difficulty = "Medium"
	Hard   Difficulty = "Hard"
)

var levels = []Level{Remember, Understand, Apply, Analyze, Evaluate, Create}

// Levels returns all levels in taxonomy order. The order doubles as the
// classifier's tie-break order.
func Levels() []Level {
	return append([]Level(nil), levels...)
}

// Difficulties returns all difficulty tiers from easiest to hardest.
func Difficulties() []Difficulty {
	return []Difficulty{Easy, Medium, Hard}
}

// Weight returns the ordinal weight of a level (Remember=1 … Create=6).
// Unknown levels weigh the same as Understand.
func (l Level) Weight() int {
	for i, lv := range levels {
		if lv == l {
			return i + 1
		}
	}
	return 2
}

// Valid reports whether l is one of the six taxonomy levels.
func (l Level) Valid() bool {
	for _, lv := range levels {
		if lv == l {
			return true
		}
	}
	return false
}

// ParseLevel parses a level name case-insensitively.
func ParseLevel(s string) (Level, error) {
	for _, lv := range levels {
		if strings.EqualFold(strings.TrimSpace(s), string(lv)) {
			return lv, nil
		}
	}
	return "", fmt.Errorf("unknown bloom level %q", s)
}

// ParseDifficulty parses a difficulty name case-insensitively.
func ParseDifficulty(s string) (Difficulty, error) {
	for _, d := range Difficulties() {
		if strings.EqualFold(strings.TrimSpace(s), string(d)) {
			return d, nil
		}
	}
	return "", fmt.Errorf("unknown difficulty %q", s)
}

// Describe returns a one-line description of what a level asks of a student.
func Describe(l Level) string {
	switch l {
	case Remember:
		return "Recall facts and basic concepts"
	case Understand:
		return "Explain ideas or concepts"
	case Apply:
		return "Use information in new situations"
	case Analyze:
		return "Draw connections among ideas"
	case Evaluate:
		return "Justify a stand or decision"
	case Create:
		return "Produce new or original work"
	default:
		return "Unknown level"
	}
}

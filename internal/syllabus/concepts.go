package syllabus

import (
	"regexp"
	"sort"
	"strings"
)

const (
	maxConcepts      = 15
	maxFrequentWords = 10
	minConceptLength = 4
)

var (
	capitalizedPhrase = regexp.MustCompile(`\b[A-Z][a-z]+(?:\s+[A-Z][a-z]+){0,3}\b`)
	capitalizedWord   = regexp.MustCompile(`\b[A-Z][a-z]{3,}\b`)

	markerPhrases = []*regexp.Regexp{
		regexp.MustCompile(`(?i)define[sd]?\s+(\w+(?:\s+\w+){0,2})`),
		regexp.MustCompile(`(?i)concept of\s+(\w+(?:\s+\w+){0,2})`),
		regexp.MustCompile(`(?i)called\s+(\w+(?:\s+\w+){0,2})`),
		regexp.MustCompile(`(?i)known as\s+(\w+(?:\s+\w+){0,2})`),
		regexp.MustCompile(`(?i)refers to\s+(\w+(?:\s+\w+){0,2})`),
		regexp.MustCompile(`(?i)meaning of\s+(\w+(?:\s+\w+){0,2})`),
	}
)

// ExtractConcepts returns up to 15 candidate topics found in text. Candidates
// come from capitalized phrases, words following definition markers ("called",
// "known as", ...) and the most frequent capitalized words, in that order.
// The result is deterministic for a given text.
func ExtractConcepts(text string) []string {
	var candidates []string

	candidates = append(candidates, capitalizedPhrase.FindAllString(text, -1)...)

	for _, re := range markerPhrases {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			candidates = append(candidates, m[1])
		}
	}

	candidates = append(candidates, frequentWords(text, maxFrequentWords)...)

	seen := make(map[string]bool, len(candidates))
	concepts := make([]string, 0, maxConcepts)
	for _, c := range candidates {
		c = strings.TrimSpace(c)
		if len(c) < minConceptLength || seen[c] {
			continue
		}
		seen[c] = true
		concepts = append(concepts, c)
		if len(concepts) == maxConcepts {
			break
		}
	}
	return concepts
}

// frequentWords ranks capitalized words of four or more letters by frequency.
// Equal counts keep first-occurrence order.
func frequentWords(text string, limit int) []string {
	var order []string
	counts := make(map[string]int)
	for _, w := range capitalizedWord.FindAllString(text, -1) {
		if counts[w] == 0 {
			order = append(order, w)
		}
		counts[w]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > limit {
		order = order[:limit]
	}
	return order
}

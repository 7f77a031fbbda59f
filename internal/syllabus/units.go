// Package syllabus splits academic documents into units and pulls candidate
// topics out of unit text using lexical heuristics.
package syllabus

import (
	"fmt"
	"regexp"
	"strings"
)

// DefaultUnitName names the single unit of a document without headings.
const DefaultUnitName = "Unit 1"

// Unit is a named slice of a document's text.
type Unit struct {
	Name string `json:"name"`
	Text string `json:"text"`
}

// headingKinds are tried in order. A later kind that reuses a unit number
// replaces the earlier text but keeps the unit's original position.
var headingKinds = []*regexp.Regexp{
	regexp.MustCompile(`(?i)UNIT[- ]?(\d+)`),
	regexp.MustCompile(`(?i)MODULE[- ]?(\d+)`),
	regexp.MustCompile(`(?i)Chapter[- ]?(\d+)`),
}

var headingSeparator = regexp.MustCompile(`^[:\s]+`)

// SplitUnits segments text on UNIT n / MODULE n / Chapter n headings. A heading
// must be followed by a colon or whitespace; its unit runs up to the next marker
// of the same kind. Text without headings becomes a single "Unit 1".
func SplitUnits(text string) []Unit {
	var units []Unit
	index := make(map[string]int)

	for _, re := range headingKinds {
		marks := re.FindAllStringSubmatchIndex(text, -1)
		for i, m := range marks {
			sep := headingSeparator.FindStringIndex(text[m[1]:])
			if sep == nil {
				continue
			}
			start := m[1] + sep[1]
			end := len(text)
			for _, next := range marks[i+1:] {
				if next[0] >= start {
					end = next[0]
					break
				}
			}

			name := fmt.Sprintf("Unit %s", text[m[2]:m[3]])
			body := strings.TrimSpace(text[start:end])
			if pos, ok := index[name]; ok {
				units[pos].Text = body
				continue
			}
			index[name] = len(units)
			units = append(units, Unit{Name: name, Text: body})
		}
	}

	if len(units) == 0 {
		return []Unit{{Name: DefaultUnitName, Text: text}}
	}
	return units
}

// Package questiongen synthesizes draft exam questions from document text by
// filling Bloom-level templates with extracted topics.
package questiongen

import (
	"math/rand/v2"

	"github.com/p-n-ai/pai-papers/internal/bloom"
	"github.com/p-n-ai/pai-papers/internal/syllabus"
	"github.com/p-n-ai/pai-papers/internal/templates"
)

// Draft is a synthesized question before persistence. Its Bloom level is
// provisional and is re-derived by the classifier.
type Draft struct {
	Unit       string
	Text       string
	Marks      int
	BloomLevel bloom.Level
}

// maxSlotsPerUnit bounds generation per unit. The marks template is shorter,
// so in practice each unit yields len(marksTemplate) drafts.
const maxSlotsPerUnit = 10

var marksTemplate = []int{2, 2, 5, 5, 5, 10, 10, 10}

var fallbackTopics = []string{"the concepts covered", "the key principles", "the main topics"}

// levelsForMarks lists the provisional levels a question of the given marks
// may be phrased at.
func levelsForMarks(marks int) []bloom.Level {
	switch marks {
	case 2:
		return []bloom.Level{bloom.Remember, bloom.Understand}
	case 5:
		return []bloom.Level{bloom.Understand, bloom.Apply}
	default:
		return []bloom.Level{bloom.Apply, bloom.Analyze, bloom.Evaluate, bloom.Create}
	}
}

// Generator turns document text into drafts.
type Generator struct {
	templates templates.Set
}

// NewGenerator creates a generator over a template set. A nil set uses the
// built-in templates.
func NewGenerator(set templates.Set) *Generator {
	if set == nil {
		set = templates.Default()
	}
	return &Generator{templates: set}
}

// Generate segments text into units, synthesizes drafts for each and
// rebalances the result. All randomness is drawn from rng.
func (g *Generator) Generate(rng *rand.Rand, text string) []Draft {
	var drafts []Draft
	for _, unit := range syllabus.SplitUnits(text) {
		drafts = append(drafts, g.generateForUnit(rng, unit)...)
	}
	return Rebalance(drafts)
}

func (g *Generator) generateForUnit(rng *rand.Rand, unit syllabus.Unit) []Draft {
	topics := syllabus.ExtractConcepts(unit.Text)
	if len(topics) == 0 {
		topics = append([]string(nil), fallbackTopics...)
	}

	marks := append([]int(nil), marksTemplate...)
	rng.Shuffle(len(marks), func(i, j int) { marks[i], marks[j] = marks[j], marks[i] })

	for len(topics) < len(marksTemplate) {
		n := min(len(marksTemplate)-len(topics), len(topics))
		topics = append(topics, topics[:n]...)
	}
	rng.Shuffle(len(topics), func(i, j int) { topics[i], topics[j] = topics[j], topics[i] })

	slots := min(len(topics), maxSlotsPerUnit, len(marks))
	drafts := make([]Draft, 0, slots)
	for i := 0; i < slots; i++ {
		options := levelsForMarks(marks[i])
		level := options[rng.IntN(len(options))]

		list := g.templates.For(level)
		tpl := list[rng.IntN(len(list))]

		drafts = append(drafts, Draft{
			Unit:       unit.Name,
			Text:       templates.Render(tpl, topics[i]),
			Marks:      marks[i],
			BloomLevel: level,
		})
	}
	return drafts
}

// Rebalance evens out per-unit draft counts. When the largest unit has more
// than twice the drafts of the smallest, every unit is cut to
// max(8, smallest+2), keeping each unit's earliest drafts. Units are emitted
// grouped, in order of first appearance.
func Rebalance(drafts []Draft) []Draft {
	if len(drafts) == 0 {
		return drafts
	}

	var order []string
	counts := make(map[string]int)
	for _, d := range drafts {
		if _, ok := counts[d.Unit]; !ok {
			order = append(order, d.Unit)
		}
		counts[d.Unit]++
	}

	lo, hi := counts[order[0]], counts[order[0]]
	for _, u := range order {
		lo = min(lo, counts[u])
		hi = max(hi, counts[u])
	}
	if hi <= 2*lo {
		return drafts
	}

	limit := max(8, lo+2)
	out := make([]Draft, 0, len(drafts))
	for _, u := range order {
		kept := 0
		for _, d := range drafts {
			if d.Unit != u || kept >= limit {
				continue
			}
			out = append(out, d)
			kept++
		}
	}
	return out
}

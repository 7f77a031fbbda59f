package questionbank

import "github.com/p-n-ai/pai-papers/internal/bloom"

// Stats summarizes the question bank.
type Stats struct {
	Total        int                      `json:"total"`
	TotalMarks   int                      `json:"total_marks"`
	ByUnit       map[string]int           `json:"by_unit"`
	ByBloomLevel map[bloom.Level]int      `json:"by_bloom_level"`
	ByDifficulty map[bloom.Difficulty]int `json:"by_difficulty"`
	ByMarks      map[int]int              `json:"by_marks"`
}

func newStats() Stats {
	return Stats{
		ByUnit:       map[string]int{},
		ByBloomLevel: map[bloom.Level]int{},
		ByDifficulty: map[bloom.Difficulty]int{},
		ByMarks:      map[int]int{},
	}
}

func (s *Stats) add(q Question, n int) {
	s.Total += n
	s.TotalMarks += q.Marks * n
	s.ByUnit[q.Unit] += n
	s.ByBloomLevel[q.BloomLevel] += n
	s.ByDifficulty[q.Difficulty] += n
	s.ByMarks[q.Marks] += n
}

// ComputeStats tallies a list of questions.
func ComputeStats(questions []Question) Stats {
	st := newStats()
	for _, q := range questions {
		st.add(q, 1)
	}
	return st
}

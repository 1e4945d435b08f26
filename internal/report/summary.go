package report

import (
	"cmp"
	"slices"
	"time"

	"github.com/nao1215/cmsfinger/internal/model"
)

// Summary aggregates the results of one run.
// It is not safe for concurrent use; feed it from the scheduler callback.
type Summary struct {
	// StartedAt is when the run began.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt is when the run ended. Zero while the run is in progress.
	FinishedAt time.Time `json:"finished_at,omitzero"`

	// Targets is the number of results added.
	Targets int `json:"targets"`

	// Results holds every result that had at least one match.
	Results []model.ScanResult `json:"results"`
}

// CMSCount is the number of targets a fingerprint matched.
type CMSCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// NewSummary creates an empty summary starting now.
func NewSummary() *Summary {
	return &Summary{
		StartedAt: time.Now(),
		Results:   make([]model.ScanResult, 0),
	}
}

// Add records one result.
func (s *Summary) Add(r model.ScanResult) {
	s.Targets++
	if r.HasMatches() {
		s.Results = append(s.Results, r)
	}
}

// Finish marks the run as complete.
func (s *Summary) Finish() {
	s.FinishedAt = time.Now()
}

// Matched returns the number of targets with at least one match.
func (s *Summary) Matched() int {
	return len(s.Results)
}

// Duration returns the run time, or the time so far for an unfinished run.
func (s *Summary) Duration() time.Duration {
	if s.FinishedAt.IsZero() {
		return time.Since(s.StartedAt)
	}
	return s.FinishedAt.Sub(s.StartedAt)
}

// CountByCMS returns per-fingerprint match counts, most frequent first
// and alphabetical among equal counts.
func (s *Summary) CountByCMS() []CMSCount {
	counts := make(map[string]int)
	for _, r := range s.Results {
		for _, name := range r.Matches {
			counts[name]++
		}
	}

	out := make([]CMSCount, 0, len(counts))
	for name, n := range counts {
		out = append(out, CMSCount{Name: name, Count: n})
	}
	slices.SortFunc(out, func(a, b CMSCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	return out
}

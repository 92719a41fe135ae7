// Package match finds the best enrolled identity for a probe vector and
// applies the decision threshold.
package match

import (
	"github.com/facegate/facegate/internal/embedding"
)

// NoScore is the sentinel score when no comparison was possible (no
// enrolled candidates with vectors).
const NoScore = -1.0

// Candidate is an enrolled identity offered to the matcher. Candidates
// without a vector are skipped (not yet enrolled, cannot be matched).
type Candidate struct {
	ID     string
	Name   string
	Vector embedding.Vector
}

// Decision is the transient result of one match attempt.
type Decision struct {
	Matched bool
	Score   float64
	Best    *Candidate // nil when no candidate could be compared
}

// Matcher decides match/no-match for a probe against a candidate set.
// Implementations must be deterministic for a fixed candidate order.
type Matcher interface {
	Match(probe embedding.Vector, threshold float64) Decision
}

// Match scans all candidates linearly and returns the best cosine
// similarity. The comparison is strict greater-than, so the first candidate
// encountered wins ties at the maximum score; with a stable candidate order
// the result is deterministic across runs. Matched is true iff a best
// candidate exists and its score reaches the threshold (score == threshold
// matches).
//
// O(n*d) in candidates times vector dimension; fine for populations up to
// low thousands. Index is the drop-in replacement beyond that.
func Match(probe embedding.Vector, candidates []Candidate, threshold float64) Decision {
	best := Decision{Score: NoScore}

	for i := range candidates {
		c := &candidates[i]
		if len(c.Vector) == 0 {
			continue
		}

		score := embedding.Cosine(probe, c.Vector)
		if best.Best == nil || score > best.Score {
			best.Score = score
			best.Best = c
		}
	}

	if best.Best == nil {
		return Decision{Matched: false, Score: NoScore}
	}

	best.Matched = best.Score >= threshold
	return best
}

// Linear is a Matcher over an in-memory candidate slice.
type Linear struct {
	candidates []Candidate
}

// NewLinear creates a linear-scan matcher. The slice is not copied; callers
// must not mutate it afterwards.
func NewLinear(candidates []Candidate) *Linear {
	return &Linear{candidates: candidates}
}

func (l *Linear) Match(probe embedding.Vector, threshold float64) Decision {
	return Match(probe, l.candidates, threshold)
}

package match

import (
	"sync"

	"github.com/coder/hnsw"

	"github.com/facegate/facegate/internal/embedding"
)

// HNSWMaxNeighbors is the M parameter of the graph.
const HNSWMaxNeighbors = 16

// Index is an approximate-nearest-neighbor Matcher backed by an HNSW graph.
// Drop-in replacement for Linear when the enrolled population grows past
// what a per-request scan can serve. Tie-break at equal scores follows graph
// traversal order rather than candidate insertion order.
type Index struct {
	graph *hnsw.Graph[string]
	byID  map[string]*Candidate
	mu    sync.RWMutex
}

// NewIndex builds an index from the candidate set. Candidates without
// vectors are skipped.
func NewIndex(candidates []Candidate) *Index {
	g := hnsw.NewGraph[string]()
	g.M = HNSWMaxNeighbors
	g.Ml = 1.0 / float64(HNSWMaxNeighbors) // Standard HNSW formula
	g.Distance = hnsw.CosineDistance

	idx := &Index{
		graph: g,
		byID:  make(map[string]*Candidate, len(candidates)),
	}

	for i := range candidates {
		c := candidates[i]
		if len(c.Vector) == 0 {
			continue
		}
		g.Add(hnsw.MakeNode(c.ID, c.Vector))
		idx.byID[c.ID] = &c
	}

	return idx
}

// Add inserts or replaces a single candidate.
func (idx *Index) Add(c Candidate) {
	if len(c.Vector) == 0 {
		return
	}
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.graph.Add(hnsw.MakeNode(c.ID, c.Vector))
	idx.byID[c.ID] = &c
}

// Len returns the number of indexed candidates.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.byID)
}

func (idx *Index) Match(probe embedding.Vector, threshold float64) Decision {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if len(idx.byID) == 0 {
		return Decision{Matched: false, Score: NoScore}
	}

	neighbors := idx.graph.Search(probe, 1)
	if len(neighbors) == 0 {
		return Decision{Matched: false, Score: NoScore}
	}

	best := idx.byID[neighbors[0].Key]
	if best == nil {
		return Decision{Matched: false, Score: NoScore}
	}

	// Recompute the exact similarity from the stored vector; the graph
	// distance is approximate enough for ranking but the decision threshold
	// needs the true score.
	score := embedding.Cosine(probe, best.Vector)
	return Decision{
		Matched: score >= threshold,
		Score:   score,
		Best:    best,
	}
}

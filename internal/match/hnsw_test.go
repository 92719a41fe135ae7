package match

import (
	"fmt"
	"math"
	"testing"

	"github.com/facegate/facegate/internal/embedding"
)

func TestIndexMatch(t *testing.T) {
	candidates := []Candidate{
		{ID: "S100", Name: "Alice", Vector: embedding.Vector{1, 0, 0}},
		{ID: "S101", Name: "Bob", Vector: embedding.Vector{0, 1, 0}},
		{ID: "S102", Name: "Carol", Vector: embedding.Vector{0, 0, 1}},
	}

	idx := NewIndex(candidates)
	if idx.Len() != 3 {
		t.Fatalf("Len = %d, want 3", idx.Len())
	}

	d := idx.Match(embedding.Vector{0, 1, 0}, 0.35)
	if !d.Matched {
		t.Fatal("Matched = false, want true")
	}
	if d.Best.ID != "S101" {
		t.Errorf("Best.ID = %q, want S101", d.Best.ID)
	}
	if math.Abs(d.Score-1.0) > 1e-5 {
		t.Errorf("Score = %v, want ~1.0", d.Score)
	}
}

func TestIndexEmpty(t *testing.T) {
	idx := NewIndex(nil)

	d := idx.Match(embedding.Vector{1, 0}, 0.35)
	if d.Matched || d.Score != NoScore || d.Best != nil {
		t.Errorf("Match on empty index = %+v, want no match with sentinel score", d)
	}
}

func TestIndexSkipsVectorless(t *testing.T) {
	idx := NewIndex([]Candidate{
		{ID: "S100", Name: "Alice"},
	})
	if idx.Len() != 0 {
		t.Errorf("Len = %d, want 0", idx.Len())
	}
}

func TestIndexAdd(t *testing.T) {
	idx := NewIndex(nil)
	idx.Add(Candidate{ID: "S100", Vector: embedding.Vector{1, 0}})

	d := idx.Match(embedding.Vector{1, 0}, 0.35)
	if !d.Matched || d.Best.ID != "S100" {
		t.Errorf("Match after Add = %+v, want S100 matched", d)
	}
}

func TestIndexAgreesWithLinear(t *testing.T) {
	// With well-separated candidates, the ANN index must pick the same best
	// identity as the exhaustive scan.
	var candidates []Candidate
	for i := 0; i < 50; i++ {
		v := make(embedding.Vector, 8)
		v[i%8] = 1
		v[(i+3)%8] = float32(i) / 50
		candidates = append(candidates, Candidate{
			ID:     fmt.Sprintf("S%03d", i),
			Vector: embedding.Normalize(v),
		})
	}
	idx := NewIndex(candidates)

	probe := candidates[17].Vector
	exact := Match(probe, candidates, 0.9)
	approx := idx.Match(probe, 0.9)

	if !approx.Matched {
		t.Fatal("index did not match its own member vector")
	}
	if math.Abs(exact.Score-approx.Score) > 1e-5 {
		t.Errorf("score mismatch: linear %v vs index %v", exact.Score, approx.Score)
	}
}

package index

import (
	"math"

	"github.com/kinocloud/cinedex/internal/domain"
)

// ScoreOptions tunes query-vector construction.
type ScoreOptions struct {
	// RecencyDecay in (0,1] weights seed rows by decay^position, with
	// position 0 the most recent seed. Zero means a plain centroid.
	RecencyDecay float64
}

// Score builds a query vector from the seed titles and returns the
// cosine similarity of every indexed title of the requested media type.
//
// Seeds absent from the title table are silently skipped; stale history
// must never break scoring. An empty effective seed set yields an empty
// map, not an error — that is the steady state for a brand-new user.
// Scores are returned unfiltered; ranking and cutoffs happen downstream.
func (ix *Index) Score(seedIDs []string, mediaType domain.MediaType, opts ScoreOptions) map[string]float64 {
	query := ix.queryVector(seedIDs, opts)
	if query == nil {
		return map[string]float64{}
	}

	scores := make(map[string]float64)
	for i := range ix.titles {
		if ix.titles[i].MediaType() != mediaType {
			continue
		}
		scores[ix.titles[i].ID()] = ix.matrix.DotDense(i, query)
	}
	return scores
}

// queryVector accumulates the (optionally recency-weighted) centroid of
// the seed rows and L2-normalizes it. Returns nil when no seed resolves.
func (ix *Index) queryVector(seedIDs []string, opts ScoreOptions) []float64 {
	acc := make([]float64, ix.matrix.Cols())
	resolved := 0
	weight := 1.0
	for _, id := range seedIDs {
		row, ok := ix.rowByID[id]
		if !ok {
			continue
		}
		ix.matrix.AddRowInto(row, weight, acc)
		resolved++
		if opts.RecencyDecay > 0 && opts.RecencyDecay <= 1 {
			weight *= opts.RecencyDecay
		}
	}
	if resolved == 0 {
		return nil
	}

	var norm float64
	for _, v := range acc {
		norm += v * v
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		return nil
	}
	for i := range acc {
		acc[i] /= norm
	}
	return acc
}

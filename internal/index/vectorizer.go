package index

import (
	"math"
	"sort"
	"strings"
)

// Vectorizer holds the fitted vocabulary and per-term IDF weights.
// Immutable after fit; Transform is safe for concurrent use.
type Vectorizer struct {
	vocab map[string]int
	terms []string
	idf   []float64
}

// NewVectorizer assembles a Vectorizer from persisted components
// (artifact hydration). terms[i] must be the token mapped to dimension i.
func NewVectorizer(terms []string, idf []float64) *Vectorizer {
	vocab := make(map[string]int, len(terms))
	for i, t := range terms {
		vocab[t] = i
	}
	return &Vectorizer{vocab: vocab, terms: terms, idf: idf}
}

// fitVectorizer learns the vocabulary and IDF weights over all soups.
// Vocabulary dimensions are assigned in first-seen order, which is
// deterministic for a fixed soup sequence. IDF is smoothed:
// ln((1+n)/(1+df)) + 1, so no weight is ever zero or negative.
func fitVectorizer(soups []string) *Vectorizer {
	vocab := make(map[string]int)
	var terms []string
	df := make([]int, 0)

	for _, soup := range soups {
		seen := make(map[int]bool)
		for _, tok := range strings.Fields(soup) {
			dim, ok := vocab[tok]
			if !ok {
				dim = len(terms)
				vocab[tok] = dim
				terms = append(terms, tok)
				df = append(df, 0)
			}
			if !seen[dim] {
				seen[dim] = true
				df[dim]++
			}
		}
	}

	n := float64(len(soups))
	idf := make([]float64, len(terms))
	for dim, d := range df {
		idf[dim] = math.Log((1+n)/(1+float64(d))) + 1
	}

	return &Vectorizer{vocab: vocab, terms: terms, idf: idf}
}

// Dims returns the vocabulary size.
func (v *Vectorizer) Dims() int { return len(v.terms) }

// Terms returns the token for each dimension, in dimension order.
// The returned slice aliases internal storage and must not be modified.
func (v *Vectorizer) Terms() []string { return v.terms }

// IDF returns the inverse-document-frequency weight per dimension.
// The returned slice aliases internal storage and must not be modified.
func (v *Vectorizer) IDF() []float64 { return v.idf }

// Transform converts a soup into a sparse L2-normalized TF-IDF vector,
// returned as column-sorted (cols, vals) pairs. Tokens outside the
// fitted vocabulary are dropped.
func (v *Vectorizer) Transform(soup string) (cols []int, vals []float64) {
	counts := make(map[int]int)
	for _, tok := range strings.Fields(soup) {
		if dim, ok := v.vocab[tok]; ok {
			counts[dim]++
		}
	}
	if len(counts) == 0 {
		return nil, nil
	}

	cols = make([]int, 0, len(counts))
	for dim := range counts {
		cols = append(cols, dim)
	}
	sort.Ints(cols)

	vals = make([]float64, len(cols))
	var norm float64
	for i, dim := range cols {
		w := float64(counts[dim]) * v.idf[dim]
		vals[i] = w
		norm += w * w
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range vals {
			vals[i] /= norm
		}
	}
	return cols, vals
}

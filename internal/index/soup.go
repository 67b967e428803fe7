// Package index implements the content-similarity index: the weighted
// metadata soup, the TF-IDF vectorizer fitted over all title soups, the
// row-aligned sparse matrix, and cosine scoring against it.
//
// An Index is built once offline, persisted as an artifact triple, and
// loaded read-only at serve time. Nothing in this package mutates an
// Index after Build, so concurrent readers need no locking.
package index

import (
	"strings"
)

// SoupWeights controls how strongly each metadata facet is repeated in
// the soup. Genres and creators outweigh incidental title-word overlap.
type SoupWeights struct {
	Genre    int
	Director int
	Actor    int
	// MaxActors caps how many billing-ordered cast members contribute.
	MaxActors int
}

// DefaultSoupWeights returns the standard weighting policy.
func DefaultSoupWeights() SoupWeights {
	return SoupWeights{Genre: 3, Director: 3, Actor: 2, MaxActors: 5}
}

func (w SoupWeights) normalized() SoupWeights {
	if w.Genre <= 0 {
		w.Genre = 1
	}
	if w.Director <= 0 {
		w.Director = 1
	}
	if w.Actor <= 0 {
		w.Actor = 1
	}
	if w.MaxActors <= 0 {
		w.MaxActors = DefaultSoupWeights().MaxActors
	}
	return w
}

// BuildSoup produces the weighted bag-of-tokens surrogate for one title.
// Deterministic: identical titles always produce identical soups. Absent
// metadata facets contribute no tokens and are never an error.
func BuildSoup(t SoupSource, w SoupWeights) string {
	w = w.normalized()

	var sb strings.Builder

	for _, g := range t.Genres() {
		appendRepeated(&sb, normalizeToken(g), w.Genre)
	}
	for _, d := range t.Directors() {
		appendRepeated(&sb, personToken(d), w.Director)
	}
	actors := t.TopActors()
	if len(actors) > w.MaxActors {
		actors = actors[:w.MaxActors]
	}
	for _, a := range actors {
		appendRepeated(&sb, personToken(a), w.Actor)
	}
	for _, word := range tokenizeText(t.Name()) {
		appendRepeated(&sb, word, 1)
	}

	return strings.TrimSpace(sb.String())
}

// SoupSource is the title metadata consumed by the feature builder.
type SoupSource interface {
	Name() string
	Genres() []string
	Directors() []string
	TopActors() []string
}

func appendRepeated(sb *strings.Builder, token string, n int) {
	if token == "" {
		return
	}
	for i := 0; i < n; i++ {
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(token)
	}
}

// personToken collapses a person name into a single token so that
// "Mira Nair" never matches "Mira" from another name.
func personToken(name string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(name) {
		if isTokenRune(r) {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// normalizeToken lowercases and strips non-alphanumerics from one token.
func normalizeToken(s string) string {
	return personToken(s)
}

// tokenizeText splits free text into normalized word tokens.
func tokenizeText(s string) []string {
	var tokens []string
	var sb strings.Builder
	flush := func() {
		if sb.Len() > 0 {
			tokens = append(tokens, sb.String())
			sb.Reset()
		}
	}
	for _, r := range strings.ToLower(s) {
		if isTokenRune(r) {
			sb.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()
	return tokens
}

func isTokenRune(r rune) bool {
	return r >= 'a' && r <= 'z' || r >= '0' && r <= '9'
}

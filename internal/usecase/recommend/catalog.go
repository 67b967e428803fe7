package recommend

import (
	"sort"

	"github.com/kinocloud/cinedex/internal/domain"
)

// candidate pairs a title with its per-request rank key.
type candidate struct {
	title        *domain.Title
	score        float64
	priorityRank int
}

// Assemble filters, ranks, and paginates scored candidates into one
// catalog page. Pure function of its inputs: no side effects, fully
// deterministic, so identical inputs always produce the identical page.
//
// Rank order: ascending region priority rank, then descending
// similarity, then descending rating, then ascending ID. The final ID
// comparison makes ties deterministic instead of iteration-ordered.
func Assemble(
	scores map[string]float64,
	table []domain.Title,
	excludeIDs map[string]struct{},
	priorityRegions []string,
	skip, pageSize int,
) []domain.Title {
	if pageSize <= 0 || skip < 0 {
		return nil
	}

	candidates := make([]candidate, 0, len(scores))
	for i := range table {
		t := &table[i]
		score, ok := scores[t.ID()]
		if !ok {
			continue
		}
		if _, watched := excludeIDs[t.ID()]; watched {
			continue
		}
		candidates = append(candidates, candidate{
			title:        t,
			score:        score,
			priorityRank: priorityRank(t, priorityRegions),
		})
	}

	sortCandidates(candidates)

	if skip >= len(candidates) {
		return []domain.Title{}
	}
	end := skip + pageSize
	if end > len(candidates) {
		end = len(candidates)
	}

	page := make([]domain.Title, end-skip)
	for i, c := range candidates[skip:end] {
		page[i] = *c.title
	}
	return page
}

// priorityRank is the index of the first priority region the title's
// countries intersect. Titles matching no priority region rank last
// but are never dropped.
func priorityRank(t *domain.Title, priorityRegions []string) int {
	for rank, region := range priorityRegions {
		if t.HasCountry(region) {
			return rank
		}
	}
	return len(priorityRegions)
}

func sortCandidates(cs []candidate) {
	sort.Slice(cs, func(i, j int) bool {
		a, b := cs[i], cs[j]
		if a.priorityRank != b.priorityRank {
			return a.priorityRank < b.priorityRank
		}
		if a.score != b.score {
			return a.score > b.score
		}
		if a.title.RatingAverage() != b.title.RatingAverage() {
			return a.title.RatingAverage() > b.title.RatingAverage()
		}
		return a.title.ID() < b.title.ID()
	})
}

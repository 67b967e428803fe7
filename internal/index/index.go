package index

import (
	"fmt"

	"github.com/kinocloud/cinedex/internal/domain"
)

// Index is the immutable artifact triple: fitted vectorizer, sparse
// title-by-term matrix, and the row-aligned title table. Matrix row i
// always describes Titles[i]; every consumer relies on that.
type Index struct {
	vectorizer *Vectorizer
	matrix     Matrix
	titles     []domain.Title
	rowByID    map[string]int
}

// Build fits a TF-IDF vectorizer over the soups of all given titles and
// produces the artifact triple. The title order passed in becomes the
// permanent row order. Returns domain.ErrNoQualifyingTitles when the
// input is empty: a technically-valid empty index must never be built.
func Build(titles []domain.Title, weights SoupWeights) (*Index, error) {
	if len(titles) == 0 {
		return nil, domain.ErrNoQualifyingTitles
	}

	soups := make([]string, len(titles))
	for i := range titles {
		t := &titles[i]
		if t.ID() == "" {
			return nil, fmt.Errorf("title at row %d has empty ID", i)
		}
		if _, err := domain.ParseMediaType(t.MediaType().String()); err != nil {
			return nil, fmt.Errorf("title %s: %w", t.ID(), err)
		}
		soups[i] = BuildSoup(t, weights)
	}

	vec := fitVectorizer(soups)
	mb := newMatrixBuilder(vec.Dims())
	for _, soup := range soups {
		cols, vals := vec.Transform(soup)
		mb.appendRow(cols, vals)
	}

	return Reconstruct(vec, mb.build(), titles)
}

// Reconstruct assembles an Index from persisted artifacts and enforces
// the alignment invariant. Row-count divergence here means corrupted
// artifacts, and the caller must treat it as fatal.
func Reconstruct(vec *Vectorizer, matrix Matrix, titles []domain.Title) (*Index, error) {
	if vec == nil {
		return nil, fmt.Errorf("%w: vectorizer is nil", domain.ErrArtifactMissing)
	}
	if matrix.Rows() != len(titles) {
		return nil, fmt.Errorf("%w: matrix has %d rows, title table has %d",
			domain.ErrArtifactMismatch, matrix.Rows(), len(titles))
	}
	if matrix.Cols() != vec.Dims() {
		return nil, fmt.Errorf("%w: matrix has %d columns, vectorizer has %d terms",
			domain.ErrArtifactMismatch, matrix.Cols(), vec.Dims())
	}

	rowByID := make(map[string]int, len(titles))
	for i := range titles {
		id := titles[i].ID()
		if _, dup := rowByID[id]; dup {
			return nil, fmt.Errorf("%w: duplicate title ID %s", domain.ErrArtifactMismatch, id)
		}
		rowByID[id] = i
	}

	return &Index{vectorizer: vec, matrix: matrix, titles: titles, rowByID: rowByID}, nil
}

// Vectorizer returns the fitted vectorizer.
func (ix *Index) Vectorizer() *Vectorizer { return ix.vectorizer }

// Matrix returns the sparse TF-IDF matrix.
func (ix *Index) Matrix() *Matrix { return &ix.matrix }

// Titles returns the row-aligned title table.
// The returned slice aliases internal storage and must not be modified.
func (ix *Index) Titles() []domain.Title { return ix.titles }

// Len returns the number of indexed titles.
func (ix *Index) Len() int { return len(ix.titles) }

// TitleByID returns the indexed title for an ID.
func (ix *Index) TitleByID(id string) (domain.Title, error) {
	row, ok := ix.rowByID[id]
	if !ok {
		return domain.Title{}, domain.ErrTitleNotFound
	}
	return ix.titles[row], nil
}

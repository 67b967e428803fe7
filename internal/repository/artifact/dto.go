package artifact

import "github.com/kinocloud/cinedex/internal/domain"

// titleRow is the parquet schema for one title-table row.
// File order is the matrix row order.
type titleRow struct {
	ID            string   `parquet:"id"`
	MediaType     string   `parquet:"media_type"`
	Name          string   `parquet:"name"`
	Genres        []string `parquet:"genres,list"`
	Directors     []string `parquet:"directors,list"`
	TopActors     []string `parquet:"top_actors,list"`
	ReleaseYear   int32    `parquet:"release_year"`
	RatingAverage float64  `parquet:"rating_average"`
	VoteCount     int64    `parquet:"vote_count"`
	Countries     []string `parquet:"countries,list"`
}

func titleToRow(t *domain.Title) titleRow {
	return titleRow{
		ID:            t.ID(),
		MediaType:     t.MediaType().String(),
		Name:          t.Name(),
		Genres:        t.Genres(),
		Directors:     t.Directors(),
		TopActors:     t.TopActors(),
		ReleaseYear:   int32(t.ReleaseYear()),
		RatingAverage: t.RatingAverage(),
		VoteCount:     int64(t.VoteCount()),
		Countries:     t.Countries(),
	}
}

func (r titleRow) toDomain() domain.Title {
	return domain.ReconstructTitle(
		r.ID, domain.MediaType(r.MediaType), r.Name,
		r.Genres, r.Directors, r.TopActors,
		int(r.ReleaseYear), r.RatingAverage, int(r.VoteCount),
		r.Countries,
	)
}

// matrixRow is one non-zero matrix entry in COO triplet form.
type matrixRow struct {
	Row   int64   `parquet:"row"`
	Col   int64   `parquet:"col"`
	Value float64 `parquet:"value"`
}

// vocabRow maps one vocabulary term to its dimension and IDF weight.
type vocabRow struct {
	Term string  `parquet:"term"`
	Dim  int64   `parquet:"dim"`
	IDF  float64 `parquet:"idf"`
}

package domain

import "fmt"

// MediaType distinguishes the two indexed catalog kinds.
type MediaType string

const (
	// Movie is a feature-length title.
	Movie MediaType = "movie"
	// Series is an episodic title.
	Series MediaType = "series"
)

// ParseMediaType validates a media type string.
func ParseMediaType(s string) (MediaType, error) {
	switch MediaType(s) {
	case Movie, Series:
		return MediaType(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMediaType, s)
	}
}

func (m MediaType) String() string { return string(m) }

// MaxActors bounds the billing-ordered cast carried per title.
const MaxActors = 10

// Title is one indexed media entity (immutable value object).
// Titles that fail the build-time qualification thresholds never
// become Title values; they are dropped during ingest.
type Title struct {
	id            string
	mediaType     MediaType
	name          string
	genres        []string
	directors     []string
	topActors     []string
	releaseYear   int
	ratingAverage float64
	voteCount     int
	countries     []string
}

// NewTitle validates and creates a Title.
// Genres, directors, actors, and countries may be empty: absent metadata
// weakens the feature vector but is never fatal.
func NewTitle(
	id string, mediaType MediaType, name string,
	genres, directors, topActors []string,
	releaseYear int, ratingAverage float64, voteCount int,
	countries []string,
) (Title, error) {
	if id == "" {
		return Title{}, fmt.Errorf("title ID is required")
	}
	if _, err := ParseMediaType(string(mediaType)); err != nil {
		return Title{}, err
	}
	if name == "" {
		return Title{}, fmt.Errorf("title name is required")
	}
	if ratingAverage < 0 || ratingAverage > 10 {
		return Title{}, fmt.Errorf("rating %f out of range [0,10]", ratingAverage)
	}
	if voteCount < 0 {
		return Title{}, fmt.Errorf("vote count must be non-negative")
	}
	if len(topActors) > MaxActors {
		topActors = topActors[:MaxActors]
	}
	return Title{
		id:            id,
		mediaType:     mediaType,
		name:          name,
		genres:        cloneStrings(genres),
		directors:     cloneStrings(directors),
		topActors:     cloneStrings(topActors),
		releaseYear:   releaseYear,
		ratingAverage: ratingAverage,
		voteCount:     voteCount,
		countries:     cloneStrings(countries),
	}, nil
}

// ReconstructTitle creates a Title without validation (storage hydration).
func ReconstructTitle(
	id string, mediaType MediaType, name string,
	genres, directors, topActors []string,
	releaseYear int, ratingAverage float64, voteCount int,
	countries []string,
) Title {
	return Title{
		id: id, mediaType: mediaType, name: name,
		genres: genres, directors: directors, topActors: topActors,
		releaseYear: releaseYear, ratingAverage: ratingAverage,
		voteCount: voteCount, countries: countries,
	}
}

// ID returns the stable title identifier.
func (t *Title) ID() string { return t.id }

// MediaType returns movie or series.
func (t *Title) MediaType() MediaType { return t.mediaType }

// Name returns the primary display name.
func (t *Title) Name() string { return t.name }

// Genres returns the genre set.
func (t *Title) Genres() []string { return t.genres }

// Directors returns the director names.
func (t *Title) Directors() []string { return t.directors }

// TopActors returns the cast in billing order.
func (t *Title) TopActors() []string { return t.topActors }

// ReleaseYear returns the first release year.
func (t *Title) ReleaseYear() int { return t.releaseYear }

// RatingAverage returns the mean rating in [0,10].
func (t *Title) RatingAverage() float64 { return t.ratingAverage }

// VoteCount returns the rating vote count.
func (t *Title) VoteCount() int { return t.voteCount }

// Countries returns ISO country codes of origin.
func (t *Title) Countries() []string { return t.countries }

// HasCountry reports whether the title lists the given country code.
func (t *Title) HasCountry(code string) bool {
	for _, c := range t.countries {
		if c == code {
			return true
		}
	}
	return false
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	c := make([]string, len(s))
	copy(c, s)
	return c
}

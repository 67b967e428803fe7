// Package ingest turns the public IMDb dataset dumps into the title
// table the index builder consumes. Loading is a sequence of streaming
// passes over the gzipped TSV files, keeping only qualified titles in
// memory.
package ingest

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"

	"go.uber.org/zap"

	"github.com/kinocloud/cinedex/internal/domain"
)

// Filters selects which dataset rows qualify for the index.
type Filters struct {
	MinVotes int
	MinYear  int
}

// Loader assembles domain titles from a local dataset directory.
type Loader struct {
	dataDir string
	filters Filters
	log     *zap.Logger
}

// NewLoader creates a Loader reading from dataDir.
func NewLoader(dataDir string, filters Filters, log *zap.Logger) *Loader {
	return &Loader{dataDir: dataDir, filters: filters, log: log}
}

// titleRec accumulates per-title fields across the dataset passes.
type titleRec struct {
	name      string
	mediaType domain.MediaType
	year      int
	rating    float64
	votes     int
	genres    []string
	directors []string // nconst until resolved
	actors    []string // nconst until resolved
	countries map[string]struct{}
}

// Load runs all passes and returns qualified titles sorted by ID.
// Row order is independent of dataset file order, so two runs over the
// same dumps produce identical tables.
func (l *Loader) Load(ctx context.Context) ([]domain.Title, error) {
	ratings, err := l.loadRatings(ctx)
	if err != nil {
		return nil, fmt.Errorf("ratings pass: %w", err)
	}
	l.log.Info("ratings pass done", zap.Int("qualified", len(ratings)))

	recs, err := l.loadBasics(ctx, ratings)
	if err != nil {
		return nil, fmt.Errorf("basics pass: %w", err)
	}
	l.log.Info("basics pass done", zap.Int("titles", len(recs)))

	if err := l.loadRegions(ctx, recs); err != nil {
		return nil, fmt.Errorf("akas pass: %w", err)
	}
	if err := l.loadDirectors(ctx, recs); err != nil {
		return nil, fmt.Errorf("crew pass: %w", err)
	}
	if err := l.loadActors(ctx, recs); err != nil {
		return nil, fmt.Errorf("principals pass: %w", err)
	}
	if err := l.resolveNames(ctx, recs); err != nil {
		return nil, fmt.Errorf("names pass: %w", err)
	}

	return l.assemble(recs)
}

type ratingRec struct {
	rating float64
	votes  int
}

func (l *Loader) loadRatings(ctx context.Context) (map[string]ratingRec, error) {
	out := make(map[string]ratingRec)
	err := scanTSV(l.path(FileRatings), func(row tsvRow) bool {
		if ctx.Err() != nil {
			return false
		}
		votes, err := strconv.Atoi(row.get("numVotes"))
		if err != nil || votes < l.filters.MinVotes {
			return true
		}
		rating, err := strconv.ParseFloat(row.get("averageRating"), 64)
		if err != nil {
			return true
		}
		out[row.get("tconst")] = ratingRec{rating: rating, votes: votes}
		return true
	})
	if err != nil {
		return nil, err
	}
	return out, ctx.Err()
}

func (l *Loader) loadBasics(ctx context.Context, ratings map[string]ratingRec) (map[string]*titleRec, error) {
	out := make(map[string]*titleRec)
	err := scanTSV(l.path(FileBasics), func(row tsvRow) bool {
		if ctx.Err() != nil {
			return false
		}
		id := row.get("tconst")
		r, ok := ratings[id]
		if !ok {
			return true
		}

		var mediaType domain.MediaType
		switch row.get("titleType") {
		case "movie":
			mediaType = domain.Movie
		case "tvSeries":
			mediaType = domain.Series
		default:
			return true
		}
		if row.get("isAdult") != "0" {
			return true
		}
		year, err := strconv.Atoi(row.get("startYear"))
		if err != nil || year < l.filters.MinYear {
			return true
		}
		name := row.get("primaryTitle")
		if name == "" {
			return true
		}

		out[id] = &titleRec{
			name:      name,
			mediaType: mediaType,
			year:      year,
			rating:    r.rating,
			votes:     r.votes,
			genres:    splitList(row.get("genres")),
			countries: make(map[string]struct{}),
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	return out, ctx.Err()
}

// loadRegions collects release regions from the akas dump. Only
// two-letter region codes count; aggregate markers like XWW are kept
// out of the catalog's region ranking.
func (l *Loader) loadRegions(ctx context.Context, recs map[string]*titleRec) error {
	err := scanTSV(l.path(FileAkas), func(row tsvRow) bool {
		if ctx.Err() != nil {
			return false
		}
		rec, ok := recs[row.get("titleId")]
		if !ok {
			return true
		}
		region := row.get("region")
		if len(region) == 2 && region[0] != 'X' {
			rec.countries[region] = struct{}{}
		}
		return true
	})
	if err != nil {
		return err
	}
	return ctx.Err()
}

func (l *Loader) loadDirectors(ctx context.Context, recs map[string]*titleRec) error {
	err := scanTSV(l.path(FileCrew), func(row tsvRow) bool {
		if ctx.Err() != nil {
			return false
		}
		rec, ok := recs[row.get("tconst")]
		if !ok {
			return true
		}
		rec.directors = splitList(row.get("directors"))
		return true
	})
	if err != nil {
		return err
	}
	return ctx.Err()
}

// loadActors keeps the top-billed cast per title. The principals dump
// is ordered by (tconst, ordering), so appending preserves billing.
func (l *Loader) loadActors(ctx context.Context, recs map[string]*titleRec) error {
	err := scanTSV(l.path(FilePrincipals), func(row tsvRow) bool {
		if ctx.Err() != nil {
			return false
		}
		rec, ok := recs[row.get("tconst")]
		if !ok {
			return true
		}
		switch row.get("category") {
		case "actor", "actress":
		default:
			return true
		}
		if len(rec.actors) >= domain.MaxActors {
			return true
		}
		rec.actors = append(rec.actors, row.get("nconst"))
		return true
	})
	if err != nil {
		return err
	}
	return ctx.Err()
}

// resolveNames replaces nconst references with primary names. People
// missing from the names dump are dropped from the credit lists.
func (l *Loader) resolveNames(ctx context.Context, recs map[string]*titleRec) error {
	needed := make(map[string]string)
	for _, rec := range recs {
		for _, n := range rec.directors {
			needed[n] = ""
		}
		for _, n := range rec.actors {
			needed[n] = ""
		}
	}

	err := scanTSV(l.path(FileNames), func(row tsvRow) bool {
		if ctx.Err() != nil {
			return false
		}
		id := row.get("nconst")
		if _, ok := needed[id]; ok {
			needed[id] = row.get("primaryName")
		}
		return true
	})
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	for _, rec := range recs {
		rec.directors = resolve(rec.directors, needed)
		rec.actors = resolve(rec.actors, needed)
	}
	return nil
}

func resolve(ids []string, names map[string]string) []string {
	out := ids[:0]
	for _, id := range ids {
		if name := names[id]; name != "" {
			out = append(out, name)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func (l *Loader) assemble(recs map[string]*titleRec) ([]domain.Title, error) {
	ids := make([]string, 0, len(recs))
	for id := range recs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	titles := make([]domain.Title, 0, len(recs))
	for _, id := range ids {
		rec := recs[id]

		countries := make([]string, 0, len(rec.countries))
		for c := range rec.countries {
			countries = append(countries, c)
		}
		sort.Strings(countries)

		title, err := domain.NewTitle(
			id, rec.mediaType, rec.name,
			rec.genres, rec.directors, rec.actors,
			rec.year, rec.rating, rec.votes, countries,
		)
		if err != nil {
			l.log.Warn("skipping malformed title", zap.String("id", id), zap.Error(err))
			continue
		}
		titles = append(titles, title)
	}

	if len(titles) == 0 {
		return nil, domain.ErrNoQualifyingTitles
	}
	l.log.Info("dataset assembled", zap.Int("titles", len(titles)))
	return titles, nil
}

func (l *Loader) path(name string) string {
	return filepath.Join(l.dataDir, name)
}

package chi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kinocloud/cinedex/internal/domain"
	"github.com/kinocloud/cinedex/internal/index"
	healthuc "github.com/kinocloud/cinedex/internal/usecase/health"
	historyuc "github.com/kinocloud/cinedex/internal/usecase/history"
	recommenduc "github.com/kinocloud/cinedex/internal/usecase/recommend"
)

// fakeHistoryRepo is an in-memory watch log keyed by media type.
type fakeHistoryRepo struct {
	entries map[domain.MediaType][]domain.WatchEntry
}

func newFakeHistoryRepo() *fakeHistoryRepo {
	return &fakeHistoryRepo{entries: make(map[domain.MediaType][]domain.WatchEntry)}
}

func (f *fakeHistoryRepo) Append(_ context.Context, entry domain.WatchEntry) error {
	f.entries[entry.MediaType()] = append(f.entries[entry.MediaType()], entry)
	return nil
}

func (f *fakeHistoryRepo) Recent(_ context.Context, mt domain.MediaType, limit int) ([]domain.WatchEntry, error) {
	entries := append([]domain.WatchEntry(nil), f.entries[mt]...)
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].WatchedAt().After(entries[j].WatchedAt())
	})
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func (f *fakeHistoryRepo) WatchedIDs(_ context.Context, mt domain.MediaType, max int) ([]string, error) {
	ids := make([]string, 0, len(f.entries[mt]))
	for _, e := range f.entries[mt] {
		ids = append(ids, e.TitleID())
	}
	if len(ids) > max {
		ids = ids[:max]
	}
	return ids, nil
}

type fakePinger struct{ err error }

func (f *fakePinger) Ping(context.Context) error { return f.err }

func testIndex(t *testing.T) *index.Index {
	t.Helper()
	mk := func(id string, mt domain.MediaType, name string, genres, directors, countries []string, rating float64) domain.Title {
		title, err := domain.NewTitle(id, mt, name, genres, directors,
			[]string{"Some Actor"}, 2010, rating, 5000, countries)
		if err != nil {
			t.Fatalf("NewTitle(%s): %v", id, err)
		}
		return title
	}
	titles := []domain.Title{
		mk("tt1", domain.Movie, "Lagaan", []string{"Drama", "Sport"}, []string{"Ashutosh Gowariker"}, []string{"IN"}, 8.1),
		mk("tt2", domain.Movie, "Swades", []string{"Drama"}, []string{"Ashutosh Gowariker"}, []string{"IN"}, 8.2),
		mk("tt3", domain.Movie, "Moneyball", []string{"Drama", "Sport"}, []string{"Bennett Miller"}, []string{"US"}, 7.6),
		mk("tt4", domain.Movie, "Clerks", []string{"Comedy"}, []string{"Kevin Smith"}, []string{"US"}, 7.7),
		mk("tt100", domain.Series, "Sacred Games", []string{"Crime"}, []string{"Vikramaditya Motwane"}, []string{"IN"}, 8.5),
		mk("tt101", domain.Series, "Fargo", []string{"Crime"}, []string{"Noah Hawley"}, []string{"US"}, 8.9),
	}
	ix, err := index.Build(titles, index.DefaultSoupWeights())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return ix
}

type fixture struct {
	router http.Handler
	repo   *fakeHistoryRepo
	pinger *fakePinger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ix := testIndex(t)
	repo := newFakeHistoryRepo()
	historySvc := historyuc.New(repo)

	recommendSvc, err := recommenduc.New(ix, historySvc, recommenduc.Params{
		SeedCount:       5,
		PageSize:        10,
		MaxExclusions:   1000,
		PriorityRegions: []string{"IN"},
	})
	if err != nil {
		t.Fatalf("recommend service: %v", err)
	}

	pinger := &fakePinger{}
	server := NewServer(recommendSvc, historySvc, healthuc.New(pinger, ix), ix, zap.NewNop())

	r := chi.NewRouter()
	server.Routes(r)
	return &fixture{router: r, repo: repo, pinger: pinger}
}

func (f *fixture) get(t *testing.T, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response: %v\nbody: %s", err, rec.Body.String())
	}
	return v
}

func TestManifest(t *testing.T) {
	f := newFixture(t)

	rec := f.get(t, "/manifest.json")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	m := decode[manifest](t, rec)
	if m.ID != "org.kinocloud.cinedex" {
		t.Errorf("id = %s", m.ID)
	}
	if len(m.Catalogs) != 2 {
		t.Errorf("catalogs = %d, want 2", len(m.Catalogs))
	}
	if len(m.Resources) != 2 || m.Resources[0] != "catalog" || m.Resources[1] != "meta" {
		t.Errorf("resources = %v", m.Resources)
	}
}

func TestCatalog_ColdStart(t *testing.T) {
	f := newFixture(t)

	rec := f.get(t, "/catalog/movie/"+CatalogID+".json")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	resp := decode[catalogResponse](t, rec)
	if len(resp.Metas) != 0 {
		t.Errorf("cold start must yield empty metas, got %d", len(resp.Metas))
	}
}

func TestCatalog_AfterWatching(t *testing.T) {
	f := newFixture(t)

	// Watching a title via the meta endpoint feeds the catalog.
	if rec := f.get(t, "/meta/movie/tt1.json"); rec.Code != http.StatusOK {
		t.Fatalf("meta status = %d", rec.Code)
	}

	rec := f.get(t, "/catalog/movie/"+CatalogID+".json")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	resp := decode[catalogResponse](t, rec)
	if len(resp.Metas) != 3 {
		t.Fatalf("metas = %d, want 3", len(resp.Metas))
	}
	for _, m := range resp.Metas {
		if m.ID == "tt1" {
			t.Error("watched title must not appear in the catalog")
		}
		if m.Type != "movie" {
			t.Errorf("meta type = %s, want movie", m.Type)
		}
	}
	// Priority region first: the other IN movie leads.
	if resp.Metas[0].ID != "tt2" {
		t.Errorf("first meta = %s, want tt2", resp.Metas[0].ID)
	}
}

func TestCatalog_SkipExtra(t *testing.T) {
	f := newFixture(t)
	f.get(t, "/meta/movie/tt1.json")

	full := decode[catalogResponse](t, f.get(t, "/catalog/movie/"+CatalogID+".json"))
	skipped := decode[catalogResponse](t, f.get(t, "/catalog/movie/"+CatalogID+"/skip=2.json"))

	if len(skipped.Metas) != len(full.Metas)-2 {
		t.Fatalf("skipped metas = %d, want %d", len(skipped.Metas), len(full.Metas)-2)
	}
	if skipped.Metas[0].ID != full.Metas[2].ID {
		t.Errorf("pagination mismatch: %s vs %s", skipped.Metas[0].ID, full.Metas[2].ID)
	}
}

func TestCatalog_BadSkip(t *testing.T) {
	f := newFixture(t)

	rec := f.get(t, "/catalog/movie/"+CatalogID+"/skip=abc.json")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestCatalog_UnknownCatalogID(t *testing.T) {
	f := newFixture(t)

	rec := f.get(t, "/catalog/movie/other-catalog.json")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestCatalog_UnknownMediaType(t *testing.T) {
	f := newFixture(t)

	rec := f.get(t, "/catalog/short/"+CatalogID+".json")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestMeta_ReturnsDetailAndRecordsWatch(t *testing.T) {
	f := newFixture(t)

	rec := f.get(t, "/meta/series/tt100.json")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	resp := decode[map[string]metaDetail](t, rec)
	meta := resp["meta"]
	if meta.Name != "Sacred Games" || meta.Type != "series" {
		t.Errorf("meta = %+v", meta)
	}
	if len(meta.Director) != 1 || meta.Director[0] != "Vikramaditya Motwane" {
		t.Errorf("director = %v", meta.Director)
	}
	if meta.Country != "IN" {
		t.Errorf("country = %s", meta.Country)
	}

	series := f.repo.entries[domain.Series]
	if len(series) != 1 || series[0].TitleID() != "tt100" {
		t.Errorf("watch log = %+v", series)
	}
}

func TestMeta_UnknownTitleStillRecorded(t *testing.T) {
	f := newFixture(t)

	rec := f.get(t, "/meta/movie/tt9999.json")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}

	// The title may simply be outside the index; the watch still counts.
	movies := f.repo.entries[domain.Movie]
	if len(movies) != 1 || movies[0].TitleID() != "tt9999" {
		t.Errorf("watch log = %+v", movies)
	}
}

func TestMeta_MediaTypeMismatch(t *testing.T) {
	f := newFixture(t)

	rec := f.get(t, "/meta/movie/tt100.json") // tt100 is a series
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestHealthz(t *testing.T) {
	f := newFixture(t)

	rec := f.get(t, "/healthz")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	f.pinger.err = context.DeadlineExceeded
	rec = f.get(t, "/healthz")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestCORSMiddleware(t *testing.T) {
	handler := CORSMiddleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/manifest.json", nil))
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("missing CORS header")
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/manifest.json", nil))
	if rec.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want 204", rec.Code)
	}
}

// Package chi exposes the addon protocol over HTTP: a manifest
// describing the catalogs, paginated catalog pages, and per-title
// meta objects. Meta requests double as implicit watch events.
package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kinocloud/cinedex/internal/domain"
	healthuc "github.com/kinocloud/cinedex/internal/usecase/health"
	historyuc "github.com/kinocloud/cinedex/internal/usecase/history"
	recommenduc "github.com/kinocloud/cinedex/internal/usecase/recommend"
	"github.com/kinocloud/cinedex/internal/version"
)

// CatalogID is the single catalog this addon serves.
const CatalogID = "cinedex-foryou"

// TitleLookup resolves catalog IDs against the loaded index.
type TitleLookup interface {
	TitleByID(id string) (domain.Title, error)
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server handles the addon HTTP surface.
type Server struct {
	recommend     *recommenduc.Service
	history       *historyuc.Service
	health        *healthuc.Service
	titles        TitleLookup
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates the addon server.
func NewServer(
	recommend *recommenduc.Service,
	history *historyuc.Service,
	health *healthuc.Service,
	titles TitleLookup,
	logger *zap.Logger,
) *Server {
	s := &Server{
		recommend: recommend,
		history:   history,
		health:    health,
		titles:    titles,
		logger:    logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrUnknownMediaType, http.StatusNotFound, "unknown_media_type"),
		sentinelHandler(domain.ErrTitleNotFound, http.StatusNotFound, "title_not_found"),
	}
	return s
}

// Routes registers the addon endpoints on the given router.
func (s *Server) Routes(r chi.Router) {
	r.Get("/manifest.json", s.Manifest)
	r.Get("/catalog/{mediaType}/{catalogID}.json", s.Catalog)
	r.Get("/catalog/{mediaType}/{catalogID}/{extra}.json", s.Catalog)
	r.Get("/meta/{mediaType}/{titleID}.json", s.Meta)
	r.Get("/healthz", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

// manifestCatalog describes one catalog in the manifest.
type manifestCatalog struct {
	Type string `json:"type"`
	ID   string `json:"id"`
	Name string `json:"name"`
}

type manifest struct {
	ID          string            `json:"id"`
	Version     string            `json:"version"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Resources   []string          `json:"resources"`
	Types       []string          `json:"types"`
	IDPrefixes  []string          `json:"idPrefixes"`
	Catalogs    []manifestCatalog `json:"catalogs"`
}

// Manifest handles GET /manifest.json.
func (s *Server) Manifest(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, manifest{
		ID:          "org.kinocloud.cinedex",
		Version:     strings.TrimPrefix(version.Version, "v"),
		Name:        "CineDex",
		Description: "Personalized recommendations from your watch history",
		Resources:   []string{"catalog", "meta"},
		Types:       []string{domain.Movie.String(), domain.Series.String()},
		IDPrefixes:  []string{"tt"},
		Catalogs: []manifestCatalog{
			{Type: domain.Movie.String(), ID: CatalogID, Name: "For You"},
			{Type: domain.Series.String(), ID: CatalogID, Name: "For You"},
		},
	})
}

// metaPreview is the catalog-row shape of one title.
type metaPreview struct {
	ID          string   `json:"id"`
	Type        string   `json:"type"`
	Name        string   `json:"name"`
	Genres      []string `json:"genres,omitempty"`
	ReleaseInfo string   `json:"releaseInfo,omitempty"`
	IMDBRating  string   `json:"imdbRating,omitempty"`
}

// metaDetail extends the preview with credits for the meta endpoint.
type metaDetail struct {
	metaPreview
	Director []string `json:"director,omitempty"`
	Cast     []string `json:"cast,omitempty"`
	Country  string   `json:"country,omitempty"`
}

type catalogResponse struct {
	Metas []metaPreview `json:"metas"`
}

// Catalog handles GET /catalog/{mediaType}/{catalogID}.json and the
// paginated /catalog/{mediaType}/{catalogID}/{extra}.json variant,
// where extra carries skip=N.
func (s *Server) Catalog(w http.ResponseWriter, r *http.Request) {
	if chi.URLParam(r, "catalogID") != CatalogID {
		writeError(w, http.StatusNotFound, "unknown_catalog", "unknown catalog")
		return
	}

	mediaType, err := domain.ParseMediaType(chi.URLParam(r, "mediaType"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	skip, err := parseSkip(chi.URLParam(r, "extra"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	page, err := s.recommend.ForUser(r.Context(), mediaType, skip)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	metas := make([]metaPreview, len(page))
	for i := range page {
		metas[i] = titleToPreview(&page[i])
	}
	writeJSON(w, http.StatusOK, catalogResponse{Metas: metas})
}

// Meta handles GET /meta/{mediaType}/{titleID}.json. Opening a title
// is the addon's only signal that it is being watched, so every meta
// request is recorded before the lookup.
func (s *Server) Meta(w http.ResponseWriter, r *http.Request) {
	mediaType, err := domain.ParseMediaType(chi.URLParam(r, "mediaType"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	titleID := chi.URLParam(r, "titleID")

	if err := s.history.Append(r.Context(), titleID, mediaType, time.Now()); err != nil {
		s.logger.Warn("history append failed",
			zap.String("title_id", titleID), zap.Error(err))
	}

	title, err := s.titles.TitleByID(titleID)
	if err != nil {
		s.handleDomainError(w, fmt.Errorf("%s: %w", titleID, err))
		return
	}
	if title.MediaType() != mediaType {
		s.handleDomainError(w, fmt.Errorf("%s: %w", titleID, domain.ErrTitleNotFound))
		return
	}

	writeJSON(w, http.StatusOK, map[string]metaDetail{"meta": titleToDetail(&title)})
}

// HealthCheck handles GET /healthz.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, map[string]any{
		"status": report.Status,
		"checks": report.Checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// parseSkip extracts skip=N from the extra path segment. An empty
// segment means the first page.
func parseSkip(extra string) (int, error) {
	if extra == "" {
		return 0, nil
	}
	values, err := url.ParseQuery(extra)
	if err != nil {
		return 0, fmt.Errorf("malformed extra segment %q", extra)
	}
	raw := values.Get("skip")
	if raw == "" {
		return 0, nil
	}
	skip, err := strconv.Atoi(raw)
	if err != nil || skip < 0 {
		return 0, fmt.Errorf("skip must be a non-negative integer, got %q", raw)
	}
	return skip, nil
}

func titleToPreview(t *domain.Title) metaPreview {
	p := metaPreview{
		ID:     t.ID(),
		Type:   t.MediaType().String(),
		Name:   t.Name(),
		Genres: t.Genres(),
	}
	if t.ReleaseYear() > 0 {
		p.ReleaseInfo = strconv.Itoa(t.ReleaseYear())
	}
	if t.RatingAverage() > 0 {
		p.IMDBRating = strconv.FormatFloat(t.RatingAverage(), 'f', 1, 64)
	}
	return p
}

func titleToDetail(t *domain.Title) metaDetail {
	d := metaDetail{
		metaPreview: titleToPreview(t),
		Director:    t.Directors(),
		Cast:        t.TopActors(),
	}
	if countries := t.Countries(); len(countries) > 0 {
		d.Country = strings.Join(countries, ", ")
	}
	return d
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{
		"code":    code,
		"message": message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrUnknownMediaType,
		domain.ErrTitleNotFound,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
}

// CORSMiddleware allows the addon to be installed from web clients.
func CORSMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "*")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

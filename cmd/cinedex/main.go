package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kinocloud/cinedex/internal/config"
	"github.com/kinocloud/cinedex/internal/db"
	dbRedis "github.com/kinocloud/cinedex/internal/db/redis"
	"github.com/kinocloud/cinedex/internal/domain"
	logpkg "github.com/kinocloud/cinedex/internal/logger"
	"github.com/kinocloud/cinedex/internal/metrics"
	artifactrepo "github.com/kinocloud/cinedex/internal/repository/artifact"
	historyrepo "github.com/kinocloud/cinedex/internal/repository/history"
	"github.com/kinocloud/cinedex/internal/sync/trakt"
	chiTransport "github.com/kinocloud/cinedex/internal/transport/chi"
	healthuc "github.com/kinocloud/cinedex/internal/usecase/health"
	historyuc "github.com/kinocloud/cinedex/internal/usecase/history"
	recommenduc "github.com/kinocloud/cinedex/internal/usecase/recommend"
	"github.com/kinocloud/cinedex/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load config:", err)
		os.Exit(1)
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to create logger:", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting cinedex addon server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.Strings("db_addrs", cfg.Database.Addrs),
		zap.String("artifacts_dir", cfg.Artifacts.Dir),
	)

	// Both supported drivers speak the same protocol; one client serves both.
	var store db.Store
	switch cfg.Database.Driver {
	case "redis", "valkey":
		store, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Database.Addrs,
			Password: cfg.Database.Password,
		})
	default:
		logger.Fatal("Unknown database driver", zap.String("driver", cfg.Database.Driver))
	}
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Load the precomputed index; the server is useless without it.
	ix, err := artifactrepo.Load(cfg.Artifacts.Dir)
	if err != nil {
		logger.Fatal("Failed to load index artifacts",
			zap.String("dir", cfg.Artifacts.Dir), zap.Error(err))
	}
	logger.Info("Index loaded",
		zap.Int("titles", ix.Len()),
		zap.Int("terms", ix.Vectorizer().Dims()),
	)

	// Register metrics explicitly (no init())
	metrics.RegisterCoreMetrics()
	countByType := make(map[domain.MediaType]int)
	for _, t := range ix.Titles() {
		countByType[t.MediaType()]++
	}
	for mt, n := range countByType {
		metrics.IndexedTitles.WithLabelValues(mt.String()).Set(float64(n))
	}

	// Repositories and use case services — composition root
	histRepo := historyrepo.New(store, cfg.Storage.KeyPrefix)
	historySvc := historyuc.New(histRepo)

	recommendSvc, err := recommenduc.New(ix, historySvc, recommenduc.Params{
		SeedCount:       cfg.Catalog.SeedCount,
		PageSize:        cfg.Catalog.PageSize,
		MaxExclusions:   cfg.Catalog.MaxExclusions,
		PriorityRegions: cfg.Catalog.PriorityRegions,
		RecencyDecay:    cfg.Catalog.RecencyDecay,
	})
	if err != nil {
		logger.Fatal("Failed to create recommendation service", zap.Error(err))
	}

	healthSvc := healthuc.New(store, ix)

	server := chiTransport.NewServer(recommendSvc, historySvc, healthSvc, ix, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.CORSMiddleware)
	r.Use(metrics.Middleware())
	server.Routes(r)

	// Optional background sync from Trakt
	syncCtx, stopSync := context.WithCancel(ctx)
	defer stopSync()
	if cfg.Trakt.Enabled() {
		client := trakt.NewClient(cfg.Trakt.BaseURL, cfg.Trakt.ClientID, cfg.Trakt.Username, cfg.Trakt.PageLimit)
		worker := trakt.NewWorker(client, historySvc,
			time.Duration(cfg.Trakt.PollIntervalSec)*time.Second, logger)
		go worker.Run(syncCtx)
		logger.Info("Trakt sync enabled",
			zap.String("username", cfg.Trakt.Username),
			zap.Int("interval_sec", cfg.Trakt.PollIntervalSec),
		)
	}

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")
	stopSync()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}

// Command cinedex-index builds the similarity index artifacts from
// the public dataset dumps. Run it offline; the addon server only
// reads the artifacts it writes.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kinocloud/cinedex/internal/config"
	"github.com/kinocloud/cinedex/internal/index"
	"github.com/kinocloud/cinedex/internal/ingest"
	logpkg "github.com/kinocloud/cinedex/internal/logger"
	artifactrepo "github.com/kinocloud/cinedex/internal/repository/artifact"
	"github.com/kinocloud/cinedex/internal/version"
)

func main() {
	skipDownload := flag.Bool("skip-download", false, "use the local dataset directory as-is")
	flag.Parse()

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

	logger.Info("Starting index build",
		zap.String("version", version.Version),
		zap.String("dataset_dir", cfg.Build.DatasetDir),
		zap.String("artifacts_dir", cfg.Artifacts.Dir),
		zap.Int("min_votes", cfg.Build.MinVotes),
		zap.Int("min_year", cfg.Build.MinYear),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !*skipDownload {
		downloader := ingest.NewDownloader(
			cfg.Build.DatasetURL, cfg.Build.DatasetDir,
			time.Duration(cfg.Build.HTTPTimeout)*time.Second, logger,
		)
		if err := downloader.FetchAll(ctx); err != nil {
			logger.Fatal("Dataset download failed", zap.Error(err))
		}
	}

	loader := ingest.NewLoader(cfg.Build.DatasetDir, ingest.Filters{
		MinVotes: cfg.Build.MinVotes,
		MinYear:  cfg.Build.MinYear,
	}, logger)

	titles, err := loader.Load(ctx)
	if err != nil {
		logger.Fatal("Dataset load failed", zap.Error(err))
	}

	start := time.Now()
	ix, err := index.Build(titles, index.SoupWeights{
		Genre:     cfg.Soup.GenreWeight,
		Director:  cfg.Soup.DirectorWeight,
		Actor:     cfg.Soup.ActorWeight,
		MaxActors: cfg.Soup.MaxActors,
	})
	if err != nil {
		logger.Fatal("Index build failed", zap.Error(err))
	}
	logger.Info("Index built",
		zap.Int("titles", ix.Len()),
		zap.Int("terms", ix.Vectorizer().Dims()),
		zap.Int("nnz", ix.Matrix().NNZ()),
		zap.Duration("took", time.Since(start)),
	)

	if err := artifactrepo.Save(cfg.Artifacts.Dir, ix); err != nil {
		logger.Fatal("Artifact write failed", zap.Error(err))
	}
	logger.Info("Artifacts written", zap.String("dir", cfg.Artifacts.Dir))
}

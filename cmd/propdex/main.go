package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/propdex/internal/config"
	dbRedis "github.com/kailas-cloud/propdex/internal/db/redis"
	"github.com/kailas-cloud/propdex/internal/domain/resourcetype"
	"github.com/kailas-cloud/propdex/internal/index/fields"
	"github.com/kailas-cloud/propdex/internal/index/mapper"
	"github.com/kailas-cloud/propdex/internal/index/memory"
	"github.com/kailas-cloud/propdex/internal/index/querybuild"
	logpkg "github.com/kailas-cloud/propdex/internal/logger"
	"github.com/kailas-cloud/propdex/internal/metrics"
	indexrepo "github.com/kailas-cloud/propdex/internal/repository/index"
	healthuc "github.com/kailas-cloud/propdex/internal/usecase/health"
	searchuc "github.com/kailas-cloud/propdex/internal/usecase/search"
	"github.com/kailas-cloud/propdex/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting propdex",
		zap.String("build", version.String()),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.Strings("db_addrs", cfg.Database.Addrs),
		zap.String("types", cfg.Types.Path),
	)

	metrics.RegisterIndexMetrics()
	metrics.RegisterHTTPMetrics()

	tree, err := resourcetype.LoadFile(cfg.Types.Path)
	if err != nil {
		logger.Fatal("Failed to load resource types", zap.Error(err))
	}
	logger.Info("Resource types loaded", zap.Int("types", len(tree.Types())))

	// Validated by config.Load
	locale, _ := cfg.Index.Language()
	loc, _ := cfg.Index.Location()
	codec := fields.NewCodec(locale, loc)
	m := mapper.New(tree, codec, mapper.WithLogger(logger.Named("mapper")))
	compiler := querybuild.New(codec, querybuild.WithLogger(logger.Named("query")))

	ctx := context.Background()

	// Pass nil interfaces (not typed nil pointers) to health when a component is absent.
	var (
		engine  searchuc.Engine
		pinger  healthuc.DBPinger
		checker healthuc.IndexChecker
		repo    *indexrepo.Repo
	)
	switch cfg.Database.Driver {
	case config.DriverRedis:
		store, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Database.Addrs,
			Password: cfg.Database.Password,
		})
		if err != nil {
			logger.Fatal("Failed to create database store", zap.Error(err))
		}
		defer store.Close()

		if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
			logger.Fatal("Database not ready", zap.Error(err))
		}
		logger.Info("Connected to database")

		schema, err := indexrepo.BuildSchema(cfg.Index.Name, cfg.Index.KeyPrefix, tree.Definitions())
		if err != nil {
			logger.Fatal("Invalid index schema", zap.Error(err))
		}
		repo = indexrepo.New(store, schema,
			indexrepo.WithLogger(logger.Named("index")), indexrepo.WithMaxResults(cfg.Index.MaxResults),
			indexrepo.WithQueryTimeout(cfg.Index.QueryTimeout))
		created, err := repo.EnsureIndex(ctx)
		if err != nil {
			logger.Fatal("Failed to ensure search index", zap.Error(err))
		}
		logger.Info("Search index ready", zap.String("index", schema.Name()), zap.Bool("created", created))

		engine, pinger, checker = repo, store, repo
	default:
		engine = memory.New(memory.WithLogger(logger.Named("index")))
	}

	// Resource type changes invalidate the mapper caches and re-derive the index schema.
	cancelWatch := tree.OnChange(func() {
		m.Invalidate()
		if repo == nil {
			return
		}
		schema, err := indexrepo.BuildSchema(cfg.Index.Name, cfg.Index.KeyPrefix, tree.Definitions())
		if err != nil {
			logger.Error("Rebuilding index schema failed", zap.Error(err))
			return
		}
		repo.SetSchema(schema)
		if _, err := repo.EnsureIndex(context.Background()); err != nil {
			logger.Error("Applying index schema failed", zap.Error(err))
		}
	})
	defer cancelWatch()

	searchSvc := searchuc.New(engine, m, compiler,
		searchuc.WithLogger(logger.Named("search")),
		searchuc.WithLimits(cfg.Index.DefaultPageSize, cfg.Index.MaxPageSize))
	healthSvc := healthuc.New(pinger, checker)

	r := newOpsRouter(healthSvc, searchSvc, logger)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// SIGHUP reloads the resource types; SIGINT/SIGTERM shut down.
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	go func() {
		for range hup {
			reloadTypes(tree, cfg.Types.Path, logger)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting ops HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")
	signal.Stop(hup)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// reloadTypes re-reads the resource type file. The previous tree stays active on error.
func reloadTypes(tree *resourcetype.Tree, path string, logger *zap.Logger) {
	types, namespaces, err := resourcetype.ReadFile(path)
	if err != nil {
		logger.Error("Reading resource types failed", zap.String("path", path), zap.Error(err))
		return
	}
	if err := tree.Reload(types, namespaces); err != nil {
		logger.Error("Reloading resource types failed", zap.String("path", path), zap.Error(err))
		return
	}
	logger.Info("Resource types reloaded", zap.Int("types", len(tree.Types())))
}

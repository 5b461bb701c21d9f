package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"theneighbor/api/internal/cache"
	"theneighbor/api/internal/config"
	"theneighbor/api/internal/database"
	"theneighbor/api/internal/handlers"
	"theneighbor/api/internal/imagegen"
	"theneighbor/api/internal/jobs"
	"theneighbor/api/internal/log"
	"theneighbor/api/internal/metrics"
	"theneighbor/api/internal/repository"
	"theneighbor/api/internal/server"
	"theneighbor/api/internal/service"
	"theneighbor/api/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment)

	ctx := context.Background()

	dbPool, err := database.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect postgres")
	}
	if err := database.EnsureSchema(ctx, dbPool); err != nil {
		logger.Fatal().Err(err).Msg("failed to apply schema")
	}

	objectStore, err := storage.NewObjectStore(cfg.Storage)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init object store")
	}
	if err := objectStore.EnsureBucket(ctx); err != nil {
		logger.Warn().Err(err).Str("bucket", cfg.Storage.Bucket).Msg("ensure bucket failed")
	}

	deps := handlers.Dependencies{Database: dbPool, Storage: objectStore}

	var listingCache service.ListingCache
	redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		logger.Warn().Err(err).Msg("redis unavailable, community listing served uncached")
	} else {
		lc := cache.NewListingCache(redisClient, cfg.Redis.ListingTTL)
		listingCache = lc
		deps.Cache = lc
	}

	m := metrics.New()
	members := repository.NewMemberRepository(dbPool)
	listing := service.NewListingService(members, listingCache, logger)
	submissions := service.NewSubmissionService(
		imagegen.New(cfg.ImageGen),
		objectStore,
		members,
		listing,
		cfg,
		m,
		logger,
	)

	handlerSet := handlers.NewHandlerSet(logger, cfg, submissions, listing, deps, m)
	httpServer := server.NewHTTPServer(cfg, logger, m, handlerSet)

	var scheduler *jobs.Scheduler
	if listingCache != nil {
		scheduler = jobs.NewScheduler(listing, cfg.Jobs.CacheWarmSpec, logger)
		if err := scheduler.Start(); err != nil {
			logger.Error().Err(err).Str("spec", cfg.Jobs.CacheWarmSpec).Msg("scheduler start failed")
		}
	}

	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	waitForShutdown(logger, httpServer, scheduler, dbPool, redisClient)
}

func waitForShutdown(logger zerolog.Logger, srv *server.HTTPServer, scheduler *jobs.Scheduler, db *pgxpool.Pool, redisClient *redis.Client) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	if scheduler != nil {
		select {
		case <-scheduler.Stop().Done():
		case <-shutdownCtx.Done():
			logger.Warn().Msg("cache warm-up still running at shutdown")
		}
	}

	db.Close()
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("redis close error")
		}
	}

	logger.Info().Msg("server exited cleanly")
}

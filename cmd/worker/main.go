package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"vinyldex/internal/config"
	"vinyldex/internal/database"
	"vinyldex/internal/jobs"
	"vinyldex/internal/logging"
	"vinyldex/internal/metadata"
	"vinyldex/internal/services"
)

// WorkerServer handles background job processing
type WorkerServer struct {
	srv      *asynq.Server
	enricher *jobs.Enricher
	logger   *logging.Logger
}

// NewWorkerServer creates a new worker server
func NewWorkerServer() (*WorkerServer, error) {
	cfg, err := config.NewConfigLoader().Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := logging.NewLogger(logging.LogLevel(cfg.Log.Level), os.Stdout)

	dbManager, err := database.NewDatabaseManager(&cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	repo := services.NewRepository(dbManager.GetGormDB())

	var discogs services.DiscogsProvider
	if cfg.Discogs.Token != "" {
		discogs = metadata.NewDiscogsClient(cfg.Discogs.Token, cfg.Discogs.UserAgent, int(cfg.Discogs.RequestsPerMinute))
	} else {
		logger.Warn().Msg("Discogs token not configured; Discogs lookups disabled")
	}

	var spotify services.SpotifyProvider
	if cfg.Spotify.ClientID != "" && cfg.Spotify.ClientSecret != "" {
		client, err := metadata.NewSpotifyClient(context.Background(), cfg.Spotify.ClientID, cfg.Spotify.ClientSecret)
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to build Spotify client")
		} else {
			spotify = client
		}
	}

	var cache metadata.Cache = metadata.NoopCache{}
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		logger.Warn().Err(err).Msg("Redis cache unavailable; job lookups will be uncached")
		redisClient.Close()
	} else {
		cache = metadata.NewRedisCache(redisClient, cfg.Lookup.CacheTTL)
	}

	lookup := services.NewLookupService(repo, discogs, spotify, cache, logger)
	enricher := jobs.NewEnricher(repo, lookup, logger)

	srv := asynq.NewServer(
		asynq.RedisClientOpt{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB},
		asynq.Config{
			Queues:      jobs.QueuePriorities,
			Concurrency: 10,
		},
	)

	return &WorkerServer{
		srv:      srv,
		enricher: enricher,
		logger:   logger,
	}, nil
}

// Start runs the worker until it is signalled to stop
func (w *WorkerServer) Start() error {
	mux := asynq.NewServeMux()
	mux.HandleFunc(jobs.TypeRecordEnrich, w.enricher.HandleRecordEnrich)

	w.logger.Info().Msg("Starting worker server")
	if err := w.srv.Run(mux); err != nil {
		return fmt.Errorf("failed to start worker server: %w", err)
	}
	return nil
}

func main() {
	worker, err := NewWorkerServer()
	if err != nil {
		log.Fatal("Failed to initialize worker: ", err)
	}

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		worker.logger.Info().Msg("Shutting down worker...")
		worker.srv.Shutdown()
	}()

	if err := worker.Start(); err != nil {
		log.Fatal(err)
	}
}

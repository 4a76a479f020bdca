package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"vinyldex/internal/config"
	"vinyldex/internal/database"
	"vinyldex/internal/handlers"
	"vinyldex/internal/jobs"
	"vinyldex/internal/logging"
	"vinyldex/internal/metadata"
	"vinyldex/internal/middleware"
	"vinyldex/internal/services"
)

// Version of the application
var Version = "1.0.0"

func main() {
	configLoader := config.NewConfigLoader()
	appConfig, err := configLoader.Load()
	if err != nil {
		log.Fatal("Failed to load configuration: ", err)
	}
	if appConfig.JWT.Secret == "" {
		log.Fatal("VINYLDEX_JWT_SECRET must be set")
	}

	logger := logging.NewLogger(logging.LogLevel(appConfig.Log.Level), os.Stdout)

	dbManager, err := database.NewDatabaseManager(&appConfig.Database, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer dbManager.Close()
	db := dbManager.GetGormDB()

	if err := database.NewMigrationManager(db, logger).Migrate(); err != nil {
		logger.Fatal().Err(err).Msg("Failed to run migrations")
	}
	seedInitialData(db, logger)

	redisClient := redis.NewClient(&redis.Options{
		Addr:     appConfig.Redis.Addr,
		Password: appConfig.Redis.Password,
		DB:       appConfig.Redis.DB,
		PoolSize: appConfig.Redis.PoolSize,
	})
	// Cache and jobs stay off for the process lifetime when Redis is down
	// at startup; restart once it is back
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		logger.Warn().Err(err).Msg("Redis unavailable; lookup cache and background jobs disabled")
		redisClient.Close()
		redisClient = nil
	}

	repo := services.NewRepository(db)
	authService := services.NewAuthService(db, appConfig.JWT.Secret, appConfig.JWT.AccessExpiry, appConfig.JWT.RefreshExpiry)
	lookupService := buildLookupService(appConfig, repo, redisClient, logger)

	var enqueuer handlers.RecordEnqueuer
	if redisClient != nil {
		e := jobs.NewEnqueuer(asynq.RedisClientOpt{
			Addr:     appConfig.Redis.Addr,
			Password: appConfig.Redis.Password,
			DB:       appConfig.Redis.DB,
		})
		defer e.Close()
		enqueuer = e
	}

	app := fiber.New(fiber.Config{
		ServerHeader: "Vinyldex",
		AppName:      "Vinyldex v" + Version,
		ReadTimeout:  appConfig.Server.ReadTimeout,
		WriteTimeout: appConfig.Server.WriteTimeout,
		IdleTimeout:  appConfig.Server.IdleTimeout,
	})

	app.Use(recover.New())
	app.Use(helmet.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(appConfig.Server.CORS.AllowOrigins, ","),
		AllowMethods:     strings.Join(appConfig.Server.CORS.AllowMethods, ","),
		AllowHeaders:     strings.Join(appConfig.Server.CORS.AllowHeaders, ","),
		AllowCredentials: appConfig.Server.CORS.AllowCredentials,
	}))
	app.Use(logger.FiberLoggerMiddleware())
	app.Use(middleware.MetricsMiddleware())

	registerRoutes(app, db, redisClient, repo, authService, lookupService, enqueuer, logger)

	// Graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		logger.Info().Msg("Shutting down gracefully...")
		if err := app.Shutdown(); err != nil {
			logger.Error().Err(err).Msg("Error during shutdown")
		}
	}()

	addr := fmt.Sprintf("%s:%d", appConfig.Server.Host, appConfig.Server.Port)
	logger.Info().Str("addr", addr).Msg("Starting server")
	if err := app.Listen(addr); err != nil {
		logger.Error().Err(err).Msg("Error starting server")
	}
}

func registerRoutes(
	app *fiber.App,
	db *gorm.DB,
	redisClient *redis.Client,
	repo *services.Repository,
	authService *services.AuthService,
	lookupService *services.LookupService,
	enqueuer handlers.RecordEnqueuer,
	logger *logging.Logger,
) {
	authMiddleware := middleware.NewAuthMiddleware(authService)
	rateLimits := middleware.DefaultRateLimiterConfig()

	authHandler := handlers.NewAuthHandler(authService)
	recordsHandler := handlers.NewRecordsHandler(repo, enqueuer, logger)
	columnsHandler := handlers.NewColumnsHandler(repo)
	viewsHandler := handlers.NewViewsHandler(repo)
	lookupHandler := handlers.NewLookupHandler(lookupService, repo)
	adminHandler := handlers.NewAdminHandler(repo)
	healthHandler := handlers.NewHealthHandler(db, redisClient)
	metricsHandler := handlers.NewMetricsHandler()

	app.Get("/healthz", healthHandler.HealthCheck)
	app.Get("/metrics", metricsHandler.Metrics())

	auth := app.Group("/api/v1/auth", middleware.NewAuthRateLimiter(rateLimits))
	auth.Post("/login", authHandler.Login)
	auth.Post("/refresh", authHandler.Refresh)

	api := app.Group("/api/v1", middleware.NewRateLimiter(rateLimits), authMiddleware.RequireAuth())
	api.Get("/auth/me", authHandler.Me)

	api.Get("/records", recordsHandler.ListRecords)
	api.Post("/records", recordsHandler.CreateRecord)
	api.Get("/records/export", recordsHandler.ExportRecords)
	api.Get("/records/:id", recordsHandler.GetRecord)
	api.Put("/records/:id", recordsHandler.UpdateRecord)
	api.Delete("/records/:id", recordsHandler.DeleteRecord)
	api.Post("/records/:id/enrich", recordsHandler.EnrichRecord)
	api.Put("/records/:id/values/:columnId", columnsHandler.SetValue)
	api.Delete("/records/:id/values/:columnId", columnsHandler.DeleteValue)

	api.Get("/columns", columnsHandler.ListColumns)
	api.Post("/columns", columnsHandler.CreateColumn)
	api.Put("/columns/:id", columnsHandler.UpdateColumn)
	api.Delete("/columns/:id", columnsHandler.DeleteColumn)

	api.Get("/views", viewsHandler.ListViews)
	api.Post("/views", viewsHandler.CreateView)
	api.Put("/views/:id", viewsHandler.UpdateView)
	api.Delete("/views/:id", viewsHandler.DeleteView)

	// IP limit before auth, per-user limit after
	lookup := app.Group("/api/v1/lookup",
		middleware.NewLookupRateLimiter(rateLimits),
		authMiddleware.RequireAuth(),
		middleware.RateLimitByUser(rateLimits.LookupLimit, rateLimits.LookupWindow),
	)
	lookup.Get("/discogs", lookupHandler.DiscogsSearch)
	lookup.Get("/discogs/releases/:id", lookupHandler.DiscogsRelease)
	lookup.Get("/spotify", lookupHandler.SpotifySearch)
	lookup.Get("/barcode", lookupHandler.BarcodeLookup)

	admin := api.Group("/admin", authMiddleware.AdminOnly())
	admin.Get("/lookup-events", adminHandler.ListLookupEvents)
}

// buildLookupService wires the providers that have credentials configured
func buildLookupService(appConfig *config.AppConfig, repo *services.Repository, redisClient *redis.Client, logger *logging.Logger) *services.LookupService {
	var discogs services.DiscogsProvider
	if appConfig.Discogs.Token != "" {
		discogs = metadata.NewDiscogsClient(
			appConfig.Discogs.Token,
			appConfig.Discogs.UserAgent,
			int(appConfig.Discogs.RequestsPerMinute),
		)
	} else {
		logger.Warn().Msg("Discogs token not configured; Discogs lookups disabled")
	}

	var spotify services.SpotifyProvider
	if appConfig.Spotify.ClientID != "" && appConfig.Spotify.ClientSecret != "" {
		client, err := metadata.NewSpotifyClient(context.Background(), appConfig.Spotify.ClientID, appConfig.Spotify.ClientSecret)
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to build Spotify client")
		} else {
			spotify = client
		}
	} else {
		logger.Warn().Msg("Spotify credentials not configured; Spotify lookups disabled")
	}

	var cache metadata.Cache = metadata.NoopCache{}
	if redisClient != nil {
		cache = metadata.NewRedisCache(redisClient, appConfig.Lookup.CacheTTL)
	}

	return services.NewLookupService(repo, discogs, spotify, cache, logger)
}

// seedInitialData creates the first admin account and its starter columns on
// an empty database. Controlled by VINYLDEX_ADMIN_USERNAME / _PASSWORD.
func seedInitialData(db *gorm.DB, logger *logging.Logger) {
	username := os.Getenv("VINYLDEX_ADMIN_USERNAME")
	password := os.Getenv("VINYLDEX_ADMIN_PASSWORD")
	if username == "" || password == "" {
		return
	}

	if err := database.SeedAdminUser(db, username, password); err != nil {
		logger.Warn().Err(err).Msg("Failed to seed admin user")
		return
	}

	repo := services.NewRepository(db)
	admin, err := repo.GetUserByUsername(username)
	if err != nil {
		return
	}
	if err := database.SeedStarterColumns(db, admin.ID); err != nil {
		logger.Warn().Err(err).Msg("Failed to seed starter columns")
	}
}

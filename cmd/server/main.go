package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/jcorriveau23/backend-pool-nhl/internal/api"
	"github.com/jcorriveau23/backend-pool-nhl/internal/api/handlers"
	"github.com/jcorriveau23/backend-pool-nhl/internal/api/middleware"
	"github.com/jcorriveau23/backend-pool-nhl/internal/auth"
	"github.com/jcorriveau23/backend-pool-nhl/internal/draft"
	"github.com/jcorriveau23/backend-pool-nhl/internal/pool"
	"github.com/jcorriveau23/backend-pool-nhl/internal/services"
	"github.com/jcorriveau23/backend-pool-nhl/internal/store"
	gormstore "github.com/jcorriveau23/backend-pool-nhl/internal/store/gorm"
	"github.com/jcorriveau23/backend-pool-nhl/internal/store/memory"
	"github.com/jcorriveau23/backend-pool-nhl/pkg/config"
	"github.com/jcorriveau23/backend-pool-nhl/pkg/database"
	"github.com/jcorriveau23/backend-pool-nhl/pkg/logger"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	structuredLogger := logger.InitLogger()
	structuredLogger.WithFields(logrus.Fields{
		"version":     "1.0.0",
		"environment": cfg.Env,
	}).Info("Starting backend-pool-nhl")

	if cfg.IsDevelopment() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	season := pool.SeasonConstants{
		StartSeasonDate:    cfg.StartSeasonDate,
		EndSeasonDate:      cfg.EndSeasonDate,
		PoolCreationSeason: cfg.PoolCreationSeason,
		TradeDeadlineDate:  cfg.TradeDeadlineDate,
	}

	// Redis: backs the simulated stats feed's response cache.
	var cacheService *services.CacheService
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logrus.Fatalf("Failed to parse Redis URL: %v", err)
	}
	redisClient := redis.NewClient(opt)
	ctx := context.Background()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logrus.Warnf("Redis unreachable at startup, caching disabled: %v", err)
	} else {
		cacheService = services.NewCacheService(redisClient)
		defer redisClient.Close()
	}

	// Store Port: GORM-backed in production, in-memory when no database is
	// reachable (local dev, or DATABASE_URL left at its placeholder default).
	var poolStore store.PoolStore
	db, err := database.NewConnection(cfg.DatabaseURL, cfg.IsDevelopment())
	if err != nil {
		logrus.Warnf("Database unreachable, falling back to the in-memory store: %v", err)
		poolStore = memory.New()
	} else {
		defer db.Close()
		gormStore, err := gormstore.New(db.DB)
		if err != nil {
			logrus.Fatalf("Failed to migrate pool store schema: %v", err)
		}
		poolStore = gormStore
	}
	poolStore = store.Serialize(poolStore)

	// Auth: a JWKS-backed validator against an external identity provider,
	// or a locally-issued HS256 token validator for standalone deployments.
	var validator draft.TokenValidator
	if cfg.UseJWKSAuth {
		validator = auth.NewJWKSValidator(cfg.JWKSURL)
	} else {
		validator = auth.NewLocalIssuer(cfg.JWTSecret, cfg.JWTTokenTTL)
	}

	registry := draft.NewRegistry(validator)
	dispatcher := draft.NewDispatcher(registry, poolStore)

	// Scheduler: simulated daily score ingestion + nightly trade sweep.
	statsFeed := services.NewStatsFeedClient(cfg.StatsFeedURL, cacheService, cfg.StatsFeedTimeout)
	scheduler := services.NewScheduler(poolStore, statsFeed, cfg.PoolCreationSeason)
	if err := scheduler.Start(cfg.ScoreIngestionCron, cfg.TradeDeadlineSweepCron); err != nil {
		logrus.Fatalf("Failed to start scheduler: %v", err)
	}
	defer scheduler.Stop()

	poolHandler := handlers.NewPoolHandler(poolStore, registry, season)
	healthHandler := handlers.NewHealthHandler(registry)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.CORS(cfg.CorsOrigins))

	apiV1 := router.Group("/api/v1")
	api.SetupRoutes(router, apiV1, registry, dispatcher, validator, poolHandler, healthHandler,
		cfg.CommandRateLimitPerSecond, cfg.CommandRateLimitBurst)

	logrus.Info("=== REGISTERED ROUTES ===")
	for _, route := range router.Routes() {
		logrus.Infof("%s %s", route.Method, route.Path)
	}
	logrus.Info("=========================")

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logrus.Infof("Starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
	}

	logrus.Info("Server exited")
}

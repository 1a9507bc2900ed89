// Package app wires the recommendation core's components into a runnable
// HTTP server: config -> database -> vectorstore -> scoring -> cache ->
// recommendation service -> router.
package app

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/temcen/recoforge/internal/cache"
	"github.com/temcen/recoforge/internal/config"
	"github.com/temcen/recoforge/internal/database"
	"github.com/temcen/recoforge/internal/events"
	"github.com/temcen/recoforge/internal/features"
	"github.com/temcen/recoforge/internal/handlers"
	"github.com/temcen/recoforge/internal/metrics"
	"github.com/temcen/recoforge/internal/middleware"
	"github.com/temcen/recoforge/internal/profileupdater"
	"github.com/temcen/recoforge/internal/recommendation"
	"github.com/temcen/recoforge/internal/scoring"
	"github.com/temcen/recoforge/internal/services"
	"github.com/temcen/recoforge/internal/vectorstore"
	"github.com/temcen/recoforge/pkg/models"
)

// App bundles every wired component and the gin router built from them.
type App struct {
	config    *config.Config
	logger    *logrus.Logger
	db        *database.Database
	updater   *profileupdater.Updater
	refresher *scoring.Refresher
	producer  *events.Producer
	metrics   *metrics.Collector
	router    *gin.Engine
}

func New(cfg *config.Config) (*App, error) {
	app := &App{
		config: cfg,
		logger: setupLogger(cfg),
	}

	db, err := database.New(cfg, app.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	extractor := features.New(&cfg.Feature, app.logger)
	store := vectorstore.New(db.PG, cfg, app.logger)
	cacheLayer := cache.New(db.Redis, &cfg.Cache, app.logger)

	weightOf := func(interactionType string) float64 {
		if w, ok := models.DefaultInteractionWeights()[interactionType]; ok {
			return w
		}
		return models.UnregisteredInteractionWeight
	}
	content := scoring.NewContent(store, &cfg.Algorithm, cfg.Queue.ContentHalfLife, weightOf, app.logger)
	trending := scoring.NewTrending(store, &cfg.Algorithm.Trending, app.logger)
	coldStart := scoring.NewColdStart(store, content, trending, app.logger)
	collab := scoring.NewCollaborative(store, coldStart, &cfg.Algorithm, app.logger)
	hybrid := scoring.NewHybrid(collab, content, cfg.Algorithm.Tiers)

	metricsCollector := metrics.New()
	app.metrics = metricsCollector

	updater := profileupdater.New(store, &cfg.Queue, &cfg.Algorithm, app.logger, metricsCollector)
	updater.Start()
	app.updater = updater

	refresher := scoring.NewRefresher(store, &cfg.Algorithm.Trending, weightOf, app.logger)
	refresher.Start()
	app.refresher = refresher

	producer := events.NewProducer(&cfg.Kafka, app.logger)
	app.producer = producer

	recSvc := recommendation.New(store, cacheLayer, collab, content, hybrid, trending, coldStart, updater, cfg, app.logger, metricsCollector)
	entitySvc := services.NewEntityService(store, extractor, app.logger)
	interactionSvc := services.NewInteractionService(store, updater, producer, app.logger)

	app.setupRouter(recSvc, entitySvc, interactionSvc, db)

	return app, nil
}

func (a *App) Router() *gin.Engine {
	return a.router
}

// Shutdown drains the profile-update queue, stops the trending refresh job,
// closes the Kafka writer, and closes both storage backends, in that order
// so no write is lost mid-flush.
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("shutting down")
	a.updater.Stop()
	a.refresher.Stop()
	if err := a.producer.Close(); err != nil {
		a.logger.WithError(err).Error("error closing event producer")
	}
	if err := a.db.Close(); err != nil {
		a.logger.WithError(err).Error("error closing database connections")
		return err
	}
	return nil
}

func setupLogger(cfg *config.Config) *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.Logging.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	return logger
}

func (a *App) setupRouter(recSvc *recommendation.Service, entitySvc *services.EntityService, interactionSvc *services.InteractionService, db *database.Database) {
	if a.config.Server.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.Logger(a.logger))
	router.Use(middleware.Recovery(a.logger))
	router.Use(middleware.Tenant())

	health := handlers.NewHealthHandler(db.PG, redisPinger{db.Redis})
	router.GET("/health", health.Check)
	router.GET("/metrics", handlers.Metrics())

	recHandler := handlers.NewRecommendationHandler(recSvc, a.logger)
	entityHandler := handlers.NewEntityHandler(entitySvc, a.logger)
	interactionHandler := handlers.NewInteractionHandler(interactionSvc, a.logger)

	api := router.Group("/api/v1")
	{
		recommendations := api.Group("/recommendations")
		{
			recommendations.GET("/users/:userId", recHandler.GetUserRecommendations)
			recommendations.GET("/entities/:entityId/similar", recHandler.GetSimilarEntities)
			recommendations.GET("/trending", recHandler.GetTrendingEntities)
		}

		entities := api.Group("/entities")
		{
			entities.POST("", entityHandler.Upsert)
			entities.POST("/batch", entityHandler.BulkUpsert)
			entities.GET("/:entityId", entityHandler.Get)
			entities.DELETE("/:entityId", entityHandler.Delete)
		}

		interactions := api.Group("/interactions")
		{
			interactions.POST("", interactionHandler.Record)
			interactions.POST("/batch", interactionHandler.BulkRecord)
		}
		api.GET("/users/:userId/interactions", interactionHandler.History)
	}

	a.router = router
}

// redisPinger adapts *redis.Client to handlers.Pinger: go-redis's Ping
// returns a *StatusCmd rather than a bare error. *pgxpool.Pool already
// satisfies handlers.Pinger directly.
type redisPinger struct {
	client *redis.Client
}

func (r redisPinger) Ping(ctx context.Context) error { return r.client.Ping(ctx).Err() }

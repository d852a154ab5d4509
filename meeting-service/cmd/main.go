package main

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/gavinvoiceai/meetflow-saas/meeting-service/internal/cache"
	"github.com/gavinvoiceai/meetflow-saas/meeting-service/internal/config"
	"github.com/gavinvoiceai/meetflow-saas/meeting-service/internal/domain"
	"github.com/gavinvoiceai/meetflow-saas/meeting-service/internal/handler"
	"github.com/gavinvoiceai/meetflow-saas/meeting-service/internal/repository"
	"github.com/gavinvoiceai/meetflow-saas/meeting-service/internal/service"
	"github.com/gavinvoiceai/meetflow-saas/pkg/database"
	"github.com/gavinvoiceai/meetflow-saas/pkg/idgen"
	"github.com/gavinvoiceai/meetflow-saas/pkg/jwt"
	pkglog "github.com/gavinvoiceai/meetflow-saas/pkg/log"
	"github.com/gavinvoiceai/meetflow-saas/pkg/metrics"
	"github.com/gavinvoiceai/meetflow-saas/pkg/middleware"
	"github.com/gavinvoiceai/meetflow-saas/pkg/pubsub"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		l := pkglog.L()
		l.Fatal().Err(err).Msg("failed to load config")
	}

	// Initialize structured logger
	cfg.Log.Pretty = cfg.Log.Pretty || cfg.Log.Level == "debug"
	pkglog.Init(cfg.Log)
	logger := pkglog.L()

	db, err := database.New(&cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer database.Close(db)

	if err := database.AutoMigrate(db, &domain.MeetingModel{}); err != nil {
		logger.Fatal().Err(err).Msg("failed to auto-migrate")
	}
	logger.Info().Msg("database migration completed")

	meetingRepo := repository.NewGormMeetingRepository(db)

	ids, err := idgen.New(cfg.MeetingID)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid meeting id settings")
	}

	// Redis backs the meeting cache and token revocation lookups
	var (
		redisClient  *redis.Client
		meetingCache cache.MeetingCache
		revoker      jwt.Revoker
	)
	if cfg.Cache.Enabled {
		redisClient, err = pubsub.NewRedisClient(context.Background(), cfg.Redis)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisClient.Close()
		meetingCache = cache.NewRedisMeetingCache(redisClient, cfg.Cache.Prefix)
		revoker = jwt.NewRedisRevoker(redisClient)
		logger.Info().Msg("redis cache connected")
	}

	tokens, err := jwt.NewManager(cfg.JWT, revoker)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load jwt keys")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	httpMetrics := metrics.NewHTTPMetrics(registry, "meeting-service")
	meetingMetrics := metrics.NewMeetingMetrics(registry)

	meetingService := service.NewMeetingService(meetingRepo, ids, meetingCache, cfg.Cache.TTL, meetingMetrics)
	httpHandler := handler.NewHandler(meetingService, middleware.NewAuthMiddleware(tokens))

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(pkglog.GinMiddleware(logger))
	r.Use(httpMetrics.GinMiddleware())

	r.GET("/health", func(c *gin.Context) {
		if err := database.Ping(c.Request.Context(), db); err != nil {
			c.JSON(503, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler(registry)))

	httpHandler.RegisterRoutes(r)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info().Str("addr", addr).Str("driver", cfg.Database.Driver).Bool("cache", cfg.Cache.Enabled).Msg("meeting-service starting")
	if err := r.Run(addr); err != nil {
		logger.Fatal().Err(err).Msg("failed to start server")
	}
}

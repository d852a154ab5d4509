package main

import (
	"context"
	"fmt"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/gavinvoiceai/meetflow-saas/pkg/database"
	"github.com/gavinvoiceai/meetflow-saas/pkg/idgen"
	"github.com/gavinvoiceai/meetflow-saas/pkg/jwt"
	pkglog "github.com/gavinvoiceai/meetflow-saas/pkg/log"
	"github.com/gavinvoiceai/meetflow-saas/pkg/metrics"
	"github.com/gavinvoiceai/meetflow-saas/pkg/middleware"
	"github.com/gavinvoiceai/meetflow-saas/pkg/pubsub"
	"github.com/gavinvoiceai/meetflow-saas/pkg/storage"
	"github.com/gavinvoiceai/meetflow-saas/transcription-service/internal/config"
	"github.com/gavinvoiceai/meetflow-saas/transcription-service/internal/domain"
	"github.com/gavinvoiceai/meetflow-saas/transcription-service/internal/handler"
	"github.com/gavinvoiceai/meetflow-saas/transcription-service/internal/repository"
	"github.com/gavinvoiceai/meetflow-saas/transcription-service/internal/service"
	"github.com/gavinvoiceai/meetflow-saas/transcription-service/internal/stt"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		l := pkglog.L()
		l.Fatal().Err(err).Msg("failed to load config")
	}

	cfg.Log.Pretty = cfg.Log.Pretty || cfg.Log.Level == "debug"
	pkglog.Init(cfg.Log)
	logger := pkglog.L()
	ctx := context.Background()

	db, err := database.New(&cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer database.Close(db)

	if err := database.AutoMigrate(db, &domain.TranscriptionModel{}, &domain.ChatMessageModel{}); err != nil {
		logger.Fatal().Err(err).Msg("failed to auto-migrate")
	}
	logger.Info().Msg("database migration completed")

	ids := idgen.NewULIDGenerator()
	transcriptRepo := repository.NewGormTranscriptRepository(db, ids)

	sttClient, err := stt.NewClient(cfg.STT.APIKey,
		stt.WithBaseURL(cfg.STT.BaseURL),
		stt.WithModel(cfg.STT.Model),
		stt.WithTimeout(cfg.STT.Timeout),
	)
	if err != nil {
		logger.Fatal().Err(err).Msg("OPENAI_API_KEY is required")
	}

	bus, err := pubsub.NewPubSub(cfg.PubSub)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.PubSub.Driver).Msg("failed to connect to feed bus")
	}
	defer bus.Close()
	logger.Info().Str("driver", cfg.PubSub.Driver).Msg("feed bus connected")

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	httpMetrics := metrics.NewHTTPMetrics(registry, "transcription-service")

	opts := []service.Option{service.WithMetrics(metrics.NewTranscriptionMetrics(registry))}

	if cfg.Archive.Enabled {
		store, err := storage.New(ctx, cfg.Archive.Storage)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to initialize audio archive")
		}
		opts = append(opts, service.WithArchive(store))
		logger.Info().Str("driver", cfg.Archive.Storage.Driver).Msg("audio archive enabled")
	}

	if cfg.Elasticsearch.Enabled {
		esClient, err := elasticsearch.NewClient(elasticsearch.Config{
			Addresses: cfg.Elasticsearch.Addresses,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to create elasticsearch client")
		}
		if err := repository.EnsureIndex(ctx, esClient, cfg.Elasticsearch.Index); err != nil {
			logger.Fatal().Err(err).Msg("failed to prepare transcript index")
		}
		opts = append(opts, service.WithSearchIndex(repository.NewESTranscriptIndex(esClient, cfg.Elasticsearch.Index)))
		logger.Info().Strs("addresses", cfg.Elasticsearch.Addresses).Msg("elasticsearch connected")
	}

	transcriptionService := service.NewTranscriptionService(transcriptRepo, sttClient, bus, opts...)

	tokens, err := jwt.NewManager(cfg.JWT, nil)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load jwt keys")
	}
	httpHandler := handler.NewHandler(transcriptionService, middleware.NewAuthMiddleware(tokens))

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(pkglog.GinMiddleware(logger))
	r.Use(httpMetrics.GinMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler(registry)))

	httpHandler.RegisterRoutes(r)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info().Str("addr", addr).Str("model", cfg.STT.Model).Msg("transcription-service starting")
	if err := r.Run(addr); err != nil {
		logger.Fatal().Err(err).Msg("failed to start server")
	}
}

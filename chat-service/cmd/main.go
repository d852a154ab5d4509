package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/gavinvoiceai/meetflow-saas/chat-service/internal/config"
	"github.com/gavinvoiceai/meetflow-saas/chat-service/internal/domain"
	"github.com/gavinvoiceai/meetflow-saas/chat-service/internal/feed"
	"github.com/gavinvoiceai/meetflow-saas/chat-service/internal/handler"
	"github.com/gavinvoiceai/meetflow-saas/chat-service/internal/hub"
	"github.com/gavinvoiceai/meetflow-saas/chat-service/internal/repository"
	"github.com/gavinvoiceai/meetflow-saas/chat-service/internal/service"
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

	cfg.Log.Pretty = cfg.Log.Pretty || cfg.Log.Level == "debug"
	pkglog.Init(cfg.Log)
	logger := pkglog.L()

	db, err := database.New(&cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer database.Close(db)

	if err := database.AutoMigrate(db, &domain.ChatMessageModel{}); err != nil {
		logger.Fatal().Err(err).Msg("failed to auto-migrate")
	}

	bus, err := pubsub.NewPubSub(cfg.PubSub)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to feed bus")
	}
	defer bus.Close()
	logger.Info().Str("driver", cfg.PubSub.Driver).Msg("feed bus connected")

	tokens, err := jwt.NewManager(cfg.JWT, nil)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load jwt keys")
	}
	auth := middleware.NewAuthMiddleware(tokens)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	httpMetrics := metrics.NewHTTPMetrics(registry, "chat-service")
	feedMetrics := metrics.NewFeedMetrics(registry)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	wsHub := hub.NewHub(feedMetrics)
	subscriber := feed.NewSubscriber(bus, wsHub, cfg.Feed.RetryDelay, feedMetrics)

	chatSvc := service.NewChatService(repository.NewGormMessageRepository(db, idgen.NewULIDGenerator()), bus)

	r := mux.NewRouter()
	r.Use(pkglog.HTTPMiddleware(logger))
	r.Use(httpMetrics.HTTPMiddleware)
	handler.NewWSHandler(wsHub, cfg.WebSocket).RegisterRoutes(r, auth)
	handler.NewHTTPHandler(chatSvc).RegisterRoutes(r, auth)
	r.Handle("/metrics", metrics.Handler(registry))
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	server := &http.Server{
		Addr:        fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:     r,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		wsHub.Run(gctx)
		return nil
	})
	g.Go(func() error {
		subscriber.Run(gctx)
		return nil
	})
	g.Go(func() error {
		logger.Info().Str("addr", server.Addr).Msg("chat-service listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutting down chat-service")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("chat-service stopped with error")
		return
	}
	logger.Info().Msg("chat-service stopped")
}

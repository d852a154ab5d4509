package main

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/gavinvoiceai/meetflow-saas/pkg/jwt"
	pkglog "github.com/gavinvoiceai/meetflow-saas/pkg/log"
	"github.com/gavinvoiceai/meetflow-saas/pkg/metrics"
	"github.com/gavinvoiceai/meetflow-saas/web-service/internal/config"
	"github.com/gavinvoiceai/meetflow-saas/web-service/internal/handler"
	"github.com/gavinvoiceai/meetflow-saas/web-service/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		l := pkglog.L()
		l.Fatal().Err(err).Msg("failed to load config")
	}

	cfg.Log.Pretty = cfg.Log.Pretty || cfg.Log.Level == "debug"
	pkglog.Init(cfg.Log)
	logger := pkglog.L()

	// Verification only: revocation is enforced by the upstream services.
	tokens, err := jwt.NewManager(cfg.JWT, nil)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load jwt public key")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	httpMetrics := metrics.NewHTTPMetrics(registry, "web-service")

	pages := handler.NewHandler(handler.Upstreams{
		UserURL:      cfg.Upstream.UserURL,
		MeetingURL:   cfg.Upstream.MeetingURL,
		ChatURL:      cfg.Upstream.ChatURL,
		FeedURL:      cfg.Upstream.FeedURL,
		FunctionsURL: cfg.Upstream.FunctionsURL,
		Timeout:      cfg.Upstream.Timeout,
		ChatLimit:    cfg.Upstream.ChatLimit,
	}, tokens, session.CookieNames{
		Access:  cfg.Cookie.Name,
		Refresh: cfg.Cookie.RefreshName,
		Secure:  cfg.Cookie.Secure,
	})

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(pkglog.GinMiddleware(logger))
	r.Use(httpMetrics.GinMiddleware())
	r.SetHTMLTemplate(handler.Templates())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler(registry)))

	pages.RegisterRoutes(r)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info().Str("addr", addr).Str("user_service", cfg.Upstream.UserURL).Str("meeting_service", cfg.Upstream.MeetingURL).Msg("web-service starting")
	if err := r.Run(addr); err != nil {
		logger.Fatal().Err(err).Msg("failed to start server")
	}
}

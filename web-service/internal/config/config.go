package config

import (
	"time"

	pkgconfig "github.com/gavinvoiceai/meetflow-saas/pkg/config"
	"github.com/gavinvoiceai/meetflow-saas/pkg/jwt"
	pkglog "github.com/gavinvoiceai/meetflow-saas/pkg/log"
)

type Config struct {
	Server   ServerConfig
	Upstream UpstreamConfig
	Cookie   CookieConfig
	JWT      jwt.Config
	Log      pkglog.Config
}

type ServerConfig struct {
	Host string
	Port int
}

// UpstreamConfig locates the backend services. FeedURL and FunctionsURL are
// the chat-service and transcription-service addresses as seen from the
// browser.
type UpstreamConfig struct {
	UserURL      string        `mapstructure:"user_url"`
	MeetingURL   string        `mapstructure:"meeting_url"`
	ChatURL      string        `mapstructure:"chat_url"`
	FeedURL      string        `mapstructure:"feed_url"`
	FunctionsURL string        `mapstructure:"functions_url"`
	Timeout      time.Duration `mapstructure:"timeout"`
	ChatLimit    int           `mapstructure:"chat_limit"`
}

type CookieConfig struct {
	Name        string
	RefreshName string `mapstructure:"refresh_name"`
	Secure      bool
}

func Load() (*Config, error) {
	v, err := pkgconfig.Load("config")
	if err != nil {
		return nil, err
	}

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("upstream.user_url", "http://localhost:8082")
	v.SetDefault("upstream.meeting_url", "http://localhost:8083")
	v.SetDefault("upstream.chat_url", "http://localhost:8088")
	v.SetDefault("upstream.feed_url", "http://localhost:8088")
	v.SetDefault("upstream.functions_url", "http://localhost:8085")
	v.SetDefault("upstream.timeout", 10*time.Second)
	v.SetDefault("upstream.chat_limit", 50)
	v.SetDefault("cookie.name", "meetflow_session")
	v.SetDefault("cookie.refresh_name", "meetflow_refresh")
	v.SetDefault("cookie.secure", false)
	v.SetDefault("jwt.public_key_path", "./keys/jwt_public.pem")
	v.SetDefault("jwt.issuer", "meetflow")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.service_name", "web-service")

	v.BindEnv("server.port", "PORT")
	v.BindEnv("upstream.user_url", "USER_SERVICE_URL")
	v.BindEnv("upstream.meeting_url", "MEETING_SERVICE_URL")
	v.BindEnv("upstream.chat_url", "CHAT_SERVICE_URL")
	v.BindEnv("upstream.feed_url", "FEED_PUBLIC_URL")
	v.BindEnv("upstream.functions_url", "FUNCTIONS_PUBLIC_URL")
	v.BindEnv("upstream.timeout", "UPSTREAM_TIMEOUT")
	v.BindEnv("cookie.secure", "COOKIE_SECURE")
	v.BindEnv("jwt.public_key_path", "JWT_PUBLIC_KEY_PATH")
	v.BindEnv("log.level", "LOG_LEVEL")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

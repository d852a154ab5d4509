package config

import (
	"time"

	"github.com/spf13/viper"

	"github.com/gavinvoiceai/meetflow-saas/chat-service/internal/hub"
	pkgconfig "github.com/gavinvoiceai/meetflow-saas/pkg/config"
	"github.com/gavinvoiceai/meetflow-saas/pkg/database"
	"github.com/gavinvoiceai/meetflow-saas/pkg/jwt"
	pkglog "github.com/gavinvoiceai/meetflow-saas/pkg/log"
	"github.com/gavinvoiceai/meetflow-saas/pkg/pubsub"
)

type Config struct {
	Server    ServerConfig
	WebSocket hub.Config
	Feed      FeedConfig
	Database  database.Config
	PubSub    pubsub.Config
	JWT       jwt.Config
	Log       pkglog.Config
}

type ServerConfig struct {
	Host string
	Port int
}

type FeedConfig struct {
	RetryDelay time.Duration `mapstructure:"retry_delay"`
}

func Load() (*Config, error) {
	v, err := pkgconfig.Load("config")
	if err != nil {
		return nil, err
	}

	// Set defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8088)
	v.SetDefault("websocket.ping_interval", "30s")
	v.SetDefault("websocket.pong_wait", "60s")
	v.SetDefault("websocket.write_wait", "10s")
	v.SetDefault("websocket.max_message_size", 4096)
	v.SetDefault("feed.retry_delay", "2s")
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "meetflow")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.file_path", "./data/meetflow.db")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 100)
	v.SetDefault("database.conn_max_lifetime", 60)
	v.SetDefault("database.log_level", "warn")
	v.SetDefault("pubsub.driver", "redis")
	v.SetDefault("pubsub.redis.address", "localhost:6379")
	v.SetDefault("pubsub.redis.pool_size", 20)
	v.SetDefault("pubsub.kafka.brokers", "localhost:9092")
	v.SetDefault("pubsub.kafka.group_id", "chat-service")
	v.SetDefault("pubsub.kafka.partitions", 3)
	v.SetDefault("jwt.public_key_path", "./keys/jwt_public.pem")
	v.SetDefault("jwt.issuer", "meetflow")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.service_name", "chat-service")

	// Override from environment
	v.BindEnv("server.port", "PORT")
	v.BindEnv("database.driver", "DB_DRIVER")
	v.BindEnv("database.host", "DB_HOST")
	v.BindEnv("database.port", "DB_PORT")
	v.BindEnv("database.user", "DB_USER")
	v.BindEnv("database.password", "DB_PASSWORD")
	v.BindEnv("database.dbname", "DB_NAME")
	v.BindEnv("database.file_path", "DB_FILE_PATH")
	v.BindEnv("pubsub.driver", "PUBSUB_DRIVER")
	v.BindEnv("pubsub.redis.address", "REDIS_ADDRESS")
	v.BindEnv("pubsub.redis.password", "REDIS_PASSWORD")
	v.BindEnv("pubsub.kafka.brokers", "KAFKA_BROKERS")
	v.BindEnv("pubsub.kafka.group_id", "KAFKA_GROUP_ID")
	v.BindEnv("jwt.public_key_path", "JWT_PUBLIC_KEY_PATH")
	v.BindEnv("log.level", "LOG_LEVEL")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// Parse durations
	cfg.WebSocket.PingInterval = parseDuration(v, "websocket.ping_interval", 30*time.Second)
	cfg.WebSocket.PongWait = parseDuration(v, "websocket.pong_wait", 60*time.Second)
	cfg.WebSocket.WriteWait = parseDuration(v, "websocket.write_wait", 10*time.Second)
	cfg.Feed.RetryDelay = parseDuration(v, "feed.retry_delay", 2*time.Second)

	return &cfg, nil
}

func parseDuration(v *viper.Viper, key string, defaultVal time.Duration) time.Duration {
	d, err := time.ParseDuration(v.GetString(key))
	if err != nil {
		return defaultVal
	}
	return d
}

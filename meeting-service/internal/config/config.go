package config

import (
	"time"

	pkgconfig "github.com/gavinvoiceai/meetflow-saas/pkg/config"
	"github.com/gavinvoiceai/meetflow-saas/pkg/database"
	"github.com/gavinvoiceai/meetflow-saas/pkg/idgen"
	"github.com/gavinvoiceai/meetflow-saas/pkg/jwt"
	pkglog "github.com/gavinvoiceai/meetflow-saas/pkg/log"
	"github.com/gavinvoiceai/meetflow-saas/pkg/pubsub"
)

type Config struct {
	Server    ServerConfig
	Database  database.Config
	Redis     pubsub.RedisConfig
	Cache     CacheConfig
	JWT       jwt.Config
	MeetingID idgen.Config `mapstructure:"meeting_id"`
	Log       pkglog.Config
}

type ServerConfig struct {
	Host string
	Port int
}

type CacheConfig struct {
	Enabled bool
	Prefix  string
	TTL     time.Duration
}

func Load() (*Config, error) {
	v, err := pkgconfig.Load("config")
	if err != nil {
		return nil, err
	}

	// Set defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8083)
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "meetflow")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.file_path", "./data/meeting.db")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 100)
	v.SetDefault("database.conn_max_lifetime", 60)
	v.SetDefault("database.log_level", "warn")
	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.pool_size", 20)
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.prefix", "meetflow")
	v.SetDefault("cache.ttl", 10*time.Minute)
	v.SetDefault("jwt.public_key_path", "./keys/jwt_public.pem")
	v.SetDefault("jwt.issuer", "meetflow")
	v.SetDefault("meeting_id.strategy", idgen.StrategyNanoID)
	v.SetDefault("meeting_id.size", idgen.MeetingIDSize)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.service_name", "meeting-service")

	// Bind environment variables
	v.BindEnv("server.port", "PORT")
	v.BindEnv("database.driver", "DB_DRIVER")
	v.BindEnv("database.host", "DB_HOST")
	v.BindEnv("database.port", "DB_PORT")
	v.BindEnv("database.user", "DB_USER")
	v.BindEnv("database.password", "DB_PASSWORD")
	v.BindEnv("database.dbname", "DB_NAME")
	v.BindEnv("database.sslmode", "DB_SSLMODE")
	v.BindEnv("database.file_path", "DB_FILE_PATH")
	v.BindEnv("redis.address", "REDIS_ADDRESS")
	v.BindEnv("redis.password", "REDIS_PASSWORD")
	v.BindEnv("cache.enabled", "CACHE_ENABLED")
	v.BindEnv("cache.ttl", "CACHE_TTL")
	v.BindEnv("jwt.public_key_path", "JWT_PUBLIC_KEY_PATH")
	v.BindEnv("meeting_id.size", "MEETING_ID_SIZE")
	v.BindEnv("meeting_id.alphabet", "MEETING_ID_ALPHABET")
	v.BindEnv("log.level", "LOG_LEVEL")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

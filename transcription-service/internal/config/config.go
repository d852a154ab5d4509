package config

import (
	"time"

	pkgconfig "github.com/gavinvoiceai/meetflow-saas/pkg/config"
	"github.com/gavinvoiceai/meetflow-saas/pkg/database"
	"github.com/gavinvoiceai/meetflow-saas/pkg/jwt"
	pkglog "github.com/gavinvoiceai/meetflow-saas/pkg/log"
	"github.com/gavinvoiceai/meetflow-saas/pkg/pubsub"
	"github.com/gavinvoiceai/meetflow-saas/pkg/storage"
)

type Config struct {
	Server        ServerConfig
	Database      database.Config
	PubSub        pubsub.Config
	STT           STTConfig
	Archive       ArchiveConfig
	Elasticsearch ElasticsearchConfig
	JWT           jwt.Config
	Log           pkglog.Config
}

type ServerConfig struct {
	Host string
	Port int
}

type STTConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	Model   string
	Timeout time.Duration
}

type ArchiveConfig struct {
	Enabled bool
	Storage storage.Config
}

type ElasticsearchConfig struct {
	Enabled   bool
	Addresses []string
	Index     string
}

func Load() (*Config, error) {
	v, err := pkgconfig.Load("config")
	if err != nil {
		return nil, err
	}

	// Set defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8085)
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
	v.SetDefault("pubsub.kafka.partitions", 3)
	v.SetDefault("stt.base_url", "https://api.openai.com/v1")
	v.SetDefault("stt.model", "whisper-1")
	v.SetDefault("stt.timeout", 30*time.Second)
	v.SetDefault("archive.enabled", false)
	v.SetDefault("archive.storage.driver", "local")
	v.SetDefault("archive.storage.local.base_path", "./data/audio")
	v.SetDefault("archive.storage.s3.region", "us-east-1")
	v.SetDefault("elasticsearch.enabled", false)
	v.SetDefault("elasticsearch.addresses", []string{"http://localhost:9200"})
	v.SetDefault("elasticsearch.index", "meetflow-transcripts")
	v.SetDefault("jwt.public_key_path", "./keys/jwt_public.pem")
	v.SetDefault("jwt.issuer", "meetflow")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.service_name", "transcription-service")

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
	v.BindEnv("pubsub.driver", "PUBSUB_DRIVER")
	v.BindEnv("pubsub.redis.address", "REDIS_ADDRESS")
	v.BindEnv("pubsub.redis.password", "REDIS_PASSWORD")
	v.BindEnv("pubsub.kafka.brokers", "KAFKA_BROKERS")
	v.BindEnv("stt.api_key", "OPENAI_API_KEY")
	v.BindEnv("stt.base_url", "OPENAI_BASE_URL")
	v.BindEnv("stt.timeout", "STT_TIMEOUT")
	v.BindEnv("archive.enabled", "ARCHIVE_ENABLED")
	v.BindEnv("archive.storage.driver", "STORAGE_DRIVER")
	v.BindEnv("archive.storage.local.base_path", "STORAGE_LOCAL_PATH")
	v.BindEnv("archive.storage.s3.bucket", "S3_BUCKET")
	v.BindEnv("archive.storage.s3.region", "S3_REGION")
	v.BindEnv("archive.storage.s3.endpoint", "S3_ENDPOINT")
	v.BindEnv("archive.storage.s3.access_key_id", "S3_ACCESS_KEY_ID")
	v.BindEnv("archive.storage.s3.secret_access_key", "S3_SECRET_ACCESS_KEY")
	v.BindEnv("elasticsearch.enabled", "ES_ENABLED")
	v.BindEnv("elasticsearch.addresses", "ES_ADDRESSES")
	v.BindEnv("jwt.public_key_path", "JWT_PUBLIC_KEY_PATH")
	v.BindEnv("log.level", "LOG_LEVEL")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

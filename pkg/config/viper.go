package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Option customises how Load builds the viper instance.
type Option func(*viper.Viper)

// WithPath adds a directory to the config search path.
func WithPath(dir string) Option {
	return func(v *viper.Viper) {
		if dir != "" {
			v.AddConfigPath(dir)
		}
	}
}

// WithEnvPrefix scopes automatic env lookups, e.g. MEETFLOW_SERVER_PORT.
func WithEnvPrefix(prefix string) Option {
	return func(v *viper.Viper) {
		v.SetEnvPrefix(prefix)
	}
}

// Load reads <name>.yaml from the search path and overlays environment
// variables. A missing file is not an error; defaults and env still apply.
func Load(name string, opts ...Option) (*viper.Viper, error) {
	v := viper.New()

	v.SetConfigName(name)
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	for _, opt := range opts {
		opt(v)
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return v, nil
		}
		return nil, fmt.Errorf("failed to read config %s: %w", name, err)
	}

	return v, nil
}

// GetEnv returns environment variable value or default.
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

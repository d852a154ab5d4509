package config

import (
	"os"
	"path/filepath"
	"time"

	pkgconfig "github.com/gavinvoiceai/meetflow-saas/pkg/config"
)

// Config is read from ~/.meetflow/meetctl.yaml (or ./meetctl.yaml) with
// MEETCTL_* environment overrides.
type Config struct {
	UserURL          string        `mapstructure:"user_url"`
	MeetingURL       string        `mapstructure:"meeting_url"`
	ChatURL          string        `mapstructure:"chat_url"`
	TranscriptionURL string        `mapstructure:"transcription_url"`
	SessionFile      string        `mapstructure:"session_file"`
	Timeout          time.Duration `mapstructure:"timeout"`
	SliceInterval    time.Duration `mapstructure:"slice_interval"`
	CaptionHold      time.Duration `mapstructure:"caption_hold"`
	FFmpegInput      string        `mapstructure:"ffmpeg_input"`
	FFmpegDevice     string        `mapstructure:"ffmpeg_device"`
}

func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".meetflow"
	}
	return filepath.Join(home, ".meetflow")
}

func Load() (*Config, error) {
	v, err := pkgconfig.Load("meetctl", pkgconfig.WithPath(Dir()), pkgconfig.WithEnvPrefix("MEETCTL"))
	if err != nil {
		return nil, err
	}

	v.SetDefault("user_url", "http://localhost:8082")
	v.SetDefault("meeting_url", "http://localhost:8083")
	v.SetDefault("chat_url", "http://localhost:8088")
	v.SetDefault("transcription_url", "http://localhost:8085")
	v.SetDefault("session_file", filepath.Join(Dir(), "session.yaml"))
	v.SetDefault("timeout", 30*time.Second)
	v.SetDefault("slice_interval", 3*time.Second)
	v.SetDefault("caption_hold", 5*time.Second)
	v.SetDefault("ffmpeg_input", "pulse")
	v.SetDefault("ffmpeg_device", "default")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type ServerConfig struct {
	Port          int   `yaml:"port"`
	MaxUploadMB   int64 `yaml:"max_upload_mb"`
	ShutdownGrace int   `yaml:"shutdown_grace_seconds"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type StorageConfig struct {
	UploadDir  string        `yaml:"upload_dir"`
	TempDir    string        `yaml:"temp_dir"`
	OutputDir  string        `yaml:"output_dir"`
	Retention  time.Duration `yaml:"retention"`      // default 24h
	SweepEvery time.Duration `yaml:"sweep_interval"` // default 15m
}

type StoreConfig struct {
	Backend string `yaml:"backend"` // memory | redis | postgres
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type WorkerConfig struct {
	Limit     int `yaml:"limit"`      // max simultaneously running jobs
	QueueSize int `yaml:"queue_size"` // admission queue depth
}

type TTSConfig struct {
	DefaultProvider string        `yaml:"default_provider"` // auto | fish_audio | coqui
	ProbeEvery      time.Duration `yaml:"probe_interval"`
	FishAudio       struct {
		BaseURL string        `yaml:"base_url"`
		APIKey  string        `yaml:"api_key"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"fish_audio"`
	Coqui struct {
		Binary string `yaml:"binary"`
	} `yaml:"coqui"`
}

type CollaboratorsConfig struct {
	WhisperURL string        `yaml:"whisper_url"`
	NLLBURL    string        `yaml:"nllb_url"`
	Wav2LipURL string        `yaml:"wav2lip_url"`
	FFmpegBin  string        `yaml:"ffmpeg_bin"`
	Timeout    time.Duration `yaml:"timeout"`
}

type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Log           LogConfig           `yaml:"log"`
	Storage       StorageConfig       `yaml:"storage"`
	Store         StoreConfig         `yaml:"store"`
	Database      DatabaseConfig      `yaml:"database"`
	Redis         RedisConfig         `yaml:"redis"`
	Workers       WorkerConfig        `yaml:"workers"`
	TTS           TTSConfig           `yaml:"tts"`
	Collaborators CollaboratorsConfig `yaml:"collaborators"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.ApplyDefaults()

	// Minimal validation
	switch cfg.Store.Backend {
	case "memory":
	case "redis":
		if cfg.Redis.URL == "" {
			return nil, errors.New("redis.url is required when store.backend is redis")
		}
	case "postgres":
		if cfg.Database.URL == "" {
			return nil, errors.New("database.url is required when store.backend is postgres")
		}
	default:
		return nil, fmt.Errorf("unknown store.backend %q", cfg.Store.Backend)
	}
	switch cfg.TTS.DefaultProvider {
	case "auto", "fish_audio", "coqui":
	default:
		return nil, fmt.Errorf("unknown tts.default_provider %q", cfg.TTS.DefaultProvider)
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}

// ApplyDefaults fills unset fields in place. Exposed so tests can build a
// usable config without a file on disk.
func (cfg *Config) ApplyDefaults() {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8000
	}
	if cfg.Server.MaxUploadMB <= 0 {
		cfg.Server.MaxUploadMB = 512
	}
	if cfg.Server.ShutdownGrace <= 0 {
		cfg.Server.ShutdownGrace = 15
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Storage.UploadDir == "" {
		cfg.Storage.UploadDir = "uploads"
	}
	if cfg.Storage.TempDir == "" {
		cfg.Storage.TempDir = "temp"
	}
	if cfg.Storage.OutputDir == "" {
		cfg.Storage.OutputDir = "outputs"
	}
	if cfg.Storage.Retention <= 0 {
		cfg.Storage.Retention = 24 * time.Hour
	}
	if cfg.Storage.SweepEvery <= 0 {
		cfg.Storage.SweepEvery = 15 * time.Minute
	}
	if cfg.Store.Backend == "" {
		cfg.Store.Backend = "memory"
	}
	if cfg.Workers.Limit <= 0 {
		cfg.Workers.Limit = 2
	}
	if cfg.Workers.QueueSize <= 0 {
		cfg.Workers.QueueSize = 64
	}
	if cfg.TTS.DefaultProvider == "" {
		cfg.TTS.DefaultProvider = "auto"
	}
	if cfg.TTS.ProbeEvery <= 0 {
		cfg.TTS.ProbeEvery = time.Minute
	}
	if cfg.TTS.FishAudio.BaseURL == "" {
		cfg.TTS.FishAudio.BaseURL = "http://localhost:8080"
	}
	if cfg.TTS.FishAudio.Timeout <= 0 {
		cfg.TTS.FishAudio.Timeout = 60 * time.Second
	}
	if cfg.TTS.Coqui.Binary == "" {
		cfg.TTS.Coqui.Binary = "tts"
	}
	if cfg.Collaborators.FFmpegBin == "" {
		cfg.Collaborators.FFmpegBin = "ffmpeg"
	}
	if cfg.Collaborators.Timeout <= 0 {
		cfg.Collaborators.Timeout = 5 * time.Minute
	}
}

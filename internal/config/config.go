package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type BotConfig struct {
	Token     string `yaml:"token"`
	Mode      string `yaml:"mode"` // polling | webhook
	AdminID   int64  `yaml:"admin_id"`
	ChannelID int64  `yaml:"channel_id"` // source channel for media resolution; 0 disables
	Workers   int    `yaml:"workers"`    // update workers
}

type WebhookConfig struct {
	BaseURL string `yaml:"base_url"` // public https base, e.g. https://bot.example.com
	Port    int    `yaml:"port"`
}

type LogConfig struct {
	Level  string `yaml:"level"`  // trace|debug|info|warn|error
	Format string `yaml:"format"` // json|console
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"` // catalog cache TTL
}

type CatalogConfig struct {
	DefaultRetentionHours int `yaml:"default_retention_hours"`
}

type AdminAPIConfig struct {
	Port int    `yaml:"port"` // listen port in polling mode (webhook mode shares webhook.port)
	Key  string `yaml:"key"`  // bearer key for the read-only admin API
}

type Config struct {
	Bot      BotConfig      `yaml:"bot"`
	Webhook  WebhookConfig  `yaml:"webhook"`
	Log      LogConfig      `yaml:"log"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Catalog  CatalogConfig  `yaml:"catalog"`
	AdminAPI AdminAPIConfig `yaml:"admin_api"`

	Runtime RuntimeConfig `yaml:"-"`
}

// LoadConfig reads the optional YAML file, applies .env/environment
// overrides, fills defaults and validates. Environment wins over the file so
// deployments can stay file-less.
func LoadConfig(path string, dev bool) (*Config, error) {
	var cfg Config

	if b, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// .env is a convenience for local runs; a missing file is fine.
	_ = godotenv.Load()
	applyEnv(&cfg)

	// defaults
	if cfg.Bot.Mode == "" {
		cfg.Bot.Mode = "polling"
	}
	if cfg.Bot.Workers <= 0 {
		cfg.Bot.Workers = 8
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Catalog.DefaultRetentionHours <= 0 {
		cfg.Catalog.DefaultRetentionHours = 8
	}
	if cfg.Redis.TTL <= 0 {
		cfg.Redis.TTL = time.Hour
	}
	if cfg.Webhook.Port == 0 {
		cfg.Webhook.Port = 8080
	}
	if cfg.AdminAPI.Port == 0 {
		cfg.AdminAPI.Port = 8081
	}

	// Minimal validation
	if cfg.Bot.Token == "" {
		return nil, errors.New("bot.token is required")
	}
	if cfg.Bot.AdminID == 0 {
		return nil, errors.New("bot.admin_id is required")
	}
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Bot.Mode == "webhook" && cfg.Webhook.BaseURL == "" {
		return nil, errors.New("webhook.base_url is required in webhook mode")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("BOT_TOKEN"); v != "" {
		cfg.Bot.Token = v
	}
	if v := os.Getenv("BOT_MODE"); v != "" {
		cfg.Bot.Mode = v
	}
	if v, ok := envInt64("ADMIN_ID"); ok {
		cfg.Bot.AdminID = v
	}
	if v, ok := envInt64("CHANNEL_ID"); ok {
		cfg.Bot.ChannelID = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Redis.URL = v
	}
	if v := os.Getenv("WEBHOOK_URL"); v != "" {
		cfg.Webhook.BaseURL = v
	}
	if v, ok := envInt64("PORT"); ok {
		cfg.Webhook.Port = int(v)
	}
	if v, ok := envInt64("DEFAULT_RETENTION_HOURS"); ok {
		cfg.Catalog.DefaultRetentionHours = int(v)
	}
	if v := os.Getenv("ADMIN_API_KEY"); v != "" {
		cfg.AdminAPI.Key = v
	}
	if v, ok := envInt64("ADMIN_API_PORT"); ok {
		cfg.AdminAPI.Port = int(v)
	}
}

func envInt64(name string) (int64, bool) {
	v := os.Getenv(name)
	if v == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Hermes   HermesConfig   `yaml:"hermes"`
	Redis    RedisConfig    `yaml:"redis"`
	Scoring  ScoringConfig  `yaml:"scoring"`
	Routing  RoutingConfig  `yaml:"routing"`
	Rescore  RescoreConfig  `yaml:"rescore"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type ServerConfig struct {
	Port            int    `yaml:"port"`
	MetricsPort     int    `yaml:"metrics_port"`
	AdminToken      string `yaml:"admin_token"`
	RateLimitPerMin int    `yaml:"rate_limit_per_min"`
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type HermesConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	URL        string `yaml:"url"`
	CacheTTLMs int    `yaml:"cache_ttl_ms"`
}

type ScoringConfig struct {
	MaxScore     int    `yaml:"max_score"`
	FormTimezone string `yaml:"form_timezone"`
}

type RoutingConfig struct {
	SpecialistExperience int      `yaml:"specialist_experience"`
	PriorityCategories   []string `yaml:"priority_categories"`
	Country              string   `yaml:"country"`
}

type RescoreConfig struct {
	Enabled    bool `yaml:"enabled"`
	IntervalMs int  `yaml:"interval_ms"`
	MaxAgeMs   int  `yaml:"max_age_ms"`
	BatchSize  int  `yaml:"batch_size"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Redis.CacheTTLMs) * time.Millisecond
}

func (c *Config) RescoreInterval() time.Duration {
	return time.Duration(c.Rescore.IntervalMs) * time.Millisecond
}

func (c *Config) RescoreMaxAge() time.Duration {
	return time.Duration(c.Rescore.MaxAgeMs) * time.Millisecond
}

// FormZone loads Scoring.FormTimezone. An empty name returns nil, which
// the scoring package reads as its default zone.
func (c *Config) FormZone() (*time.Location, error) {
	if c.Scoring.FormTimezone == "" {
		return nil, nil
	}
	loc, err := time.LoadLocation(c.Scoring.FormTimezone)
	if err != nil {
		return nil, fmt.Errorf("load form timezone: %w", err)
	}
	return loc, nil
}

// SlogLevel maps Logging.Level onto a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.Logging.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func Load(path string) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:            8700,
			MetricsPort:     8701,
			RateLimitPerMin: 120,
		},
		Hermes: HermesConfig{
			URL: "nats://localhost:4222",
		},
		Redis: RedisConfig{
			CacheTTLMs: 300000,
		},
		Scoring: ScoringConfig{
			MaxScore:     100,
			FormTimezone: "Asia/Kolkata",
		},
		Routing: RoutingConfig{
			SpecialistExperience: 10,
			PriorityCategories:   []string{"construction", "agriculture"},
			Country:              "india",
		},
		Rescore: RescoreConfig{
			Enabled:    true,
			IntervalMs: 3600000,
			MaxAgeMs:   86400000,
			BatchSize:  200,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("RECRUIT_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = n
		}
	}
	if v := os.Getenv("RECRUIT_METRICS_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.MetricsPort = n
		}
	}
	if v := os.Getenv("RECRUIT_ADMIN_TOKEN"); v != "" {
		cfg.Server.AdminToken = v
	}
	if v := os.Getenv("RECRUIT_DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("RECRUIT_HERMES_URL"); v != "" {
		cfg.Hermes.URL = v
	}
	if v := os.Getenv("RECRUIT_REDIS_URL"); v != "" {
		cfg.Redis.URL = v
	}
	if v := os.Getenv("RECRUIT_MAX_SCORE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Scoring.MaxScore = n
		}
	}
	if v := os.Getenv("RECRUIT_RESCORE_INTERVAL_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Rescore.IntervalMs = n
		}
	}
	if v := os.Getenv("RECRUIT_RESCORE_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Rescore.Enabled = b
		}
	}
	if v := os.Getenv("RECRUIT_FORM_TIMEZONE"); v != "" {
		cfg.Scoring.FormTimezone = v
	}
	if v := os.Getenv("RECRUIT_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Package config loads application configuration from file and
// environment and initializes the global logger.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/bellezapp/discovery-cli/internal/db"
	"github.com/bellezapp/discovery-cli/pkg/mailer"
)

// Config holds the full application configuration.
type Config struct {
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Ranking  RankingConfig  `yaml:"ranking" mapstructure:"ranking"`
	Outreach OutreachConfig `yaml:"outreach" mapstructure:"outreach"`
	WhatsApp WhatsAppConfig `yaml:"whatsapp" mapstructure:"whatsapp"`
	SMTP     mailer.Config  `yaml:"smtp" mapstructure:"smtp"`
	Identity IdentityConfig `yaml:"identity" mapstructure:"identity"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string        `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string        `yaml:"database_url" mapstructure:"database_url"`
	Pool        db.PoolConfig `yaml:"pool" mapstructure:"pool"`
}

// RankingConfig tunes the salon ranking query.
type RankingConfig struct {
	DefaultRadiusKM   float64 `yaml:"default_radius_km" mapstructure:"default_radius_km"`
	DefaultMaxResults int     `yaml:"default_max_results" mapstructure:"default_max_results"`
}

// OutreachConfig tunes message dispatch and the follow-up sweep.
type OutreachConfig struct {
	RegistrationBaseURL string  `yaml:"registration_base_url" mapstructure:"registration_base_url"`
	TemplatesPath       string  `yaml:"templates_path" mapstructure:"templates_path"`
	SweepLimit          int     `yaml:"sweep_limit" mapstructure:"sweep_limit"`
	SweepConcurrency    int     `yaml:"sweep_concurrency" mapstructure:"sweep_concurrency"`
	DispatchPerSecond   float64 `yaml:"dispatch_per_second" mapstructure:"dispatch_per_second"`
}

// WhatsAppConfig holds WhatsApp Cloud API credentials.
type WhatsAppConfig struct {
	Token         string `yaml:"token" mapstructure:"token"`
	PhoneNumberID string `yaml:"phone_number_id" mapstructure:"phone_number_id"`
	BaseURL       string `yaml:"base_url" mapstructure:"base_url"`
}

// IdentityConfig points at the identity provider.
type IdentityConfig struct {
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("BELLEZA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "postgres")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("ranking.default_radius_km", 50.0)
	v.SetDefault("ranking.default_max_results", 20)
	v.SetDefault("outreach.sweep_limit", 100)
	v.SetDefault("outreach.sweep_concurrency", 1)
	v.SetDefault("outreach.dispatch_per_second", 1.0)
	v.SetDefault("smtp.port", 587)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a given subsystem needs before running.
func (c *Config) Validate(subsystem string) error {
	switch subsystem {
	case "store":
		if c.Store.Driver != "postgres" && c.Store.Driver != "sqlite" {
			return eris.Errorf("config: unknown store driver %q", c.Store.Driver)
		}
		if c.Store.DatabaseURL == "" {
			return eris.New("config: store.database_url is required")
		}
	case "outreach":
		if c.Outreach.RegistrationBaseURL == "" {
			return eris.New("config: outreach.registration_base_url is required")
		}
	case "identity":
		if c.Identity.BaseURL == "" {
			return eris.New("config: identity.base_url is required")
		}
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}

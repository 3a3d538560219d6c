package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	DBDriver   string `env:"DB_DRIVER" envDefault:"mysql"`
	DBHost     string `env:"DB_HOST" envDefault:"localhost"`
	DBPort     string `env:"DB_PORT" envDefault:"3306"`
	DBUser     string `env:"DB_USER" envDefault:"orguser"`
	DBPassword string `env:"DB_PASSWORD" envDefault:"orgpassword"`
	DBName     string `env:"DB_NAME" envDefault:"org_membership"`
	DBPath     string `env:"DB_PATH" envDefault:"org_membership.db"`
	DBLogLevel string `env:"DB_LOG_LEVEL" envDefault:"warn"`

	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8080"`
	GinMode  string `env:"GIN_MODE" envDefault:"debug"`

	SessionStore  string `env:"SESSION_STORE" envDefault:"redis"`
	SessionSecret string `env:"SESSION_SECRET" envDefault:"default-secret-key-change-me"`
	RedisHost     string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     string `env:"REDIS_PORT" envDefault:"6379"`

	// AWSRegion is the region of the SES client.
	AWSRegion string `env:"AWS_REGION" envDefault:"us-east-1"`

	// FrontendURL is the base URL used to build links in outgoing emails.
	FrontendURL string `env:"FRONTEND_URL" envDefault:"http://localhost:3000"`

	Log    LogConfig    `envPrefix:"LOG_"`
	Mailer MailerConfig `envPrefix:"MAILER_"`
}

type LogConfig struct {
	Level  string `env:"LEVEL" envDefault:"info"`
	Format string `env:"FORMAT" envDefault:"text"`
}

type MailerConfig struct {
	Driver    string `env:"DRIVER" envDefault:"log"`
	From      string `env:"FROM" envDefault:"no-reply@example.com"`
	QueueSize int    `env:"QUEUE_SIZE" envDefault:"256"`
	Workers   int    `env:"WORKERS" envDefault:"2"`
}

// Load parses the configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse environment variables: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks enumerated settings.
func (c *Config) Validate() error {
	switch c.DBDriver {
	case "mysql", "postgres", "sqlite":
	default:
		return fmt.Errorf("invalid DB_DRIVER %q: expected mysql, postgres or sqlite", c.DBDriver)
	}
	switch c.SessionStore {
	case "redis", "cookie":
	default:
		return fmt.Errorf("invalid SESSION_STORE %q: expected redis or cookie", c.SessionStore)
	}
	switch c.Mailer.Driver {
	case "log", "ses":
	default:
		return fmt.Errorf("invalid MAILER_DRIVER %q: expected log or ses", c.Mailer.Driver)
	}
	if c.Mailer.QueueSize < 1 || c.Mailer.Workers < 1 {
		return fmt.Errorf("mailer queue size and workers must be positive")
	}
	c.FrontendURL = strings.TrimRight(c.FrontendURL, "/")
	return nil
}

// IsProduction reports whether gin runs in release mode.
func (c *Config) IsProduction() bool {
	return c.GinMode == "release"
}

// Package config reads application settings from the environment through viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config is the resolved application configuration.
type Config struct {
	AppPort        string        `validate:"required"`
	DatabaseDriver string        `validate:"oneof=sqlite postgres"`
	DatabaseDSN    string        `validate:"required"`
	JWTSecret      string        `validate:"required,min=8"`
	SessionTTL     time.Duration `validate:"gt=0"`

	// RedisURL is optional; drafts are kept in memory without it.
	RedisURL string        `validate:"omitempty,url"`
	DraftTTL time.Duration `validate:"gt=0"`

	// RabbitMQURL is optional; events are dispatched in-process without it.
	RabbitMQURL string `validate:"omitempty,url"`

	SMTP        SMTPConfig
	MailFrom    string        `validate:"required"`
	MailTimeout time.Duration `validate:"gt=0"`

	BaseURL   string `validate:"required,url"`
	LogLevel  string `validate:"oneof=debug info warn error"`
	LogFormat string `validate:"oneof=json text"`

	// Moderators are user ids allowed to hide and unhide quotes.
	Moderators []string

	// TrustAssertions accepts unsigned identity assertions. Development and tests only.
	TrustAssertions bool
}

// SMTPConfig holds mail server settings. An empty host disables SMTP delivery.
type SMTPConfig struct {
	Host     string
	Port     int `validate:"omitempty,min=1,max=65535"`
	Username string
	Password string
}

// Configured reports whether an SMTP server was set.
func (s SMTPConfig) Configured() bool {
	return s.Host != ""
}

// SetDefaults registers the default value of every setting on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("DATABASE_DRIVER", "sqlite")
	v.SetDefault("DATABASE_DSN", "quotebook.db")
	v.SetDefault("JWT_SECRET", "change-me-in-production")
	v.SetDefault("SESSION_TTL", "336h")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("DRAFT_TTL", "1h")
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("SMTP_HOST", "")
	v.SetDefault("SMTP_PORT", 25)
	v.SetDefault("SMTP_USERNAME", "")
	v.SetDefault("SMTP_PASSWORD", "")
	v.SetDefault("MAIL_FROM", "theQuotebook <notifications@thequotebook.net>")
	v.SetDefault("MAIL_TIMEOUT", "10s")
	v.SetDefault("BASE_URL", "http://localhost:8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("MODERATORS", "")
	v.SetDefault("AUTH_TRUST_ASSERTIONS", false)
}

// Load reads the configuration from v, which should already have AutomaticEnv set.
func Load(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	cfg := &Config{
		AppPort:        v.GetString("APP_PORT"),
		DatabaseDriver: strings.ToLower(v.GetString("DATABASE_DRIVER")),
		DatabaseDSN:    v.GetString("DATABASE_DSN"),
		JWTSecret:      v.GetString("JWT_SECRET"),
		SessionTTL:     v.GetDuration("SESSION_TTL"),
		RedisURL:       v.GetString("REDIS_URL"),
		DraftTTL:       v.GetDuration("DRAFT_TTL"),
		RabbitMQURL:    v.GetString("RABBITMQ_URL"),
		SMTP: SMTPConfig{
			Host:     v.GetString("SMTP_HOST"),
			Port:     v.GetInt("SMTP_PORT"),
			Username: v.GetString("SMTP_USERNAME"),
			Password: v.GetString("SMTP_PASSWORD"),
		},
		MailFrom:        v.GetString("MAIL_FROM"),
		MailTimeout:     v.GetDuration("MAIL_TIMEOUT"),
		BaseURL:         strings.TrimRight(v.GetString("BASE_URL"), "/"),
		LogLevel:        strings.ToLower(v.GetString("LOG_LEVEL")),
		LogFormat:       strings.ToLower(v.GetString("LOG_FORMAT")),
		Moderators:      splitList(v.GetString("MODERATORS")),
		TrustAssertions: v.GetBool("AUTH_TRUST_ASSERTIONS"),
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

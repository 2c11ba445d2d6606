package config_test

import (
	"testing"
	"time"

	"quotebook/internal/config"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.AppPort)
	assert.Equal(t, "sqlite", cfg.DatabaseDriver)
	assert.Equal(t, 10*time.Second, cfg.MailTimeout)
	assert.Equal(t, time.Hour, cfg.DraftTTL)
	assert.Equal(t, "theQuotebook <notifications@thequotebook.net>", cfg.MailFrom)
	assert.False(t, cfg.SMTP.Configured())
	assert.Empty(t, cfg.Moderators)
	assert.False(t, cfg.TrustAssertions)
}

func TestLoad_Overrides(t *testing.T) {
	v := viper.New()
	v.Set("DATABASE_DRIVER", "POSTGRES")
	v.Set("DATABASE_DSN", "host=db user=quotebook")
	v.Set("MAIL_TIMEOUT", "3s")
	v.Set("SMTP_HOST", "smtp.example.com")
	v.Set("SMTP_PORT", 587)
	v.Set("MODERATORS", " u1, ,u2 ")
	v.Set("BASE_URL", "https://thequotebook.net/")
	v.Set("AUTH_TRUST_ASSERTIONS", true)

	cfg, err := config.Load(v)
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.DatabaseDriver)
	assert.Equal(t, 3*time.Second, cfg.MailTimeout)
	assert.True(t, cfg.SMTP.Configured())
	assert.Equal(t, 587, cfg.SMTP.Port)
	assert.Equal(t, []string{"u1", "u2"}, cfg.Moderators)
	assert.Equal(t, "https://thequotebook.net", cfg.BaseURL)
	assert.True(t, cfg.TrustAssertions)
}

func TestLoad_RejectsInvalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value any
	}{
		{"unknown driver", "DATABASE_DRIVER", "mysql"},
		{"short secret", "JWT_SECRET", "x"},
		{"bad log level", "LOG_LEVEL", "loud"},
		{"zero mail timeout", "MAIL_TIMEOUT", "0s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			v.Set(tt.key, tt.value)
			_, err := config.Load(v)
			assert.Error(t, err)
		})
	}
}

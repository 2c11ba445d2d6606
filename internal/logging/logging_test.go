package logging

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewWithWriter_RedactsSecrets(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"session token", "token", "abc123"},
		{"email field", "email", "ann@example.com"},
		{"email value under other key", "to", "bob@example.com"},
		{"bearer header", "header", "Bearer abc123xyz456"},
		{"identity assertion", "assertion", `{"openid":"https://ann.example.com/"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewWithWriter(Config{Level: "debug", Format: "json"}, &buf)

			logger.Info("test", slog.String(tt.key, tt.value))

			assert.NotContains(t, buf.String(), tt.value)
			assert.Contains(t, buf.String(), tt.key)
		})
	}
}

func TestNewWithWriter_KeepsOrdinaryFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(Config{Format: "text"}, &buf)

	logger.Info("quote created", slog.String("quote_id", "q-1"))

	assert.Contains(t, buf.String(), "quote_id=q-1")
	assert.Contains(t, buf.String(), "service_name=quotebook")
}

func TestNewWithWriter_Level(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(Config{Level: "warn"}, &buf)

	logger.Info("dropped")
	assert.Empty(t, buf.String())

	logger.Warn("kept")
	assert.Contains(t, buf.String(), "kept")
}

func TestFromContext(t *testing.T) {
	assert.Equal(t, slog.Default(), FromContext(context.Background()))

	custom := Discard()
	ctx := WithContext(context.Background(), custom)
	assert.Equal(t, custom, FromContext(ctx))
}

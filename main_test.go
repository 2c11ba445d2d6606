package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"quotebook/internal/config"
	"quotebook/internal/logging"

	"github.com/google/uuid"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T, overrides map[string]interface{}) *config.Config {
	t.Helper()
	v := viper.New()
	v.Set("DATABASE_DSN", fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	v.Set("JWT_SECRET", "test_jwt_secret")
	v.Set("AUTH_TRUST_ASSERTIONS", true)
	for k, val := range overrides {
		v.Set(k, val)
	}
	cfg, err := config.Load(v)
	require.NoError(t, err)
	return cfg
}

func newTestServer(t *testing.T) *server {
	t.Helper()
	srv, err := newServer(testConfig(t, nil), logging.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { srv.Close() })
	return srv
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)

	resp, err := srv.app.Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "ok", body["database"])
}

func TestMetricsExposed(t *testing.T) {
	srv := newTestServer(t)

	resp, err := srv.app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(b), "quotebook_quotes_created_total")
}

func TestLoginThroughTrustedProvider(t *testing.T) {
	srv := newTestServer(t)

	body, _ := json.Marshal(map[string]string{"assertion": `{"openid":"alice.example.com"}`})
	req := httptest.NewRequest(http.MethodPost, "/session", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := srv.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var login map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&login))
	assert.Equal(t, "Registration required", login["message"])
	assert.NotEmpty(t, login["registration_token"])
}

func TestAssertionsRejectedByDefault(t *testing.T) {
	srv, err := newServer(testConfig(t, map[string]interface{}{"AUTH_TRUST_ASSERTIONS": false}), logging.Discard())
	require.NoError(t, err)
	defer srv.Close()

	body, _ := json.Marshal(map[string]string{"assertion": `{"openid":"alice.example.com"}`})
	req := httptest.NewRequest(http.MethodPost, "/session", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := srv.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestNewServerFailsOnUnreachableRedis(t *testing.T) {
	_, err := newServer(testConfig(t, map[string]interface{}{"REDIS_URL": "redis://127.0.0.1:1/0"}), logging.Discard())
	assert.Error(t, err)
}

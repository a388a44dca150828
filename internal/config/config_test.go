// Package config tests.
package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setBaseEnvs(t *testing.T) {
	t.Helper()
	envs := map[string]string{
		"API_KEY":         "test-key",
		"SLACK_BOT_TOKEN": "xoxb-test",
		"SLACK_CHANNEL":   "C012345",
	}
	for k, v := range envs {
		t.Setenv(k, v)
	}
}

func TestLoad_Success(t *testing.T) {
	setBaseEnvs(t)
	cfg, err := LoadWithPrefix("")
	require.NoError(t, err)
	assert.Equal(t, "test-key", cfg.APIKey)
	assert.Equal(t, "xoxb-test", cfg.SlackBotToken)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, ":8080", cfg.ListenAddr)
}

func TestLoad_Defaults(t *testing.T) {
	setBaseEnvs(t)
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "starlog.db", cfg.DBPath)
	assert.Equal(t, "api-key", cfg.AuthMode)
	assert.Equal(t, 100, cfg.RateLimitRPS)
	assert.Equal(t, 200, cfg.RateLimitBurst)
	assert.Equal(t, 5*time.Minute, cfg.SweepInterval)
	assert.Equal(t, 12*time.Hour, cfg.SweepStaleness)
	assert.Equal(t, 365, cfg.RetentionDays)
}

func TestLoad_CustomListenAddr(t *testing.T) {
	setBaseEnvs(t)
	t.Setenv("LISTEN_ADDR", ":9090")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.ListenAddr)
}

func TestLoad_APIKeyRequired(t *testing.T) {
	os.Clearenv()
	// AUTH_MODE defaults to api-key, which needs API_KEY
	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_AuthModeNone(t *testing.T) {
	os.Clearenv()
	t.Setenv("AUTH_MODE", "none")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "none", cfg.AuthMode)
}

func TestValidate_JWTRequiresSecret(t *testing.T) {
	cfg := &Config{AuthMode: "jwt", SweepInterval: time.Minute, SweepStaleness: time.Hour}
	assert.Error(t, cfg.Validate())

	cfg.JWTSecret = "secret"
	assert.NoError(t, cfg.Validate())
}

func TestValidate_UnknownAuthMode(t *testing.T) {
	cfg := &Config{AuthMode: "basic", SweepInterval: time.Minute, SweepStaleness: time.Hour}
	assert.Error(t, cfg.Validate())
}

func TestValidate_SweepBounds(t *testing.T) {
	cfg := &Config{AuthMode: "none", SweepInterval: 0, SweepStaleness: time.Hour}
	assert.Error(t, cfg.Validate())

	cfg.SweepInterval = time.Minute
	cfg.SweepStaleness = 0
	assert.Error(t, cfg.Validate())
}

func TestConfig_EnabledFlags(t *testing.T) {
	cfg := &Config{}
	assert.False(t, cfg.SlackEnabled())
	assert.False(t, cfg.NarrativeEnabled())

	cfg.SlackBotToken = "xoxb-test"
	cfg.SlackChannel = "C012345"
	assert.True(t, cfg.SlackEnabled())

	cfg.AnthropicAPIKey = "sk-test"
	assert.True(t, cfg.NarrativeEnabled())
}

func TestConfig_CORSOriginList(t *testing.T) {
	cfg := &Config{}
	assert.Nil(t, cfg.CORSOriginList())

	cfg.CORSOrigins = "https://a.example, https://b.example ,"
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOriginList())
}

package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *ServerConfig {
	return &ServerConfig{
		HTTPPort:           "8080",
		StoreBackend:       StoreBackendMemory,
		ResultTTLMin:       10,
		GoogleClientID:     "id",
		GoogleClientSecret: "secret",
		GoogleRedirectURL:  "https://bridge.synk.app/oauth2callback",
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("GOOGLE_CLIENT_ID", "id")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, StoreBackendMemory, cfg.StoreBackend)
	assert.Equal(t, 10, cfg.ResultTTLMin)
	assert.Equal(t, "id", cfg.GoogleClientID)
	assert.Equal(t, "synk-authbridge", cfg.OtelServiceName)
}

func TestValidateOK(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidateMissingGoogleCredentials(t *testing.T) {
	cfg := validConfig()
	cfg.GoogleClientSecret = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GOOGLE_CLIENT_SECRET")
}

func TestValidateUnknownBackend(t *testing.T) {
	cfg := validConfig()
	cfg.StoreBackend = "etcd"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RESULT_STORE_BACKEND")
}

func TestValidatePartialNotion(t *testing.T) {
	cfg := validConfig()
	cfg.NotionClientID = "notion-id"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Notion")
}

func TestValidateNonPositiveTTL(t *testing.T) {
	cfg := validConfig()
	cfg.ResultTTLMin = 0

	assert.Error(t, cfg.Validate())
}

func TestNotionEnabled(t *testing.T) {
	cfg := validConfig()
	assert.False(t, cfg.NotionEnabled())

	cfg.NotionClientID = "id"
	cfg.NotionClientSecret = "secret"
	cfg.NotionRedirectURL = "https://bridge.synk.app/oauth2callback?provider=notion"
	assert.True(t, cfg.NotionEnabled())
}

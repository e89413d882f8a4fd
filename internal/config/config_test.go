package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nsilibridge.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefaultsAreValid(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 50051, cfg.Server.Port)
	assert.Equal(t, 60*time.Second, cfg.StandingQuery.DefaultUpdateInterval)
	assert.Equal(t, "NSIL_ALL_VIEW", cfg.Query.DefaultView)
	assert.Equal(t, int64(8<<20), cfg.Catalog.MaxResourceBytes)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 7000
log:
  level: debug
  pretty: true
catalog:
  url: https://catalog.example.org/api
  timeout: 5s
standing_query:
  default_update_interval: 2m
  max_wait_to_start: 30s
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, 9090, cfg.Server.MetricsPort)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Log.Pretty)
	assert.Equal(t, "https://catalog.example.org/api", cfg.Catalog.URL)
	assert.Equal(t, 5*time.Second, cfg.Catalog.Timeout)
	assert.Equal(t, 2*time.Minute, cfg.StandingQuery.DefaultUpdateInterval)
	assert.Equal(t, 30*time.Second, cfg.StandingQuery.MaxWaitToStart)
	assert.Equal(t, 10000, cfg.StandingQuery.MaxPendingResults)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 0
log:
  level: loud
catalog:
  url: not a url
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Config.Server.Port")
	assert.Contains(t, err.Error(), "Config.Log.Level")
	assert.Contains(t, err.Error(), "Config.Catalog.URL")
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "server: [unterminated"))
	assert.Error(t, err)

	cfg := Default()
	cfg.Server.MetricsPort = cfg.Server.Port
	assert.Error(t, cfg.Validate())
}

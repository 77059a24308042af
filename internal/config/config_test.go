package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8087, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.True(t, cfg.NATS.Enabled)
	assert.Equal(t, "respond.alerts.triggered", cfg.NATS.Subject)
	assert.Equal(t, "iris-dispatch", cfg.NATS.Queue)
	assert.Equal(t, "rules", cfg.Rules.Dir)
	assert.Equal(t, 1, cfg.Iris.CustomerID)
	assert.Equal(t, 30*time.Second, cfg.Iris.Timeout)
	assert.Equal(t, "TelHawk", cfg.Iris.AlertSource)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: 9999
logging:
  level: debug
  format: text
nats:
  enabled: false
iris:
  host: iris.internal.example.com
  api_token: secret
  ignore_ssl_errors: true
  timeout: 5s
rules:
  dir: /etc/telhawk/iris/rules.d
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.False(t, cfg.NATS.Enabled)
	assert.Equal(t, "iris.internal.example.com", cfg.Iris.Host)
	assert.Equal(t, "secret", cfg.Iris.APIToken)
	assert.True(t, cfg.Iris.IgnoreSSLErrors)
	assert.Equal(t, 5*time.Second, cfg.Iris.Timeout)
	assert.Equal(t, "/etc/telhawk/iris/rules.d", cfg.Rules.Dir)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

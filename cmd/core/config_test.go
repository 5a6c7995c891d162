package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfig_Defaults(t *testing.T) {
	cfg, err := parseConfig([]byte(`{}`))
	require.NoError(t, err)

	assert.Equal(t, ":50051", cfg.Server.GrpcAddr)
	assert.Equal(t, ":8080", cfg.Server.HTTPAddr)
	assert.Equal(t, ":9090", cfg.Server.MetricsAddr)
	assert.Equal(t, 3, cfg.Scheduler.Workers)
	assert.Equal(t, 100, cfg.Scheduler.QueueCapacity)
	assert.Equal(t, NotifierLog, cfg.Notifier.Type)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 3306, cfg.MySQL.Port)
}

func TestParseConfig_Values(t *testing.T) {
	cfg, err := parseConfig([]byte(`
scheduler:
  workers: 8
  queue_capacity: 500
notifier:
  type: nats
  nats_subject: custom.subject
mysql:
  conn_max_lifetime: 5m
`))
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.Scheduler.Workers)
	assert.Equal(t, 500, cfg.Scheduler.QueueCapacity)
	assert.Equal(t, NotifierNATS, cfg.Notifier.Type)
	assert.Equal(t, "custom.subject", cfg.Notifier.NATSSubject)
	assert.Equal(t, 5*time.Minute, cfg.MySQL.ConnMaxLifetime)
}

func TestParseConfig_UnknownNotifier(t *testing.T) {
	_, err := parseConfig([]byte("notifier:\n  type: email\n"))
	assert.EqualError(t, err, `unknown notifier type "email"`)
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  http_addr: \":18080\"\n"), 0o644))
	t.Setenv("CONFIG_PATH", path)

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, ":18080", cfg.Server.HTTPAddr)
}

func TestLoadConfig_RepoFile(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join("..", "..", "config", "config.yaml"))

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, NotifierLog, cfg.Notifier.Type)
	assert.Equal(t, 30*time.Minute, cfg.MySQL.ConnMaxLifetime)
}

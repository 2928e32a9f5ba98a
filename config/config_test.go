package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pofcore.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
factory_id: pof-north
web:
  port: 9090
  secure_cookies: true
database:
  driver: postgres
  postgres:
    host: db.internal
    port: 5432
    database: pofcore
    user: pof
    sslmode: disable
messaging:
  backend: mqtt
  mqtt_broker: tcp://edge:1883
policy:
  day_start_hour: 7
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "pof-north", cfg.FactoryID)
	assert.Equal(t, 9090, cfg.Web.Port)
	assert.True(t, cfg.Web.SecureCookies)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "db.internal", cfg.Database.Postgres.Host)
	assert.Equal(t, "mqtt", cfg.Messaging.Backend)
	assert.Equal(t, 7, cfg.Policy.DayStartHour)

	// Untouched keys keep their defaults.
	assert.Equal(t, "0.0.0.0", cfg.Web.Host)
	assert.Len(t, cfg.Policy.DefaultRouting, 4)
}

func TestLoadRejectsBadDriver(t *testing.T) {
	path := writeConfig(t, "database:\n  driver: oracle\n")
	_, err := Load(path)
	assert.ErrorContains(t, err, "unsupported database driver")
}

func TestLoadRejectsBadBackend(t *testing.T) {
	path := writeConfig(t, "messaging:\n  backend: carrier-pigeon\n")
	_, err := Load(path)
	assert.ErrorContains(t, err, "unsupported messaging backend")
}

func TestLoadRejectsBadDayStart(t *testing.T) {
	path := writeConfig(t, "policy:\n  day_start_hour: 25\n")
	_, err := Load(path)
	assert.ErrorContains(t, err, "day_start_hour")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.validate())
	assert.Equal(t, 9, cfg.Policy.DayStartHour)
}

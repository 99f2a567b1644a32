package config

import (
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
api:
  environment: test
  port: "9000"
postgres:
  host: db
  port: "5432"
  user: u
  password: p
  db: rifas
discord:
  token: from-file
raffle:
  sweepInterval: 30s
  replyTimeout: 90s
  maxQuantityPerReservation: 10
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	conf, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "test", conf.API.Environment)
	assert.Equal(t, "9000", conf.API.Port)
	assert.Equal(t, "from-file", conf.Discord.Token)
	assert.Equal(t, 30*time.Second, conf.Raffle.SweepInterval)
	assert.Equal(t, 90*time.Second, conf.Raffle.ReplyTimeout)
	assert.Equal(t, 10, conf.Raffle.MaxQuantityPerReservation)

	// defaults
	assert.Equal(t, 30*time.Minute, conf.Raffle.SessionTTL)
	assert.Equal(t, BackendMemory, conf.Storage.Backend)
	assert.Equal(t, "disable", conf.Postgres.SSLMode)
	assert.Equal(t, "R$", conf.Raffle.CurrencySymbol)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "from-env")
	t.Setenv("STORAGE_BACKEND", BackendPostgres)
	t.Setenv("RAFFLE_MAXQUANTITYPERRESERVATION", "3")

	conf, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "from-env", conf.Discord.Token)
	assert.Equal(t, BackendPostgres, conf.Storage.Backend)
	assert.Equal(t, 3, conf.Raffle.MaxQuantityPerReservation)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	assert.Error(t, err)
}

func TestPostgresConfig_DSN(t *testing.T) {
	c := PostgresConfig{Host: "h", Port: "1", User: "u", Password: "p", DB: "d", SSLMode: "disable"}
	assert.Equal(t, "host=h port=1 user=u password=p dbname=d sslmode=disable", c.DSN())

	c.URL = "postgres://x"
	assert.Equal(t, "postgres://x", c.DSN())
}

func TestRaffleConfig_Location(t *testing.T) {
	assert.Equal(t, time.UTC, RaffleConfig{}.Location())
	assert.Equal(t, time.UTC, RaffleConfig{Timezone: "Not/AZone"}.Location())
}

func TestWatch(t *testing.T) {
	path := writeConfig(t, sampleConfig)

	var interval atomic.Int64
	conf, err := Watch(path, func(c *AppConfig) {
		interval.Store(int64(c.Raffle.SweepInterval))
	})
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, conf.Raffle.SweepInterval)

	updated := strings.Replace(sampleConfig, "sweepInterval: 30s", "sweepInterval: 10s", 1)
	require.NoError(t, os.WriteFile(path, []byte(updated), 0o600))

	assert.Eventually(t, func() bool {
		return time.Duration(interval.Load()) == 10*time.Second
	}, 5*time.Second, 50*time.Millisecond)
}

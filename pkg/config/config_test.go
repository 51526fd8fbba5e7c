package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("STORE_DRIVER", "local")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StoreDriverLocal, cfg.Store.Driver)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, 24*time.Hour, cfg.JWT.Expiration)
	assert.Equal(t, 24, cfg.Settings.CancellationHours)
	assert.Equal(t, 25, cfg.Settings.PoolCapacity)
	assert.False(t, cfg.Events.Enabled())
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("STORE_DRIVER", "supabase")

	_, err := Load()
	require.Error(t, err)
}

func TestScheduleLocationFallback(t *testing.T) {
	assert.Equal(t, time.UTC, ScheduleConfig{}.Location())
	assert.Equal(t, time.UTC, ScheduleConfig{Timezone: "Not/AZone"}.Location())
	assert.Equal(t, "Europe/Amsterdam", ScheduleConfig{Timezone: "Europe/Amsterdam"}.Location().String())
}

func TestSplitAndTrim(t *testing.T) {
	assert.Nil(t, splitAndTrim(""))
	assert.Equal(t, []string{"http://a", "http://b"}, splitAndTrim(" http://a , ,http://b"))
}

func TestDatabaseDSN(t *testing.T) {
	dsn := DatabaseConfig{Host: "db", Port: 5433, User: "u", Password: "p", Name: "swim", SSLMode: "disable"}.DSN()
	assert.Equal(t, "host=db port=5433 user=u password=p dbname=swim sslmode=disable", dsn)
}

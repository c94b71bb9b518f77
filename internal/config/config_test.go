package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"qitt-service/internal/timeofday"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
env: dev
storage_path: postgres://qitt@localhost/qitt?sslmode=disable
http_server:
  address: 0.0.0.0:9000
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, "0.0.0.0:9000", cfg.Address)
	assert.Equal(t, 4*time.Second, cfg.HTTPServer.Timeout)
	assert.Equal(t, []string{"saturday", "sunday"}, cfg.RestDays)
	assert.Equal(t, 30*time.Minute, cfg.MinGap)
	assert.False(t, cfg.Push.Enabled)
	assert.True(t, cfg.MigrateOnStart)

	r, err := cfg.Schedule.Resolver()
	require.NoError(t, err)
	assert.True(t, r.IsRestDay(time.Sunday))
	assert.False(t, r.IsRestDay(time.Monday))
	assert.Equal(t, timeofday.TimeOfDay{Hour: 8}, r.DayStart)
	assert.Equal(t, timeofday.TimeOfDay{Hour: 18}, r.DayEnd)
}

func TestLoadScheduleOverrides(t *testing.T) {
	path := writeConfig(t, `
storage_path: postgres://localhost/qitt
timezone: Africa/Lagos
schedule:
  rest_days: [friday, "6"]
  day_start: 7:30am
  day_end: "17:00"
  min_gap: 45m
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Africa/Lagos", loc.String())

	r, err := cfg.Schedule.Resolver()
	require.NoError(t, err)
	assert.True(t, r.IsRestDay(time.Friday))
	assert.True(t, r.IsRestDay(time.Saturday))
	assert.False(t, r.IsRestDay(time.Sunday))
	assert.Equal(t, timeofday.TimeOfDay{Hour: 7, Minute: 30}, r.DayStart)
	assert.Equal(t, 45*time.Minute, r.MinGap)
}

func TestLoadRejectsBadSchedule(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "unknown rest day", body: "storage_path: x\nschedule:\n  rest_days: [someday]\n"},
		{name: "bad day start", body: "storage_path: x\nschedule:\n  day_start: morning\n"},
		{name: "inverted window", body: "storage_path: x\nschedule:\n  day_start: \"18:00\"\n  day_end: \"08:00\"\n"},
		{name: "bad timezone", body: "storage_path: x\ntimezone: Mars/Olympus\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingStoragePath(t *testing.T) {
	_, err := Load(writeConfig(t, "env: local\n"))
	assert.Error(t, err)
}

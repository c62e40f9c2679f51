package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv(env(nil))
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "UTC", cfg.Timezone)
	assert.Equal(t, "irrigo.db", cfg.DBPath)
	assert.Equal(t, 3*time.Second, cfg.WeatherTimeout)
	assert.Equal(t, 3*time.Hour, cfg.WeatherCacheTTL)
	assert.Equal(t, "@every 1h", cfg.TickSpec)
	assert.True(t, cfg.TickOnStart)
	assert.True(t, cfg.CatalogWatch)
	assert.Equal(t, 4, cfg.SweepWorkers)
	assert.Equal(t, 30, cfg.NotifyRetentionDays)
	assert.Equal(t, 5, cfg.RecentCompleted)
	assert.Equal(t, 10.0, cfg.RainThresholdMM)
	assert.Equal(t, 2, cfg.RainDelayDays)
	assert.Equal(t, 35.0, cfg.HeatwaveC)
	assert.Equal(t, 1, cfg.HeatAccelDays)
	assert.False(t, cfg.EnableStrictAuth)
	assert.Empty(t, cfg.CatalogPaths)
}

func TestFromEnvOverrides(t *testing.T) {
	cfg, err := FromEnv(env(map[string]string{
		"TZ":                 "Asia/Kolkata",
		"CATALOG_PATH":       "crops.yaml; extra.csv,",
		"SWEEP_WORKERS":      "8",
		"RAIN_THRESHOLD_MM":  "7.5",
		"WEATHER_TIMEOUT":    "1500ms",
		"ENABLE_STRICT_AUTH": "true",
	}))
	require.NoError(t, err)
	assert.Equal(t, []string{"crops.yaml", "extra.csv"}, cfg.CatalogPaths)
	assert.Equal(t, 8, cfg.SweepWorkers)
	assert.Equal(t, 7.5, cfg.RainThresholdMM)
	assert.Equal(t, 1500*time.Millisecond, cfg.WeatherTimeout)
	assert.True(t, cfg.EnableStrictAuth)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Asia/Kolkata", loc.String())
}

func TestFromEnvReportsEveryBadValue(t *testing.T) {
	_, err := FromEnv(env(map[string]string{
		"SWEEP_WORKERS":   "0",
		"HEATWAVE_C":      "hot",
		"TICK_ON_START":   "maybe",
		"WEATHER_TIMEOUT": "soon",
		"TZ":              "Mars/Olympus",
	}))
	require.Error(t, err)
	for _, k := range []string{"SWEEP_WORKERS", "HEATWAVE_C", "TICK_ON_START", "WEATHER_TIMEOUT", "TZ"} {
		assert.ErrorContains(t, err, k)
	}
}

package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // TZ must resolve on hosts without zoneinfo

	"github.com/joho/godotenv"
)

type AppConfig struct {
	Port     string
	Timezone string
	DBPath   string

	LogLevel  string
	LogFormat string

	WeatherEndpoint   string
	WeatherAPIKey     string
	WeatherTimeout    time.Duration
	WeatherRatePerSec int
	WeatherCacheTTL   time.Duration

	CatalogPaths []string
	CatalogWatch bool

	TickSpec            string
	TickOnStart         bool
	SweepWorkers        int
	NotifyRetentionDays int
	RecentCompleted     int

	RainThresholdMM float64
	RainDelayDays   int
	HeatwaveC       float64
	HeatAccelDays   int

	EnableStrictAuth bool
}

// Location resolves Timezone, falling back to UTC for an empty value.
func (c AppConfig) Location() (*time.Location, error) {
	if strings.TrimSpace(c.Timezone) == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(c.Timezone)
}

// Load reads .env (when present) and the environment. Malformed values are collected
// into a single error.
func Load() (AppConfig, error) {
	// a missing .env is normal outside development
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

func FromEnv(getenv func(string) string) (AppConfig, error) {
	var errs []error
	get := func(k, def string) string {
		if v := strings.TrimSpace(getenv(k)); v != "" {
			return v
		}
		return def
	}
	getInt := func(k string, def, min int) int {
		s := get(k, "")
		if s == "" {
			return def
		}
		v, err := strconv.Atoi(s)
		if err != nil || v < min {
			errs = append(errs, fmt.Errorf("%s: want integer >= %d, got %q", k, min, s))
			return def
		}
		return v
	}
	getFloat := func(k string, def float64) float64 {
		s := get(k, "")
		if s == "" {
			return def
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: want number, got %q", k, s))
			return def
		}
		return v
	}
	getBool := func(k string, def bool) bool {
		s := get(k, "")
		if s == "" {
			return def
		}
		v, err := strconv.ParseBool(s)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: want boolean, got %q", k, s))
			return def
		}
		return v
	}
	getDur := func(k string, def time.Duration) time.Duration {
		s := get(k, "")
		if s == "" {
			return def
		}
		v, err := time.ParseDuration(s)
		if err != nil || v <= 0 {
			errs = append(errs, fmt.Errorf("%s: want positive duration, got %q", k, s))
			return def
		}
		return v
	}

	cfg := AppConfig{
		Port:     get("PORT", "8080"),
		Timezone: get("TZ", "UTC"),
		DBPath:   get("DB_PATH", "irrigo.db"),

		LogLevel:  get("LOG_LEVEL", "info"),
		LogFormat: get("LOG_FORMAT", "console"),

		WeatherEndpoint:   get("WEATHER_ENDPOINT", "https://api.openweathermap.org"),
		WeatherAPIKey:     get("WEATHER_API_KEY", ""),
		WeatherTimeout:    getDur("WEATHER_TIMEOUT", 3*time.Second),
		WeatherRatePerSec: getInt("WEATHER_RATE_PER_SEC", 5, 1),
		WeatherCacheTTL:   getDur("WEATHER_CACHE_TTL", 3*time.Hour),

		CatalogPaths: splitList(get("CATALOG_PATH", "")),
		CatalogWatch: getBool("CATALOG_WATCH", true),

		TickSpec:            get("TICK_SPEC", "@every 1h"),
		TickOnStart:         getBool("TICK_ON_START", true),
		SweepWorkers:        getInt("SWEEP_WORKERS", 4, 1),
		NotifyRetentionDays: getInt("NOTIFY_RETENTION_DAYS", 30, 1),
		RecentCompleted:     getInt("RECENT_COMPLETED", 5, 0),

		RainThresholdMM: getFloat("RAIN_THRESHOLD_MM", 10),
		RainDelayDays:   getInt("RAIN_DELAY_DAYS", 2, 0),
		HeatwaveC:       getFloat("HEATWAVE_C", 35),
		HeatAccelDays:   getInt("HEAT_ACCEL_DAYS", 1, 0),

		EnableStrictAuth: getBool("ENABLE_STRICT_AUTH", false),
	}
	if _, err := cfg.Location(); err != nil {
		errs = append(errs, fmt.Errorf("TZ: %w", err))
	}
	return cfg, errors.Join(errs...)
}

// splitList splits a comma or semicolon separated list, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, p := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ';' }) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

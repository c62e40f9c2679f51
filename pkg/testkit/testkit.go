// Package testkit holds helpers shared by package tests.
package testkit

import (
	"context"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"irrigo/database"
	"irrigo/pkg/weather"
)

// DB opens a migrated SQLite database in a temp dir, closed when the test ends.
func DB(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

// Weather is a scripted weather client. Unscripted days return a dry mild forecast.
type Weather struct {
	mu    sync.Mutex
	days  map[string]weather.Forecast
	errs  map[string]error
	Calls atomic.Int64
	// Delay is slept before answering, honoring ctx.
	Delay time.Duration
}

func NewWeather() *Weather {
	return &Weather{days: map[string]weather.Forecast{}, errs: map[string]error{}}
}

func (w *Weather) Set(day string, f weather.Forecast) {
	w.mu.Lock()
	w.days[day] = f
	delete(w.errs, day)
	w.mu.Unlock()
}

func (w *Weather) Fail(day string, err error) {
	w.mu.Lock()
	w.errs[day] = err
	w.mu.Unlock()
}

func (w *Weather) Rain(day string, mm float64) {
	w.Set(day, weather.Forecast{TempC: 22, TempMaxC: 24, HumidityPct: 90, PrecipitationMM: &mm, Description: "moderate rain"})
}

func (w *Weather) Heat(day string, maxC float64) {
	zero := 0.0
	w.Set(day, weather.Forecast{TempC: maxC - 4, TempMaxC: maxC, HumidityPct: 20, PrecipitationMM: &zero, Description: "clear sky"})
}

func (w *Weather) GetForecast(ctx context.Context, city string, date time.Time) (weather.Forecast, error) {
	w.Calls.Add(1)
	if w.Delay > 0 {
		select {
		case <-ctx.Done():
			return weather.Forecast{}, ctx.Err()
		case <-time.After(w.Delay):
		}
	}
	day := date.Format("2006-01-02")
	w.mu.Lock()
	defer w.mu.Unlock()
	if err, ok := w.errs[day]; ok {
		return weather.Forecast{}, err
	}
	if f, ok := w.days[day]; ok {
		return f, nil
	}
	zero := 0.0
	return weather.Forecast{TempC: 25, TempMaxC: 28, HumidityPct: 50, PrecipitationMM: &zero, Description: "few clouds"}, nil
}

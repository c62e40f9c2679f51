// Package weather looks up forecasts and turns them into irrigation schedule adjustments.
package weather

import (
	"context"
	"errors"
	"time"
)

// ErrBeyondHorizon means the source has no forecast for the requested day.
var ErrBeyondHorizon = errors.New("date beyond forecast horizon")

type Forecast struct {
	TempC       float64
	TempMaxC    float64
	HumidityPct float64
	// PrecipitationMM is nil when the source did not report an amount.
	PrecipitationMM *float64
	Description     string
}

type Client interface {
	GetForecast(ctx context.Context, city string, date time.Time) (Forecast, error)
}

// ClientFunc adapts a function to Client.
type ClientFunc func(ctx context.Context, city string, date time.Time) (Forecast, error)

func (f ClientFunc) GetForecast(ctx context.Context, city string, date time.Time) (Forecast, error) {
	return f(ctx, city, date)
}

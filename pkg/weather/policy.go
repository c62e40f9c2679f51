package weather

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"irrigo/pkg/apperr"
	"irrigo/pkg/logx"
)

type Modifier string

const (
	None       Modifier = "none"
	Delay      Modifier = "delay"
	Accelerate Modifier = "accelerate"
)

type Thresholds struct {
	RainMM        float64
	RainDelayDays int
	HeatC         float64
	HeatAccelDays int
	Timeout       time.Duration
}

func DefaultThresholds() Thresholds {
	return Thresholds{RainMM: 10, RainDelayDays: 2, HeatC: 35, HeatAccelDays: 1, Timeout: 3 * time.Second}
}

type Decision struct {
	Modifier Modifier
	Days     int
	Alert    string
	// Warning is set when the forecast could not be fetched. The decision is then None.
	Warning error
}

// Shift is the signed number of days the due date moves.
func (d Decision) Shift() int {
	switch d.Modifier {
	case Delay:
		return d.Days
	case Accelerate:
		return -d.Days
	}
	return 0
}

func (d Decision) Changes() bool { return d.Shift() != 0 }

// Evaluator is what the scheduler needs from a policy.
type Evaluator interface {
	Evaluate(ctx context.Context, city string, date time.Time) Decision
}

type Policy struct {
	client Client
	th     Thresholds
	log    logx.Logger
}

func NewPolicy(client Client, th Thresholds, log logx.Logger) *Policy {
	if th.Timeout <= 0 {
		th.Timeout = 3 * time.Second
	}
	return &Policy{client: client, th: th, log: log.With(logx.String("comp", "weather"))}
}

// Evaluate never fails: lookup errors degrade to None with a Warning.
func (p *Policy) Evaluate(ctx context.Context, city string, date time.Time) Decision {
	ctx, cancel := context.WithTimeout(ctx, p.th.Timeout)
	defer cancel()

	f, err := p.client.GetForecast(ctx, city, date)
	if err != nil {
		if errors.Is(err, ErrBeyondHorizon) {
			return Decision{Modifier: None}
		}
		w := fmt.Errorf("%w: %s on %s: %v", apperr.ErrWeatherUnavailable, city, date.Format("2006-01-02"), err)
		p.log.Warn("weather lookup failed", logx.String("city", city), logx.Err(err))
		return Decision{Modifier: None, Warning: w}
	}
	return Decide(f, p.th)
}

// Decide maps a forecast to a schedule adjustment. Rain beats heat.
func Decide(f Forecast, th Thresholds) Decision {
	if isRain(f, th) && th.RainDelayDays > 0 {
		return Decision{
			Modifier: Delay,
			Days:     th.RainDelayDays,
			Alert:    fmt.Sprintf("Rain expected — delayed %d day(s)", th.RainDelayDays),
		}
	}
	if f.TempMaxC >= th.HeatC && th.HeatAccelDays > 0 {
		return Decision{
			Modifier: Accelerate,
			Days:     th.HeatAccelDays,
			Alert:    "Heatwave — accelerated",
		}
	}
	return Decision{Modifier: None}
}

func isRain(f Forecast, th Thresholds) bool {
	if f.PrecipitationMM != nil {
		return *f.PrecipitationMM >= th.RainMM
	}
	d := strings.ToLower(f.Description)
	return strings.Contains(d, "rain") || strings.Contains(d, "thunderstorm") || strings.Contains(d, "drizzle")
}

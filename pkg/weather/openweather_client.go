package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"irrigo/entities"
	"irrigo/pkg/clock"
)

// Days after today for which the 5 day / 3 hour forecast can answer.
const forecastHorizonDays = 5

type openWeather struct {
	endpoint string
	key      string
	httpc    *http.Client
	limiter  *rate.Limiter
	clock    clock.Clock
}

type OpenWeatherOptions struct {
	Endpoint   string
	APIKey     string
	Timeout    time.Duration
	RatePerSec int
	Clock      clock.Clock
}

// NewOpenWeather queries OpenWeatherMap: current conditions for today, the
// 3-hourly forecast aggregated per day for the following days.
func NewOpenWeather(o OpenWeatherOptions) Client {
	if o.Timeout <= 0 {
		o.Timeout = 3 * time.Second
	}
	if o.RatePerSec <= 0 {
		o.RatePerSec = 5
	}
	if o.Clock == nil {
		o.Clock = clock.New(time.UTC)
	}
	if o.Endpoint == "" {
		o.Endpoint = "https://api.openweathermap.org"
	}
	return &openWeather{
		endpoint: strings.TrimRight(o.Endpoint, "/"),
		key:      o.APIKey,
		httpc:    &http.Client{Timeout: o.Timeout},
		limiter:  rate.NewLimiter(rate.Limit(o.RatePerSec), o.RatePerSec),
		clock:    o.Clock,
	}
}

type owmMain struct {
	Temp     float64 `json:"temp"`
	TempMax  float64 `json:"temp_max"`
	Humidity float64 `json:"humidity"`
}

type owmWeather struct {
	Description string `json:"description"`
}

type owmRain struct {
	OneHour   *float64 `json:"1h"`
	ThreeHour *float64 `json:"3h"`
}

func (r *owmRain) amount() *float64 {
	if r == nil {
		return nil
	}
	if r.OneHour != nil {
		return r.OneHour
	}
	return r.ThreeHour
}

// daily extrapolates the current rain rate over a whole day so it compares against
// the same per-day thresholds as the summed forecast slots.
func (r *owmRain) daily() *float64 {
	if r == nil {
		return nil
	}
	var mm float64
	switch {
	case r.OneHour != nil:
		mm = *r.OneHour * 24
	case r.ThreeHour != nil:
		mm = *r.ThreeHour * 8
	default:
		return nil
	}
	return &mm
}

func (c *openWeather) GetForecast(ctx context.Context, city string, date time.Time) (Forecast, error) {
	today := c.clock.Today()
	ahead := entities.DaysBetween(today, date)
	switch {
	case ahead < 0 || ahead > forecastHorizonDays:
		return Forecast{}, ErrBeyondHorizon
	case ahead == 0:
		return c.current(ctx, city)
	default:
		return c.forecast(ctx, city, date)
	}
}

func (c *openWeather) current(ctx context.Context, city string) (Forecast, error) {
	var out struct {
		Main    *owmMain     `json:"main"`
		Weather []owmWeather `json:"weather"`
		Rain    *owmRain     `json:"rain"`
	}
	if err := c.get(ctx, "/data/2.5/weather", city, &out); err != nil {
		return Forecast{}, err
	}
	if out.Main == nil {
		return Forecast{}, fmt.Errorf("openweather: response without main block")
	}
	f := Forecast{
		TempC:           out.Main.Temp,
		TempMaxC:        out.Main.TempMax,
		HumidityPct:     out.Main.Humidity,
		PrecipitationMM: out.Rain.daily(),
	}
	if len(out.Weather) > 0 {
		f.Description = out.Weather[0].Description
	}
	return f, nil
}

func (c *openWeather) forecast(ctx context.Context, city string, date time.Time) (Forecast, error) {
	var out struct {
		List []struct {
			Dt      int64        `json:"dt"`
			Main    owmMain      `json:"main"`
			Weather []owmWeather `json:"weather"`
			Rain    *owmRain     `json:"rain"`
		} `json:"list"`
		City struct {
			Timezone int `json:"timezone"`
		} `json:"city"`
	}
	if err := c.get(ctx, "/data/2.5/forecast", city, &out); err != nil {
		return Forecast{}, err
	}

	loc := time.FixedZone("city", out.City.Timezone)
	want := entities.DayKey(date)

	var (
		f        Forecast
		n        int
		sumTemp  float64
		sumHum   float64
		rain     float64
		wettest  = -1.0
		firstSet bool
	)
	for _, it := range out.List {
		if entities.DayKey(time.Unix(it.Dt, 0).In(loc)) != want {
			continue
		}
		n++
		sumTemp += it.Main.Temp
		sumHum += it.Main.Humidity
		if !firstSet || it.Main.TempMax > f.TempMaxC {
			f.TempMaxC = it.Main.TempMax
		}
		mm := 0.0
		if a := it.Rain.amount(); a != nil {
			mm = *a
		}
		rain += mm
		if mm > wettest && len(it.Weather) > 0 {
			wettest = mm
			f.Description = it.Weather[0].Description
		}
		firstSet = true
	}
	if n == 0 {
		return Forecast{}, ErrBeyondHorizon
	}
	f.TempC = sumTemp / float64(n)
	f.HumidityPct = sumHum / float64(n)
	f.PrecipitationMM = &rain
	return f, nil
}

func (c *openWeather) get(ctx context.Context, path, city string, dst any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	q := url.Values{}
	q.Set("q", city)
	q.Set("appid", c.key)
	q.Set("units", "metric")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+path+"?"+q.Encode(), nil)
	if err != nil {
		return err
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("openweather %s: status %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("openweather %s: decode: %w", path, err)
	}
	return nil
}

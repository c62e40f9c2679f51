package weather

import (
	"context"
	"strings"
	"time"
)

type mockClient struct{}

// NewMock returns a client with fixed mild weather. Cities containing "rain" or "heat"
// get a rainy or hot day, which keeps manual testing without an API key interesting.
func NewMock() Client { return &mockClient{} }

func (m *mockClient) GetForecast(ctx context.Context, city string, date time.Time) (Forecast, error) {
	if err := ctx.Err(); err != nil {
		return Forecast{}, err
	}
	c := strings.ToLower(city)
	switch {
	case strings.Contains(c, "rain"):
		mm := 18.0
		return Forecast{TempC: 24, TempMaxC: 26, HumidityPct: 90, PrecipitationMM: &mm, Description: "moderate rain"}, nil
	case strings.Contains(c, "heat"):
		zero := 0.0
		return Forecast{TempC: 36, TempMaxC: 41, HumidityPct: 20, PrecipitationMM: &zero, Description: "clear sky"}, nil
	}
	zero := 0.0
	return Forecast{TempC: 27, TempMaxC: 30, HumidityPct: 55, PrecipitationMM: &zero, Description: "scattered clouds"}, nil
}

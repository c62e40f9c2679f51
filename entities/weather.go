package entities

import "time"

// WeatherReading is a cached forecast for one city on one day.
type WeatherReading struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	City            string    `gorm:"not null;uniqueIndex:ux_reading_city_day,priority:1" json:"city"` // lower-cased
	Day             string    `gorm:"not null;uniqueIndex:ux_reading_city_day,priority:2" json:"day"`  // YYYY-MM-DD
	TempC           float64   `json:"temp_c"`
	TempMaxC        float64   `json:"temp_max_c"`
	HumidityPct     float64   `json:"humidity_pct"`
	PrecipitationMM *float64  `json:"precipitation_mm"`
	Description     string    `json:"description"`
	FetchedAt       time.Time `json:"fetched_at"`
}

func (WeatherReading) TableName() string { return "weather_readings" }

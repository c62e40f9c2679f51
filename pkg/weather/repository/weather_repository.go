package repository

import (
	"time"

	"irrigo/entities"
)

type WeatherRepository interface {
	Find(city, day string) (*entities.WeatherReading, error)
	Upsert(r *entities.WeatherReading) error
	// PruneBefore drops readings for days earlier than day and returns how many went.
	PruneBefore(day time.Time) (int64, error)
}

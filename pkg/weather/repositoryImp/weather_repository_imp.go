package repositoryImp

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"irrigo/entities"
	"irrigo/pkg/apperr"
	"irrigo/pkg/weather/repository"
)

type weatherRepo struct{ db *gorm.DB }

func New(db *gorm.DB) repository.WeatherRepository { return &weatherRepo{db} }

func (r *weatherRepo) Find(city, day string) (*entities.WeatherReading, error) {
	var w entities.WeatherReading
	if err := r.db.Where("city = ? AND day = ?", city, day).First(&w).Error; err != nil {
		return nil, apperr.Persistence("find weather reading", err)
	}
	return &w, nil
}

func (r *weatherRepo) Upsert(w *entities.WeatherReading) error {
	err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "city"}, {Name: "day"}},
		DoUpdates: clause.AssignmentColumns([]string{"temp_c", "temp_max_c", "humidity_pct", "precipitation_mm", "description", "fetched_at"}),
	}).Create(w).Error
	return apperr.Persistence("upsert weather reading", err)
}

func (r *weatherRepo) PruneBefore(day time.Time) (int64, error) {
	res := r.db.Where("day < ?", entities.DayKey(day)).Delete(&entities.WeatherReading{})
	return res.RowsAffected, apperr.Persistence("prune weather readings", res.Error)
}

package entities

import (
	"math"
	"time"
)

type CropStatus string

const (
	CropGrowing CropStatus = "growing"
	CropReady   CropStatus = "ready"
	CropRemoved CropStatus = "removed"
)

// DefaultCategory is shown for crops planted without a category.
const DefaultCategory = "General"

type PlantedCrop struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	OwnerID           string     `gorm:"index;not null" json:"owner_id"`
	CropName          string     `gorm:"not null" json:"crop_name"`
	City              string     `gorm:"not null" json:"city"`
	Category          *string    `json:"category,omitempty"`
	PlantingDate      time.Time  `json:"planting_date"`
	HarvestDate       time.Time  `json:"harvest_date"`
	BaseFrequencyDays int        `gorm:"not null" json:"base_frequency_days"`
	Status            CropStatus `gorm:"index;not null" json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (PlantedCrop) TableName() string { return "planted_crops" }

// CategoryOrDefault returns the category, or DefaultCategory when unset.
func (c *PlantedCrop) CategoryOrDefault() string {
	if c.Category == nil || *c.Category == "" {
		return DefaultCategory
	}
	return *c.Category
}

// GrowthProgress is the whole percentage of the growing season elapsed on today,
// clamped to [0, 100]. It only reports 100 once the harvest date is reached.
func (c *PlantedCrop) GrowthProgress(today time.Time) int {
	total := DaysBetween(c.PlantingDate, c.HarvestDate)
	if total <= 0 {
		return 100
	}
	elapsed := DaysBetween(c.PlantingDate, today)
	pct := int(math.Round(float64(elapsed) / float64(total) * 100))
	switch {
	case pct < 0:
		return 0
	case pct >= 100 && elapsed < total:
		return 99
	case pct > 100:
		return 100
	}
	return pct
}

// HarvestReached reports whether today is on or after the harvest date.
func (c *PlantedCrop) HarvestReached(today time.Time) bool {
	return !DayOf(today).Before(DayOf(c.HarvestDate))
}

// EffectiveStatus applies the time-based Growing -> Ready transition without persisting it.
func (c *PlantedCrop) EffectiveStatus(today time.Time) CropStatus {
	if c.Status == CropGrowing && c.HarvestReached(today) {
		return CropReady
	}
	return c.Status
}

package service

import (
	"context"
	"time"

	"irrigo/entities"
)

type PlantRequest struct {
	CropName     string  `json:"crop_name"`
	City         string  `json:"city"`
	PlantingDate string  `json:"planting_date"` // YYYY-MM-DD, empty means today
	Category     *string `json:"category,omitempty"`
}

type Planted struct {
	Crop      *entities.PlantedCrop    `json:"crop"`
	FirstTask *entities.IrrigationTask `json:"first_task,omitempty"`
}

type CropSummary struct {
	ID            uint                `json:"id"`
	CropName      string              `json:"crop_name"`
	City          string              `json:"city"`
	Category      string              `json:"category"`
	PlantingDate  string              `json:"planting_date"`
	HarvestDate   string              `json:"harvest_date"`
	FrequencyDays int                 `json:"frequency"`
	Status        entities.CropStatus `json:"status"`
	Progress      int                 `json:"progress"`
}

type CropDetail struct {
	CropSummary
	Tasks []entities.IrrigationTask `json:"tasks"`
}

type CropService interface {
	PlantCrop(ctx context.Context, owner string, req PlantRequest) (*Planted, error)
	RemoveCrop(ctx context.Context, owner string, id uint) error
	ComputeGrowthProgress(crop *entities.PlantedCrop) int
	ListCrops(owner string) ([]CropSummary, error)
	GetCrop(owner string, id uint) (*CropDetail, error)

	// AdvanceStatus persists Growing -> Ready once harvest is reached.
	AdvanceStatus(ctx context.Context, cropID uint, today time.Time) (bool, error)
	ListActive() ([]entities.PlantedCrop, error)
}

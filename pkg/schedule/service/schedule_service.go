package service

import (
	"context"
	"time"

	"gorm.io/gorm"

	"irrigo/entities"
)

// Draft is a task computed outside any transaction, ready to be inserted.
type Draft struct {
	Task entities.IrrigationTask
	// Adjustment is nil when the due date was neither shifted nor clamped.
	Adjustment *entities.TaskAdjustment
	// Warning carries a weather lookup failure; the draft then has an unmodified due date.
	Warning error
}

type TaskView struct {
	ID                 uint               `json:"id"`
	CropID             uint               `json:"crop_id"`
	CropName           string             `json:"crop_name"`
	City               string             `json:"city"`
	GenerationSequence int                `json:"generation_sequence"`
	DueDate            string             `json:"due_date"`
	State              entities.TaskState `json:"state"`
	CompletedAt        *time.Time         `json:"completed_at,omitempty"`
	WeatherAlert       string             `json:"weather_alert,omitempty"`
	CatchUp            bool               `json:"catch_up"`
}

type TaskBoard struct {
	Due       []TaskView `json:"due"`
	Upcoming  []TaskView `json:"upcoming"`
	Completed []TaskView `json:"completed"`
}

type Completion struct {
	Task *entities.IrrigationTask `json:"task"`
	// Next is nil when the crop has no further cycle before harvest.
	Next *entities.IrrigationTask `json:"next,omitempty"`
}

type TaskScheduler interface {
	// DraftFirst computes the first task of a crop that is about to be created.
	DraftFirst(ctx context.Context, crop *entities.PlantedCrop, today time.Time) (*Draft, bool)
	// Insert writes a draft inside tx. The crop id is taken from crop.
	Insert(tx *gorm.DB, crop *entities.PlantedCrop, d *Draft) (*entities.IrrigationTask, error)

	EnsureDueTasks(ctx context.Context, cropID uint, today time.Time) (*entities.IrrigationTask, error)
	Reevaluate(ctx context.Context, cropID uint, today time.Time) (int, error)

	ListTasks(owner string, today time.Time) (*TaskBoard, error)
	Adjustments(owner string, taskID uint) ([]entities.TaskAdjustment, error)
}

type TaskCompleter interface {
	CompleteTask(ctx context.Context, owner string, taskID uint) (*Completion, error)
}

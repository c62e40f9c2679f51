package repository

import (
	"time"

	"gorm.io/gorm"

	"irrigo/entities"
)

type TaskRepository interface {
	WithTx(tx *gorm.DB) TaskRepository

	// Create inserts t unless its cycle (or an open task on the same day) already exists.
	// It reports whether a row was written.
	Create(t *entities.IrrigationTask) (bool, error)
	FindByID(id uint) (*entities.IrrigationTask, error)
	// Latest is the task with the highest generation sequence for the crop.
	Latest(cropID uint) (*entities.IrrigationTask, error)
	// MarkCompleted completes an open task. False means it was already completed.
	MarkCompleted(id uint, at time.Time) (bool, error)
	// ShiftDueDate applies the one weather shift an open task may receive.
	ShiftDueDate(id uint, due time.Time, alert *string, catchUp bool) (bool, error)

	OpenByCrop(cropID uint) ([]entities.IrrigationTask, error)
	DueOpenByCrop(cropID uint, today time.Time) ([]entities.IrrigationTask, error)
	ListByCrop(cropID uint) ([]entities.IrrigationTask, error)
	ListOpenByCrops(cropIDs []uint) ([]entities.IrrigationTask, error)
	RecentCompletedByCrops(cropIDs []uint, limit int) ([]entities.IrrigationTask, error)
	DeleteByCrop(cropID uint) error

	LogAdjustment(a *entities.TaskAdjustment) error
	Adjustments(taskID uint) ([]entities.TaskAdjustment, error)
	DeleteAdjustmentsByCrop(cropID uint) error
}

package repository

import (
	"gorm.io/gorm"

	"irrigo/entities"
)

type NotificationRepository interface {
	WithTx(tx *gorm.DB) NotificationRepository
	// Insert records (task, day). False means the pair was already recorded.
	Insert(rec *entities.NotificationRecord) (bool, error)
	Delete(taskID uint, day string) error
	DeleteByCrop(cropID uint) error
	// Prune drops records older than day and records whose task is gone.
	Prune(day string) (int64, error)
}

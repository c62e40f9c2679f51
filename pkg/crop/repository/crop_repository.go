package repository

import (
	"gorm.io/gorm"

	"irrigo/entities"
)

type CropRepository interface {
	// WithTx binds the repository to an open transaction.
	WithTx(tx *gorm.DB) CropRepository
	Create(c *entities.PlantedCrop) error
	FindByID(id uint) (*entities.PlantedCrop, error)
	FindOwned(id uint, owner string) (*entities.PlantedCrop, error)
	ListByOwner(owner string) ([]entities.PlantedCrop, error)
	ListActive() ([]entities.PlantedCrop, error)
	// UpdateStatus moves a crop from one status to another and reports whether a row changed.
	UpdateStatus(id uint, from, to entities.CropStatus) (bool, error)
	Delete(id uint) error
}

package repositoryImp

import (
	"gorm.io/gorm"

	"irrigo/entities"
	"irrigo/pkg/apperr"
	"irrigo/pkg/crop/repository"
)

type cropRepo struct{ db *gorm.DB }

func New(db *gorm.DB) repository.CropRepository { return &cropRepo{db} }

func (r *cropRepo) WithTx(tx *gorm.DB) repository.CropRepository { return &cropRepo{tx} }

func (r *cropRepo) Create(c *entities.PlantedCrop) error {
	return apperr.Persistence("create crop", r.db.Create(c).Error)
}

func (r *cropRepo) FindByID(id uint) (*entities.PlantedCrop, error) {
	var c entities.PlantedCrop
	if err := r.db.Where("id = ?", id).First(&c).Error; err != nil {
		return nil, apperr.Persistence("find crop", err)
	}
	return &c, nil
}

func (r *cropRepo) FindOwned(id uint, owner string) (*entities.PlantedCrop, error) {
	var c entities.PlantedCrop
	if err := r.db.Where("id = ? AND owner_id = ?", id, owner).First(&c).Error; err != nil {
		return nil, apperr.Persistence("find crop", err)
	}
	return &c, nil
}

func (r *cropRepo) ListByOwner(owner string) ([]entities.PlantedCrop, error) {
	var out []entities.PlantedCrop
	err := r.db.Where("owner_id = ? AND status <> ?", owner, entities.CropRemoved).Order("id ASC").Find(&out).Error
	return out, apperr.Persistence("list crops", err)
}

func (r *cropRepo) ListActive() ([]entities.PlantedCrop, error) {
	var out []entities.PlantedCrop
	err := r.db.Where("status <> ?", entities.CropRemoved).Order("id ASC").Find(&out).Error
	return out, apperr.Persistence("list active crops", err)
}

func (r *cropRepo) UpdateStatus(id uint, from, to entities.CropStatus) (bool, error) {
	res := r.db.Model(&entities.PlantedCrop{}).Where("id = ? AND status = ?", id, from).Update("status", to)
	if res.Error != nil {
		return false, apperr.Persistence("update crop status", res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *cropRepo) Delete(id uint) error {
	return apperr.Persistence("delete crop", r.db.Where("id = ?", id).Delete(&entities.PlantedCrop{}).Error)
}

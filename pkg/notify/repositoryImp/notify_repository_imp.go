package repositoryImp

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"irrigo/entities"
	"irrigo/pkg/apperr"
	"irrigo/pkg/notify/repository"
)

type notifyRepo struct{ db *gorm.DB }

func New(db *gorm.DB) repository.NotificationRepository { return &notifyRepo{db} }

func (r *notifyRepo) WithTx(tx *gorm.DB) repository.NotificationRepository { return &notifyRepo{tx} }

func (r *notifyRepo) Insert(rec *entities.NotificationRecord) (bool, error) {
	res := r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(rec)
	if res.Error != nil {
		return false, apperr.Persistence("record notification", res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *notifyRepo) Delete(taskID uint, day string) error {
	err := r.db.Where("task_id = ? AND day = ?", taskID, day).Delete(&entities.NotificationRecord{}).Error
	return apperr.Persistence("release notification", err)
}

func (r *notifyRepo) DeleteByCrop(cropID uint) error {
	err := r.db.Where("crop_id = ?", cropID).Delete(&entities.NotificationRecord{}).Error
	return apperr.Persistence("delete notifications", err)
}

func (r *notifyRepo) Prune(day string) (int64, error) {
	res := r.db.Where("day < ? OR task_id NOT IN (?)", day, r.db.Model(&entities.IrrigationTask{}).Select("id")).
		Delete(&entities.NotificationRecord{})
	if res.Error != nil {
		return 0, apperr.Persistence("prune notifications", res.Error)
	}
	return res.RowsAffected, nil
}

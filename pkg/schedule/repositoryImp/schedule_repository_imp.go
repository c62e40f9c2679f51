package repositoryImp

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"irrigo/entities"
	"irrigo/pkg/apperr"
	"irrigo/pkg/schedule/repository"
)

type taskRepo struct{ db *gorm.DB }

func New(db *gorm.DB) repository.TaskRepository { return &taskRepo{db} }

func (r *taskRepo) WithTx(tx *gorm.DB) repository.TaskRepository { return &taskRepo{tx} }

func (r *taskRepo) Create(t *entities.IrrigationTask) (bool, error) {
	res := r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(t)
	if res.Error != nil {
		return false, apperr.Persistence("create task", res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *taskRepo) FindByID(id uint) (*entities.IrrigationTask, error) {
	var t entities.IrrigationTask
	if err := r.db.Where("id = ?", id).First(&t).Error; err != nil {
		return nil, apperr.Persistence("find task", err)
	}
	return &t, nil
}

func (r *taskRepo) Latest(cropID uint) (*entities.IrrigationTask, error) {
	var t entities.IrrigationTask
	if err := r.db.Where("crop_id = ?", cropID).Order("generation_sequence DESC").First(&t).Error; err != nil {
		return nil, apperr.Persistence("latest task", err)
	}
	return &t, nil
}

func (r *taskRepo) MarkCompleted(id uint, at time.Time) (bool, error) {
	res := r.db.Model(&entities.IrrigationTask{}).
		Where("id = ? AND completed = ?", id, false).
		Updates(map[string]any{"completed": true, "completed_at": at})
	if res.Error != nil {
		return false, apperr.Persistence("complete task", res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *taskRepo) ShiftDueDate(id uint, due time.Time, alert *string, catchUp bool) (bool, error) {
	res := r.db.Model(&entities.IrrigationTask{}).
		Where("id = ? AND completed = ? AND weather_adjusted = ?", id, false, false).
		Updates(map[string]any{
			"due_date":         entities.DayOf(due),
			"weather_alert":    alert,
			"catch_up":         catchUp,
			"weather_adjusted": true,
		})
	if res.Error != nil {
		return false, apperr.Persistence("shift task", res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *taskRepo) OpenByCrop(cropID uint) ([]entities.IrrigationTask, error) {
	var out []entities.IrrigationTask
	err := r.db.Where("crop_id = ? AND completed = ?", cropID, false).Order("due_date ASC, id ASC").Find(&out).Error
	return out, apperr.Persistence("open tasks", err)
}

func (r *taskRepo) DueOpenByCrop(cropID uint, today time.Time) ([]entities.IrrigationTask, error) {
	var out []entities.IrrigationTask
	err := r.db.Where("crop_id = ? AND completed = ? AND due_date <= ?", cropID, false, entities.DayOf(today)).
		Order("due_date ASC, id ASC").Find(&out).Error
	return out, apperr.Persistence("due tasks", err)
}

func (r *taskRepo) ListByCrop(cropID uint) ([]entities.IrrigationTask, error) {
	var out []entities.IrrigationTask
	err := r.db.Where("crop_id = ?", cropID).Order("generation_sequence ASC").Find(&out).Error
	return out, apperr.Persistence("list tasks", err)
}

func (r *taskRepo) ListOpenByCrops(cropIDs []uint) ([]entities.IrrigationTask, error) {
	var out []entities.IrrigationTask
	if len(cropIDs) == 0 {
		return out, nil
	}
	err := r.db.Where("crop_id IN ? AND completed = ?", cropIDs, false).Order("due_date ASC, id ASC").Find(&out).Error
	return out, apperr.Persistence("list open tasks", err)
}

func (r *taskRepo) RecentCompletedByCrops(cropIDs []uint, limit int) ([]entities.IrrigationTask, error) {
	var out []entities.IrrigationTask
	if len(cropIDs) == 0 || limit <= 0 {
		return out, nil
	}
	err := r.db.Where("crop_id IN ? AND completed = ?", cropIDs, true).
		Order("completed_at DESC, id DESC").Limit(limit).Find(&out).Error
	return out, apperr.Persistence("list completed tasks", err)
}

func (r *taskRepo) DeleteByCrop(cropID uint) error {
	return apperr.Persistence("delete tasks", r.db.Where("crop_id = ?", cropID).Delete(&entities.IrrigationTask{}).Error)
}

func (r *taskRepo) LogAdjustment(a *entities.TaskAdjustment) error {
	return apperr.Persistence("log adjustment", r.db.Create(a).Error)
}

func (r *taskRepo) Adjustments(taskID uint) ([]entities.TaskAdjustment, error) {
	var out []entities.TaskAdjustment
	err := r.db.Where("task_id = ?", taskID).Order("id ASC").Find(&out).Error
	return out, apperr.Persistence("list adjustments", err)
}

func (r *taskRepo) DeleteAdjustmentsByCrop(cropID uint) error {
	return apperr.Persistence("delete adjustments", r.db.Where("crop_id = ?", cropID).Delete(&entities.TaskAdjustment{}).Error)
}

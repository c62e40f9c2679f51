package serviceImp

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"irrigo/entities"
	"irrigo/pkg/apperr"
	"irrigo/pkg/logx"
	"irrigo/pkg/schedule/service"
)

type completer struct{ s *scheduler }

// CompleteTask marks the task done and queues the next cycle from the completion day,
// both in one transaction. Completing twice fails with ErrAlreadyCompleted.
func (c *completer) CompleteTask(ctx context.Context, owner string, taskID uint) (*service.Completion, error) {
	s := c.s
	t, crop, err := s.ownedTask(owner, taskID)
	if err != nil {
		return nil, fmt.Errorf("complete task %d: %w", taskID, err)
	}

	s.locks.Lock(crop.ID)
	defer s.locks.Unlock(crop.ID)

	// reload under the lock; a concurrent removal or completion may have won
	t, crop, err = s.ownedTask(owner, taskID)
	if err != nil {
		return nil, fmt.Errorf("complete task %d: %w", taskID, err)
	}
	if t.Completed {
		return nil, fmt.Errorf("complete task %d: %w", taskID, apperr.ErrAlreadyCompleted)
	}

	now := s.clock.Now()
	today := entities.DayOf(now)

	var d *service.Draft
	if crop.Status == entities.CropGrowing && !crop.HarvestReached(today) {
		base := entities.AddDays(today, crop.BaseFrequencyDays)
		if nd, ok := s.draft(ctx, crop, t.GenerationSequence+1, base, today, entities.AdjustOnCreation); ok {
			d = nd
		}
	}

	var next *entities.IrrigationTask
	err = s.db.Transaction(func(tx *gorm.DB) error {
		ok, err := s.tasks.WithTx(tx).MarkCompleted(t.ID, now)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.ErrAlreadyCompleted
		}
		if d == nil {
			return nil
		}
		next, err = s.Insert(tx, crop, d)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("complete task %d: %w", taskID, err)
	}

	t.Completed = true
	t.CompletedAt = &now
	fields := []logx.Field{logx.Uint("crop_id", crop.ID), logx.Uint("task_id", t.ID)}
	if next != nil {
		fields = append(fields, logx.Uint("next_id", next.ID), logx.String("next_due", entities.DayKey(next.DueDate)))
	}
	s.log.Info("task completed", fields...)
	return &service.Completion{Task: t, Next: next}, nil
}

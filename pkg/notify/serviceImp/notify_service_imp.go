package serviceImp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"irrigo/entities"
	"irrigo/pkg/apperr"
	"irrigo/pkg/clock"
	cropRepo "irrigo/pkg/crop/repository"
	"irrigo/pkg/lock"
	"irrigo/pkg/logx"
	repo "irrigo/pkg/notify/repository"
	"irrigo/pkg/notify/service"
	schedRepo "irrigo/pkg/schedule/repository"
)

type Deps struct {
	Records       repo.NotificationRepository
	Tasks         schedRepo.TaskRepository
	Crops         cropRepo.CropRepository
	Sink          service.Sink
	Locks         *lock.Keyed[uint]
	Clock         clock.Clock
	Log           logx.Logger
	RetentionDays int
}

type notifier struct {
	records   repo.NotificationRepository
	tasks     schedRepo.TaskRepository
	crops     cropRepo.CropRepository
	sink      service.Sink
	locks     *lock.Keyed[uint]
	clock     clock.Clock
	log       logx.Logger
	retention int
}

func NewNotifier(d Deps) service.Notifier {
	if d.Locks == nil {
		d.Locks = lock.NewKeyed[uint]()
	}
	if d.Clock == nil {
		d.Clock = clock.New(time.UTC)
	}
	if d.RetentionDays <= 0 {
		d.RetentionDays = 30
	}
	log := d.Log.With(logx.String("comp", "notify"))
	if d.Sink == nil {
		d.Sink = NewLogSink(log)
	}
	return &notifier{
		records:   d.Records,
		tasks:     d.Tasks,
		crops:     d.Crops,
		sink:      d.Sink,
		locks:     d.Locks,
		clock:     d.Clock,
		log:       log,
		retention: d.RetentionDays,
	}
}

func (n *notifier) MaybeNotify(ctx context.Context, taskID uint, today time.Time) (bool, error) {
	t, err := n.tasks.FindByID(taskID)
	if errors.Is(err, apperr.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("notify task %d: %w", taskID, err)
	}

	n.locks.Lock(t.CropID)
	defer n.locks.Unlock(t.CropID)
	return n.maybeNotifyLocked(taskID, today)
}

func (n *notifier) maybeNotifyLocked(taskID uint, today time.Time) (bool, error) {
	t, err := n.tasks.FindByID(taskID)
	if errors.Is(err, apperr.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("notify task %d: %w", taskID, err)
	}
	if t.State(today) != entities.TaskDue {
		return false, nil
	}
	ok, err := n.records.Insert(&entities.NotificationRecord{
		TaskID: t.ID,
		CropID: t.CropID,
		Day:    entities.DayKey(today),
	})
	if err != nil {
		return false, fmt.Errorf("notify task %d: %w", taskID, err)
	}
	return ok, nil
}

func (n *notifier) NotifyDue(ctx context.Context, cropID uint, today time.Time) (int, error) {
	n.locks.Lock(cropID)
	defer n.locks.Unlock(cropID)

	crop, err := n.crops.FindByID(cropID)
	if errors.Is(err, apperr.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("notify crop %d: %w", cropID, err)
	}
	due, err := n.tasks.DueOpenByCrop(cropID, today)
	if err != nil {
		return 0, fmt.Errorf("notify crop %d: %w", cropID, err)
	}

	sent := 0
	for i := range due {
		t := &due[i]
		ok, err := n.maybeNotifyLocked(t.ID, today)
		if err != nil {
			return sent, err
		}
		if !ok {
			continue
		}
		a := alertFor(crop, t, n.clock.Now())
		if err := n.sink.Deliver(ctx, a); err != nil {
			// release the day's record so the next tick can try again
			if rerr := n.records.Delete(t.ID, entities.DayKey(today)); rerr != nil {
				n.log.Error("notification release failed", logx.Uint("task_id", t.ID), logx.Err(rerr))
			}
			return sent, fmt.Errorf("deliver alert for task %d: %w", t.ID, err)
		}
		sent++
	}
	return sent, nil
}

func alertFor(c *entities.PlantedCrop, t *entities.IrrigationTask, now time.Time) service.Alert {
	msg := fmt.Sprintf("Time to water your %s in %s", c.CropName, c.City)
	if t.CatchUp {
		msg += " (catch-up)"
	}
	return service.Alert{
		OwnerID:      c.OwnerID,
		CropID:       c.ID,
		CropName:     c.CropName,
		TaskID:       t.ID,
		DueDate:      entities.DayKey(t.DueDate),
		Message:      msg,
		WeatherAlert: t.Alert(),
		CatchUp:      t.CatchUp,
		At:           now,
	}
}

// Prune forgets records older than the retention window and records of deleted tasks.
func (n *notifier) Prune(now time.Time) (int64, error) {
	cutoff := entities.AddDays(entities.DayOf(now), -n.retention)
	removed, err := n.records.Prune(entities.DayKey(cutoff))
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		n.log.Debug("notification records pruned", logx.Int64("removed", removed))
	}
	return removed, nil
}

package serviceImp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"irrigo/entities"
	"irrigo/pkg/apperr"
	"irrigo/pkg/clock"
	cropRepo "irrigo/pkg/crop/repository"
	"irrigo/pkg/lock"
	"irrigo/pkg/logx"
	repo "irrigo/pkg/schedule/repository"
	"irrigo/pkg/schedule/service"
	"irrigo/pkg/weather"
)

// CatchUpAlert marks a task whose computed due date was already in the past.
const CatchUpAlert = "catch-up: was due earlier, scheduled for today"

type Deps struct {
	DB              *gorm.DB
	Tasks           repo.TaskRepository
	Crops           cropRepo.CropRepository
	Policy          weather.Evaluator
	Locks           *lock.Keyed[uint]
	Clock           clock.Clock
	Log             logx.Logger
	RecentCompleted int
}

type scheduler struct {
	db     *gorm.DB
	tasks  repo.TaskRepository
	crops  cropRepo.CropRepository
	policy weather.Evaluator
	locks  *lock.Keyed[uint]
	clock  clock.Clock
	log    logx.Logger
	recent int
}

func newScheduler(d Deps) *scheduler {
	if d.Locks == nil {
		d.Locks = lock.NewKeyed[uint]()
	}
	if d.Clock == nil {
		d.Clock = clock.New(time.UTC)
	}
	return &scheduler{
		db:     d.DB,
		tasks:  d.Tasks,
		crops:  d.Crops,
		policy: d.Policy,
		locks:  d.Locks,
		clock:  d.Clock,
		log:    d.Log.With(logx.String("comp", "scheduler")),
		recent: d.RecentCompleted,
	}
}

func NewScheduler(d Deps) service.TaskScheduler { return newScheduler(d) }

func NewCompleter(d Deps) service.TaskCompleter { return &completer{newScheduler(d)} }

func joinAlert(parts ...string) *string {
	out := ""
	for _, p := range parts {
		if p == "" {
			continue
		}
		if out != "" {
			out += "; "
		}
		out += p
	}
	if out == "" {
		return nil
	}
	return &out
}

// draft computes cycle seq for crop with the unadjusted due date base. Weather is
// consulted here, so callers must not hold a transaction. ok is false when the
// cycle would fall after harvest.
func (s *scheduler) draft(ctx context.Context, crop *entities.PlantedCrop, seq int, base, today time.Time, source string) (*service.Draft, bool) {
	today = entities.DayOf(today)
	harvest := entities.DayOf(crop.HarvestDate)
	due := entities.DayOf(base)
	catchUp := false
	if due.Before(today) {
		due, catchUp = today, true
	}
	if due.After(harvest) {
		return nil, false
	}

	dec := s.policy.Evaluate(ctx, crop.City, due)
	final := due
	if dec.Changes() {
		final = entities.AddDays(due, dec.Shift())
		if final.Before(today) {
			final, catchUp = today, true
		}
		if final.After(harvest) {
			final = harvest
		}
	}
	weatherMoved := !final.Equal(due)

	var alert *string
	switch {
	case weatherMoved && catchUp:
		alert = joinAlert(dec.Alert, CatchUpAlert)
	case weatherMoved:
		alert = joinAlert(dec.Alert)
	case catchUp:
		alert = joinAlert(CatchUpAlert)
	}

	d := &service.Draft{
		Task: entities.IrrigationTask{
			CropID:             crop.ID,
			GenerationSequence: seq,
			DueDate:            final,
			WeatherAlert:       alert,
			CatchUp:            catchUp,
			WeatherAdjusted:    weatherMoved,
		},
		Warning: dec.Warning,
	}
	if weatherMoved || catchUp {
		mod := dec.Modifier
		days := dec.Days
		if !weatherMoved {
			mod, days = weather.None, 0
		}
		d.Adjustment = &entities.TaskAdjustment{
			Source:   source,
			Modifier: string(mod),
			Days:     days,
			FromDate: entities.DayOf(base),
			ToDate:   final,
			Alert:    derefAlert(alert),
			CatchUp:  catchUp,
		}
	}
	return d, true
}

func derefAlert(a *string) string {
	if a == nil {
		return ""
	}
	return *a
}

func (s *scheduler) DraftFirst(ctx context.Context, crop *entities.PlantedCrop, today time.Time) (*service.Draft, bool) {
	base := entities.AddDays(crop.PlantingDate, crop.BaseFrequencyDays)
	return s.draft(ctx, crop, 1, base, today, entities.AdjustOnCreation)
}

func (s *scheduler) Insert(tx *gorm.DB, crop *entities.PlantedCrop, d *service.Draft) (*entities.IrrigationTask, error) {
	t := d.Task
	t.ID = 0
	t.CropID = crop.ID
	created, err := s.tasks.WithTx(tx).Create(&t)
	if err != nil {
		return nil, err
	}
	if !created {
		return nil, nil
	}
	if d.Adjustment != nil {
		a := *d.Adjustment
		a.TaskID = t.ID
		a.CropID = crop.ID
		if err := s.tasks.WithTx(tx).LogAdjustment(&a); err != nil {
			return nil, err
		}
	}
	return &t, nil
}

// next works out the cycle that follows the crop's latest task. ok is false when the
// crop already has an open task or no further cycle fits before harvest.
func (s *scheduler) next(ctx context.Context, crop *entities.PlantedCrop, today time.Time) (*service.Draft, bool, error) {
	if crop.Status != entities.CropGrowing || crop.HarvestReached(today) {
		return nil, false, nil
	}
	latest, err := s.tasks.Latest(crop.ID)
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		d, ok := s.DraftFirst(ctx, crop, today)
		return d, ok, nil
	case err != nil:
		return nil, false, err
	case !latest.Completed || latest.CompletedAt == nil:
		return nil, false, nil
	}
	base := entities.AddDays(entities.DayOf(latest.CompletedAt.In(s.location())), crop.BaseFrequencyDays)
	d, ok := s.draft(ctx, crop, latest.GenerationSequence+1, base, today, entities.AdjustOnCreation)
	return d, ok, nil
}

func (s *scheduler) location() *time.Location { return s.clock.Now().Location() }

func (s *scheduler) EnsureDueTasks(ctx context.Context, cropID uint, today time.Time) (*entities.IrrigationTask, error) {
	s.locks.Lock(cropID)
	defer s.locks.Unlock(cropID)

	crop, err := s.crops.FindByID(cropID)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ensure tasks for crop %d: %w", cropID, err)
	}
	d, ok, err := s.next(ctx, crop, today)
	if err != nil {
		return nil, fmt.Errorf("ensure tasks for crop %d: %w", cropID, err)
	}
	if !ok {
		return nil, nil
	}

	var created *entities.IrrigationTask
	err = s.db.Transaction(func(tx *gorm.DB) error {
		t, err := s.Insert(tx, crop, d)
		created = t
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("ensure tasks for crop %d: %w", cropID, err)
	}
	if created != nil {
		s.log.Info("task scheduled",
			logx.Uint("crop_id", cropID),
			logx.Uint("task_id", created.ID),
			logx.Int("seq", created.GenerationSequence),
			logx.String("due", entities.DayKey(created.DueDate)),
			logx.Bool("catch_up", created.CatchUp),
			logx.Bool("weather_unavailable", d.Warning != nil))
	}
	return created, nil
}

// Reevaluate gives each still-future open task of the crop its one chance at a weather
// shift. Overdue, completed and already-shifted tasks are left alone.
func (s *scheduler) Reevaluate(ctx context.Context, cropID uint, today time.Time) (int, error) {
	s.locks.Lock(cropID)
	defer s.locks.Unlock(cropID)

	today = entities.DayOf(today)
	crop, err := s.crops.FindByID(cropID)
	if errors.Is(err, apperr.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reevaluate crop %d: %w", cropID, err)
	}
	open, err := s.tasks.OpenByCrop(cropID)
	if err != nil {
		return 0, fmt.Errorf("reevaluate crop %d: %w", cropID, err)
	}

	shifted := 0
	for i := range open {
		t := &open[i]
		due := entities.DayOf(t.DueDate)
		if t.WeatherAdjusted || due.Before(today) {
			continue
		}
		dec := s.policy.Evaluate(ctx, crop.City, due)
		if !dec.Changes() {
			continue
		}
		to := entities.AddDays(due, dec.Shift())
		catchUp := t.CatchUp
		if to.Before(today) {
			to, catchUp = today, true
		}
		if harvest := entities.DayOf(crop.HarvestDate); to.After(harvest) {
			to = harvest
		}
		if to.Equal(due) {
			continue
		}
		alert := joinAlert(dec.Alert)
		if catchUp && !t.CatchUp {
			alert = joinAlert(dec.Alert, CatchUpAlert)
		}

		err := s.db.Transaction(func(tx *gorm.DB) error {
			ok, err := s.tasks.WithTx(tx).ShiftDueDate(t.ID, to, alert, catchUp)
			if err != nil || !ok {
				return err
			}
			shifted++
			return s.tasks.WithTx(tx).LogAdjustment(&entities.TaskAdjustment{
				TaskID:   t.ID,
				CropID:   cropID,
				Source:   entities.AdjustOnReevaluation,
				Modifier: string(dec.Modifier),
				Days:     dec.Days,
				FromDate: due,
				ToDate:   to,
				Alert:    derefAlert(alert),
				CatchUp:  catchUp,
			})
		})
		if err != nil {
			return shifted, fmt.Errorf("reevaluate task %d: %w", t.ID, err)
		}
		s.log.Info("task shifted by weather",
			logx.Uint("crop_id", cropID),
			logx.Uint("task_id", t.ID),
			logx.String("from", entities.DayKey(due)),
			logx.String("to", entities.DayKey(to)),
			logx.String("modifier", string(dec.Modifier)))
	}
	return shifted, nil
}

func (s *scheduler) ListTasks(owner string, today time.Time) (*service.TaskBoard, error) {
	crops, err := s.crops.ListByOwner(owner)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	byID := make(map[uint]*entities.PlantedCrop, len(crops))
	ids := make([]uint, 0, len(crops))
	for i := range crops {
		byID[crops[i].ID] = &crops[i]
		ids = append(ids, crops[i].ID)
	}

	open, err := s.tasks.ListOpenByCrops(ids)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	done, err := s.tasks.RecentCompletedByCrops(ids, s.recent)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	board := &service.TaskBoard{Due: []service.TaskView{}, Upcoming: []service.TaskView{}, Completed: []service.TaskView{}}
	for i := range open {
		v := view(&open[i], byID[open[i].CropID], today)
		if v.State == entities.TaskDue {
			board.Due = append(board.Due, v)
		} else {
			board.Upcoming = append(board.Upcoming, v)
		}
	}
	for i := range done {
		board.Completed = append(board.Completed, view(&done[i], byID[done[i].CropID], today))
	}
	return board, nil
}

func view(t *entities.IrrigationTask, c *entities.PlantedCrop, today time.Time) service.TaskView {
	v := service.TaskView{
		ID:                 t.ID,
		CropID:             t.CropID,
		GenerationSequence: t.GenerationSequence,
		DueDate:            entities.DayKey(t.DueDate),
		State:              t.State(today),
		CompletedAt:        t.CompletedAt,
		WeatherAlert:       t.Alert(),
		CatchUp:            t.CatchUp,
	}
	if c != nil {
		v.CropName = c.CropName
		v.City = c.City
	}
	return v
}

// ownedTask loads a task and checks it belongs to one of owner's crops.
func (s *scheduler) ownedTask(owner string, taskID uint) (*entities.IrrigationTask, *entities.PlantedCrop, error) {
	t, err := s.tasks.FindByID(taskID)
	if err != nil {
		return nil, nil, err
	}
	c, err := s.crops.FindOwned(t.CropID, owner)
	if err != nil {
		return nil, nil, err
	}
	return t, c, nil
}

func (s *scheduler) Adjustments(owner string, taskID uint) ([]entities.TaskAdjustment, error) {
	if _, _, err := s.ownedTask(owner, taskID); err != nil {
		return nil, fmt.Errorf("task %d: %w", taskID, err)
	}
	return s.tasks.Adjustments(taskID)
}

package serviceImp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"irrigo/entities"
	"irrigo/pkg/apperr"
	"irrigo/pkg/catalog"
	"irrigo/pkg/clock"
	repo "irrigo/pkg/crop/repository"
	"irrigo/pkg/crop/service"
	"irrigo/pkg/lock"
	"irrigo/pkg/logx"
	notifyRepo "irrigo/pkg/notify/repository"
	schedRepo "irrigo/pkg/schedule/repository"
	schedSvc "irrigo/pkg/schedule/service"
)

type Deps struct {
	DB            *gorm.DB
	Crops         repo.CropRepository
	Tasks         schedRepo.TaskRepository
	Notifications notifyRepo.NotificationRepository
	Scheduler     schedSvc.TaskScheduler
	Catalog       *catalog.Catalog
	Locks         *lock.Keyed[uint]
	Clock         clock.Clock
	Log           logx.Logger
}

type cropSvc struct {
	db      *gorm.DB
	crops   repo.CropRepository
	tasks   schedRepo.TaskRepository
	notes   notifyRepo.NotificationRepository
	sched   schedSvc.TaskScheduler
	catalog *catalog.Catalog
	locks   *lock.Keyed[uint]
	clock   clock.Clock
	log     logx.Logger
}

func NewCropService(d Deps) service.CropService {
	if d.Locks == nil {
		d.Locks = lock.NewKeyed[uint]()
	}
	if d.Clock == nil {
		d.Clock = clock.New(time.UTC)
	}
	if d.Catalog == nil {
		d.Catalog = catalog.New(d.Log)
	}
	return &cropSvc{
		db:      d.DB,
		crops:   d.Crops,
		tasks:   d.Tasks,
		notes:   d.Notifications,
		sched:   d.Scheduler,
		catalog: d.Catalog,
		locks:   d.Locks,
		clock:   d.Clock,
		log:     d.Log.With(logx.String("comp", "crops")),
	}
}

func (s *cropSvc) PlantCrop(ctx context.Context, owner string, req service.PlantRequest) (*service.Planted, error) {
	name := strings.TrimSpace(req.CropName)
	city := strings.TrimSpace(req.City)
	switch {
	case strings.TrimSpace(owner) == "":
		return nil, apperr.Invalid("owner is required")
	case name == "":
		return nil, apperr.Invalid("crop_name is required")
	case city == "":
		return nil, apperr.Invalid("city is required")
	}

	today := s.clock.Today()
	planted := today
	if pd := strings.TrimSpace(req.PlantingDate); pd != "" {
		d, err := entities.ParseDay(pd)
		if err != nil {
			return nil, apperr.Invalid("planting_date %q: want YYYY-MM-DD", pd)
		}
		planted = d
	}

	entry, known := s.catalog.Resolve(name)
	crop := &entities.PlantedCrop{
		OwnerID:           owner,
		CropName:          entry.Name,
		City:              city,
		PlantingDate:      planted,
		HarvestDate:       entities.AddDays(planted, entry.GrowthDays),
		BaseFrequencyDays: entry.FrequencyDays,
		Status:            entities.CropGrowing,
	}
	switch {
	case req.Category != nil && strings.TrimSpace(*req.Category) != "":
		c := strings.TrimSpace(*req.Category)
		crop.Category = &c
	case entry.Category != "":
		c := entry.Category
		crop.Category = &c
	}
	if crop.HarvestReached(today) {
		crop.Status = entities.CropReady
	}

	// weather is looked up before the transaction opens
	var draft *schedSvc.Draft
	if crop.Status == entities.CropGrowing {
		if d, ok := s.sched.DraftFirst(ctx, crop, today); ok {
			draft = d
		}
	}

	out := &service.Planted{Crop: crop}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.crops.WithTx(tx).Create(crop); err != nil {
			return err
		}
		if draft == nil {
			return nil
		}
		t, err := s.sched.Insert(tx, crop, draft)
		out.FirstTask = t
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("plant crop: %w", err)
	}

	fields := []logx.Field{
		logx.Uint("crop_id", crop.ID),
		logx.String("owner", owner),
		logx.String("crop", crop.CropName),
		logx.Bool("catalog_hit", known),
		logx.String("harvest", entities.DayKey(crop.HarvestDate)),
	}
	if out.FirstTask != nil {
		fields = append(fields, logx.String("first_due", entities.DayKey(out.FirstTask.DueDate)))
	}
	s.log.Info("crop planted", fields...)
	return out, nil
}

// RemoveCrop hard-deletes the crop with its tasks, adjustment log and notification records.
func (s *cropSvc) RemoveCrop(ctx context.Context, owner string, id uint) error {
	if _, err := s.crops.FindOwned(id, owner); err != nil {
		return fmt.Errorf("remove crop %d: %w", id, err)
	}

	s.locks.Lock(id)
	defer s.locks.Unlock(id)

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if _, err := s.crops.WithTx(tx).FindOwned(id, owner); err != nil {
			return err
		}
		if err := s.notes.WithTx(tx).DeleteByCrop(id); err != nil {
			return err
		}
		if err := s.tasks.WithTx(tx).DeleteAdjustmentsByCrop(id); err != nil {
			return err
		}
		if err := s.tasks.WithTx(tx).DeleteByCrop(id); err != nil {
			return err
		}
		return s.crops.WithTx(tx).Delete(id)
	})
	if err != nil {
		return fmt.Errorf("remove crop %d: %w", id, err)
	}
	s.log.Info("crop removed", logx.Uint("crop_id", id), logx.String("owner", owner))
	return nil
}

func (s *cropSvc) ComputeGrowthProgress(crop *entities.PlantedCrop) int {
	return crop.GrowthProgress(s.clock.Today())
}

func (s *cropSvc) summary(c *entities.PlantedCrop, today time.Time) service.CropSummary {
	return service.CropSummary{
		ID:            c.ID,
		CropName:      c.CropName,
		City:          c.City,
		Category:      c.CategoryOrDefault(),
		PlantingDate:  entities.DayKey(c.PlantingDate),
		HarvestDate:   entities.DayKey(c.HarvestDate),
		FrequencyDays: c.BaseFrequencyDays,
		Status:        c.EffectiveStatus(today),
		Progress:      c.GrowthProgress(today),
	}
}

func (s *cropSvc) ListCrops(owner string) ([]service.CropSummary, error) {
	crops, err := s.crops.ListByOwner(owner)
	if err != nil {
		return nil, fmt.Errorf("list crops: %w", err)
	}
	today := s.clock.Today()
	out := make([]service.CropSummary, 0, len(crops))
	for i := range crops {
		out = append(out, s.summary(&crops[i], today))
	}
	return out, nil
}

func (s *cropSvc) GetCrop(owner string, id uint) (*service.CropDetail, error) {
	c, err := s.crops.FindOwned(id, owner)
	if err != nil {
		return nil, fmt.Errorf("crop %d: %w", id, err)
	}
	tasks, err := s.tasks.ListByCrop(id)
	if err != nil {
		return nil, fmt.Errorf("crop %d: %w", id, err)
	}
	if tasks == nil {
		tasks = []entities.IrrigationTask{}
	}
	return &service.CropDetail{CropSummary: s.summary(c, s.clock.Today()), Tasks: tasks}, nil
}

func (s *cropSvc) AdvanceStatus(ctx context.Context, cropID uint, today time.Time) (bool, error) {
	s.locks.Lock(cropID)
	defer s.locks.Unlock(cropID)

	c, err := s.crops.FindByID(cropID)
	if errors.Is(err, apperr.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("advance crop %d: %w", cropID, err)
	}
	if c.Status != entities.CropGrowing || !c.HarvestReached(today) {
		return false, nil
	}
	ok, err := s.crops.UpdateStatus(cropID, entities.CropGrowing, entities.CropReady)
	if err != nil {
		return false, fmt.Errorf("advance crop %d: %w", cropID, err)
	}
	if ok {
		s.log.Info("crop ready for harvest", logx.Uint("crop_id", cropID))
	}
	return ok, nil
}

func (s *cropSvc) ListActive() ([]entities.PlantedCrop, error) {
	return s.crops.ListActive()
}

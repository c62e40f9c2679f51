package testkit

import (
	"testing"

	"gorm.io/gorm"

	"irrigo/pkg/catalog"
	"irrigo/pkg/clock"
	"irrigo/pkg/lock"
	"irrigo/pkg/logx"
	"irrigo/pkg/weather"

	cropRepo "irrigo/pkg/crop/repository"
	cropRepoImp "irrigo/pkg/crop/repositoryImp"
	cropService "irrigo/pkg/crop/service"
	cropSvcImp "irrigo/pkg/crop/serviceImp"
	notifyRepo "irrigo/pkg/notify/repository"
	notifyRepoImp "irrigo/pkg/notify/repositoryImp"
	notifyService "irrigo/pkg/notify/service"
	notifySvcImp "irrigo/pkg/notify/serviceImp"
	schedRepo "irrigo/pkg/schedule/repository"
	schedRepoImp "irrigo/pkg/schedule/repositoryImp"
	schedService "irrigo/pkg/schedule/service"
	schedSvcImp "irrigo/pkg/schedule/serviceImp"
)

// Stack is a fully wired service graph over a temp database, a fixed clock and
// scripted weather.
type Stack struct {
	DB      *gorm.DB
	Clock   *clock.Fixed
	Weather *Weather
	Locks   *lock.Keyed[uint]
	Outbox  *notifySvcImp.Outbox

	CropRepo   cropRepo.CropRepository
	TaskRepo   schedRepo.TaskRepository
	NotifyRepo notifyRepo.NotificationRepository

	Crops     cropService.CropService
	Scheduler schedService.TaskScheduler
	Completer schedService.TaskCompleter
	Notifier  notifyService.Notifier
}

type StackOption func(*stackConfig)

type stackConfig struct {
	thresholds weather.Thresholds
	sink       notifyService.Sink
}

func WithThresholds(th weather.Thresholds) StackOption {
	return func(c *stackConfig) { c.thresholds = th }
}

// WithSink delivers alerts to s in addition to the outbox.
func WithSink(s notifyService.Sink) StackOption {
	return func(c *stackConfig) { c.sink = s }
}

// NewStack wires the services with today set to the given YYYY-MM-DD day.
func NewStack(t testing.TB, today string, opts ...StackOption) *Stack {
	t.Helper()
	cfg := stackConfig{thresholds: weather.DefaultThresholds()}
	for _, o := range opts {
		o(&cfg)
	}

	db := DB(t)
	log := logx.Nop()
	st := &Stack{
		DB:         db,
		Clock:      clock.At(today),
		Weather:    NewWeather(),
		Locks:      lock.NewKeyed[uint](),
		Outbox:     notifySvcImp.NewOutbox(0),
		CropRepo:   cropRepoImp.New(db),
		TaskRepo:   schedRepoImp.New(db),
		NotifyRepo: notifyRepoImp.New(db),
	}
	policy := weather.NewPolicy(st.Weather, cfg.thresholds, log)

	sd := schedSvcImp.Deps{
		DB:              db,
		Tasks:           st.TaskRepo,
		Crops:           st.CropRepo,
		Policy:          policy,
		Locks:           st.Locks,
		Clock:           st.Clock,
		Log:             log,
		RecentCompleted: 5,
	}
	st.Scheduler = schedSvcImp.NewScheduler(sd)
	st.Completer = schedSvcImp.NewCompleter(sd)

	var sink notifyService.Sink = st.Outbox
	if cfg.sink != nil {
		sink = notifySvcImp.Fanout(st.Outbox, cfg.sink)
	}
	st.Notifier = notifySvcImp.NewNotifier(notifySvcImp.Deps{
		Records:       st.NotifyRepo,
		Tasks:         st.TaskRepo,
		Crops:         st.CropRepo,
		Sink:          sink,
		Locks:         st.Locks,
		Clock:         st.Clock,
		Log:           log,
		RetentionDays: 30,
	})
	st.Crops = cropSvcImp.NewCropService(cropSvcImp.Deps{
		DB:            db,
		Crops:         st.CropRepo,
		Tasks:         st.TaskRepo,
		Notifications: st.NotifyRepo,
		Scheduler:     st.Scheduler,
		Catalog:       catalog.New(log),
		Locks:         st.Locks,
		Clock:         st.Clock,
		Log:           log,
	})
	return st
}

// Today is the fixed clock's current day.
func (s *Stack) Today() string { return s.Clock.Today().Format("2006-01-02") }

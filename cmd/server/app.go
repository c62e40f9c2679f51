package main

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"irrigo/config"
	"irrigo/database"
	"irrigo/pkg/catalog"
	"irrigo/pkg/clock"
	"irrigo/pkg/driver"
	"irrigo/pkg/lock"
	"irrigo/pkg/logx"
	"irrigo/pkg/weather"

	cropRepoImp "irrigo/pkg/crop/repositoryImp"
	cropService "irrigo/pkg/crop/service"
	cropSvcImp "irrigo/pkg/crop/serviceImp"
	notifyRepoImp "irrigo/pkg/notify/repositoryImp"
	notifyService "irrigo/pkg/notify/service"
	notifySvcImp "irrigo/pkg/notify/serviceImp"
	schedRepoImp "irrigo/pkg/schedule/repositoryImp"
	schedService "irrigo/pkg/schedule/service"
	schedSvcImp "irrigo/pkg/schedule/serviceImp"
	weatherRepoImp "irrigo/pkg/weather/repositoryImp"
)

// app holds the wired services shared by every subcommand.
type app struct {
	cfg     config.AppConfig
	log     logx.Logger
	db      *gorm.DB
	clock   clock.Clock
	catalog *catalog.Catalog
	cache   *weather.Cache
	outbox  *notifySvcImp.Outbox

	crops     cropService.CropService
	scheduler schedService.TaskScheduler
	completer schedService.TaskCompleter
	notifier  notifyService.Notifier
	driver    *driver.Service
}

func loadConfig() (config.AppConfig, logx.Logger, error) {
	cfg, err := config.Load()
	log := logx.New(logx.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		return cfg, log, fmt.Errorf("config: %w", err)
	}
	return cfg, log, nil
}

func newApp(cfg config.AppConfig, log logx.Logger) (*app, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("timezone: %w", err)
	}
	clk := clock.New(loc)

	db, err := database.OpenSQLite(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	cat := catalog.New(log)
	if len(cfg.CatalogPaths) > 0 {
		if err := cat.LoadFiles(cfg.CatalogPaths...); err != nil {
			log.Warn("catalog files not loaded; using builtin table", logx.Err(err))
		}
	}

	var upstream weather.Client
	if cfg.WeatherAPIKey != "" {
		upstream = weather.NewOpenWeather(weather.OpenWeatherOptions{
			Endpoint:   cfg.WeatherEndpoint,
			APIKey:     cfg.WeatherAPIKey,
			Timeout:    cfg.WeatherTimeout,
			RatePerSec: cfg.WeatherRatePerSec,
			Clock:      clk,
		})
	} else {
		log.Warn("WEATHER_API_KEY not set; using mock forecasts")
		upstream = weather.NewMock()
	}
	readings := weatherRepoImp.New(db)
	cache := weather.NewCache(upstream, readings, cfg.WeatherCacheTTL, clk, log).WithFetchTimeout(cfg.WeatherTimeout)
	policy := weather.NewPolicy(cache, weather.Thresholds{
		RainMM:        cfg.RainThresholdMM,
		RainDelayDays: cfg.RainDelayDays,
		HeatC:         cfg.HeatwaveC,
		HeatAccelDays: cfg.HeatAccelDays,
		Timeout:       cfg.WeatherTimeout,
	}, log)

	locks := lock.NewKeyed[uint]()
	cropRepo := cropRepoImp.New(db)
	taskRepo := schedRepoImp.New(db)
	noteRepo := notifyRepoImp.New(db)

	schedDeps := schedSvcImp.Deps{
		DB:              db,
		Tasks:           taskRepo,
		Crops:           cropRepo,
		Policy:          policy,
		Locks:           locks,
		Clock:           clk,
		Log:             log,
		RecentCompleted: cfg.RecentCompleted,
	}
	scheduler := schedSvcImp.NewScheduler(schedDeps)
	completer := schedSvcImp.NewCompleter(schedDeps)

	outbox := notifySvcImp.NewOutbox(notifySvcImp.DefaultOutboxSize)
	notifier := notifySvcImp.NewNotifier(notifySvcImp.Deps{
		Records:       noteRepo,
		Tasks:         taskRepo,
		Crops:         cropRepo,
		Sink:          notifySvcImp.Fanout(notifySvcImp.NewLogSink(log), outbox),
		Locks:         locks,
		Clock:         clk,
		Log:           log,
		RetentionDays: cfg.NotifyRetentionDays,
	})

	crops := cropSvcImp.NewCropService(cropSvcImp.Deps{
		DB:            db,
		Crops:         cropRepo,
		Tasks:         taskRepo,
		Notifications: noteRepo,
		Scheduler:     scheduler,
		Catalog:       cat,
		Locks:         locks,
		Clock:         clk,
		Log:           log,
	})

	drv, err := driver.New(driver.Deps{
		Crops:      crops,
		Scheduler:  scheduler,
		Notifier:   notifier,
		Readings:   readings,
		Clock:      clk,
		Log:        log,
		Spec:       cfg.TickSpec,
		Workers:    cfg.SweepWorkers,
		RunOnStart: cfg.TickOnStart,
	})
	if err != nil {
		_ = database.Close(db)
		return nil, err
	}

	return &app{
		cfg:       cfg,
		log:       log,
		db:        db,
		clock:     clk,
		catalog:   cat,
		cache:     cache,
		outbox:    outbox,
		crops:     crops,
		scheduler: scheduler,
		completer: completer,
		notifier:  notifier,
		driver:    drv,
	}, nil
}

func (a *app) close() {
	if err := database.Close(a.db); err != nil {
		a.log.Warn("close database", logx.Err(err))
	}
}

// purgeLoop drops expired in-memory forecasts until done closes.
func (a *app) purgeLoop(done <-chan struct{}) {
	t := time.NewTicker(a.cfg.WeatherCacheTTL)
	defer t.Stop()
	for {
		select {
		case <-done:
			return
		case <-t.C:
			if n := a.cache.Purge(); n > 0 {
				a.log.Debug("weather cache purged", logx.Int("entries", n))
			}
		}
	}
}

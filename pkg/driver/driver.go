// Package driver runs the periodic sweep over active crops: mark harvest-ready crops,
// queue missing tasks, re-check weather for upcoming tasks, then alert on due ones.
package driver

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"irrigo/entities"
	"irrigo/pkg/clock"
	cropSvc "irrigo/pkg/crop/service"
	"irrigo/pkg/logx"
	notifySvc "irrigo/pkg/notify/service"
	schedSvc "irrigo/pkg/schedule/service"
)

// ReadingPruner drops cached weather readings for past days.
type ReadingPruner interface {
	PruneBefore(day time.Time) (int64, error)
}

type Deps struct {
	Crops     cropSvc.CropService
	Scheduler schedSvc.TaskScheduler
	Notifier  notifySvc.Notifier
	Readings  ReadingPruner // optional
	Clock     clock.Clock
	Log       logx.Logger

	Spec       string // cron expression or descriptor such as "@every 1h"
	Workers    int
	RunOnStart bool
}

type Report struct {
	ID       string    `json:"id"`
	Day      string    `json:"day"`
	Started  time.Time `json:"started"`
	Finished time.Time `json:"finished"`
	Crops    int       `json:"crops"`
	Ready    int       `json:"ready"`
	Created  int       `json:"created"`
	Shifted  int       `json:"shifted"`
	Notified int       `json:"notified"`
	Failed   int       `json:"failed"`
	Pruned   int64     `json:"pruned"`
	Skipped  bool      `json:"skipped,omitempty"`
}

type Status struct {
	Running bool      `json:"running"`
	Spec    string    `json:"spec"`
	Next    time.Time `json:"next,omitempty"`
	Last    *Report   `json:"last,omitempty"`
}

type Service struct {
	d      Deps
	log    logx.Logger
	parser cron.Parser
	sched  cron.Schedule

	mu      sync.Mutex
	c       *cron.Cron
	entry   cron.EntryID
	cancel  context.CancelFunc
	pending sync.WaitGroup
	last    *Report

	sweeping sync.Mutex
}

func New(d Deps) (*Service, error) {
	if d.Workers <= 0 {
		d.Workers = 4
	}
	if strings.TrimSpace(d.Spec) == "" {
		d.Spec = "@every 1h"
	}
	if d.Clock == nil {
		d.Clock = clock.New(time.UTC)
	}
	s := &Service{
		d:      d,
		log:    d.Log.With(logx.String("comp", "driver")),
		parser: cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
	}
	sched, err := s.parser.Parse(d.Spec)
	if err != nil {
		return nil, fmt.Errorf("tick spec %q: %w", d.Spec, err)
	}
	s.sched = sched
	return s, nil
}

// Start registers the cron job and, when configured, kicks off one sweep right away.
func (s *Service) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.c != nil {
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	loc := s.d.Clock.Now().Location()
	cl := cronLogger{s.log}
	s.c = cron.New(
		cron.WithParser(s.parser),
		cron.WithLocation(loc),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	s.entry = s.c.Schedule(s.sched, cron.FuncJob(func() {
		s.Sweep(runCtx, s.d.Clock.Today())
	}))
	s.c.Start()

	if s.d.RunOnStart {
		s.pending.Add(1)
		go func() {
			defer s.pending.Done()
			s.Sweep(runCtx, s.d.Clock.Today())
		}()
	}
	s.log.Info("driver started", logx.String("spec", s.d.Spec), logx.String("tz", loc.String()), logx.Int("workers", s.d.Workers))
}

// Stop halts the cron trigger and waits for a running sweep, or for ctx.
func (s *Service) Stop(ctx context.Context) {
	start := time.Now()
	s.mu.Lock()
	c, cancel := s.c, s.cancel
	s.c, s.cancel = nil, nil
	s.mu.Unlock()
	if c == nil {
		return
	}

	done := make(chan struct{})
	go func() {
		<-c.Stop().Done()
		s.pending.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		s.log.Warn("driver stop timed out; cancelling sweep")
	}
	cancel()
	s.log.Info("driver stopped", logx.Duration("took", time.Since(start)))
}

func (s *Service) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := Status{Running: s.c != nil, Spec: s.d.Spec}
	if s.c != nil {
		st.Next = s.c.Entry(s.entry).Next
	}
	if s.last != nil {
		cp := *s.last
		st.Last = &cp
	}
	return st
}

// Sweep processes every active crop once for today. A sweep already in progress
// makes this call return a skipped report.
func (s *Service) Sweep(ctx context.Context, today time.Time) Report {
	rep := Report{ID: uuid.NewString(), Day: entities.DayKey(today), Started: s.d.Clock.Now()}
	if !s.sweeping.TryLock() {
		rep.Skipped = true
		rep.Finished = rep.Started
		s.log.Warn("sweep skipped; previous sweep still running", logx.String("sweep_id", rep.ID))
		return rep
	}
	defer s.sweeping.Unlock()
	log := s.log.With(logx.String("sweep_id", rep.ID), logx.String("day", rep.Day))

	crops, err := s.d.Crops.ListActive()
	if err != nil {
		log.Error("sweep aborted: list crops", logx.Err(err))
		rep.Failed = 1
		rep.Finished = s.d.Clock.Now()
		s.record(&rep)
		return rep
	}
	rep.Crops = len(crops)

	var ready, created, shifted, notified, failed atomic.Int64
	var g errgroup.Group
	g.SetLimit(s.d.Workers)
	for i := range crops {
		id := crops[i].ID
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			r, c, sh, n, err := s.sweepCrop(ctx, id, today)
			if r {
				ready.Add(1)
			}
			if c {
				created.Add(1)
			}
			shifted.Add(int64(sh))
			notified.Add(int64(n))
			if err != nil {
				failed.Add(1)
				log.Error("crop sweep failed", logx.Uint("crop_id", id), logx.Err(err))
			}
			return nil
		})
	}
	_ = g.Wait()

	rep.Ready = int(ready.Load())
	rep.Created = int(created.Load())
	rep.Shifted = int(shifted.Load())
	rep.Notified = int(notified.Load())
	rep.Failed = int(failed.Load())

	if n, err := s.d.Notifier.Prune(s.d.Clock.Now()); err != nil {
		log.Warn("notification prune failed", logx.Err(err))
	} else {
		rep.Pruned = n
	}
	if s.d.Readings != nil {
		if _, err := s.d.Readings.PruneBefore(entities.AddDays(today, -1)); err != nil {
			log.Warn("weather reading prune failed", logx.Err(err))
		}
	}

	rep.Finished = s.d.Clock.Now()
	s.record(&rep)
	log.Info("sweep done",
		logx.Int("crops", rep.Crops),
		logx.Int("ready", rep.Ready),
		logx.Int("created", rep.Created),
		logx.Int("shifted", rep.Shifted),
		logx.Int("notified", rep.Notified),
		logx.Int("failed", rep.Failed),
		logx.Int64("pruned", rep.Pruned),
		logx.Duration("took", rep.Finished.Sub(rep.Started)))
	return rep
}

// sweepCrop runs the per-crop steps in order. Each step is idempotent, so a failure
// part way is simply retried on the next tick.
func (s *Service) sweepCrop(ctx context.Context, cropID uint, today time.Time) (ready, created bool, shifted, notified int, err error) {
	if ready, err = s.d.Crops.AdvanceStatus(ctx, cropID, today); err != nil {
		return
	}
	t, err := s.d.Scheduler.EnsureDueTasks(ctx, cropID, today)
	if err != nil {
		return
	}
	created = t != nil
	if shifted, err = s.d.Scheduler.Reevaluate(ctx, cropID, today); err != nil {
		return
	}
	notified, err = s.d.Notifier.NotifyDue(ctx, cropID, today)
	return
}

func (s *Service) record(rep *Report) {
	cp := *rep
	s.mu.Lock()
	s.last = &cp
	s.mu.Unlock()
}

// cronLogger adapts logx to cron's logger.
type cronLogger struct{ log logx.Logger }

func kvFields(kv []any) []logx.Field {
	var out []logx.Field
	for i := 0; i+1 < len(kv); i += 2 {
		out = append(out, logx.Any(fmt.Sprint(kv[i]), kv[i+1]))
	}
	return out
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug("cron: "+msg, kvFields(keysAndValues)...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error("cron: "+msg, append(kvFields(keysAndValues), logx.Err(err))...)
}

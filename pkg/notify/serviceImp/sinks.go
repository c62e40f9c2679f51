package serviceImp

import (
	"context"
	"errors"
	"sync"

	"irrigo/pkg/logx"
	"irrigo/pkg/notify/service"
)

type logSink struct{ log logx.Logger }

// NewLogSink writes each alert as a log line.
func NewLogSink(log logx.Logger) service.Sink { return &logSink{log: log} }

func (s *logSink) Deliver(ctx context.Context, a service.Alert) error {
	s.log.Info("irrigation due",
		logx.String("owner", a.OwnerID),
		logx.Uint("crop_id", a.CropID),
		logx.Uint("task_id", a.TaskID),
		logx.String("due", a.DueDate),
		logx.String("weather_alert", a.WeatherAlert),
		logx.Bool("catch_up", a.CatchUp))
	return nil
}

const DefaultOutboxSize = 100

// Outbox keeps the latest alerts per owner until the client drains them.
type Outbox struct {
	mu    sync.Mutex
	size  int
	boxes map[string][]service.Alert
}

func NewOutbox(size int) *Outbox {
	if size <= 0 {
		size = DefaultOutboxSize
	}
	return &Outbox{size: size, boxes: map[string][]service.Alert{}}
}

func (o *Outbox) Deliver(ctx context.Context, a service.Alert) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	box := append(o.boxes[a.OwnerID], a)
	if len(box) > o.size {
		box = append([]service.Alert(nil), box[len(box)-o.size:]...)
	}
	o.boxes[a.OwnerID] = box
	return nil
}

// Drain returns and forgets the owner's pending alerts, oldest first.
func (o *Outbox) Drain(owner string) []service.Alert {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := o.boxes[owner]
	delete(o.boxes, owner)
	if out == nil {
		out = []service.Alert{}
	}
	return out
}

func (o *Outbox) Pending(owner string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.boxes[owner])
}

type multiSink []service.Sink

// Fanout delivers to every sink and joins their errors.
func Fanout(sinks ...service.Sink) service.Sink { return multiSink(sinks) }

func (m multiSink) Deliver(ctx context.Context, a service.Alert) error {
	var errs []error
	for _, s := range m {
		if err := s.Deliver(ctx, a); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

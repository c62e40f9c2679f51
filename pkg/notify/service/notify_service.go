package service

import (
	"context"
	"time"
)

// Alert is what a sink receives when a due task should be brought to its owner's attention.
type Alert struct {
	OwnerID      string    `json:"owner_id"`
	CropID       uint      `json:"crop_id"`
	CropName     string    `json:"crop_name"`
	TaskID       uint      `json:"task_id"`
	DueDate      string    `json:"due_date"`
	Message      string    `json:"message"`
	WeatherAlert string    `json:"weather_alert,omitempty"`
	CatchUp      bool      `json:"catch_up"`
	At           time.Time `json:"at"`
}

type Sink interface {
	Deliver(ctx context.Context, a Alert) error
}

type Notifier interface {
	// MaybeNotify reports whether an alert should fire for the task today. It returns
	// true at most once per task and calendar day.
	MaybeNotify(ctx context.Context, taskID uint, today time.Time) (bool, error)
	// NotifyDue runs MaybeNotify over the crop's due tasks and delivers the alerts.
	NotifyDue(ctx context.Context, cropID uint, today time.Time) (int, error)
	Prune(now time.Time) (int64, error)
}

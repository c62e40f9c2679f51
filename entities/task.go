package entities

import "time"

type TaskState string

const (
	TaskScheduled TaskState = "scheduled"
	TaskDue       TaskState = "due"
	TaskCompleted TaskState = "completed"
)

// IrrigationTask is one watering cycle of a planted crop.
type IrrigationTask struct {
	ID                 uint       `gorm:"primaryKey" json:"id"`
	CropID             uint       `gorm:"not null;index;uniqueIndex:ux_task_cycle,priority:1" json:"crop_id"`
	GenerationSequence int        `gorm:"not null;uniqueIndex:ux_task_cycle,priority:2" json:"generation_sequence"`
	DueDate            time.Time  `gorm:"index;not null" json:"due_date"`
	Completed          bool       `gorm:"not null" json:"completed"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`
	WeatherAlert       *string    `json:"weather_alert,omitempty"`
	CatchUp            bool       `gorm:"not null" json:"catch_up"`
	// WeatherAdjusted freezes the due date against further weather shifts.
	WeatherAdjusted bool `gorm:"not null" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (IrrigationTask) TableName() string { return "irrigation_tasks" }

func (t *IrrigationTask) State(today time.Time) TaskState {
	switch {
	case t.Completed:
		return TaskCompleted
	case !DayOf(t.DueDate).After(DayOf(today)):
		return TaskDue
	default:
		return TaskScheduled
	}
}

func (t *IrrigationTask) Alert() string {
	if t.WeatherAlert == nil {
		return ""
	}
	return *t.WeatherAlert
}

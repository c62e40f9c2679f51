package entities

import "time"

const (
	AdjustOnCreation     = "creation"
	AdjustOnReevaluation = "reevaluation"
)

// TaskAdjustment records a due-date change applied to a task by weather or catch-up clamping.
type TaskAdjustment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	TaskID    uint      `gorm:"index;not null" json:"task_id"`
	CropID    uint      `gorm:"index;not null" json:"crop_id"`
	Source    string    `json:"source"`   // creation|reevaluation
	Modifier  string    `json:"modifier"` // delay|accelerate|none
	Days      int       `json:"days"`
	FromDate  time.Time `json:"from_date"`
	ToDate    time.Time `json:"to_date"`
	Alert     string    `json:"alert,omitempty"`
	CatchUp   bool      `json:"catch_up"`
	CreatedAt time.Time `json:"created_at"`
}

func (TaskAdjustment) TableName() string { return "task_adjustments" }

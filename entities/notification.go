package entities

import "time"

// NotificationRecord marks a task as already notified on a calendar day.
type NotificationRecord struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	TaskID    uint      `gorm:"not null;uniqueIndex:ux_notify_task_day,priority:1" json:"task_id"`
	Day       string    `gorm:"not null;uniqueIndex:ux_notify_task_day,priority:2;index" json:"day"` // YYYY-MM-DD
	CropID    uint      `gorm:"not null;index" json:"crop_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (NotificationRecord) TableName() string { return "notification_records" }

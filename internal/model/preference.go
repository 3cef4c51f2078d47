package model

import "time"

// NotificationPreference stores a user's daily reminder settings.
type NotificationPreference struct {
	ID                   uint   `gorm:"primaryKey"`
	UserID               string `gorm:"uniqueIndex;type:varchar(36)"`
	DailyReminderEnabled bool   `gorm:"default:false;index"`
	DailyReminderTime    string `gorm:"default:'09:00'"` // HH:MM in Timezone
	DailyReminderMessage string
	Timezone             string `gorm:"default:'UTC'"`
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

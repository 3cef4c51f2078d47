package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Recurrence kinds understood by the recurrence engine.
const (
	RecurrenceDaily   = "daily"
	RecurrenceWeekly  = "weekly"
	RecurrenceMonthly = "monthly"
)

// Priorities a task may carry. The engine copies them verbatim.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// Task is a single row of the tasks table. A task with Recurrence set is a
// template; instances point back to it through ParentTaskID.
type Task struct {
	ID                 string `gorm:"primaryKey;type:varchar(36)"`
	UserID             string `gorm:"index;type:varchar(36)"`
	Title              string
	Description        *string
	Priority           string `gorm:"default:medium"`
	Category           *string
	Progress           int  `gorm:"default:0"`
	Completed          bool `gorm:"default:false"`
	DueDate            *time.Time
	ParentTaskID       *string `gorm:"index;type:varchar(36)"`
	Recurrence         *string `gorm:"index"`
	RecurrenceEndDate  *time.Time
	LastRecurrenceDate *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// IsTemplate reports whether the task spawns recurring instances.
func (t Task) IsTemplate() bool {
	return t.Recurrence != nil && *t.Recurrence != ""
}

// RecurrenceKind returns the recurrence rule or "" for plain tasks.
func (t Task) RecurrenceKind() string {
	if t.Recurrence == nil {
		return ""
	}
	return *t.Recurrence
}

func (t *Task) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	return nil
}

// BeforeSave keeps every date column on midnight UTC.
func (t *Task) BeforeSave(tx *gorm.DB) error {
	t.DueDate = datePtr(t.DueDate)
	t.RecurrenceEndDate = datePtr(t.RecurrenceEndDate)
	t.LastRecurrenceDate = datePtr(t.LastRecurrenceDate)
	return nil
}

func datePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := DateOf(*t)
	return &d
}

package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User holds what the job runner needs to reach a person.
type User struct {
	ID             string `gorm:"primaryKey;type:varchar(36)"`
	DisplayName    string
	TelegramChatID *int64 `gorm:"uniqueIndex"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

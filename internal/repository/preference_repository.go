package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"chronicle/internal/model"
)

// PreferenceRepository manages notification preferences.
type PreferenceRepository struct {
	db *gorm.DB
}

func NewPreferenceRepository(db *gorm.DB) *PreferenceRepository {
	return &PreferenceRepository{db: db}
}

// ListEnabled returns preferences with the daily reminder switched on.
func (r *PreferenceRepository) ListEnabled(ctx context.Context) ([]model.NotificationPreference, error) {
	var prefs []model.NotificationPreference
	if err := r.db.WithContext(ctx).Where("daily_reminder_enabled = ?", true).
		Order("user_id ASC").
		Find(&prefs).Error; err != nil {
		return nil, fmt.Errorf("list preferences: %w", err)
	}
	return prefs, nil
}

// Upsert stores pref, replacing any existing row for the same user.
func (r *PreferenceRepository) Upsert(ctx context.Context, pref *model.NotificationPreference) error {
	db := r.db.WithContext(ctx)
	var existing model.NotificationPreference
	err := db.Where("user_id = ?", pref.UserID).First(&existing).Error
	switch {
	case err == nil:
		updates := map[string]interface{}{
			"daily_reminder_enabled": pref.DailyReminderEnabled,
			"daily_reminder_time":    pref.DailyReminderTime,
			"daily_reminder_message": pref.DailyReminderMessage,
			"timezone":               pref.Timezone,
		}
		if err := db.Model(&existing).Updates(updates).Error; err != nil {
			return fmt.Errorf("update preference: %w", err)
		}
		pref.ID = existing.ID
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		if err := db.Create(pref).Error; err != nil {
			return fmt.Errorf("create preference: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("find preference: %w", err)
	}
}

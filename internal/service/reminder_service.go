package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
	_ "time/tzdata"

	"github.com/rs/zerolog"

	"chronicle/internal/config"
	"chronicle/internal/model"
	"chronicle/internal/notify"
)

const (
	reminderTitle          = "Daily Reminder"
	reminderType           = "daily_reminder"
	defaultReminderMessage = "Take a minute to check in on today's tasks."
	digestLimit            = 5
	iconDue                = "⏳"
	iconOverdue            = "⚠️"
)

type preferenceLister interface {
	ListEnabled(ctx context.Context) ([]model.NotificationPreference, error)
}

type openTaskLister interface {
	ListOpenDueBy(ctx context.Context, userID string, date time.Time, limit int) ([]model.Task, error)
}

// ReminderSummary reports one run of the reminder job.
type ReminderSummary struct {
	Checked int
	Due     int
	Sent    int
	Failed  int
}

// ReminderService sends each user's daily reminder when their local
// reminder time comes around.
type ReminderService struct {
	prefs    preferenceLister
	tasks    openTaskLister
	notifier notify.Notifier
	window   time.Duration
	log      zerolog.Logger

	locMu sync.Mutex
	locs  map[string]*time.Location
}

func NewReminderService(prefs preferenceLister, tasks openTaskLister, notifier notify.Notifier, window time.Duration, log zerolog.Logger) *ReminderService {
	if window < time.Minute {
		window = 5 * time.Minute
	}
	return &ReminderService{
		prefs:    prefs,
		tasks:    tasks,
		notifier: notifier,
		window:   window,
		log:      log.With().Str("job", "daily-reminder").Logger(),
		locs:     make(map[string]*time.Location),
	}
}

// Dispatch sends reminders to every user whose reminder time falls inside
// [reminder, reminder+window) at now. Delivery failures are counted, not returned.
func (s *ReminderService) Dispatch(ctx context.Context, now time.Time) (ReminderSummary, error) {
	log := s.log.With().Str("utc", now.UTC().Format("15:04")).Logger()

	prefs, err := s.prefs.ListEnabled(ctx)
	if err != nil {
		log.Error().Err(err).Msg("fetch notification preferences")
		return ReminderSummary{}, fmt.Errorf("%w: %w", ErrStoreRead, err)
	}
	if len(prefs) == 0 {
		log.Debug().Msg("no users with daily reminders enabled")
		return ReminderSummary{}, nil
	}

	var summary ReminderSummary
	for _, pref := range prefs {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		summary.Checked++

		hour, minute, err := config.ParseClock(pref.DailyReminderTime)
		if err != nil {
			log.Warn().Err(err).Str("user", pref.UserID).Msg("bad reminder time, skipping")
			continue
		}
		local := now.In(s.location(pref.Timezone))
		if !withinWindow(local, hour, minute, s.window) {
			continue
		}
		summary.Due++

		msg := notify.Notification{
			Title: reminderTitle,
			Body:  s.composeBody(ctx, pref, local),
			Type:  reminderType,
			URL:   "/",
		}
		if err := s.notifier.Notify(ctx, pref.UserID, msg); err != nil {
			summary.Failed++
			log.Error().Err(err).Str("user", pref.UserID).Msg("send reminder")
			continue
		}
		summary.Sent++
		log.Debug().Str("user", pref.UserID).Msg("reminder sent")
	}

	log.Info().
		Int("checked", summary.Checked).
		Int("sent", summary.Sent).
		Int("failed", summary.Failed).
		Msg("daily reminder check complete")
	return summary, nil
}

// location resolves an IANA zone, falling back to UTC for unknown names.
func (s *ReminderService) location(name string) *time.Location {
	s.locMu.Lock()
	defer s.locMu.Unlock()

	if loc, ok := s.locs[name]; ok {
		return loc
	}
	loc, err := time.LoadLocation(strings.TrimSpace(name))
	if err != nil {
		s.log.Warn().Str("timezone", name).Msg("unknown timezone, using UTC")
		loc = time.UTC
	}
	s.locs[name] = loc
	return loc
}

func (s *ReminderService) composeBody(ctx context.Context, pref model.NotificationPreference, local time.Time) string {
	var sb strings.Builder
	message := strings.TrimSpace(pref.DailyReminderMessage)
	if message == "" {
		message = defaultReminderMessage
	}
	sb.WriteString(message)

	if s.tasks == nil {
		return sb.String()
	}
	tasks, err := s.tasks.ListOpenDueBy(ctx, pref.UserID, local, digestLimit)
	if err != nil {
		s.log.Warn().Err(err).Str("user", pref.UserID).Msg("load task digest")
		return sb.String()
	}
	if len(tasks) == 0 {
		return sb.String()
	}

	sb.WriteString("\n\n")
	today := model.DateOf(local)
	for _, task := range tasks {
		sb.WriteString(formatDigestLine(task, today))
	}
	return strings.TrimSpace(sb.String())
}

func formatDigestLine(task model.Task, today time.Time) string {
	title := strings.TrimSpace(task.Title)
	if task.DueDate == nil {
		return fmt.Sprintf("• %s\n", title)
	}
	due := model.DateOf(task.DueDate.UTC())
	if due.Before(today) {
		return fmt.Sprintf("%s %s (overdue since %s)\n", iconOverdue, title, model.FormatDate(due))
	}
	return fmt.Sprintf("%s %s (due today)\n", iconDue, title)
}

// withinWindow reports whether local's time of day lies in
// [hour:minute, hour:minute+window), wrapping past midnight.
func withinWindow(local time.Time, hour, minute int, window time.Duration) bool {
	const minutesPerDay = 24 * 60
	now := local.Hour()*60 + local.Minute()
	target := hour*60 + minute
	elapsed := (now - target + minutesPerDay) % minutesPerDay
	return elapsed < int(window/time.Minute)
}

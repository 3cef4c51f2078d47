package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"chronicle/internal/model"
	"chronicle/internal/repository"
)

// RecurrenceSummary reports one run of the recurrence job.
type RecurrenceSummary struct {
	Scanned int
	Created int
	// Fired lists the template IDs that spawned an instance.
	Fired []string
}

type transactor interface {
	InTx(ctx context.Context, fn func(repository.TemplateStore) error) error
}

// RecurrenceService materializes dated task instances from recurring templates.
type RecurrenceService struct {
	store repository.TemplateStore
	loc   *time.Location
	log   zerolog.Logger

	// mu serializes runs within the process.
	mu sync.Mutex
}

// NewRecurrenceService builds the engine. loc is used to read the calendar
// date of a template's creation timestamp.
func NewRecurrenceService(store repository.TemplateStore, loc *time.Location, log zerolog.Logger) *RecurrenceService {
	if loc == nil {
		loc = time.UTC
	}
	return &RecurrenceService{
		store: store,
		loc:   loc,
		log:   log.With().Str("job", "recurring-tasks").Logger(),
	}
}

// ProcessRecurringTasks scans all active templates and creates at most one
// instance per template for the calendar date of today. Running it again on
// the same date creates nothing.
func (s *RecurrenceService) ProcessRecurringTasks(ctx context.Context, today time.Time) (RecurrenceSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	day := model.DateOf(today)
	log := s.log.With().Str("date", model.FormatDate(day)).Logger()

	templates, err := s.store.ListRecurringTemplates(ctx, day)
	if err != nil {
		log.Error().Err(err).Msg("fetch recurring templates")
		return RecurrenceSummary{}, fmt.Errorf("%w: %w", ErrStoreRead, err)
	}
	log.Info().Int("templates", len(templates)).Msg("found recurring tasks to process")

	summary := RecurrenceSummary{Scanned: len(templates)}
	var instances []model.Task
	for _, tmpl := range templates {
		baseline := s.baseline(tmpl)
		due, known := isDue(tmpl.RecurrenceKind(), baseline, day)
		if !known {
			log.Warn().Str("template", tmpl.ID).Str("recurrence", tmpl.RecurrenceKind()).Msg("unknown recurrence, skipping")
			continue
		}
		if !due {
			continue
		}
		instances = append(instances, newInstance(tmpl, day))
		summary.Fired = append(summary.Fired, tmpl.ID)
	}

	if len(instances) == 0 {
		return summary, nil
	}

	apply := func(store repository.TemplateStore) error {
		if err := store.InsertTaskInstances(ctx, instances); err != nil {
			return err
		}
		for _, id := range summary.Fired {
			if err := store.UpdateTemplateLastRecurrence(ctx, id, day); err != nil {
				return err
			}
		}
		return nil
	}

	if tx, ok := s.store.(transactor); ok {
		err = tx.InTx(ctx, apply)
	} else {
		err = apply(s.store)
	}
	if err != nil {
		log.Error().Err(err).Int("staged", len(instances)).Msg("write recurring task instances")
		return RecurrenceSummary{Scanned: summary.Scanned}, fmt.Errorf("%w: %w", ErrStoreWrite, err)
	}

	summary.Created = len(instances)
	log.Info().Int("created", summary.Created).Msg("created new task instances")
	return summary, nil
}

// baseline is the date elapsed time is measured from: the last spawn, or the
// template's creation date when it never fired.
func (s *RecurrenceService) baseline(tmpl model.Task) time.Time {
	if tmpl.LastRecurrenceDate != nil {
		return model.DateOf(tmpl.LastRecurrenceDate.UTC())
	}
	return model.DateOf(tmpl.CreatedAt.In(s.loc))
}

// isDue applies the per-kind rule. Both dates must be midnight UTC.
// known is false for recurrence values the engine does not understand.
func isDue(kind string, baseline, today time.Time) (due, known bool) {
	daysSince := int(today.Sub(baseline) / (24 * time.Hour))
	switch kind {
	case model.RecurrenceDaily:
		return daysSince >= 1, true
	case model.RecurrenceWeekly:
		return daysSince >= 7, true
	case model.RecurrenceMonthly:
		// Calendar months crossed, not days: Jan 31 -> Feb 1 counts as one.
		return monthIndex(today)-monthIndex(baseline) >= 1, true
	default:
		return false, false
	}
}

func monthIndex(t time.Time) int {
	return t.Year()*12 + int(t.Month())
}

func newInstance(tmpl model.Task, day time.Time) model.Task {
	parentID := tmpl.ID
	due := day
	return model.Task{
		UserID:       tmpl.UserID,
		Title:        tmpl.Title,
		Description:  tmpl.Description,
		Priority:     tmpl.Priority,
		Category:     tmpl.Category,
		Progress:     0,
		Completed:    false,
		DueDate:      &due,
		ParentTaskID: &parentID,
	}
}

package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"chronicle/internal/model"
	"chronicle/internal/notify"
	"chronicle/internal/repository"
)

// fakeTaskStore is an in-memory repository.TemplateStore with error injection.
type fakeTaskStore struct {
	mu    sync.Mutex
	tasks []model.Task
	next  int

	ListErr   error
	InsertErr error
	UpdateErr error

	updates []string
}

func (f *fakeTaskStore) add(task model.Task) model.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	if task.ID == "" {
		f.next++
		task.ID = fmt.Sprintf("T%d", f.next)
	}
	f.tasks = append(f.tasks, task)
	return task
}

func (f *fakeTaskStore) ListRecurringTemplates(ctx context.Context, asOf time.Time) ([]model.Task, error) {
	if f.ListErr != nil {
		return nil, f.ListErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Task
	for _, task := range f.tasks {
		if !task.IsTemplate() {
			continue
		}
		if task.RecurrenceEndDate != nil && task.RecurrenceEndDate.Before(model.DateOf(asOf)) {
			continue
		}
		out = append(out, task)
	}
	return out, nil
}

func (f *fakeTaskStore) InsertTaskInstances(ctx context.Context, rows []model.Task) error {
	if f.InsertErr != nil {
		return f.InsertErr
	}
	for _, row := range rows {
		f.add(row)
	}
	return nil
}

func (f *fakeTaskStore) UpdateTemplateLastRecurrence(ctx context.Context, templateID string, date time.Time) error {
	if f.UpdateErr != nil {
		return f.UpdateErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.tasks {
		if f.tasks[i].ID != templateID {
			continue
		}
		if last := f.tasks[i].LastRecurrenceDate; last != nil && !last.Before(date) {
			return repository.ErrStaleTemplate
		}
		d := date
		f.tasks[i].LastRecurrenceDate = &d
		f.updates = append(f.updates, templateID)
		return nil
	}
	return fmt.Errorf("template %s not found", templateID)
}

func (f *fakeTaskStore) get(id string) model.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, task := range f.tasks {
		if task.ID == id {
			return task
		}
	}
	return model.Task{}
}

func (f *fakeTaskStore) children(parentID string) []model.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Task
	for _, task := range f.tasks {
		if task.ParentTaskID != nil && *task.ParentTaskID == parentID {
			out = append(out, task)
		}
	}
	return out
}

type fakePreferences struct {
	prefs []model.NotificationPreference
	err   error
}

func (f *fakePreferences) ListEnabled(ctx context.Context) ([]model.NotificationPreference, error) {
	return f.prefs, f.err
}

type fakeOpenTasks struct {
	byUser map[string][]model.Task
	err    error
}

func (f *fakeOpenTasks) ListOpenDueBy(ctx context.Context, userID string, date time.Time, limit int) ([]model.Task, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.byUser[userID], nil
}

type sentNotification struct {
	userID string
	msg    notify.Notification
}

type fakeNotifier struct {
	sent    []sentNotification
	failFor map[string]error
}

func (f *fakeNotifier) Notify(ctx context.Context, userID string, msg notify.Notification) error {
	if err := f.failFor[userID]; err != nil {
		return err
	}
	f.sent = append(f.sent, sentNotification{userID: userID, msg: msg})
	return nil
}

func day(s string) time.Time {
	d, err := model.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func strPtr(s string) *string { return &s }

func timePtr(t time.Time) *time.Time { return &t }

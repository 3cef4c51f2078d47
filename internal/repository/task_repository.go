package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"chronicle/internal/model"
)

// ErrStaleTemplate is returned when a template's last recurrence date is
// already at or past the date being written.
var ErrStaleTemplate = errors.New("template already advanced")

// TemplateStore is the part of the task table the recurrence engine uses.
type TemplateStore interface {
	ListRecurringTemplates(ctx context.Context, asOf time.Time) ([]model.Task, error)
	InsertTaskInstances(ctx context.Context, rows []model.Task) error
	UpdateTemplateLastRecurrence(ctx context.Context, templateID string, date time.Time) error
}

const insertBatchSize = 100

// TaskRepository handles reads and writes on the tasks table.
type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

func (r *TaskRepository) FindByID(ctx context.Context, id string) (*model.Task, error) {
	var task model.Task
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// ListByParent returns the instances spawned from a template, oldest first.
func (r *TaskRepository) ListByParent(ctx context.Context, parentID string) ([]model.Task, error) {
	var tasks []model.Task
	if err := r.db.WithContext(ctx).Where("parent_task_id = ?", parentID).
		Order("due_date ASC, created_at ASC").
		Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// ListOpenDueBy returns the user's unfinished tasks due on or before date.
func (r *TaskRepository) ListOpenDueBy(ctx context.Context, userID string, date time.Time, limit int) ([]model.Task, error) {
	var tasks []model.Task
	q := r.db.WithContext(ctx).
		Where("user_id = ? AND completed = ? AND due_date IS NOT NULL AND due_date <= ?", userID, false, model.DateOf(date)).
		Order("due_date ASC, created_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// ListRecurringTemplates returns every template whose end date is absent or
// not before asOf. The end date is inclusive.
func (r *TaskRepository) ListRecurringTemplates(ctx context.Context, asOf time.Time) ([]model.Task, error) {
	var tasks []model.Task
	if err := r.db.WithContext(ctx).
		Where("recurrence IS NOT NULL AND recurrence <> ''").
		Where("recurrence_end_date IS NULL OR recurrence_end_date >= ?", model.DateOf(asOf)).
		Order("created_at ASC").
		Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("list recurring templates: %w", err)
	}
	return tasks, nil
}

func (r *TaskRepository) InsertTaskInstances(ctx context.Context, rows []model.Task) error {
	if len(rows) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).CreateInBatches(&rows, insertBatchSize).Error; err != nil {
		return fmt.Errorf("insert task instances: %w", err)
	}
	return nil
}

// UpdateTemplateLastRecurrence moves the template's last recurrence date
// forward. It never moves it backwards or rewrites the same date; in that
// case ErrStaleTemplate is returned.
func (r *TaskRepository) UpdateTemplateLastRecurrence(ctx context.Context, templateID string, date time.Time) error {
	day := model.DateOf(date)
	res := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("id = ? AND (last_recurrence_date IS NULL OR last_recurrence_date < ?)", templateID, day).
		Update("last_recurrence_date", day)
	if res.Error != nil {
		return fmt.Errorf("update template %s: %w", templateID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("update template %s: %w", templateID, ErrStaleTemplate)
	}
	return nil
}

// InTx runs fn against a repository bound to a single transaction.
func (r *TaskRepository) InTx(ctx context.Context, fn func(TemplateStore) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&TaskRepository{db: tx})
	})
}

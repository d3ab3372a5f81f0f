package task

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// upsertColumns are overwritten when a record with the same id already exists.
var upsertColumns = []string{
	"title", "description", "due_date", "priority", "estimated_hours", "status", "updated_at",
}

// Repository provides database operations for tasks.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new task repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Migrate runs database migrations for the task table.
func (r *Repository) Migrate() error {
	return r.db.AutoMigrate(&Task{})
}

// FindAll retrieves every task ordered by id.
func (r *Repository) FindAll(ctx context.Context) ([]Task, error) {
	var tasks []Task
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// FindByID retrieves a task by its id.
func (r *Repository) FindByID(ctx context.Context, id int64) (*Task, error) {
	var t Task
	if err := r.db.WithContext(ctx).First(&t, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return &t, nil
}

// FindByStatus retrieves tasks whose status equals status exactly.
func (r *Repository) FindByStatus(ctx context.Context, status Status) ([]Task, error) {
	var tasks []Task
	if err := r.db.WithContext(ctx).Where("status = ?", string(status)).Order("id ASC").Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("failed to list tasks by status: %w", err)
	}
	return tasks, nil
}

// FindByDueDate retrieves tasks due exactly on date.
func (r *Repository) FindByDueDate(ctx context.Context, date Date) ([]Task, error) {
	var tasks []Task
	if err := r.db.WithContext(ctx).Where("due_date = ?", date.String()).Order("id ASC").Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("failed to list tasks by due date: %w", err)
	}
	return tasks, nil
}

// Upsert inserts t when it carries NewID, otherwise replaces the record with
// the same id (inserting it if missing). It returns the stored record.
func (r *Repository) Upsert(ctx context.Context, t *Task) (*Task, error) {
	record := *t
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns(upsertColumns),
	}).Create(&record).Error
	if err != nil {
		return nil, fmt.Errorf("failed to upsert task: %w", err)
	}
	return r.FindByID(ctx, record.ID)
}

// Delete removes a task by id. A missing id is not an error.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	if err := r.db.WithContext(ctx).Delete(&Task{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return nil
}

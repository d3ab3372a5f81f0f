package task

import (
	"fmt"
	"time"
)

// Status represents the state of a task.
type Status string

const (
	StatusInProgress Status = "InProgress"
	StatusCompleted  Status = "Completed"
)

// ParseStatus converts a label to a Status.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusInProgress, StatusCompleted:
		return Status(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
}

// Priority is a task priority label.
type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

// Priorities lists the selectable priorities in display order.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

// ParsePriority converts a label to a Priority.
func ParsePriority(s string) (Priority, error) {
	for _, p := range Priorities {
		if string(p) == s {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidPriority, s)
}

// NewID marks a task that has not been persisted yet.
// The store replaces it with an assigned id on insert.
const NewID int64 = 0

// Task is a user-defined unit of work.
type Task struct {
	ID             int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Title          string    `gorm:"not null" json:"title"`
	Description    string    `json:"description"`
	DueDate        Date      `gorm:"type:text;index;not null" json:"due_date"`
	Priority       Priority  `gorm:"size:16" json:"priority"`
	EstimatedHours int       `gorm:"not null;default:0" json:"estimated_hours"`
	Status         Status    `gorm:"size:16;index;not null" json:"status"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TableName returns the table name for Task model.
func (Task) TableName() string {
	return "tasks"
}

// IsNew reports whether the task still carries the unpersisted sentinel id.
func (t Task) IsNew() bool {
	return t.ID == NewID
}

// Completed returns a copy of t with its status set to Completed.
func (t Task) Completed() Task {
	t.Status = StatusCompleted
	return t
}

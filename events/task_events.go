package events

import (
	"time"

	"github.com/go-monolith/mono/pkg/helper"
)

// TaskSavedEvent is emitted after a task is inserted or updated.
type TaskSavedEvent struct {
	TaskID  int64     `json:"task_id"`
	DueDate string    `json:"due_date"`
	Status  string    `json:"status"`
	Created bool      `json:"created"`
	SavedAt time.Time `json:"saved_at"`
}

// TaskSavedV1 is the typed event definition for task upserts.
// Subject: events.task.v1.task-saved
var TaskSavedV1 = helper.EventDefinition[TaskSavedEvent](
	"task", "TaskSaved", "v1",
)

// TaskDeletedEvent is emitted after a delete-by-id request.
type TaskDeletedEvent struct {
	TaskID    int64     `json:"task_id"`
	DeletedAt time.Time `json:"deleted_at"`
}

// TaskDeletedV1 is the typed event definition for task deletion.
// Subject: events.task.v1.task-deleted
var TaskDeletedV1 = helper.EventDefinition[TaskDeletedEvent](
	"task", "TaskDeleted", "v1",
)

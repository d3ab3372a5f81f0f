package task

import (
	"context"

	domain "github.com/example/task-manager/domain/task"
)

// ListTasksRequest is the request for listing every task.
type ListTasksRequest struct{}

// ListByStatusRequest is the request for tasks with an exact status.
type ListByStatusRequest struct {
	Status string `json:"status"`
}

// ListByDueDateRequest is the request for tasks due on an exact day.
type ListByDueDateRequest struct {
	DueDate domain.Date `json:"due_date"`
}

// ListTasksResponse is the response containing a list of tasks.
type ListTasksResponse struct {
	Tasks []domain.Task `json:"tasks"`
	Total int           `json:"total"`
}

// GetTaskRequest is the request for getting a task.
type GetTaskRequest struct {
	TaskID int64 `json:"task_id"`
}

// GetTaskResponse carries the task when found. Not-found is not a service error.
type GetTaskResponse struct {
	Found bool         `json:"found"`
	Task  *domain.Task `json:"task,omitempty"`
}

// UpsertTaskRequest is the request for inserting or replacing a task.
type UpsertTaskRequest struct {
	Task domain.Task `json:"task"`
}

// UpsertTaskResponse returns the stored record.
type UpsertTaskResponse struct {
	Task    domain.Task `json:"task"`
	Created bool        `json:"created"`
}

// DeleteTaskRequest is the request for deleting a task.
type DeleteTaskRequest struct {
	TaskID int64 `json:"task_id"`
}

// DeleteTaskResponse is the response for deleting a task.
type DeleteTaskResponse struct {
	Deleted bool  `json:"deleted"`
	TaskID  int64 `json:"task_id"`
}

// TaskPort defines the task store operations other modules call.
type TaskPort interface {
	FindAll(ctx context.Context) ([]domain.Task, error)
	FindByID(ctx context.Context, id int64) (*domain.Task, error)
	FindByStatus(ctx context.Context, status domain.Status) ([]domain.Task, error)
	FindByDueDate(ctx context.Context, date domain.Date) ([]domain.Task, error)
	Upsert(ctx context.Context, t *domain.Task) (*domain.Task, error)
	Delete(ctx context.Context, id int64) error
}

// ListCache is the cache-aside store used for list and by-id queries.
type ListCache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any) error
	Delete(ctx context.Context, key string) error
	DeletePattern(ctx context.Context, pattern string) error
}

package task

import (
	"context"
	"encoding/json"
	"fmt"

	domain "github.com/example/task-manager/domain/task"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// taskAdapter wraps ServiceContainer for type-safe cross-module communication.
type taskAdapter struct {
	container mono.ServiceContainer
}

// NewTaskAdapter creates a new adapter for task services.
// container is the task module's ServiceContainer received via SetDependencyServiceContainer.
func NewTaskAdapter(container mono.ServiceContainer) TaskPort {
	if container == nil {
		panic("task adapter requires non-nil ServiceContainer")
	}
	return &taskAdapter{container: container}
}

// FindAll lists every task via the list-tasks service.
func (a *taskAdapter) FindAll(ctx context.Context) ([]domain.Task, error) {
	req := ListTasksRequest{}
	var resp ListTasksResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"list-tasks",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("list-tasks service call failed: %w", err)
	}
	return resp.Tasks, nil
}

// FindByID retrieves a task via the get-task service.
func (a *taskAdapter) FindByID(ctx context.Context, id int64) (*domain.Task, error) {
	req := GetTaskRequest{TaskID: id}
	var resp GetTaskResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"get-task",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("get-task service call failed: %w", err)
	}
	if !resp.Found || resp.Task == nil {
		return nil, domain.ErrNotFound
	}
	return resp.Task, nil
}

// FindByStatus lists tasks with an exact status via the list-by-status service.
func (a *taskAdapter) FindByStatus(ctx context.Context, status domain.Status) ([]domain.Task, error) {
	req := ListByStatusRequest{Status: string(status)}
	var resp ListTasksResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"list-by-status",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("list-by-status service call failed: %w", err)
	}
	return resp.Tasks, nil
}

// FindByDueDate lists tasks due on date via the list-by-due-date service.
func (a *taskAdapter) FindByDueDate(ctx context.Context, date domain.Date) ([]domain.Task, error) {
	req := ListByDueDateRequest{DueDate: date}
	var resp ListTasksResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"list-by-due-date",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("list-by-due-date service call failed: %w", err)
	}
	return resp.Tasks, nil
}

// Upsert inserts or replaces a task via the upsert-task service.
func (a *taskAdapter) Upsert(ctx context.Context, t *domain.Task) (*domain.Task, error) {
	req := UpsertTaskRequest{Task: *t}
	var resp UpsertTaskResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"upsert-task",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("upsert-task service call failed: %w", err)
	}
	return &resp.Task, nil
}

// Delete removes a task via the delete-task service. A missing id succeeds.
func (a *taskAdapter) Delete(ctx context.Context, id int64) error {
	req := DeleteTaskRequest{TaskID: id}
	var resp DeleteTaskResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"delete-task",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return fmt.Errorf("delete-task service call failed: %w", err)
	}
	return nil
}

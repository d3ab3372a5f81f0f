package task

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	domain "github.com/example/task-manager/domain/task"
	"github.com/example/task-manager/events"
	"github.com/go-monolith/mono"
)

const (
	cacheKeyAll          = "list:all"
	cacheKeyStatusPrefix = "list:status:"
	cacheListPattern     = "list:*"
	cacheKeyItemPrefix   = "item:"
)

// listTasks handles the list-tasks service request.
func (m *TaskModule) listTasks(ctx context.Context, _ ListTasksRequest, _ *mono.Msg) (ListTasksResponse, error) {
	tasks, err := m.cachedList(ctx, cacheKeyAll, func() ([]domain.Task, error) {
		return m.repo.FindAll(ctx)
	})
	if err != nil {
		return ListTasksResponse{}, err
	}
	return toListResponse(tasks), nil
}

// getTask handles the get-task service request.
func (m *TaskModule) getTask(ctx context.Context, req GetTaskRequest, _ *mono.Msg) (GetTaskResponse, error) {
	key := itemKey(req.TaskID)
	if m.cache != nil {
		var cached domain.Task
		found, err := m.cache.Get(ctx, key, &cached)
		if err != nil {
			log.Printf("[task] Cache error for %s: %v", key, err)
		}
		if found {
			return GetTaskResponse{Found: true, Task: &cached}, nil
		}
	}

	gen := m.cacheGen.Load()
	t, err := m.repo.FindByID(ctx, req.TaskID)
	if errors.Is(err, domain.ErrNotFound) {
		return GetTaskResponse{Found: false}, nil
	}
	if err != nil {
		return GetTaskResponse{}, err
	}

	if m.cache != nil {
		m.fill(ctx, key, gen, t)
	}
	return GetTaskResponse{Found: true, Task: t}, nil
}

// listByStatus handles the list-by-status service request.
func (m *TaskModule) listByStatus(ctx context.Context, req ListByStatusRequest, _ *mono.Msg) (ListTasksResponse, error) {
	status, err := domain.ParseStatus(req.Status)
	if err != nil {
		return ListTasksResponse{}, err
	}

	tasks, err := m.cachedList(ctx, cacheKeyStatusPrefix+string(status), func() ([]domain.Task, error) {
		return m.repo.FindByStatus(ctx, status)
	})
	if err != nil {
		return ListTasksResponse{}, err
	}
	return toListResponse(tasks), nil
}

// listByDueDate handles the list-by-due-date service request. Date queries
// back the live home view and always read the database.
func (m *TaskModule) listByDueDate(ctx context.Context, req ListByDueDateRequest, _ *mono.Msg) (ListTasksResponse, error) {
	if req.DueDate.IsZero() {
		return ListTasksResponse{}, fmt.Errorf("due_date is required")
	}

	tasks, err := m.repo.FindByDueDate(ctx, req.DueDate)
	if err != nil {
		return ListTasksResponse{}, err
	}
	return toListResponse(tasks), nil
}

// upsertTask handles the upsert-task service request.
func (m *TaskModule) upsertTask(ctx context.Context, req UpsertTaskRequest, _ *mono.Msg) (UpsertTaskResponse, error) {
	if req.Task.Status == "" {
		req.Task.Status = domain.StatusInProgress
	}
	if _, err := domain.ParseStatus(string(req.Task.Status)); err != nil {
		return UpsertTaskResponse{}, err
	}

	created := req.Task.IsNew()
	saved, err := m.repo.Upsert(ctx, &req.Task)
	if err != nil {
		return UpsertTaskResponse{}, fmt.Errorf("failed to save task: %w", err)
	}

	m.invalidate(ctx, saved.ID)

	if m.eventBus != nil {
		event := events.TaskSavedEvent{
			TaskID:  saved.ID,
			DueDate: saved.DueDate.String(),
			Status:  string(saved.Status),
			Created: created,
			SavedAt: saved.UpdatedAt,
		}
		if err := events.TaskSavedV1.Publish(m.eventBus, event, nil); err != nil {
			log.Printf("[task] Warning: failed to publish TaskSaved event for task %d: %v", saved.ID, err)
		}
	}

	return UpsertTaskResponse{Task: *saved, Created: created}, nil
}

// deleteTask handles the delete-task service request.
func (m *TaskModule) deleteTask(ctx context.Context, req DeleteTaskRequest, _ *mono.Msg) (DeleteTaskResponse, error) {
	if err := m.repo.Delete(ctx, req.TaskID); err != nil {
		return DeleteTaskResponse{Deleted: false, TaskID: req.TaskID}, err
	}

	m.invalidate(ctx, req.TaskID)

	if m.eventBus != nil {
		event := events.TaskDeletedEvent{
			TaskID:    req.TaskID,
			DeletedAt: time.Now(),
		}
		if err := events.TaskDeletedV1.Publish(m.eventBus, event, nil); err != nil {
			log.Printf("[task] Warning: failed to publish TaskDeleted event for task %d: %v", req.TaskID, err)
		}
	}

	return DeleteTaskResponse{Deleted: true, TaskID: req.TaskID}, nil
}

// cachedList serves a list query cache-aside. Concurrent misses for the same
// key share one database query.
func (m *TaskModule) cachedList(ctx context.Context, key string, load func() ([]domain.Task, error)) ([]domain.Task, error) {
	if m.cache == nil {
		return load()
	}

	var cached []domain.Task
	found, err := m.cache.Get(ctx, key, &cached)
	if err != nil {
		log.Printf("[task] Cache error for %s: %v", key, err)
	}
	if found {
		return cached, nil
	}

	// The generation is read inside the shared call so callers joining it
	// judge the result by when the query started.
	val, err, _ := m.sfGroup.Do(key, func() (any, error) {
		gen := m.cacheGen.Load()
		tasks, err := load()
		return loaded{tasks: tasks, gen: gen}, err
	})
	if err != nil {
		return nil, err
	}
	res, _ := val.(loaded)

	m.fill(ctx, key, res.gen, res.tasks)
	return res.tasks, nil
}

type loaded struct {
	tasks []domain.Task
	gen   uint64
}

// fill caches value unless a write happened after gen was read. A write that
// lands between the check and the Set is caught by the second check, which
// drops the entry again.
func (m *TaskModule) fill(ctx context.Context, key string, gen uint64, value any) {
	if m.cacheGen.Load() != gen {
		return
	}
	if err := m.cache.Set(ctx, key, value); err != nil {
		log.Printf("[task] Warning: failed to cache %s: %v", key, err)
		return
	}
	if m.cacheGen.Load() != gen {
		if err := m.cache.Delete(ctx, key); err != nil {
			log.Printf("[task] Warning: failed to drop stale %s: %v", key, err)
		}
	}
}

// invalidate drops the cached record for id and every cached list after a write.
func (m *TaskModule) invalidate(ctx context.Context, id int64) {
	if m.cache == nil {
		return
	}
	m.cacheGen.Add(1)
	if err := m.cache.Delete(ctx, itemKey(id)); err != nil {
		log.Printf("[task] Warning: failed to invalidate task %d: %v", id, err)
	}
	if err := m.cache.DeletePattern(ctx, cacheListPattern); err != nil {
		log.Printf("[task] Warning: failed to invalidate list cache: %v", err)
	}
}

func itemKey(id int64) string {
	return cacheKeyItemPrefix + strconv.FormatInt(id, 10)
}

func toListResponse(tasks []domain.Task) ListTasksResponse {
	if tasks == nil {
		tasks = []domain.Task{}
	}
	return ListTasksResponse{Tasks: tasks, Total: len(tasks)}
}

package api

import (
	domain "github.com/example/task-manager/domain/task"
	"github.com/example/task-manager/modules/board"
)

// SelectDateRequest is the HTTP request for changing the home screen day.
type SelectDateRequest struct {
	Date string `json:"date"`
}

// TaskRequest is a complete add-task form submitted in one request.
type TaskRequest struct {
	Title          string `json:"title"`
	Description    string `json:"description"`
	DueDate        string `json:"due_date"`
	EstimatedHours *int   `json:"estimated_hours,omitempty"`
	Priority       string `json:"priority,omitempty"`
}

// FormEditRequest carries the fields changed in an open form. Absent fields
// are left unchanged.
type FormEditRequest struct {
	Title          *string `json:"title,omitempty"`
	Description    *string `json:"description,omitempty"`
	DueDate        *string `json:"due_date,omitempty"`
	EstimatedHours *int    `json:"estimated_hours,omitempty"`
	Priority       *string `json:"priority,omitempty"`
}

// FormResponse is an open form and its current draft.
type FormResponse struct {
	ID    string           `json:"id"`
	Draft domain.FormDraft `json:"draft"`
}

// ListTasksResponse is the status view.
type ListTasksResponse struct {
	Filter string        `json:"filter"`
	Tasks  []domain.Task `json:"tasks"`
	Total  int           `json:"total"`
}

// TaskResponse wraps a single task.
type TaskResponse struct {
	Task domain.Task `json:"task"`
}

// SubmitResponse is the result of a successful submit.
type SubmitResponse struct {
	Task    *domain.Task             `json:"task"`
	Outcome domain.ValidationOutcome `json:"outcome"`
}

// ValidationErrorResponse is returned with 422 when a submitted form is rejected.
type ValidationErrorResponse struct {
	Error   string                   `json:"error"`
	Message string                   `json:"message"`
	Outcome domain.ValidationOutcome `json:"outcome"`
}

// ErrorResponse is the HTTP response for errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// HealthResponse is the HTTP response for health check.
type HealthResponse struct {
	Status  string         `json:"status"`
	Details map[string]any `json:"details,omitempty"`
}

// WSMessage is a message on the home screen websocket.
type WSMessage struct {
	Type  string          `json:"type"`
	Date  string          `json:"date,omitempty"`
	View  *board.DateView `json:"view,omitempty"`
	Error string          `json:"error,omitempty"`
}

// toDraft builds a form draft from a one-shot request. A malformed due date
// is left zero so validation reports it.
func (r TaskRequest) toDraft(today domain.Date) (domain.FormDraft, error) {
	draft := domain.NewFormDraft(today)
	draft.Title = r.Title
	draft.Description = r.Description
	draft.DueDate, _ = domain.ParseDate(r.DueDate)
	if r.EstimatedHours != nil {
		draft.EstimatedHours = *r.EstimatedHours
	}
	if r.Priority != "" {
		p, err := domain.ParsePriority(r.Priority)
		if err != nil {
			return domain.FormDraft{}, err
		}
		draft.Priority = p
	}
	return draft, nil
}

// events converts the changed fields into form events.
func (r FormEditRequest) events() ([]domain.FormEvent, error) {
	var evs []domain.FormEvent
	if r.Title != nil {
		evs = append(evs, domain.TitleChanged{Title: *r.Title})
	}
	if r.Description != nil {
		evs = append(evs, domain.DescriptionChanged{Description: *r.Description})
	}
	if r.DueDate != nil {
		// Malformed dates clear the field; submit then reports it invalid.
		d, _ := domain.ParseDate(*r.DueDate)
		evs = append(evs, domain.DueDateChanged{DueDate: d})
	}
	if r.EstimatedHours != nil {
		evs = append(evs, domain.EstimateChanged{Hours: *r.EstimatedHours})
	}
	if r.Priority != nil {
		p, err := domain.ParsePriority(*r.Priority)
		if err != nil {
			return nil, err
		}
		evs = append(evs, domain.PriorityChanged{Priority: p})
	}
	return evs, nil
}

package board

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	domain "github.com/example/task-manager/domain/task"
)

// ErrSessionNotFound is returned for an unknown form session id.
var ErrSessionNotFound = errors.New("form session not found")

// SubmitResult is the outcome of submitting a form.
// Task is set only when the outcome is successful.
type SubmitResult struct {
	Outcome domain.ValidationOutcome `json:"outcome"`
	Message string                   `json:"message,omitempty"`
	Task    *domain.Task             `json:"task,omitempty"`
}

// FormSessions holds the drafts of open add-task forms.
type FormSessions struct {
	mu        sync.Mutex
	drafts    map[string]*domain.FormDraft
	validator *domain.Validator
	agg       *Aggregator
}

// NewFormSessions creates the form session registry.
func NewFormSessions(agg *Aggregator, validator *domain.Validator) *FormSessions {
	return &FormSessions{
		drafts:    make(map[string]*domain.FormDraft),
		validator: validator,
		agg:       agg,
	}
}

// Open starts a form with default values and returns its id.
func (s *FormSessions) Open() (string, domain.FormDraft) {
	id := uuid.NewString()
	draft := domain.NewFormDraft(s.validator.Today())

	s.mu.Lock()
	s.drafts[id] = &draft
	s.mu.Unlock()
	return id, draft
}

// Get returns a copy of the draft.
func (s *FormSessions) Get(id string) (domain.FormDraft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.drafts[id]
	if !ok {
		return domain.FormDraft{}, ErrSessionNotFound
	}
	return *d, nil
}

// Apply applies field edits to the draft in order.
func (s *FormSessions) Apply(id string, events ...domain.FormEvent) (domain.FormDraft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.drafts[id]
	if !ok {
		return domain.FormDraft{}, ErrSessionNotFound
	}
	d.Apply(events...)
	return *d, nil
}

// Discard abandons a form.
func (s *FormSessions) Discard(id string) {
	s.mu.Lock()
	delete(s.drafts, id)
	s.mu.Unlock()
}

// Submit validates the draft and saves it. A saved draft is reset to defaults;
// a rejected one is left as it is.
func (s *FormSessions) Submit(ctx context.Context, id string) (SubmitResult, error) {
	draft, err := s.Get(id)
	if err != nil {
		return SubmitResult{}, err
	}

	result, err := s.SubmitDraft(ctx, draft)
	if err != nil || result.Task == nil {
		return result, err
	}

	s.mu.Lock()
	if d, ok := s.drafts[id]; ok {
		d.Reset(s.validator.Today())
	}
	s.mu.Unlock()
	return result, nil
}

// SubmitDraft validates and saves a draft that has no session.
func (s *FormSessions) SubmitDraft(ctx context.Context, draft domain.FormDraft) (SubmitResult, error) {
	outcome := s.validator.Validate(draft.Title, draft.Description, draft.DueDate)
	if !outcome.Successful {
		return SubmitResult{Outcome: outcome, Message: domain.ErrorMessage(outcome)}, nil
	}

	saved, err := s.agg.InsertOrUpdateTask(ctx, draft.ToTask())
	if err != nil {
		return SubmitResult{Outcome: outcome}, err
	}
	return SubmitResult{Outcome: outcome, Task: saved}, nil
}

// Today returns the day new drafts default to.
func (s *FormSessions) Today() domain.Date {
	return s.validator.Today()
}

// Len returns the number of open forms.
func (s *FormSessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.drafts)
}

package task

// DefaultEstimatedHours is the estimate a fresh form starts with.
const DefaultEstimatedHours = 3

// FormDraft mirrors the fields a user is editing before submitting a task.
type FormDraft struct {
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	DueDate        Date     `json:"due_date"`
	EstimatedHours int      `json:"estimated_hours"`
	Priority       Priority `json:"priority"`
}

// NewFormDraft returns a draft holding the default values for today.
func NewFormDraft(today Date) FormDraft {
	return FormDraft{
		DueDate:        today,
		EstimatedHours: DefaultEstimatedHours,
		Priority:       PriorityLow,
	}
}

// FormEvent is a single field edit applied to a FormDraft.
type FormEvent interface {
	apply(d *FormDraft)
}

// TitleChanged replaces the draft title.
type TitleChanged struct{ Title string }

// DescriptionChanged replaces the draft description.
type DescriptionChanged struct{ Description string }

// DueDateChanged replaces the draft due date.
type DueDateChanged struct{ DueDate Date }

// EstimateChanged replaces the draft estimate in hours.
type EstimateChanged struct{ Hours int }

// PriorityChanged replaces the draft priority.
type PriorityChanged struct{ Priority Priority }

func (e TitleChanged) apply(d *FormDraft)       { d.Title = e.Title }
func (e DescriptionChanged) apply(d *FormDraft) { d.Description = e.Description }
func (e DueDateChanged) apply(d *FormDraft)     { d.DueDate = e.DueDate }
func (e EstimateChanged) apply(d *FormDraft)    { d.EstimatedHours = e.Hours }
func (e PriorityChanged) apply(d *FormDraft)    { d.Priority = e.Priority }

// Apply applies each event in order.
func (d *FormDraft) Apply(events ...FormEvent) {
	for _, e := range events {
		e.apply(d)
	}
}

// Reset restores the default values for today.
func (d *FormDraft) Reset(today Date) {
	*d = NewFormDraft(today)
}

// ToTask builds an unpersisted in-progress task from the draft.
func (d FormDraft) ToTask() Task {
	return Task{
		ID:             NewID,
		Title:          d.Title,
		Description:    d.Description,
		DueDate:        d.DueDate,
		Priority:       d.Priority,
		EstimatedHours: d.EstimatedHours,
		Status:         StatusInProgress,
	}
}

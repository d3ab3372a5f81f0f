package task

import "time"

// Error messages shown for a failed validation, in priority order.
const (
	MsgInvalidTitleAndDescription = "Enter a valid title and description."
	MsgInvalidTitle               = "Enter a valid title."
	MsgInvalidDescription         = "Enter a valid description."
	MsgInvalidDueDate             = "Choose a due date for today or a future date."
	MsgInvalidTask                = "Fill in the task information correctly."
)

// ValidationOutcome holds the per-field judgments of one validation call.
type ValidationOutcome struct {
	ValidTitle       bool `json:"valid_title"`
	ValidDescription bool `json:"valid_description"`
	ValidDueDate     bool `json:"valid_due_date"`
	Successful       bool `json:"successful"`
}

// Validator checks candidate task fields against the current day.
type Validator struct {
	now func() time.Time
}

// NewValidator creates a validator. A nil clock means time.Now.
func NewValidator(now func() time.Time) *Validator {
	if now == nil {
		now = time.Now
	}
	return &Validator{now: now}
}

// Validate judges title, description and due date independently.
func (v *Validator) Validate(title, description string, dueDate Date) ValidationOutcome {
	titleOK := validTitle(title)
	descriptionOK := validDescription(description)
	dueDateOK := v.validDueDate(dueDate)

	return ValidationOutcome{
		ValidTitle:       titleOK,
		ValidDescription: descriptionOK,
		ValidDueDate:     dueDateOK,
		Successful:       titleOK && descriptionOK && dueDateOK,
	}
}

// Today returns the validator's current day.
func (v *Validator) Today() Date {
	return Today(v.now())
}

func validTitle(title string) bool {
	return title != ""
}

// The second clause never decides the result; it is kept as the rule is written.
func validDescription(description string) bool {
	return description != "" || len(description) > 5
}

func (v *Validator) validDueDate(dueDate Date) bool {
	if dueDate.IsZero() {
		return false
	}
	return !dueDate.Before(v.Today())
}

// ErrorMessage picks the user-facing message for an outcome.
func ErrorMessage(o ValidationOutcome) string {
	switch {
	case !o.ValidTitle && !o.ValidDescription:
		return MsgInvalidTitleAndDescription
	case !o.ValidTitle:
		return MsgInvalidTitle
	case !o.ValidDescription:
		return MsgInvalidDescription
	case !o.ValidDueDate:
		return MsgInvalidDueDate
	default:
		return MsgInvalidTask
	}
}

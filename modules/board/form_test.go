package board

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/example/task-manager/domain/task"
)

func newTestForms(store TaskStore) *FormSessions {
	a := newTestAggregator(store, time.Second)
	return NewFormSessions(a, domain.NewValidator(fixedNow))
}

func TestFormSessions_OpenDefaults(t *testing.T) {
	forms := newTestForms(newFakeStore())

	id, draft := forms.Open()
	assert.NotEmpty(t, id)
	assert.Equal(t, day1, draft.DueDate)
	assert.Equal(t, domain.PriorityLow, draft.Priority)
	assert.Equal(t, domain.DefaultEstimatedHours, draft.EstimatedHours)
	assert.Equal(t, 1, forms.Len())

	_, err := forms.Get("missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = forms.Apply("missing", domain.TitleChanged{Title: "x"})
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestFormSessions_SubmitValid(t *testing.T) {
	store := newFakeStore()
	forms := newTestForms(store)
	ctx := context.Background()

	id, _ := forms.Open()
	draft, err := forms.Apply(id,
		domain.TitleChanged{Title: "Buy milk"},
		domain.DescriptionChanged{Description: "2 liters"},
		domain.EstimateChanged{Hours: 1},
		domain.PriorityChanged{Priority: domain.PriorityHigh},
	)
	require.NoError(t, err)
	assert.Equal(t, "Buy milk", draft.Title)

	result, err := forms.Submit(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.ValidationOutcome{
		ValidTitle: true, ValidDescription: true, ValidDueDate: true, Successful: true,
	}, result.Outcome)
	assert.Empty(t, result.Message)
	require.NotNil(t, result.Task)
	assert.NotZero(t, result.Task.ID)
	assert.Equal(t, domain.StatusInProgress, result.Task.Status)
	assert.Equal(t, 1, result.Task.EstimatedHours)

	all, err := store.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	reset, err := forms.Get(id)
	require.NoError(t, err)
	assert.Equal(t, domain.NewFormDraft(day1), reset)
}

func TestFormSessions_SubmitInvalid(t *testing.T) {
	store := newFakeStore()
	forms := newTestForms(store)
	ctx := context.Background()

	tests := []struct {
		name   string
		events []domain.FormEvent
		want   string
	}{
		{
			name:   "empty title and description",
			events: []domain.FormEvent{domain.DueDateChanged{DueDate: day1.AddDays(-1)}},
			want:   domain.MsgInvalidTitleAndDescription,
		},
		{
			name:   "empty title",
			events: []domain.FormEvent{domain.DescriptionChanged{Description: "d"}},
			want:   domain.MsgInvalidTitle,
		},
		{
			name: "past due date",
			events: []domain.FormEvent{
				domain.TitleChanged{Title: "t"},
				domain.DescriptionChanged{Description: "d"},
				domain.DueDateChanged{DueDate: day1.AddDays(-1)},
			},
			want: domain.MsgInvalidDueDate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, _ := forms.Open()
			before, err := forms.Apply(id, tt.events...)
			require.NoError(t, err)

			result, err := forms.Submit(ctx, id)
			require.NoError(t, err)
			assert.False(t, result.Outcome.Successful)
			assert.Equal(t, tt.want, result.Message)
			assert.Nil(t, result.Task)

			after, err := forms.Get(id)
			require.NoError(t, err)
			assert.Equal(t, before, after, "rejected draft is kept")
		})
	}

	all, err := store.FindAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestFormSessions_Discard(t *testing.T) {
	forms := newTestForms(newFakeStore())

	id, _ := forms.Open()
	forms.Discard(id)

	_, err := forms.Submit(context.Background(), id)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.Equal(t, 0, forms.Len())
}

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/go-monolith/mono/pkg/types"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	domain "github.com/example/task-manager/domain/task"
	"github.com/example/task-manager/modules/board"
)

// mockLogger implements types.Logger for testing
type mockLogger struct{}

func (m *mockLogger) Debug(_ string, _ ...any) {}
func (m *mockLogger) Info(_ string, _ ...any)  {}
func (m *mockLogger) Warn(_ string, _ ...any)  {}
func (m *mockLogger) Error(_ string, _ ...any) {}
func (m *mockLogger) With(_ ...any) types.Logger {
	return m
}
func (m *mockLogger) WithModule(_ string) types.Logger {
	return m
}
func (m *mockLogger) WithError(_ error) types.Logger {
	return m
}

func newMockLogger() types.Logger {
	return &mockLogger{}
}

func newTestAPI(t *testing.T) (*fiber.App, *domain.Repository) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	repo := domain.NewRepository(db)
	require.NoError(t, repo.Migrate())

	agg := board.NewAggregator(repo, newMockLogger(), board.WithGraceWindow(0))
	t.Cleanup(agg.Close)

	m := &APIModule{
		port:   3000,
		agg:    agg,
		forms:  board.NewFormSessions(agg, domain.NewValidator(nil)),
		logger: newMockLogger(),
	}
	return m.newApp(), repo
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body any) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func today() domain.Date {
	return domain.Today(time.Now())
}

func TestHealthHandler(t *testing.T) {
	app, _ := newTestAPI(t)

	resp, body := doJSON(t, app, http.MethodGet, "/health", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var health HealthResponse
	require.NoError(t, json.Unmarshal(body, &health))
	assert.Equal(t, "healthy", health.Status)
}

func TestMetricsHandler(t *testing.T) {
	app, _ := newTestAPI(t)

	// Populate the aggregator metrics.
	resp, _ := doJSON(t, app, http.MethodGet, "/api/v1/tasks", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, body := doJSON(t, app, http.MethodGet, "/metrics", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "board_queries_total")
}

func TestCreateTask(t *testing.T) {
	app, repo := newTestAPI(t)

	t.Run("valid form is saved", func(t *testing.T) {
		resp, body := doJSON(t, app, http.MethodPost, "/api/v1/tasks", TaskRequest{
			Title:       "Buy milk",
			Description: "2 liters",
			DueDate:     today().String(),
		})
		require.Equal(t, fiber.StatusCreated, resp.StatusCode, string(body))

		var got SubmitResponse
		require.NoError(t, json.Unmarshal(body, &got))
		require.NotNil(t, got.Task)
		assert.NotZero(t, got.Task.ID)
		assert.Equal(t, domain.PriorityLow, got.Task.Priority)
		assert.Equal(t, domain.DefaultEstimatedHours, got.Task.EstimatedHours)
		assert.True(t, got.Outcome.Successful)
	})

	t.Run("empty title and description", func(t *testing.T) {
		resp, body := doJSON(t, app, http.MethodPost, "/api/v1/tasks", TaskRequest{
			DueDate: today().AddDays(-1).String(),
		})
		require.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)

		var got ValidationErrorResponse
		require.NoError(t, json.Unmarshal(body, &got))
		assert.Equal(t, domain.MsgInvalidTitleAndDescription, got.Message)
		assert.Equal(t, domain.ValidationOutcome{}, got.Outcome)
	})

	t.Run("malformed due date is a validation failure", func(t *testing.T) {
		resp, body := doJSON(t, app, http.MethodPost, "/api/v1/tasks", TaskRequest{
			Title:       "t",
			Description: "d",
			DueDate:     "tomorrow",
		})
		require.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)

		var got ValidationErrorResponse
		require.NoError(t, json.Unmarshal(body, &got))
		assert.Equal(t, domain.MsgInvalidDueDate, got.Message)
	})

	t.Run("unknown priority", func(t *testing.T) {
		resp, _ := doJSON(t, app, http.MethodPost, "/api/v1/tasks", TaskRequest{
			Title:       "t",
			Description: "d",
			DueDate:     today().String(),
			Priority:    "Urgent",
		})
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})

	all, err := repo.FindAll(t.Context())
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestListTasks_StatusFilter(t *testing.T) {
	app, repo := newTestAPI(t)
	ctx := t.Context()

	open := &domain.Task{Title: "open", DueDate: today(), Status: domain.StatusInProgress}
	done := &domain.Task{Title: "done", DueDate: today(), Status: domain.StatusCompleted}
	_, err := repo.Upsert(ctx, open)
	require.NoError(t, err)
	_, err = repo.Upsert(ctx, done)
	require.NoError(t, err)

	tests := []struct {
		query  string
		filter string
		total  int
	}{
		{"", board.FilterAll, 2},
		{"?status=Completed", "Completed", 1},
		{"?status=InProgress", "InProgress", 1},
		{"?status=Someday", "Someday", 2},
	}

	for _, tt := range tests {
		t.Run(tt.filter, func(t *testing.T) {
			resp, body := doJSON(t, app, http.MethodGet, "/api/v1/tasks"+tt.query, nil)
			require.Equal(t, fiber.StatusOK, resp.StatusCode)

			var got ListTasksResponse
			require.NoError(t, json.Unmarshal(body, &got))
			assert.Equal(t, tt.filter, got.Filter)
			assert.Equal(t, tt.total, got.Total)
		})
	}
}

func TestTaskDetails(t *testing.T) {
	app, repo := newTestAPI(t)

	saved, err := repo.Upsert(t.Context(), &domain.Task{
		Title: "chore", Description: "d", DueDate: today(), Status: domain.StatusInProgress,
	})
	require.NoError(t, err)
	path := "/api/v1/tasks/" + strconv.FormatInt(saved.ID, 10)

	resp, body := doJSON(t, app, http.MethodGet, path, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var got TaskResponse
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, "chore", got.Task.Title)

	resp, body = doJSON(t, app, http.MethodPost, path+"/complete", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, domain.StatusCompleted, got.Task.Status)

	resp, _ = doJSON(t, app, http.MethodDelete, path, nil)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodDelete, path, nil)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode, "deleting a missing task succeeds")

	resp, _ = doJSON(t, app, http.MethodGet, path, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodPost, path+"/complete", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodGet, "/api/v1/tasks/abc", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestHomeDateView(t *testing.T) {
	app, repo := newTestAPI(t)
	tomorrow := today().AddDays(1)

	_, err := repo.Upsert(t.Context(), &domain.Task{
		Title: "later", Description: "d", DueDate: tomorrow, Status: domain.StatusInProgress,
	})
	require.NoError(t, err)

	resp, body := doJSON(t, app, http.MethodGet, "/api/v1/home", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var view board.DateView
	require.NoError(t, json.Unmarshal(body, &view))
	assert.Equal(t, today(), view.SelectedDate)
	assert.False(t, view.HasTasks)

	resp, body = doJSON(t, app, http.MethodPut, "/api/v1/home/date", SelectDateRequest{Date: tomorrow.String()})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &view))
	assert.Equal(t, tomorrow, view.SelectedDate)
	assert.True(t, view.HasTasks)
	require.Len(t, view.Tasks, 1)

	resp, _ = doJSON(t, app, http.MethodPut, "/api/v1/home/date", SelectDateRequest{Date: "17/10/2026"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestFormFlow(t *testing.T) {
	app, repo := newTestAPI(t)

	resp, body := doJSON(t, app, http.MethodPost, "/api/v1/forms", nil)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var form FormResponse
	require.NoError(t, json.Unmarshal(body, &form))
	require.NotEmpty(t, form.ID)
	assert.Equal(t, domain.PriorityLow, form.Draft.Priority)
	path := "/api/v1/forms/" + form.ID

	title := "Water plants"
	resp, _ = doJSON(t, app, http.MethodPatch, path, FormEditRequest{Title: &title})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, body = doJSON(t, app, http.MethodPost, path+"/submit", nil)
	require.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
	var invalid ValidationErrorResponse
	require.NoError(t, json.Unmarshal(body, &invalid))
	assert.Equal(t, domain.MsgInvalidDescription, invalid.Message)

	description := "balcony"
	priority := "High"
	hours := 1
	resp, body = doJSON(t, app, http.MethodPatch, path, FormEditRequest{
		Description:    &description,
		Priority:       &priority,
		EstimatedHours: &hours,
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &form))
	assert.Equal(t, "Water plants", form.Draft.Title)
	assert.Equal(t, domain.PriorityHigh, form.Draft.Priority)

	resp, _ = doJSON(t, app, http.MethodPost, path+"/submit", nil)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp, body = doJSON(t, app, http.MethodGet, path, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &form))
	assert.Empty(t, form.Draft.Title, "draft resets after a successful submit")

	bad := "Urgent"
	resp, _ = doJSON(t, app, http.MethodPatch, path, FormEditRequest{Priority: &bad})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodDelete, path, nil)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodPost, path+"/submit", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	all, err := repo.FindAll(t.Context())
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, 1, all[0].EstimatedHours)
}

func TestHomeSocket_RequiresUpgrade(t *testing.T) {
	app, _ := newTestAPI(t)

	resp, _ := doJSON(t, app, http.MethodGet, "/ws/home", nil)
	assert.Equal(t, fiber.StatusUpgradeRequired, resp.StatusCode)
}

// brokenStore fails every list query.
type brokenStore struct {
	*domain.Repository
}

func (brokenStore) FindAll(context.Context) ([]domain.Task, error) {
	return nil, errors.New("database is locked")
}

func TestStoreErrors(t *testing.T) {
	_, repo := newTestAPI(t)

	agg := board.NewAggregator(brokenStore{repo}, newMockLogger(), board.WithGraceWindow(0))
	t.Cleanup(agg.Close)
	m := &APIModule{
		agg:    agg,
		forms:  board.NewFormSessions(agg, domain.NewValidator(nil)),
		logger: newMockLogger(),
	}
	app := m.newApp()

	resp, body := doJSON(t, app, http.MethodGet, "/api/v1/tasks", nil)
	require.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)

	var errResp ErrorResponse
	require.NoError(t, json.Unmarshal(body, &errResp))
	assert.Equal(t, "store_error", errResp.Error)
	assert.Equal(t, "database is locked", errResp.Message)

	// Framework errors go through the app error handler.
	resp, body = doJSON(t, app, http.MethodGet, "/api/v1/nowhere", nil)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &errResp))
	assert.Equal(t, "server_error", errResp.Error)
}

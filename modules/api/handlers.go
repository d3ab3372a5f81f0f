package api

import (
	"errors"
	"strconv"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	domain "github.com/example/task-manager/domain/task"
	"github.com/example/task-manager/modules/board"
)

// setupRoutes configures all HTTP routes.
func (m *APIModule) setupRoutes(app *fiber.App) {
	app.Get("/health", m.healthHandler)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/home", websocket.New(m.homeSocket))

	api := app.Group("/api/v1")

	home := api.Group("/home")
	home.Get("/", m.getHome)
	home.Put("/date", m.selectDate)

	tasks := api.Group("/tasks")
	tasks.Get("/", m.listTasks)
	tasks.Post("/", m.createTask)
	tasks.Get("/:id", m.getTask)
	tasks.Post("/:id/complete", m.completeTask)
	tasks.Delete("/:id", m.deleteTask)

	forms := api.Group("/forms")
	forms.Post("/", m.openForm)
	forms.Get("/:id", m.getForm)
	forms.Patch("/:id", m.editForm)
	forms.Post("/:id/submit", m.submitForm)
	forms.Delete("/:id", m.discardForm)
}

// healthHandler handles GET /health.
func (m *APIModule) healthHandler(c *fiber.Ctx) error {
	details := map[string]any{
		"module": "api",
		"port":   m.port,
	}
	if m.board != nil {
		details["board"] = m.board.Health(c.Context()).Details
	}
	return c.JSON(HealthResponse{
		Status:  "healthy",
		Details: details,
	})
}

// getHome handles GET /api/v1/home.
func (m *APIModule) getHome(c *fiber.Ctx) error {
	view, err := m.agg.DateView(c.Context())
	if err != nil && !errors.Is(err, board.ErrSuperseded) {
		return storeError(c, err)
	}
	return c.JSON(view)
}

// selectDate handles PUT /api/v1/home/date.
func (m *APIModule) selectDate(c *fiber.Ctx) error {
	var req SelectDateRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid_request", "Invalid request body")
	}

	date, err := domain.ParseDate(req.Date)
	if err != nil {
		return badRequest(c, "validation_error", "date must be YYYY-MM-DD")
	}

	view, err := m.agg.SetSelectedDate(c.Context(), date)
	if errors.Is(err, board.ErrSuperseded) {
		return c.Status(fiber.StatusConflict).JSON(ErrorResponse{
			Error:   "superseded",
			Message: "a newer date selection replaced this one",
		})
	}
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(view)
}

// listTasks handles GET /api/v1/tasks?status=.
func (m *APIModule) listTasks(c *fiber.Ctx) error {
	view, err := m.agg.SetStatusFilter(c.Context(), c.Query("status", board.FilterAll))
	if errors.Is(err, board.ErrSuperseded) {
		return c.Status(fiber.StatusConflict).JSON(ErrorResponse{
			Error:   "superseded",
			Message: "a newer filter replaced this one",
		})
	}
	if err != nil {
		return storeError(c, err)
	}

	return c.JSON(ListTasksResponse{
		Filter: view.Filter,
		Tasks:  view.Tasks,
		Total:  len(view.Tasks),
	})
}

// createTask handles POST /api/v1/tasks with a complete form.
func (m *APIModule) createTask(c *fiber.Ctx) error {
	var req TaskRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid_request", "Invalid request body")
	}

	draft, err := req.toDraft(m.forms.Today())
	if err != nil {
		return badRequest(c, "validation_error", err.Error())
	}

	result, err := m.forms.SubmitDraft(c.Context(), draft)
	if err != nil {
		return storeError(c, err)
	}
	return submitResponse(c, result)
}

// getTask handles GET /api/v1/tasks/:id.
func (m *APIModule) getTask(c *fiber.Ctx) error {
	id, err := taskID(c)
	if err != nil {
		return badRequest(c, "validation_error", "Task ID must be a positive integer")
	}

	t, err := m.agg.LoadDetails(c.Context(), id)
	if errors.Is(err, domain.ErrNotFound) {
		return notFound(c)
	}
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(TaskResponse{Task: *t})
}

// completeTask handles POST /api/v1/tasks/:id/complete.
func (m *APIModule) completeTask(c *fiber.Ctx) error {
	id, err := taskID(c)
	if err != nil {
		return badRequest(c, "validation_error", "Task ID must be a positive integer")
	}

	t, err := m.agg.LoadDetails(c.Context(), id)
	if errors.Is(err, domain.ErrNotFound) {
		return notFound(c)
	}
	if err != nil {
		return storeError(c, err)
	}

	done, err := m.agg.MarkCompleted(c.Context(), *t)
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(TaskResponse{Task: *done})
}

// deleteTask handles DELETE /api/v1/tasks/:id. Missing ids succeed.
func (m *APIModule) deleteTask(c *fiber.Ctx) error {
	id, err := taskID(c)
	if err != nil {
		return badRequest(c, "validation_error", "Task ID must be a positive integer")
	}

	if err := m.agg.DeleteTask(c.Context(), id); err != nil {
		return storeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// openForm handles POST /api/v1/forms.
func (m *APIModule) openForm(c *fiber.Ctx) error {
	id, draft := m.forms.Open()
	return c.Status(fiber.StatusCreated).JSON(FormResponse{ID: id, Draft: draft})
}

// getForm handles GET /api/v1/forms/:id.
func (m *APIModule) getForm(c *fiber.Ctx) error {
	id := c.Params("id")
	draft, err := m.forms.Get(id)
	if err != nil {
		return formNotFound(c)
	}
	return c.JSON(FormResponse{ID: id, Draft: draft})
}

// editForm handles PATCH /api/v1/forms/:id.
func (m *APIModule) editForm(c *fiber.Ctx) error {
	var req FormEditRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid_request", "Invalid request body")
	}

	events, err := req.events()
	if err != nil {
		return badRequest(c, "validation_error", err.Error())
	}

	id := c.Params("id")
	draft, err := m.forms.Apply(id, events...)
	if err != nil {
		return formNotFound(c)
	}
	return c.JSON(FormResponse{ID: id, Draft: draft})
}

// submitForm handles POST /api/v1/forms/:id/submit.
func (m *APIModule) submitForm(c *fiber.Ctx) error {
	result, err := m.forms.Submit(c.Context(), c.Params("id"))
	if errors.Is(err, board.ErrSessionNotFound) {
		return formNotFound(c)
	}
	if err != nil {
		return storeError(c, err)
	}
	return submitResponse(c, result)
}

// discardForm handles DELETE /api/v1/forms/:id.
func (m *APIModule) discardForm(c *fiber.Ctx) error {
	m.forms.Discard(c.Params("id"))
	return c.SendStatus(fiber.StatusNoContent)
}

func submitResponse(c *fiber.Ctx, result board.SubmitResult) error {
	if !result.Outcome.Successful {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(ValidationErrorResponse{
			Error:   "validation_error",
			Message: result.Message,
			Outcome: result.Outcome,
		})
	}
	return c.Status(fiber.StatusCreated).JSON(SubmitResponse{
		Task:    result.Task,
		Outcome: result.Outcome,
	})
}

func taskID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fiber.ErrBadRequest
	}
	return id, nil
}

func badRequest(c *fiber.Ctx, code, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
		Error:   code,
		Message: message,
	})
}

func notFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
		Error:   "not_found",
		Message: "Task not found",
	})
}

func formNotFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
		Error:   "not_found",
		Message: "Form not found",
	})
}

func storeError(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
		Error:   "store_error",
		Message: err.Error(),
	})
}

package board

import (
	"context"
	"fmt"
	"time"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/go-monolith/mono/pkg/types"

	domain "github.com/example/task-manager/domain/task"
	"github.com/example/task-manager/events"
	"github.com/example/task-manager/modules/task"
)

// Module hosts the task view aggregator and the add-task form sessions.
// It reads and writes through the task module's services and follows its
// change events so the live date view tracks the store.
type Module struct {
	agg       *Aggregator
	forms     *FormSessions
	store     TaskStore
	validator *domain.Validator
	grace     time.Duration
	logger    types.Logger
}

// Compile-time interface checks.
var _ mono.Module = (*Module)(nil)
var _ mono.DependentModule = (*Module)(nil)
var _ mono.EventConsumerModule = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)

// NewModule creates the board module.
func NewModule(grace time.Duration, logger types.Logger) *Module {
	return &Module{
		grace:     grace,
		logger:    logger,
		validator: domain.NewValidator(nil),
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "board"
}

// Dependencies returns the list of module dependencies.
func (m *Module) Dependencies() []string {
	return []string{"task"}
}

// SetDependencyServiceContainer receives service containers from dependencies.
func (m *Module) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	switch dependency {
	case "task":
		m.store = task.NewTaskAdapter(container)
	}
}

// RegisterEventConsumers subscribes to task store changes.
func (m *Module) RegisterEventConsumers(registry mono.EventRegistry) error {
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskSavedV1, m.handleTaskSaved, m); err != nil {
		return fmt.Errorf("failed to register TaskSaved consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskDeletedV1, m.handleTaskDeleted, m); err != nil {
		return fmt.Errorf("failed to register TaskDeleted consumer: %w", err)
	}

	m.logger.Info("Registered event consumers", "events", "TaskSaved, TaskDeleted")
	return nil
}

func (m *Module) handleTaskSaved(ctx context.Context, event events.TaskSavedEvent, _ *mono.Msg) error {
	m.logger.Debug("task saved", "task_id", event.TaskID, "due_date", event.DueDate, "created", event.Created)
	return m.storeChanged(ctx)
}

func (m *Module) handleTaskDeleted(ctx context.Context, event events.TaskDeletedEvent, _ *mono.Msg) error {
	m.logger.Debug("task deleted", "task_id", event.TaskID)
	return m.storeChanged(ctx)
}

func (m *Module) storeChanged(ctx context.Context) error {
	if m.agg == nil {
		return nil
	}
	if err := m.agg.StoreChanged(ctx); err != nil {
		m.logger.Warn("date view refresh failed", "error", err)
		return err
	}
	return nil
}

// Start builds the aggregator over the task store.
func (m *Module) Start(_ context.Context) error {
	if m.store == nil {
		return fmt.Errorf("task store dependency not set")
	}

	m.agg = NewAggregator(m.store, m.logger, WithGraceWindow(m.grace))
	m.forms = NewFormSessions(m.agg, m.validator)

	m.logger.Info("Board module started", "grace_window", m.grace.String())
	return nil
}

// Stop cancels in-flight queries.
func (m *Module) Stop(_ context.Context) error {
	if m.agg != nil {
		m.agg.Close()
	}
	m.logger.Info("Board module stopped")
	return nil
}

// Health reports the aggregator state.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	if m.agg == nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: "aggregator not initialized",
		}
	}
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"live_date_query": m.agg.Live(),
			"open_forms":      m.forms.Len(),
		},
	}
}

// Aggregator returns the task view aggregator. Nil before Start.
func (m *Module) Aggregator() *Aggregator {
	return m.agg
}

// Forms returns the form session registry. Nil before Start.
func (m *Module) Forms() *FormSessions {
	return m.forms
}

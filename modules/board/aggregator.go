package board

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/go-monolith/mono/pkg/types"
	"github.com/google/uuid"

	domain "github.com/example/task-manager/domain/task"
)

// FilterAll selects every task in the status view.
const FilterAll = "All"

// DefaultGraceWindow is how long the date query stays live after its last observer leaves.
const DefaultGraceWindow = 5 * time.Second

// ErrSuperseded is returned by a query whose result was discarded because a
// newer request for the same view was issued while it was in flight.
var ErrSuperseded = errors.New("query superseded by a newer request")

// TaskStore is the record store the aggregator reads and writes through.
type TaskStore interface {
	FindAll(ctx context.Context) ([]domain.Task, error)
	FindByID(ctx context.Context, id int64) (*domain.Task, error)
	FindByStatus(ctx context.Context, status domain.Status) ([]domain.Task, error)
	FindByDueDate(ctx context.Context, date domain.Date) ([]domain.Task, error)
	Upsert(ctx context.Context, t *domain.Task) (*domain.Task, error)
	Delete(ctx context.Context, id int64) error
}

// DateView is the home screen state: the selected day and the tasks due on it.
type DateView struct {
	SelectedDate domain.Date   `json:"selected_date"`
	Tasks        []domain.Task `json:"tasks"`
	HasTasks     bool          `json:"has_tasks"`
	Loading      bool          `json:"loading"`
}

// StatusView is the task list screen state.
type StatusView struct {
	Filter string        `json:"filter"`
	Tasks  []domain.Task `json:"tasks"`
}

// Observer receives date view snapshots. It is called with the aggregator
// lock held and must not block or call back into the aggregator.
type Observer func(DateView)

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithGraceWindow sets how long the live date query survives without observers.
func WithGraceWindow(d time.Duration) Option {
	return func(a *Aggregator) { a.grace = d }
}

// WithClock sets the clock used to pick the initial selected date.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) { a.now = now }
}

// Aggregator keeps the selected date, the status filter and the task
// snapshots consistent, re-querying the store whenever an input changes.
type Aggregator struct {
	store   TaskStore
	logger  types.Logger
	metrics *Metrics
	now     func() time.Time
	grace   time.Duration

	mu sync.Mutex

	date       DateView
	dateGen    uint64
	dateCancel context.CancelFunc
	dateStale  bool

	status       StatusView
	statusWant   string
	statusGen    uint64
	statusCancel context.CancelFunc

	details *domain.Task

	observers  map[string]Observer
	live       bool
	graceTimer *time.Timer
	closed     bool
}

// NewAggregator creates an aggregator over store. The date view starts at
// today and reports tasks until the first query resolves.
func NewAggregator(store TaskStore, logger types.Logger, opts ...Option) *Aggregator {
	a := &Aggregator{
		store:     store,
		logger:    logger,
		metrics:   NewMetrics(),
		now:       time.Now,
		grace:     DefaultGraceWindow,
		observers: make(map[string]Observer),
		dateStale: true,
	}
	for _, opt := range opts {
		opt(a)
	}

	a.date = DateView{
		SelectedDate: domain.Today(a.now()),
		Tasks:        []domain.Task{},
		HasTasks:     true,
	}
	a.status = StatusView{Filter: FilterAll, Tasks: []domain.Task{}}
	a.statusWant = FilterAll
	return a
}

// DateView returns the current date view. A stale view (store changed while
// unobserved, or the last load failed) is reloaded first unless a query is
// already in flight.
func (a *Aggregator) DateView(ctx context.Context) (DateView, error) {
	a.mu.Lock()
	reload := a.dateStale && a.dateCancel == nil
	view := a.date
	a.mu.Unlock()

	if !reload {
		return view, nil
	}
	return a.refreshDate(ctx)
}

// SetSelectedDate selects a day and loads its tasks. A query still in flight
// for an earlier selection is cancelled and its result is never applied.
func (a *Aggregator) SetSelectedDate(ctx context.Context, date domain.Date) (DateView, error) {
	if date.IsZero() {
		return DateView{}, domain.ErrInvalidDate
	}
	return a.queryDate(ctx, &date)
}

// refreshDate reloads whatever date is selected when the query begins.
func (a *Aggregator) refreshDate(ctx context.Context) (DateView, error) {
	return a.queryDate(ctx, nil)
}

// queryDate loads the tasks due on selected, or on the current selection
// when selected is nil, under a fresh generation. The date is resolved under
// the same lock that bumps the generation so a refresh cannot revert a newer
// selection.
func (a *Aggregator) queryDate(ctx context.Context, selected *domain.Date) (DateView, error) {
	a.mu.Lock()
	date := a.date.SelectedDate
	if selected != nil {
		date = *selected
	}
	a.dateGen++
	gen := a.dateGen
	if a.dateCancel != nil {
		a.dateCancel()
	}
	qctx, cancel := context.WithCancel(ctx)
	a.dateCancel = cancel
	if !a.date.SelectedDate.Equal(date) {
		a.date = DateView{SelectedDate: date, Tasks: []domain.Task{}, Loading: true}
		a.publishLocked()
	}
	a.mu.Unlock()
	defer cancel()

	start := time.Now()
	tasks, err := a.store.FindByDueDate(qctx, date)
	a.observeQuery(viewDate, start)

	a.mu.Lock()
	defer a.mu.Unlock()

	if gen != a.dateGen {
		a.metrics.SupersededTotal.WithLabelValues(viewDate).Inc()
		a.logger.Debug("date query superseded", "date", date.String())
		return a.date, ErrSuperseded
	}
	a.dateCancel = nil
	if err != nil {
		a.metrics.QueryErrors.WithLabelValues(viewDate).Inc()
		// Tasks are unknown for this date; the next read or observer reloads.
		a.date.Loading = false
		a.dateStale = true
		a.publishLocked()
		return a.date, err
	}

	if tasks == nil {
		tasks = []domain.Task{}
	}
	a.date = DateView{
		SelectedDate: date,
		Tasks:        tasks,
		HasTasks:     hasTasksOn(tasks, date),
	}
	a.dateStale = false
	a.publishLocked()
	return a.date, nil
}

// hasTasksOn reports whether any task is due exactly on date.
func hasTasksOn(tasks []domain.Task, date domain.Date) bool {
	for _, t := range tasks {
		if t.DueDate.Equal(date) {
			return true
		}
	}
	return false
}

// StatusView returns the last loaded status view.
func (a *Aggregator) StatusView() StatusView {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.status
}

// SetStatusFilter selects a status label and loads its tasks. "All" and
// unknown labels load every task. The view keeps its previous label and
// tasks until the load succeeds.
func (a *Aggregator) SetStatusFilter(ctx context.Context, label string) (StatusView, error) {
	return a.queryStatus(ctx, &label)
}

// queryStatus mirrors queryDate for the filter cell. A nil label reloads the
// most recently requested one.
func (a *Aggregator) queryStatus(ctx context.Context, requested *string) (StatusView, error) {
	a.mu.Lock()
	label := a.statusWant
	if requested != nil {
		label = *requested
		a.statusWant = label
	}
	a.statusGen++
	gen := a.statusGen
	if a.statusCancel != nil {
		a.statusCancel()
	}
	qctx, cancel := context.WithCancel(ctx)
	a.statusCancel = cancel
	a.mu.Unlock()
	defer cancel()

	var (
		tasks []domain.Task
		err   error
	)
	start := time.Now()
	if status, perr := domain.ParseStatus(label); perr == nil {
		tasks, err = a.store.FindByStatus(qctx, status)
	} else {
		tasks, err = a.store.FindAll(qctx)
	}
	a.observeQuery(viewStatus, start)

	a.mu.Lock()
	defer a.mu.Unlock()

	if gen != a.statusGen {
		a.metrics.SupersededTotal.WithLabelValues(viewStatus).Inc()
		a.logger.Debug("status query superseded", "filter", label)
		return a.status, ErrSuperseded
	}
	a.statusCancel = nil
	if err != nil {
		a.metrics.QueryErrors.WithLabelValues(viewStatus).Inc()
		return a.status, err
	}

	if tasks == nil {
		tasks = []domain.Task{}
	}
	a.status = StatusView{Filter: label, Tasks: tasks}
	return a.status, nil
}

// RefreshStatus reloads the status view for the most recently requested filter.
func (a *Aggregator) RefreshStatus(ctx context.Context) (StatusView, error) {
	return a.queryStatus(ctx, nil)
}

// InsertOrUpdateTask writes t through the store. A zero id inserts.
func (a *Aggregator) InsertOrUpdateTask(ctx context.Context, t domain.Task) (*domain.Task, error) {
	return a.store.Upsert(ctx, &t)
}

// DeleteTask removes a task by id. A missing id is not an error.
func (a *Aggregator) DeleteTask(ctx context.Context, id int64) error {
	if err := a.store.Delete(ctx, id); err != nil {
		return err
	}

	a.mu.Lock()
	if a.details != nil && a.details.ID == id {
		a.details = nil
	}
	a.mu.Unlock()
	return nil
}

// MarkCompleted writes a completed copy of t and makes it the details projection.
func (a *Aggregator) MarkCompleted(ctx context.Context, t domain.Task) (*domain.Task, error) {
	staged := t.Completed()
	saved, err := a.store.Upsert(ctx, &staged)
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	a.details = saved
	a.mu.Unlock()
	return saved, nil
}

// LoadDetails fetches a task and makes it the details projection.
func (a *Aggregator) LoadDetails(ctx context.Context, id int64) (*domain.Task, error) {
	t, err := a.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	a.details = t
	a.mu.Unlock()
	return t, nil
}

// Details returns the current details projection.
func (a *Aggregator) Details() (domain.Task, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.details == nil {
		return domain.Task{}, false
	}
	return *a.details, true
}

// StoreChanged tells the aggregator the store was written. A live date query
// re-runs; otherwise the cached view is marked stale.
func (a *Aggregator) StoreChanged(ctx context.Context) error {
	a.mu.Lock()
	if !a.live {
		a.dateStale = true
		a.mu.Unlock()
		return nil
	}
	a.mu.Unlock()

	_, err := a.refreshDate(ctx)
	if errors.Is(err, ErrSuperseded) {
		return nil
	}
	return err
}

// Watch registers an observer of the date view and sends it the current
// snapshot. The returned function unregisters it.
func (a *Aggregator) Watch(fn Observer) (unwatch func()) {
	id := uuid.NewString()

	a.mu.Lock()
	a.observers[id] = fn
	a.metrics.DateObservers.Inc()
	if a.graceTimer != nil {
		a.graceTimer.Stop()
		a.graceTimer = nil
	}
	restart := a.dateStale && a.dateCancel == nil
	a.live = true
	fn(a.date)
	a.mu.Unlock()

	a.logger.Debug("date observer added", "observer", id)

	if restart {
		go func() {
			if view, err := a.refreshDate(context.Background()); err != nil && !errors.Is(err, ErrSuperseded) {
				a.logger.Warn("date query restart failed", "date", view.SelectedDate.String(), "error", err)
			}
		}()
	}

	var once sync.Once
	return func() {
		once.Do(func() { a.unwatch(id) })
	}
}

func (a *Aggregator) unwatch(id string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.observers[id]; ok {
		delete(a.observers, id)
		a.metrics.DateObservers.Dec()
	}
	if len(a.observers) > 0 || a.closed {
		return
	}
	if a.grace <= 0 {
		a.live = false
		return
	}
	a.graceTimer = time.AfterFunc(a.grace, a.dropLive)
}

// dropLive ends the live date query once the grace window passes unobserved.
func (a *Aggregator) dropLive() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if len(a.observers) > 0 {
		return
	}
	a.live = false
	a.graceTimer = nil
	a.logger.Debug("date query dropped")
}

// Live reports whether the date query currently follows the store.
func (a *Aggregator) Live() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.live
}

// Close cancels in-flight queries and stops the grace timer.
func (a *Aggregator) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.closed = true
	if a.dateCancel != nil {
		a.dateCancel()
	}
	if a.statusCancel != nil {
		a.statusCancel()
	}
	if a.graceTimer != nil {
		a.graceTimer.Stop()
		a.graceTimer = nil
	}
	a.live = false
	a.metrics.DateObservers.Sub(float64(len(a.observers)))
	a.observers = make(map[string]Observer)
}

func (a *Aggregator) observeQuery(view string, start time.Time) {
	a.metrics.QueriesTotal.WithLabelValues(view).Inc()
	a.metrics.QueryDuration.WithLabelValues(view).Observe(time.Since(start).Seconds())
}

func (a *Aggregator) publishLocked() {
	for _, fn := range a.observers {
		fn(a.date)
	}
}

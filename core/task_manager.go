package core

import (
	"context"
	"fmt"
	"maps"
	"runtime/debug"
	"slices"
	"sync"
	"time"
)

// KindTaskManager is the kind of a TaskManager registered as a task.
const KindTaskManager Kind = "taskmanager"

// FunctionMap is a copy of the function table: division -> priority bucket ->
// live functions in invocation order.
type FunctionMap map[Division][][]*Function

// TaskManager registers tasks and the prioritized functions they expose, and
// invokes those functions once per CallFunction pass.
//
// A TaskManager is not safe for concurrent use. All methods except Stats and
// RecentCalls must run on one goroutine (the frame loop). Removal is always a
// soft delete; slots are reclaimed by the arrangement step that ends every
// CallFunction pass, so functions may add or remove tasks and functions while
// a pass is running.
type TaskManager struct {
	TaskBase

	name      string
	tasks     []Task // nil slot = removed, reclaimed at next arrangement
	nextIndex int
	divisions map[Division]*functionDivision

	frame uint64
	pass  uint64

	logger       Logger
	panicHandler PanicHandler
	metrics      Metrics
	debug        DebugListener
	history      *callHistory

	statsMu sync.RWMutex
	stats   TaskManagerStats
}

// NewTaskManager creates a TaskManager with the default config.
func NewTaskManager() *TaskManager {
	return NewTaskManagerWithConfig(DefaultTaskManagerConfig())
}

// NewTaskManagerWithConfig creates a TaskManager. Nil config fields fall back
// to the defaults.
func NewTaskManagerWithConfig(config *TaskManagerConfig) *TaskManager {
	m := &TaskManager{}
	m.init(KindTaskManager, config)
	return m
}

func (m *TaskManager) init(kind Kind, config *TaskManagerConfig) {
	m.TaskBase = NewTaskBase(kind)
	m.divisions = make(map[Division]*functionDivision)

	historyCapacity := defaultCallHistoryCapacity
	if config != nil {
		m.name = config.Name
		m.logger = config.Logger
		m.panicHandler = config.PanicHandler
		m.metrics = config.Metrics
		m.debug = config.Debug
		if config.HistoryCapacity > 0 {
			historyCapacity = config.HistoryCapacity
		}
	}

	if m.name == "" {
		m.name = "taskmanager"
	}
	if m.logger == nil {
		m.logger = NewNoOpLogger()
	}
	if m.panicHandler == nil {
		m.panicHandler = &DefaultPanicHandler{Logger: m.logger}
	}
	if m.metrics == nil {
		m.metrics = &NilMetrics{}
	}
	m.history = newCallHistory(historyCapacity)

	m.publishStats()
}

// Name returns the configured manager name.
func (m *TaskManager) Name() string { return m.name }

// Info describes the manager when it is registered as a task.
func (m *TaskManager) Info() string {
	return fmt.Sprintf("%s (tasks=%d)", m.name, m.TaskCount())
}

// SubTaskManager implements SubScheduler.
func (m *TaskManager) SubTaskManager() *TaskManager { return m }

// Frame returns the number of completed arrangement passes.
func (m *TaskManager) Frame() uint64 { return m.frame }

// =============================================================================
// Task registry
// =============================================================================

// AddTask registers task and assigns it the next registration index.
// Adding a task that is already registered is a no-op.
func (m *TaskManager) AddTask(task Task) {
	if task == nil {
		return
	}
	base := task.taskBase()
	for _, t := range m.tasks {
		if t != nil && t.taskBase() == base {
			return
		}
	}

	base.index = m.nextIndex
	m.nextIndex++
	m.tasks = append(m.tasks, task)

	m.logger.Debug("task added",
		F("manager", m.name),
		F("index", base.index),
		F("kind", base.kind),
	)
}

// GetTaskList returns the live tasks in registration order.
func (m *TaskManager) GetTaskList() []Task {
	out := make([]Task, 0, len(m.tasks))
	for _, t := range m.tasks {
		if t != nil {
			out = append(out, t)
		}
	}
	return out
}

// TaskCount returns the number of live tasks.
func (m *TaskManager) TaskCount() int {
	n := 0
	for _, t := range m.tasks {
		if t != nil {
			n++
		}
	}
	return n
}

// GetTaskByID returns the first live task with the given id.
func (m *TaskManager) GetTaskByID(id TaskID) (Task, bool) {
	return m.findTask(func(t Task) bool { return t.ID() == id })
}

// GetTaskByKind returns the first live task of the given kind.
func (m *TaskManager) GetTaskByKind(kind Kind) (Task, bool) {
	return m.findTask(func(t Task) bool { return t.Kind() == kind })
}

func (m *TaskManager) findTask(match func(Task) bool) (Task, bool) {
	for _, t := range m.tasks {
		if t != nil && match(t) {
			return t, true
		}
	}
	return nil, false
}

// RemoveTask removes task and all of its functions.
func (m *TaskManager) RemoveTask(task Task) {
	if task == nil {
		return
	}
	base := task.taskBase()
	m.removeTasks(func(t Task) bool { return t.taskBase() == base })
}

// RemoveTaskByID removes the first live task with the given id, the same one
// GetTaskByID returns. It reports 1 if a task was removed and 0 otherwise.
func (m *TaskManager) RemoveTaskByID(id TaskID) int {
	task, ok := m.GetTaskByID(id)
	if !ok {
		return 0
	}
	base := task.taskBase()
	return m.removeTasks(func(t Task) bool { return t.taskBase() == base })
}

// RemoveTaskByKind removes every live task of the given kind.
func (m *TaskManager) RemoveTaskByKind(kind Kind) int {
	return m.removeTasks(func(t Task) bool { return t.Kind() == kind })
}

// RemoveTaskGroup removes every live task in the given group.
func (m *TaskManager) RemoveTaskGroup(group GroupID) int {
	return m.removeTasks(func(t Task) bool { return t.GroupID() == group })
}

// RemoveTaskWithoutKinds removes every live task whose kind is not listed.
func (m *TaskManager) RemoveTaskWithoutKinds(kinds ...Kind) int {
	keep := make(map[Kind]struct{}, len(kinds))
	for _, k := range kinds {
		keep[k] = struct{}{}
	}
	return m.removeTasks(func(t Task) bool {
		_, ok := keep[t.Kind()]
		return !ok
	})
}

// removeTasks soft deletes every matching task after removing its functions.
func (m *TaskManager) removeTasks(match func(Task) bool) int {
	removed := 0
	for i, t := range m.tasks {
		if t == nil || !match(t) {
			continue
		}
		m.RemoveFunction(t)
		m.tasks[i] = nil
		removed++

		m.logger.Debug("task removed",
			F("manager", m.name),
			F("index", t.Index()),
			F("kind", t.Kind()),
		)
	}
	return removed
}

// ClearTask drops every task and function immediately. Division declarations
// are kept.
func (m *TaskManager) ClearTask() {
	for _, d := range m.divisions {
		d.reset()
	}
	clear(m.tasks)
	m.tasks = nil

	m.logger.Info("tasks cleared", F("manager", m.name))
}

// Clear is ClearTask followed by dropping every division declaration.
func (m *TaskManager) Clear() {
	m.ClearTask()
	m.divisions = make(map[Division]*functionDivision)

	m.logger.Info("divisions cleared", F("manager", m.name))
}

// =============================================================================
// Division lifecycle
// =============================================================================

// InitializeFunctionDivision declares division with maxPriority empty buckets.
func (m *TaskManager) InitializeFunctionDivision(division Division, maxPriority int) error {
	if _, ok := m.divisions[division]; ok {
		err := fmt.Errorf("initialize division %s: %w", division, ErrDivisionAlreadyExists)
		m.logger.Warn("division error", F("manager", m.name), F("error", err))
		return err
	}
	if maxPriority < 0 {
		return fmt.Errorf("initialize division %s with %d priorities: %w", division, maxPriority, ErrPriorityOutOfRange)
	}
	m.divisions[division] = newFunctionDivision(division, maxPriority)
	return nil
}

// HasDivision reports whether division is declared.
func (m *TaskManager) HasDivision(division Division) bool {
	_, ok := m.divisions[division]
	return ok
}

// Divisions returns the declared divisions in ascending order.
func (m *TaskManager) Divisions() []Division {
	return slices.Sorted(maps.Keys(m.divisions))
}

func (m *TaskManager) division(division Division) (*functionDivision, error) {
	d, ok := m.divisions[division]
	if !ok {
		err := fmt.Errorf("division %s: %w", division, ErrDivisionNotFound)
		m.logger.Warn("division error", F("manager", m.name), F("error", err))
		return nil, err
	}
	return d, nil
}

// =============================================================================
// Function registry
// =============================================================================

// AddFunction appends f to the bucket at priority in division and sets its id.
// Within a bucket, functions run in the order they were added.
func (m *TaskManager) AddFunction(division Division, f *Function, priority int, id int) error {
	d, err := m.division(division)
	if err != nil {
		return err
	}
	if f == nil {
		return ErrNilFunction
	}
	if f.owner == nil {
		return fmt.Errorf("add function %s: %w", f.Name(), ErrNilTask)
	}
	if priority < 0 || priority >= d.maxPriority() {
		return fmt.Errorf("add function %s to division %s at priority %d (max %d): %w",
			f.Name(), division, priority, d.maxPriority(), ErrPriorityOutOfRange)
	}
	if f.live {
		return fmt.Errorf("add function %s to division %s: %w", f.Name(), division, ErrFunctionRegistered)
	}

	f.division = division
	f.priority = priority
	f.id = id
	f.live = true
	d.push(priority, f)
	return nil
}

// FunctionCount returns the number of live functions in division.
func (m *TaskManager) FunctionCount(division Division) (int, error) {
	d, err := m.division(division)
	if err != nil {
		return 0, err
	}
	n := 0
	d.each(func(_, _ int, _ *Function) bool {
		n++
		return true
	})
	return n, nil
}

// GetFunctionMap returns a copy of the function table.
func (m *TaskManager) GetFunctionMap() FunctionMap {
	out := make(FunctionMap, len(m.divisions))
	for div, d := range m.divisions {
		out[div] = d.snapshot()
	}
	return out
}

// RemoveFunction removes every function owned by task, in every division.
func (m *TaskManager) RemoveFunction(task Task) {
	if task == nil {
		return
	}
	for _, d := range m.divisions {
		d.each(func(p, i int, f *Function) bool {
			if f.ownedBy(task) {
				d.softDelete(p, i)
			}
			return true
		})
	}
}

// RemoveFunctionByID removes every function in division owned by task with
// the given id.
func (m *TaskManager) RemoveFunctionByID(task Task, division Division, id int) error {
	d, err := m.division(division)
	if err != nil {
		return err
	}
	d.each(func(p, i int, f *Function) bool {
		if f.ownedBy(task) && f.id == id {
			d.softDelete(p, i)
		}
		return true
	})
	return nil
}

// RemoveFunctionByKind removes every function whose owner is of the given kind.
func (m *TaskManager) RemoveFunctionByKind(kind Kind) {
	for _, d := range m.divisions {
		d.each(func(p, i int, f *Function) bool {
			if f.ownerKind() == kind {
				d.softDelete(p, i)
			}
			return true
		})
	}
}

// SetFunctionEnable sets the enable flag of every function in every division.
func (m *TaskManager) SetFunctionEnable(enable bool) {
	for _, d := range m.divisions {
		setEnable(d, enable, func(*Function) bool { return true })
	}
}

// SetDivisionEnable sets the enable flag of every function in division.
func (m *TaskManager) SetDivisionEnable(enable bool, division Division) error {
	d, err := m.division(division)
	if err != nil {
		return err
	}
	setEnable(d, enable, func(*Function) bool { return true })
	return nil
}

// SetTaskFunctionEnable sets the enable flag of task's functions in division.
func (m *TaskManager) SetTaskFunctionEnable(enable bool, task Task, division Division) error {
	d, err := m.division(division)
	if err != nil {
		return err
	}
	setEnable(d, enable, func(f *Function) bool { return f.ownedBy(task) })
	return nil
}

// SetFunctionEnableByID sets the enable flag of task's functions with the
// given id in division.
func (m *TaskManager) SetFunctionEnableByID(enable bool, task Task, division Division, id int) error {
	d, err := m.division(division)
	if err != nil {
		return err
	}
	setEnable(d, enable, func(f *Function) bool { return f.ownedBy(task) && f.id == id })
	return nil
}

// SetTaskFunctionEnableByTaskID looks up the first live task with taskID and
// sets the enable flag of its functions in division. A missing task is a no-op.
func (m *TaskManager) SetTaskFunctionEnableByTaskID(enable bool, taskID TaskID, division Division) error {
	task, ok := m.GetTaskByID(taskID)
	if !ok {
		return nil
	}
	return m.SetTaskFunctionEnable(enable, task, division)
}

// SetFunctionEnableByTaskID is SetFunctionEnableByID keyed by task id. A
// missing task is a no-op.
func (m *TaskManager) SetFunctionEnableByTaskID(enable bool, taskID TaskID, division Division, id int) error {
	task, ok := m.GetTaskByID(taskID)
	if !ok {
		return nil
	}
	return m.SetFunctionEnableByID(enable, task, division, id)
}

// SetFunctionEnableByKind sets the enable flag of every function in division
// whose owner is of the given kind.
func (m *TaskManager) SetFunctionEnableByKind(enable bool, kind Kind, division Division) error {
	d, err := m.division(division)
	if err != nil {
		return err
	}
	setEnable(d, enable, func(f *Function) bool { return f.ownerKind() == kind })
	return nil
}

func setEnable(d *functionDivision, enable bool, match func(*Function) bool) {
	d.each(func(_, _ int, f *Function) bool {
		if match(f) {
			f.enable = enable
		}
		return true
	})
}

// =============================================================================
// Invocation
// =============================================================================

// CallFunction invokes every enabled, undelayed function of division in
// priority order, then runs the arrangement step.
//
// The manager is available to function bodies through GetCurrentTaskManager.
// A function runs at most once per pass even if it is removed and re-added
// during the pass.
func (m *TaskManager) CallFunction(ctx context.Context, division Division) error {
	d, err := m.division(division)
	if err != nil {
		return err
	}

	startedAt := time.Now()
	m.pass++
	pass := m.pass
	ctx = withTaskManager(ctx, m)

	d.each(func(_, _ int, f *Function) bool {
		if !f.runnable() || f.calledIn == pass {
			return true
		}
		f.calledIn = pass
		m.invoke(ctx, f)
		return true
	})

	m.arrange()
	m.metrics.RecordPassDuration(m.name, division, time.Since(startedAt))
	return nil
}

func (m *TaskManager) invoke(ctx context.Context, f *Function) {
	startedAt := time.Now()
	panicked := false

	defer func() {
		if r := recover(); r != nil {
			panicked = true
			m.panicHandler.HandlePanic(ctx, m.name, f.Info(), r, debug.Stack())
			m.metrics.RecordFunctionPanic(m.name, f.division, r)
		}

		duration := time.Since(startedAt)
		m.metrics.RecordFunctionDuration(m.name, f.division, f.priority, duration)

		record := FunctionCallRecord{
			Name:      f.Name(),
			TaskIndex: indexUnassigned,
			Manager:   m.name,
			Division:  f.division,
			Priority:  f.priority,
			ID:        f.id,
			Frame:     m.frame,
			StartedAt: startedAt,
			Duration:  duration,
			Panicked:  panicked,
		}
		if f.owner != nil {
			record.TaskIndex = f.owner.Index()
			record.TaskInfo = f.owner.Info()
		}
		m.history.Add(record)
	}()

	f.invoke(ctx)
}

// arrange reclaims soft deleted slots, advances delays, publishes stats and
// notifies the debug listener.
func (m *TaskManager) arrange() {
	reclaimedTasks := 0
	n := 0
	for _, t := range m.tasks {
		if t == nil {
			reclaimedTasks++
			continue
		}
		m.tasks[n] = t
		n++
	}
	clear(m.tasks[n:])
	m.tasks = m.tasks[:n]

	reclaimedFunctions := 0
	for _, d := range m.divisions {
		reclaimedFunctions += d.arrange()
	}

	m.frame++
	if reclaimedTasks > 0 || reclaimedFunctions > 0 {
		m.metrics.RecordReclaimed(m.name, reclaimedTasks, reclaimedFunctions)
	}

	m.publishStats()
	if m.debug != nil {
		m.debug.Refresh(m)
	}
}

// =============================================================================
// Observability
// =============================================================================

func (m *TaskManager) publishStats() {
	stats := TaskManagerStats{
		Name:      m.name,
		Frame:     m.frame,
		Tasks:     m.TaskCount(),
		UpdatedAt: time.Now(),
	}
	for _, div := range m.Divisions() {
		stats.Divisions = append(stats.Divisions, m.divisions[div].stats())
	}

	m.statsMu.Lock()
	m.stats = stats
	m.statsMu.Unlock()
}

// Stats returns the snapshot published by the last arrangement pass.
// Safe for concurrent use.
func (m *TaskManager) Stats() TaskManagerStats {
	m.statsMu.RLock()
	defer m.statsMu.RUnlock()
	return m.stats
}

// RecentCalls returns up to limit function call records, newest first.
// Safe for concurrent use.
func (m *TaskManager) RecentCalls(limit int) []FunctionCallRecord {
	return m.history.Recent(limit)
}

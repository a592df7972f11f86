package core

import (
	"context"
	"fmt"
	"time"
)

// =============================================================================
// PanicHandler: Interface for handling function panics
// =============================================================================

// PanicHandler is called when a function body panics during a CallFunction
// pass. The pass continues with the next slot after the handler returns.
type PanicHandler interface {
	// HandlePanic is called when a function panics.
	//
	// Parameters:
	// - ctx: The context of the pass (carries the current TaskManager)
	// - managerName: The name of the manager running the pass
	// - function: Description of the panicking function
	// - panicInfo: The panic value recovered from the function
	// - stackTrace: The stack trace at the time of panic
	HandlePanic(ctx context.Context, managerName string, function string, panicInfo any, stackTrace []byte)
}

// DefaultPanicHandler reports panics through a Logger.
type DefaultPanicHandler struct {
	Logger Logger
}

// HandlePanic logs the panic at error level.
func (h *DefaultPanicHandler) HandlePanic(ctx context.Context, managerName string, function string, panicInfo any, stackTrace []byte) {
	logger := h.Logger
	if logger == nil {
		logger = NewDefaultLogger()
	}
	logger.Error("function panicked",
		F("manager", managerName),
		F("function", function),
		F("panic", fmt.Sprint(panicInfo)),
		F("stack", string(stackTrace)),
	)
}

// =============================================================================
// Metrics: Interface for observability and monitoring
// =============================================================================

// Metrics defines the interface for collecting scheduling metrics.
// Methods are called on the scheduler goroutine and should be fast.
type Metrics interface {
	// RecordFunctionDuration records how long one function invocation took.
	RecordFunctionDuration(managerName string, division Division, priority int, duration time.Duration)

	// RecordFunctionPanic records that a function panicked.
	RecordFunctionPanic(managerName string, division Division, panicInfo any)

	// RecordPassDuration records the duration of a full CallFunction pass,
	// arrangement included.
	RecordPassDuration(managerName string, division Division, duration time.Duration)

	// RecordReclaimed records slots erased by an arrangement pass.
	RecordReclaimed(managerName string, tasks int, functions int)
}

// NilMetrics provides a no-op metrics implementation.
// This is the default when no metrics interface is provided.
type NilMetrics struct{}

func (m *NilMetrics) RecordFunctionDuration(managerName string, division Division, priority int, duration time.Duration) {
}
func (m *NilMetrics) RecordFunctionPanic(managerName string, division Division, panicInfo any) {}
func (m *NilMetrics) RecordPassDuration(managerName string, division Division, duration time.Duration) {
}
func (m *NilMetrics) RecordReclaimed(managerName string, tasks int, functions int) {}

// =============================================================================
// DebugListener: hook for diagnostic panels
// =============================================================================

// DebugListener is notified at the end of every arrangement pass, on the
// scheduler goroutine. Implementations may call GetTaskList and GetFunctionMap
// from Refresh but must not keep the returned values across Clear or ClearTask.
type DebugListener interface {
	Refresh(m *TaskManager)
}

// =============================================================================
// TaskManagerConfig: Configuration for TaskManager
// =============================================================================

// TaskManagerConfig holds configuration options for TaskManager.
// All handlers are optional; defaults are used for nil fields.
type TaskManagerConfig struct {
	// Name labels logs, metrics and history records. Defaults to "taskmanager".
	Name string

	// Logger defaults to NoOpLogger.
	Logger Logger

	// PanicHandler defaults to DefaultPanicHandler writing through Logger.
	PanicHandler PanicHandler

	// Metrics defaults to NilMetrics.
	Metrics Metrics

	// Debug is optional.
	Debug DebugListener

	// HistoryCapacity bounds RecentCalls. Defaults to 100.
	HistoryCapacity int
}

// DefaultTaskManagerConfig returns a config with default handlers.
func DefaultTaskManagerConfig() *TaskManagerConfig {
	logger := NewNoOpLogger()
	return &TaskManagerConfig{
		Name:            "taskmanager",
		Logger:          logger,
		PanicHandler:    &DefaultPanicHandler{Logger: logger},
		Metrics:         &NilMetrics{},
		HistoryCapacity: defaultCallHistoryCapacity,
	}
}

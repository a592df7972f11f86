package framescheduler

import "github.com/Swind/go-frame-scheduler/core"

// Re-export commonly used types from core package for convenience.
// This allows users to import only the framescheduler package for most use cases.

// Task is anything a TaskManager can own
type Task = core.Task

// TaskBase is embedded by concrete tasks
type TaskBase = core.TaskBase

type (
	TaskID   = core.TaskID
	GroupID  = core.GroupID
	Kind     = core.Kind
	Division = core.Division
)

// Function is a prioritized, delayable callable owned by a task
type Function = core.Function

// FunctionBody is the code a Function runs
type FunctionBody = core.FunctionBody

// TaskManager is the generic division/priority scheduler
type TaskManager = core.TaskManager

// WorkRenderTaskManager fixes the WORK and RENDER divisions
type WorkRenderTaskManager = core.WorkRenderTaskManager

// TaskManagerConfig carries the ambient collaborators of a manager
type TaskManagerConfig = core.TaskManagerConfig

// SubScheduler is implemented by tasks that own a nested manager
type SubScheduler = core.SubScheduler

const (
	DivisionWork   = core.DivisionWork
	DivisionRender = core.DivisionRender

	IDFree    = core.IDFree
	GroupFree = core.GroupFree
)

// Constructors re-exported for single-import use
var (
	NewTaskBase                        = core.NewTaskBase
	NewFunction                        = core.NewFunction
	NewNamedFunction                   = core.NewNamedFunction
	NewTaskManager                     = core.NewTaskManager
	NewTaskManagerWithConfig           = core.NewTaskManagerWithConfig
	NewWorkRenderTaskManager           = core.NewWorkRenderTaskManager
	NewWorkRenderTaskManagerWithConfig = core.NewWorkRenderTaskManagerWithConfig
	DefaultTaskManagerConfig           = core.DefaultTaskManagerConfig
)

// GetCurrentTaskManager retrieves the manager running the current function from context
var GetCurrentTaskManager = core.GetCurrentTaskManager

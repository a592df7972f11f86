package core

import (
	"context"
	"fmt"
)

// =============================================================================
// Task identity
// =============================================================================

// TaskID is a caller-chosen identifier used for targeted lookup and removal.
type TaskID int

// GroupID is a caller-chosen grouping key used for bulk removal.
type GroupID int

// Kind tags a task with the capability it provides. Kinds are compared by value
// and replace runtime type inspection for bulk queries.
type Kind string

const (
	// IDFree marks a task that was never given an explicit id.
	IDFree TaskID = -1

	// GroupFree marks a task that belongs to no group.
	GroupFree GroupID = -1

	// indexUnassigned is the index of a task that was never registered.
	indexUnassigned = -1
)

// Task is the unit of identity the TaskManager schedules functions for.
//
// Implementations embed TaskBase, which supplies every method except an
// optional Info override.
type Task interface {
	// Index returns the sequential registration index assigned by the manager,
	// or -1 when the task has not been registered.
	Index() int
	ID() TaskID
	GroupID() GroupID
	Kind() Kind

	// Info returns a human-readable description for diagnostics.
	Info() string

	taskBase() *TaskBase
}

// TaskBase carries the identity fields of a Task. Embed it by value.
type TaskBase struct {
	index int
	id    TaskID
	group GroupID
	kind  Kind
}

// NewTaskBase returns a TaskBase of the given kind with free id and group.
func NewTaskBase(kind Kind) TaskBase {
	return TaskBase{
		index: indexUnassigned,
		id:    IDFree,
		group: GroupFree,
		kind:  kind,
	}
}

func (b *TaskBase) Index() int       { return b.index }
func (b *TaskBase) ID() TaskID       { return b.id }
func (b *TaskBase) GroupID() GroupID { return b.group }
func (b *TaskBase) Kind() Kind       { return b.kind }

// SetID sets the caller-chosen id.
func (b *TaskBase) SetID(id TaskID) { b.id = id }

// SetGroupID sets the caller-chosen group.
func (b *TaskBase) SetGroupID(group GroupID) { b.group = group }

// Info returns "kind#index". Embedding types may override it.
func (b *TaskBase) Info() string {
	kind := b.kind
	if kind == "" {
		kind = "task"
	}
	return fmt.Sprintf("%s#%d", kind, b.index)
}

func (b *TaskBase) taskBase() *TaskBase { return b }

// SubScheduler is implemented by tasks that own a nested TaskManager.
// The outer manager never recurses into it; diagnostics use it to build the
// task tree.
type SubScheduler interface {
	SubTaskManager() *TaskManager
}

// =============================================================================
// Context Helper
// =============================================================================
type taskManagerKeyType struct{}

var taskManagerKey taskManagerKeyType

func withTaskManager(ctx context.Context, m *TaskManager) context.Context {
	return context.WithValue(ctx, taskManagerKey, m)
}

// GetCurrentTaskManager returns the manager whose CallFunction pass is running
// the current function, or nil outside a pass.
func GetCurrentTaskManager(ctx context.Context) *TaskManager {
	if v := ctx.Value(taskManagerKey); v != nil {
		return v.(*TaskManager)
	}
	return nil
}

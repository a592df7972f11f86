package core

import (
	"context"
	"fmt"
)

// KindWorkRenderTaskManager is the kind of a WorkRenderTaskManager registered
// as a task.
const KindWorkRenderTaskManager Kind = "workrender"

// workFunctionDelay makes a work function skip the first pass after it is
// added, so state set up in the current frame is visible when it first runs.
const workFunctionDelay = 1

// WorkRenderTaskManager is a TaskManager with two fixed divisions, DivisionWork
// and DivisionRender.
type WorkRenderTaskManager struct {
	TaskManager
}

// NewWorkRenderTaskManager creates a WorkRenderTaskManager with the default config.
func NewWorkRenderTaskManager() *WorkRenderTaskManager {
	return NewWorkRenderTaskManagerWithConfig(DefaultTaskManagerConfig())
}

// NewWorkRenderTaskManagerWithConfig creates a WorkRenderTaskManager.
// Call InitializeFunctionDivision before adding functions.
func NewWorkRenderTaskManagerWithConfig(config *TaskManagerConfig) *WorkRenderTaskManager {
	m := &WorkRenderTaskManager{}
	m.init(KindWorkRenderTaskManager, config)
	return m
}

// InitializeFunctionDivision declares the work and render divisions.
func (m *WorkRenderTaskManager) InitializeFunctionDivision(maxPriorityWork, maxPriorityRender int) error {
	for _, div := range []Division{DivisionWork, DivisionRender} {
		if m.HasDivision(div) {
			return fmt.Errorf("initialize division %s: %w", div, ErrDivisionAlreadyExists)
		}
	}
	if maxPriorityWork < 0 || maxPriorityRender < 0 {
		return fmt.Errorf("initialize work/render divisions with %d/%d priorities: %w",
			maxPriorityWork, maxPriorityRender, ErrPriorityOutOfRange)
	}
	if err := m.TaskManager.InitializeFunctionDivision(DivisionWork, maxPriorityWork); err != nil {
		return err
	}
	return m.TaskManager.InitializeFunctionDivision(DivisionRender, maxPriorityRender)
}

// CallWorkFunction runs one pass of the work division.
func (m *WorkRenderTaskManager) CallWorkFunction(ctx context.Context) error {
	return m.CallFunction(ctx, DivisionWork)
}

// CallRenderFunction runs one pass of the render division.
func (m *WorkRenderTaskManager) CallRenderFunction(ctx context.Context) error {
	return m.CallFunction(ctx, DivisionRender)
}

// AddWorkFunction adds f to the work division with a one-pass initial delay.
func (m *WorkRenderTaskManager) AddWorkFunction(f *Function, priority int, id int) error {
	if err := m.AddFunction(DivisionWork, f, priority, id); err != nil {
		return err
	}
	f.delay = workFunctionDelay
	return nil
}

// AddRenderFunction adds f to the render division. It runs on the next pass.
func (m *WorkRenderTaskManager) AddRenderFunction(f *Function, priority int, id int) error {
	return m.AddFunction(DivisionRender, f, priority, id)
}

// RemoveWorkFunction removes task's work function with the given id.
func (m *WorkRenderTaskManager) RemoveWorkFunction(task Task, id int) error {
	return m.RemoveFunctionByID(task, DivisionWork, id)
}

// RemoveRenderFunction removes task's render function with the given id.
func (m *WorkRenderTaskManager) RemoveRenderFunction(task Task, id int) error {
	return m.RemoveFunctionByID(task, DivisionRender, id)
}

func (m *WorkRenderTaskManager) SetWorkFunctionEnable(enable bool) error {
	return m.SetDivisionEnable(enable, DivisionWork)
}

func (m *WorkRenderTaskManager) SetRenderFunctionEnable(enable bool) error {
	return m.SetDivisionEnable(enable, DivisionRender)
}

func (m *WorkRenderTaskManager) SetWorkFunctionEnableForTask(enable bool, task Task) error {
	return m.SetTaskFunctionEnable(enable, task, DivisionWork)
}

func (m *WorkRenderTaskManager) SetRenderFunctionEnableForTask(enable bool, task Task) error {
	return m.SetTaskFunctionEnable(enable, task, DivisionRender)
}

func (m *WorkRenderTaskManager) SetWorkFunctionEnableByID(enable bool, task Task, id int) error {
	return m.SetFunctionEnableByID(enable, task, DivisionWork, id)
}

func (m *WorkRenderTaskManager) SetRenderFunctionEnableByID(enable bool, task Task, id int) error {
	return m.SetFunctionEnableByID(enable, task, DivisionRender, id)
}

func (m *WorkRenderTaskManager) SetWorkFunctionEnableForTaskID(enable bool, taskID TaskID) error {
	return m.SetTaskFunctionEnableByTaskID(enable, taskID, DivisionWork)
}

func (m *WorkRenderTaskManager) SetRenderFunctionEnableForTaskID(enable bool, taskID TaskID) error {
	return m.SetTaskFunctionEnableByTaskID(enable, taskID, DivisionRender)
}

func (m *WorkRenderTaskManager) SetWorkFunctionEnableByTaskID(enable bool, taskID TaskID, id int) error {
	return m.SetFunctionEnableByTaskID(enable, taskID, DivisionWork, id)
}

func (m *WorkRenderTaskManager) SetRenderFunctionEnableByTaskID(enable bool, taskID TaskID, id int) error {
	return m.SetFunctionEnableByTaskID(enable, taskID, DivisionRender, id)
}

func (m *WorkRenderTaskManager) SetWorkFunctionEnableByKind(enable bool, kind Kind) error {
	return m.SetFunctionEnableByKind(enable, kind, DivisionWork)
}

func (m *WorkRenderTaskManager) SetRenderFunctionEnableByKind(enable bool, kind Kind) error {
	return m.SetFunctionEnableByKind(enable, kind, DivisionRender)
}

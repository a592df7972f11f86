package core

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

func newWorkRender(t *testing.T) *WorkRenderTaskManager {
	t.Helper()
	m := NewWorkRenderTaskManager()
	if err := m.InitializeFunctionDivision(3, 2); err != nil {
		t.Fatalf("InitializeFunctionDivision failed: %v", err)
	}
	return m
}

// TestWorkRenderTaskManager_WorkDelay tests the one-frame grace period
// Main test items:
// 1. A work function does not run on the first work pass after it is added
// 2. It runs on the second
func TestWorkRenderTaskManager_WorkDelay(t *testing.T) {
	m := newWorkRender(t)
	task := newTestTask("test")
	m.AddTask(task)

	calls := 0
	f := NewFunction(task, func(ctx context.Context) { calls++ })
	if err := m.AddWorkFunction(f, 0, 7); err != nil {
		t.Fatalf("AddWorkFunction failed: %v", err)
	}
	if f.ID() != 7 || f.Delay() != 1 {
		t.Errorf("Expected id 7 delay 1, got %d/%d", f.ID(), f.Delay())
	}

	if err := m.CallWorkFunction(context.Background()); err != nil {
		t.Fatalf("CallWorkFunction failed: %v", err)
	}
	if calls != 0 {
		t.Fatalf("Expected no call on first pass, got %d", calls)
	}

	if err := m.CallWorkFunction(context.Background()); err != nil {
		t.Fatalf("CallWorkFunction failed: %v", err)
	}
	if calls != 1 {
		t.Errorf("Expected 1 call on second pass, got %d", calls)
	}
}

// TestWorkRenderTaskManager_RenderNoDelay tests that render functions run on
// the very next render pass.
func TestWorkRenderTaskManager_RenderNoDelay(t *testing.T) {
	m := newWorkRender(t)
	task := newTestTask("test")
	m.AddTask(task)

	calls := 0
	if err := m.AddRenderFunction(NewFunction(task, func(ctx context.Context) { calls++ }), 1, 0); err != nil {
		t.Fatalf("AddRenderFunction failed: %v", err)
	}
	if err := m.CallRenderFunction(context.Background()); err != nil {
		t.Fatalf("CallRenderFunction failed: %v", err)
	}
	if calls != 1 {
		t.Errorf("Expected 1 call, got %d", calls)
	}
}

// TestWorkRenderTaskManager_FrameLoop tests a work-then-render frame loop
// Main test items:
// 1. Work runs before render within a frame
// 2. Priorities order functions inside each division
// 3. Removing a task stops both its work and render functions
func TestWorkRenderTaskManager_FrameLoop(t *testing.T) {
	m := newWorkRender(t)
	camera := newTestTask("camera")
	sprite := newTestTask("sprite")
	m.AddTask(sprite)
	m.AddTask(camera)

	var log []string
	add := func(task Task, name string, work bool, pri int) {
		f := NewNamedFunction(task, name, func(ctx context.Context) { log = append(log, name) })
		var err error
		if work {
			err = m.AddWorkFunction(f, pri, 0)
		} else {
			err = m.AddRenderFunction(f, pri, 0)
		}
		if err != nil {
			t.Fatalf("add %s failed: %v", name, err)
		}
	}
	add(sprite, "sprite-update", true, 1)
	add(camera, "camera-update", true, 0)
	add(sprite, "sprite-draw", false, 1)
	add(camera, "camera-draw", false, 0)

	frame := func() {
		if err := m.CallWorkFunction(context.Background()); err != nil {
			t.Fatalf("CallWorkFunction failed: %v", err)
		}
		if err := m.CallRenderFunction(context.Background()); err != nil {
			t.Fatalf("CallRenderFunction failed: %v", err)
		}
	}

	frame()
	if !reflect.DeepEqual(log, []string{"camera-draw", "sprite-draw"}) {
		t.Errorf("Frame 1: Expected render only, got %v", log)
	}

	log = nil
	frame()
	expected := []string{"camera-update", "sprite-update", "camera-draw", "sprite-draw"}
	if !reflect.DeepEqual(log, expected) {
		t.Errorf("Frame 2: Expected %v, got %v", expected, log)
	}

	log = nil
	m.RemoveTask(sprite)
	frame()
	if !reflect.DeepEqual(log, []string{"camera-update", "camera-draw"}) {
		t.Errorf("Frame 3: Expected camera only, got %v", log)
	}
}

// TestWorkRenderTaskManager_Wrappers tests division-scoped wrappers
// Main test items:
// 1. Re-initializing fails without touching existing divisions
// 2. Enable wrappers only affect their own division
// 3. Task-id keyed enable wrappers resolve the task first
// 4. Remove wrappers target one id
func TestWorkRenderTaskManager_Wrappers(t *testing.T) {
	m := newWorkRender(t)
	if err := m.InitializeFunctionDivision(1, 1); !errors.Is(err, ErrDivisionAlreadyExists) {
		t.Errorf("Expected ErrDivisionAlreadyExists, got %v", err)
	}
	if got := m.divisions[DivisionWork].maxPriority(); got != 3 {
		t.Errorf("Expected work division to keep 3 priorities, got %d", got)
	}

	task := newTestTask("shot")
	m.AddTask(task)
	work := NewFunction(task, func(ctx context.Context) {})
	render := NewFunction(task, func(ctx context.Context) {})
	if err := m.AddWorkFunction(work, 0, 1); err != nil {
		t.Fatalf("AddWorkFunction failed: %v", err)
	}
	if err := m.AddRenderFunction(render, 0, 1); err != nil {
		t.Fatalf("AddRenderFunction failed: %v", err)
	}

	if err := m.SetWorkFunctionEnable(false); err != nil {
		t.Fatalf("SetWorkFunctionEnable failed: %v", err)
	}
	if work.Enabled() || !render.Enabled() {
		t.Errorf("Expected only work disabled, got work=%v render=%v", work.Enabled(), render.Enabled())
	}
	if err := m.SetRenderFunctionEnableByKind(false, "shot"); err != nil {
		t.Fatalf("SetRenderFunctionEnableByKind failed: %v", err)
	}
	if err := m.SetWorkFunctionEnableByID(true, task, 1); err != nil {
		t.Fatalf("SetWorkFunctionEnableByID failed: %v", err)
	}
	if !work.Enabled() || render.Enabled() {
		t.Errorf("Expected work enabled and render disabled, got work=%v render=%v", work.Enabled(), render.Enabled())
	}

	task.SetID(55)
	if err := m.SetWorkFunctionEnableForTaskID(false, 55); err != nil {
		t.Fatalf("SetWorkFunctionEnableForTaskID failed: %v", err)
	}
	if err := m.SetRenderFunctionEnableByTaskID(true, 55, 1); err != nil {
		t.Fatalf("SetRenderFunctionEnableByTaskID failed: %v", err)
	}
	if work.Enabled() || !render.Enabled() {
		t.Errorf("Expected task-id wrappers to disable work and enable render, got work=%v render=%v", work.Enabled(), render.Enabled())
	}
	if err := m.SetRenderFunctionEnableForTaskID(false, 55); err != nil {
		t.Fatalf("SetRenderFunctionEnableForTaskID failed: %v", err)
	}
	if err := m.SetWorkFunctionEnableByTaskID(true, 55, 1); err != nil {
		t.Fatalf("SetWorkFunctionEnableByTaskID failed: %v", err)
	}
	if !work.Enabled() || render.Enabled() {
		t.Errorf("Expected work enabled and render disabled, got work=%v render=%v", work.Enabled(), render.Enabled())
	}

	if err := m.RemoveRenderFunction(task, 1); err != nil {
		t.Fatalf("RemoveRenderFunction failed: %v", err)
	}
	if n, _ := m.FunctionCount(DivisionRender); n != 0 {
		t.Errorf("Expected render function removed, got %d", n)
	}
	if n, _ := m.FunctionCount(DivisionWork); n != 1 {
		t.Errorf("Expected work function kept, got %d", n)
	}
	if err := m.RemoveWorkFunction(task, 1); err != nil {
		t.Fatalf("RemoveWorkFunction failed: %v", err)
	}
	if n, _ := m.FunctionCount(DivisionWork); n != 0 {
		t.Errorf("Expected work function removed, got %d", n)
	}

	divs := m.Divisions()
	if len(divs) != 2 || divs[0] != DivisionWork || divs[1] != DivisionRender {
		t.Errorf("Expected [work render], got %v", divs)
	}
}

// TestWorkRenderTaskManager_AsTask tests registering a WorkRenderTaskManager
// inside another manager.
func TestWorkRenderTaskManager_AsTask(t *testing.T) {
	outer := NewTaskManager()
	inner := newWorkRender(t)
	outer.AddTask(inner)

	got, ok := outer.GetTaskByKind(KindWorkRenderTaskManager)
	if !ok {
		t.Fatal("Expected nested manager to be found by kind")
	}
	sub, ok := got.(SubScheduler)
	if !ok || sub.SubTaskManager() != &inner.TaskManager {
		t.Error("Expected nested manager to expose its TaskManager")
	}
}

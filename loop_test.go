package framescheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Swind/go-frame-scheduler/core"
)

type loopTask struct {
	TaskBase
}

func newLoopManager(t *testing.T) *WorkRenderTaskManager {
	t.Helper()
	m := NewWorkRenderTaskManager()
	if err := m.InitializeFunctionDivision(1, 1); err != nil {
		t.Fatalf("InitializeFunctionDivision failed: %v", err)
	}
	return m
}

func TestFrameLoop_Lifecycle(t *testing.T) {
	loop := NewFrameLoop(newLoopManager(t), &FrameLoopConfig{Name: "test-loop", TPS: 1000})

	if loop.Name() != "test-loop" {
		t.Errorf("expected name 'test-loop', got %s", loop.Name())
	}
	if loop.IsRunning() {
		t.Error("loop should not be running initially")
	}

	loop.Start(context.Background())
	if !loop.IsRunning() {
		t.Error("loop should be running after Start()")
	}
	loop.Start(context.Background())

	waitFor(t, time.Second, func() bool { return loop.Frames() >= 3 })

	loop.Stop()
	if loop.IsRunning() {
		t.Error("loop should not be running after Stop()")
	}
	frames := loop.Frames()
	time.Sleep(10 * time.Millisecond)
	if loop.Frames() != frames {
		t.Errorf("expected no frames after Stop(), got %d -> %d", frames, loop.Frames())
	}
	loop.Stop()
}

// TestFrameLoop_MaxFrames tests a bounded, unthrottled loop
// Main test items:
// 1. The loop exits on its own after MaxFrames
// 2. Work functions skip the first frame, render functions do not
// 3. BeforeFrame sees every frame number in order
func TestFrameLoop_MaxFrames(t *testing.T) {
	m := newLoopManager(t)
	task := &loopTask{TaskBase: NewTaskBase("counter")}
	m.AddTask(task)

	var work, render int
	if err := m.AddWorkFunction(NewFunction(task, func(ctx context.Context) { work++ }), 0, 0); err != nil {
		t.Fatalf("AddWorkFunction failed: %v", err)
	}
	if err := m.AddRenderFunction(NewFunction(task, func(ctx context.Context) { render++ }), 0, 0); err != nil {
		t.Fatalf("AddRenderFunction failed: %v", err)
	}

	var seen []int
	loop := NewFrameLoop(m, &FrameLoopConfig{
		MaxFrames:   5,
		BeforeFrame: func(_ *WorkRenderTaskManager, frame int) { seen = append(seen, frame) },
	})
	loop.Start(context.Background())

	if err := loop.Wait(); err != nil {
		t.Fatalf("Wait returned %v", err)
	}
	if loop.IsRunning() {
		t.Error("loop should stop after MaxFrames")
	}
	if loop.Frames() != 5 {
		t.Errorf("expected 5 frames, got %d", loop.Frames())
	}
	if work != 4 || render != 5 {
		t.Errorf("expected work=4 render=5, got work=%d render=%d", work, render)
	}
	for i, f := range seen {
		if f != i {
			t.Fatalf("expected BeforeFrame order 0..4, got %v", seen)
		}
	}
}

// TestFrameLoop_Post tests closures posted from other goroutines.
func TestFrameLoop_Post(t *testing.T) {
	m := newLoopManager(t)
	loop := NewFrameLoop(m, &FrameLoopConfig{TPS: 500})

	var render atomic.Int32
	task := &loopTask{TaskBase: NewTaskBase("late")}
	loop.Post(func(m *WorkRenderTaskManager) {
		m.AddTask(task)
		_ = m.AddRenderFunction(NewFunction(task, func(ctx context.Context) { render.Add(1) }), 0, 0)
	})
	loop.Post(nil)
	if loop.PendingCount() != 1 {
		t.Fatalf("expected 1 pending closure, got %d", loop.PendingCount())
	}

	loop.Start(context.Background())
	defer loop.Stop()

	waitFor(t, time.Second, func() bool { return render.Load() >= 2 })

	removed := make(chan int, 1)
	loop.Post(func(m *WorkRenderTaskManager) { removed <- m.RemoveTaskByKind("late") })

	select {
	case n := <-removed:
		if n != 1 {
			t.Errorf("expected 1 task removed, got %d", n)
		}
	case <-time.After(time.Second):
		t.Fatal("posted closure never ran")
	}
}

// TestFrameLoop_PassError tests that a failing pass ends the loop.
func TestFrameLoop_PassError(t *testing.T) {
	loop := NewFrameLoop(NewWorkRenderTaskManager(), nil)
	loop.Start(context.Background())

	err := loop.Wait()
	if !errors.Is(err, core.ErrDivisionNotFound) {
		t.Fatalf("expected ErrDivisionNotFound, got %v", err)
	}
	if loop.Frames() != 0 {
		t.Errorf("expected 0 frames, got %d", loop.Frames())
	}
}

func TestGlobalManager(t *testing.T) {
	defer ShutdownGlobalManager()

	if err := InitGlobalManager(1, 1); err != nil {
		t.Fatalf("InitGlobalManager failed: %v", err)
	}
	m := GetGlobalManager()
	if err := InitGlobalManager(3, 3); err != nil {
		t.Fatalf("second InitGlobalManager failed: %v", err)
	}
	if GetGlobalManager() != m {
		t.Error("expected InitGlobalManager to be idempotent")
	}
	if m.Name() != "global" {
		t.Errorf("expected name 'global', got %s", m.Name())
	}

	ShutdownGlobalManager()

	defer func() {
		if recover() == nil {
			t.Error("expected GetGlobalManager to panic after shutdown")
		}
	}()
	GetGlobalManager()
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not met within timeout")
}

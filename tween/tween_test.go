package tween

import (
	"context"
	"testing"

	"github.com/Swind/go-frame-scheduler/core"
	"github.com/tanema/gween/ease"
)

func newManager(t *testing.T) *core.WorkRenderTaskManager {
	t.Helper()
	m := core.NewWorkRenderTaskManager()
	if err := m.InitializeFunctionDivision(1, 1); err != nil {
		t.Fatalf("InitializeFunctionDivision failed: %v", err)
	}
	return m
}

// TestTween_RunsToCompletion tests a tween driven by work passes
// Main test items:
// 1. The first work pass only consumes the work delay
// 2. Values are applied each frame until the target is reached
// 3. The finished tween removes itself and calls OnDone once
func TestTween_RunsToCompletion(t *testing.T) {
	m := newManager(t)

	var applied []float32
	tw := New(0, 10, 0.1, ease.Linear, func(v float32) { applied = append(applied, v) })
	tw.SetStep(0.025)
	doneCalls := 0
	tw.OnDone = func() { doneCalls++ }

	if err := tw.Start(m, 0); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if _, ok := m.GetTaskByKind(Kind); !ok {
		t.Fatal("Expected tween task to be registered")
	}

	if err := m.CallWorkFunction(context.Background()); err != nil {
		t.Fatalf("CallWorkFunction failed: %v", err)
	}
	if len(applied) != 0 {
		t.Fatalf("Expected no update on the first pass, got %v", applied)
	}

	for frame := 0; frame < 20 && !tw.Done(); frame++ {
		if err := m.CallWorkFunction(context.Background()); err != nil {
			t.Fatalf("CallWorkFunction failed: %v", err)
		}
	}

	if !tw.Done() {
		t.Fatal("Expected tween to finish")
	}
	if tw.Value() != 10 {
		t.Errorf("Expected final value 10, got %v", tw.Value())
	}
	for i := 1; i < len(applied); i++ {
		if applied[i] < applied[i-1] {
			t.Errorf("Expected monotonic values, got %v", applied)
			break
		}
	}
	if doneCalls != 1 {
		t.Errorf("Expected OnDone once, got %d", doneCalls)
	}
	if m.TaskCount() != 0 {
		t.Errorf("Expected tween to remove itself, got %d tasks", m.TaskCount())
	}
	if n, _ := m.FunctionCount(core.DivisionWork); n != 0 {
		t.Errorf("Expected work function reclaimed, got %d", n)
	}
}

// TestTween_StartFailure tests that a failed start leaves no task behind.
func TestTween_StartFailure(t *testing.T) {
	m := newManager(t)
	tw := New(0, 1, 1, nil, nil)

	if err := tw.Start(m, 5); err == nil {
		t.Fatal("Expected out-of-range priority to fail")
	}
	if m.TaskCount() != 0 {
		t.Errorf("Expected no live task after failed start, got %d", m.TaskCount())
	}
}

package ebitengine

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Swind/go-frame-scheduler/core"
	"github.com/hajimehoshi/ebiten/v2"
)

type probeTask struct {
	core.TaskBase
}

func newManager(t *testing.T) *core.WorkRenderTaskManager {
	t.Helper()
	config := core.DefaultTaskManagerConfig()
	config.Name = "game"
	m := core.NewWorkRenderTaskManagerWithConfig(config)
	if err := m.InitializeFunctionDivision(1, 1); err != nil {
		t.Fatalf("InitializeFunctionDivision failed: %v", err)
	}
	return m
}

// TestGame_Passes tests that Update and Draw map to work and render passes
// Main test items:
// 1. Update runs the work division, honoring the work delay
// 2. Draw runs the render division without a screen attached
// 3. A cancelled context terminates the loop
func TestGame_Passes(t *testing.T) {
	m := newManager(t)
	task := &probeTask{TaskBase: core.NewTaskBase("probe")}
	m.AddTask(task)

	var work, render int
	screenSeen := false
	if err := m.AddWorkFunction(core.NewFunction(task, func(ctx context.Context) { work++ }), 0, 0); err != nil {
		t.Fatalf("AddWorkFunction failed: %v", err)
	}
	if err := m.AddRenderFunction(core.NewFunction(task, func(ctx context.Context) {
		render++
		_, screenSeen = Screen(ctx)
	}), 0, 0); err != nil {
		t.Fatalf("AddRenderFunction failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	g := NewGame(ctx, m, &RunConfig{Width: 320, Height: 200, Logger: core.NewNoOpLogger()})

	for range 2 {
		if err := g.Update(); err != nil {
			t.Fatalf("Update failed: %v", err)
		}
		g.Draw(nil)
	}

	if work != 1 {
		t.Errorf("Expected 1 work call, got %d", work)
	}
	if render != 2 {
		t.Errorf("Expected 2 render calls, got %d", render)
	}
	if screenSeen {
		t.Error("Expected no screen for a nil image")
	}
	if w, h := g.Layout(0, 0); w != 320 || h != 200 {
		t.Errorf("Expected layout 320x200, got %dx%d", w, h)
	}

	cancel()
	if err := g.Update(); !errors.Is(err, ebiten.Termination) {
		t.Errorf("Expected termination after cancel, got %v", err)
	}
}

// TestGame_Defaults tests defaults for a zero config.
func TestGame_Defaults(t *testing.T) {
	g := NewGame(context.Background(), newManager(t), &RunConfig{})
	if w, h := g.Layout(0, 0); w != 640 || h != 480 {
		t.Errorf("Expected default layout 640x480, got %dx%d", w, h)
	}
	if g.logger == nil {
		t.Error("Expected default logger")
	}
}

// TestStatsOverlay_Text tests that the overlay reads stats published by the
// previous arrangement pass.
func TestStatsOverlay_Text(t *testing.T) {
	m := newManager(t)
	overlay := NewStatsOverlay()
	if err := overlay.Attach(m, 0, 0); err != nil {
		t.Fatalf("Attach failed: %v", err)
	}

	for range 2 {
		if err := m.CallWorkFunction(context.Background()); err != nil {
			t.Fatalf("CallWorkFunction failed: %v", err)
		}
	}

	text := overlay.Text()
	if !strings.HasPrefix(text, "game frame 1 tasks 1") {
		t.Errorf("Unexpected overlay text %q", text)
	}
	if !strings.Contains(text, "work: 1 fn") {
		t.Errorf("Expected work division line in %q", text)
	}
}

package ebitengine

import (
	"context"
	"fmt"
	"strings"

	"github.com/Swind/go-frame-scheduler/core"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
)

const KindStatsOverlay core.Kind = "ebitengine.overlay"

// StatsOverlay prints the manager's published stats in the corner of the
// screen. The text is rebuilt in the work pass and drawn in the render pass.
type StatsOverlay struct {
	core.TaskBase

	X, Y int
	text string
}

func NewStatsOverlay() *StatsOverlay {
	return &StatsOverlay{TaskBase: core.NewTaskBase(KindStatsOverlay), X: 4, Y: 4}
}

func (o *StatsOverlay) Text() string { return o.text }

// Attach registers the overlay on m with one work and one render function.
func (o *StatsOverlay) Attach(m *core.WorkRenderTaskManager, workPriority, renderPriority int) error {
	m.AddTask(o)
	if err := m.AddWorkFunction(core.NewNamedFunction(o, "overlay.update", o.update), workPriority, 0); err != nil {
		m.RemoveTask(o)
		return fmt.Errorf("attach overlay: %w", err)
	}
	if err := m.AddRenderFunction(core.NewNamedFunction(o, "overlay.draw", o.draw), renderPriority, 0); err != nil {
		m.RemoveTask(o)
		return fmt.Errorf("attach overlay: %w", err)
	}
	return nil
}

func (o *StatsOverlay) update(ctx context.Context) {
	m := core.GetCurrentTaskManager(ctx)
	if m == nil {
		return
	}
	stats := m.Stats()

	var b strings.Builder
	fmt.Fprintf(&b, "%s frame %d tasks %d\n", stats.Name, stats.Frame, stats.Tasks)
	for _, d := range stats.Divisions {
		fmt.Fprintf(&b, "%s: %d fn (%d off, %d delayed)\n", d.Division, d.Functions, d.Disabled, d.Delayed)
	}
	fmt.Fprintf(&b, "TPS %.1f FPS %.1f", ebiten.ActualTPS(), ebiten.ActualFPS())
	o.text = b.String()
}

func (o *StatsOverlay) draw(ctx context.Context) {
	if screen, ok := Screen(ctx); ok && o.text != "" {
		ebitenutil.DebugPrintAt(screen, o.text, o.X, o.Y)
	}
}

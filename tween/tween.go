// Package tween provides tasks that animate a value over frames with gween.
//
// A Tween registers one work function. Each work pass advances the tween by a
// fixed frame step and hands the value to an apply callback. When the tween
// finishes, the task removes itself from inside its own invocation.
package tween

import (
	"context"
	"fmt"

	"github.com/Swind/go-frame-scheduler/core"
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// Kind is the task kind of every Tween.
const Kind core.Kind = "tween"

// DefaultStep is one frame at 60 TPS, in seconds.
const DefaultStep float32 = 1.0 / 60

// Tween is a task animating a float32 from one value to another.
type Tween struct {
	core.TaskBase

	tween *gween.Tween
	from  float32
	to    float32
	step  float32
	apply func(v float32)

	// OnDone runs after the final value is applied.
	OnDone func()

	value float32
	done  bool
}

// New creates a Tween. apply receives the value every frame and may be nil.
func New(from, to, duration float32, fn ease.TweenFunc, apply func(v float32)) *Tween {
	if fn == nil {
		fn = ease.Linear
	}
	return &Tween{
		TaskBase: core.NewTaskBase(Kind),
		tween:    gween.New(from, to, duration, fn),
		from:     from,
		to:       to,
		step:     DefaultStep,
		apply:    apply,
		value:    from,
	}
}

// SetStep sets the seconds advanced per work pass.
func (t *Tween) SetStep(step float32) {
	if step > 0 {
		t.step = step
	}
}

func (t *Tween) Value() float32 { return t.value }
func (t *Tween) Done() bool      { return t.done }

func (t *Tween) Info() string {
	state := "running"
	if t.done {
		state = "done"
	}
	return fmt.Sprintf("tween#%d %.2f->%.2f at %.2f (%s)", t.Index(), t.from, t.to, t.value, state)
}

// Start registers the tween and its work function on m. The first update
// happens on the second work pass, like every work function.
func (t *Tween) Start(m *core.WorkRenderTaskManager, priority int) error {
	m.AddTask(t)
	f := core.NewNamedFunction(t, "tween.update", t.update)
	if err := m.AddWorkFunction(f, priority, 0); err != nil {
		m.RemoveTask(t)
		return fmt.Errorf("start tween: %w", err)
	}
	return nil
}

func (t *Tween) update(ctx context.Context) {
	if t.done {
		return
	}

	v, finished := t.tween.Update(t.step)
	t.value = v
	if t.apply != nil {
		t.apply(v)
	}
	if !finished {
		return
	}

	t.done = true
	if m := core.GetCurrentTaskManager(ctx); m != nil {
		m.RemoveTask(t)
	}
	if t.OnDone != nil {
		t.OnDone()
	}
}

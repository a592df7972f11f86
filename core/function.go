package core

import (
	"context"
	"fmt"
)

// Division identifies a scheduling phase with its own priority table.
type Division int

const (
	DivisionWork Division = iota
	DivisionRender
)

func (d Division) String() string {
	switch d {
	case DivisionWork:
		return "work"
	case DivisionRender:
		return "render"
	default:
		return fmt.Sprintf("division(%d)", int(d))
	}
}

// FunctionBody is the callback a Function dispatches into its owning task.
type FunctionBody func(ctx context.Context)

// Function is a callable unit bound to an owning task.
//
// Division, priority and id are fixed when the function is added to a manager.
// Moving a function means removing it and adding it again.
type Function struct {
	owner Task
	body  FunctionBody
	name  string

	division Division
	priority int
	id       int
	delay    int
	enable   bool

	// live is true between AddFunction and the soft delete that clears its slot.
	live bool

	// calledIn is the last CallFunction pass that invoked the function.
	calledIn uint64
}

// NewFunction binds body to owner. The function starts enabled with no delay.
func NewFunction(owner Task, body FunctionBody) *Function {
	return &Function{
		owner:  owner,
		body:   body,
		enable: true,
	}
}

// NewNamedFunction is NewFunction with an explicit diagnostic name.
func NewNamedFunction(owner Task, name string, body FunctionBody) *Function {
	f := NewFunction(owner, body)
	f.name = name
	return f
}

func (f *Function) Owner() Task        { return f.owner }
func (f *Function) Division() Division { return f.division }
func (f *Function) Priority() int      { return f.priority }
func (f *Function) ID() int            { return f.id }
func (f *Function) Delay() int         { return f.delay }
func (f *Function) Enabled() bool      { return f.enable }

// SetEnable gates invocation. Disabled functions keep their slot.
func (f *Function) SetEnable(enable bool) { f.enable = enable }

// SetDelay sets the number of arrangement passes before the function may run.
// Negative values are treated as zero.
func (f *Function) SetDelay(delay int) { f.delay = max(delay, 0) }

// Name returns the explicit name or the resolved name of the body.
func (f *Function) Name() string {
	return resolveFunctionName(f.body, f.name)
}

// Info describes the function and its owner for diagnostics.
func (f *Function) Info() string {
	owner := "<nil>"
	if f.owner != nil {
		owner = f.owner.Info()
	}
	return fmt.Sprintf("%s [%s] id=%d", f.Name(), owner, f.id)
}

func (f *Function) invoke(ctx context.Context) {
	if f.body != nil {
		f.body(ctx)
	}
}

// runnable reports whether the slot may be invoked in the current pass.
func (f *Function) runnable() bool {
	return f != nil && f.enable && f.delay <= 0
}

func (f *Function) ownedBy(task Task) bool {
	return f.owner != nil && task != nil && f.owner.taskBase() == task.taskBase()
}

func (f *Function) ownerKind() Kind {
	if f.owner == nil {
		return ""
	}
	return f.owner.Kind()
}

// Package framescheduler provides a cooperative, single-threaded frame scheduler
// for games and other frame-driven programs.
//
// Tasks register functions into divisions (WORK and RENDER for a
// WorkRenderTaskManager). Each division holds an ordered set of priority
// buckets. One CallFunction pass invokes every enabled, undelayed function of a
// division in ascending priority and registration order, then runs an
// arrangement pass that reclaims removed slots and counts down frame delays.
//
// # Quick Start
//
//	m := framescheduler.NewWorkRenderTaskManager()
//	m.InitializeFunctionDivision(3, 3) // work and render priorities 0..2
//
//	player := &Player{TaskBase: framescheduler.NewTaskBase("player")}
//	m.AddTask(player)
//	m.AddWorkFunction(framescheduler.NewFunction(player, player.Update), 1, 0)
//	m.AddRenderFunction(framescheduler.NewFunction(player, player.Draw), 1, 0)
//
//	for {
//		m.CallWorkFunction(ctx)
//		m.CallRenderFunction(ctx)
//	}
//
// # Key Concepts
//
// Task: anything embedding TaskBase. A task carries a registration index, an
// optional id and group, and a Kind string used for bulk queries such as
// RemoveTaskByKind.
//
// Function: a callable owned by a task, placed at a priority in one division,
// with an enable flag and a frame delay. Work functions always start with a
// one-frame delay so that a function added during a frame first runs on the
// next one.
//
// Soft delete: removing a task or function during a pass only clears its slot.
// Slots are compacted in the arrangement pass that follows, so functions may add
// or remove tasks, including themselves, from inside their own invocation.
//
// Nested managers: a TaskManager is itself a Task. An outer manager never
// recurses into an inner one; a function of the outer manager calls the inner
// manager's CallFunction explicitly.
//
// # Thread Safety
//
// A manager is not safe for concurrent use. Stats and RecentCalls are the only
// methods other goroutines may call. FrameLoop owns a manager on one goroutine
// and accepts closures from other goroutines through Post.
//
// # Packages
//
//   - core: the scheduler itself
//   - observability/prometheus: metrics exporter and stats poller
//   - debugview: HTTP panel showing the task tree and function table
//   - driver/ebitengine: runs a manager from an Ebitengine game loop
//   - tween: self-removing tasks that animate values with gween
package framescheduler

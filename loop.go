package framescheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Swind/go-frame-scheduler/core"
)

// FrameLoopConfig configures a FrameLoop.
type FrameLoopConfig struct {
	Name string

	// TPS is the frame rate. Zero runs frames back to back.
	TPS int

	// MaxFrames stops the loop after this many frames. Zero runs until Stop.
	MaxFrames int

	// BeforeFrame runs on the loop goroutine before each frame's work pass.
	BeforeFrame func(m *WorkRenderTaskManager, frame int)

	Logger core.Logger
}

// FrameLoop owns a WorkRenderTaskManager on a single goroutine and runs one
// work pass and one render pass per frame. Other goroutines reach the manager
// only through Post.
type FrameLoop struct {
	name        string
	manager     *WorkRenderTaskManager
	interval    time.Duration
	maxFrames   int
	beforeFrame func(m *WorkRenderTaskManager, frame int)
	logger      core.Logger

	postMu sync.Mutex
	posted []func(m *WorkRenderTaskManager)

	wg        sync.WaitGroup
	ctx       context.Context
	cancel    context.CancelFunc
	running   bool
	runningMu sync.RWMutex

	frames atomic.Int64

	errMu sync.Mutex
	err   error
}

// NewFrameLoop creates a FrameLoop for m. A nil config runs unthrottled
// until stopped.
func NewFrameLoop(m *WorkRenderTaskManager, config *FrameLoopConfig) *FrameLoop {
	if config == nil {
		config = &FrameLoopConfig{}
	}
	l := &FrameLoop{
		name:        config.Name,
		manager:     m,
		maxFrames:   config.MaxFrames,
		beforeFrame: config.BeforeFrame,
		logger:      config.Logger,
	}
	if l.name == "" {
		l.name = m.Name()
	}
	if config.TPS > 0 {
		l.interval = time.Second / time.Duration(config.TPS)
	}
	if l.logger == nil {
		l.logger = core.NewNoOpLogger()
	}
	return l
}

// Start starts the loop goroutine
func (l *FrameLoop) Start(ctx context.Context) {
	l.runningMu.Lock()
	defer l.runningMu.Unlock()

	if l.running {
		return
	}

	l.ctx, l.cancel = context.WithCancel(ctx)
	l.running = true

	l.wg.Add(1)
	go l.run(l.ctx)
}

// Stop cancels the loop and waits for the current frame to finish
func (l *FrameLoop) Stop() {
	l.runningMu.RLock()
	cancel := l.cancel
	l.runningMu.RUnlock()

	if cancel != nil {
		cancel()
	}
	l.Join()
}

// Join waits for the loop goroutine to exit
func (l *FrameLoop) Join() {
	l.wg.Wait()
}

// Wait blocks until the loop exits and returns the pass error that ended it,
// if any.
func (l *FrameLoop) Wait() error {
	l.Join()
	return l.Err()
}

func (l *FrameLoop) Name() string { return l.name }

func (l *FrameLoop) IsRunning() bool {
	l.runningMu.RLock()
	defer l.runningMu.RUnlock()
	return l.running
}

// Frames returns the number of completed frames
func (l *FrameLoop) Frames() int {
	return int(l.frames.Load())
}

// Err returns the error that stopped the loop.
func (l *FrameLoop) Err() error {
	l.errMu.Lock()
	defer l.errMu.Unlock()
	return l.err
}

// Post queues fn to run on the loop goroutine at the start of the next frame.
// Posting before Start is allowed.
func (l *FrameLoop) Post(fn func(m *WorkRenderTaskManager)) {
	if fn == nil {
		return
	}
	l.postMu.Lock()
	l.posted = append(l.posted, fn)
	l.postMu.Unlock()
}

// PendingCount returns the number of posted closures not yet run
func (l *FrameLoop) PendingCount() int {
	l.postMu.Lock()
	defer l.postMu.Unlock()
	return len(l.posted)
}

func (l *FrameLoop) run(ctx context.Context) {
	defer l.wg.Done()
	defer func() {
		l.runningMu.Lock()
		l.running = false
		l.runningMu.Unlock()
	}()

	var tick <-chan time.Time
	if l.interval > 0 {
		ticker := time.NewTicker(l.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	l.logger.Debug("Frame loop started", core.F("loop", l.name), core.F("interval", l.interval))

	for frame := 0; l.maxFrames <= 0 || frame < l.maxFrames; frame++ {
		if tick != nil {
			select {
			case <-ctx.Done():
				return
			case <-tick:
			}
		} else if ctx.Err() != nil {
			return
		}

		l.drainPosted()
		if l.beforeFrame != nil {
			l.beforeFrame(l.manager, frame)
		}
		if err := l.frame(ctx); err != nil {
			l.errMu.Lock()
			l.err = err
			l.errMu.Unlock()
			l.logger.Error("Frame loop stopped", core.F("loop", l.name), core.F("frame", frame), core.F("error", err))
			return
		}
		l.frames.Add(1)
	}

	l.logger.Debug("Frame loop finished", core.F("loop", l.name), core.F("frames", l.Frames()))
}

func (l *FrameLoop) frame(ctx context.Context) error {
	if err := l.manager.CallWorkFunction(ctx); err != nil {
		return fmt.Errorf("work pass: %w", err)
	}
	if err := l.manager.CallRenderFunction(ctx); err != nil {
		return fmt.Errorf("render pass: %w", err)
	}
	return nil
}

func (l *FrameLoop) drainPosted() {
	l.postMu.Lock()
	posted := l.posted
	l.posted = nil
	l.postMu.Unlock()

	for _, fn := range posted {
		fn(l.manager)
	}
}

// =============================================================================
// Global Manager Helper (Singleton)
// =============================================================================

var (
	globalManager *WorkRenderTaskManager
	globalMu      sync.Mutex
)

// InitGlobalManager creates the process-wide manager with the given work and
// render priority counts. Later calls are no-ops.
func InitGlobalManager(maxPriorityWork, maxPriorityRender int) error {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalManager != nil {
		return nil
	}

	config := core.DefaultTaskManagerConfig()
	config.Name = "global"
	m := core.NewWorkRenderTaskManagerWithConfig(config)
	if err := m.InitializeFunctionDivision(maxPriorityWork, maxPriorityRender); err != nil {
		return err
	}
	globalManager = m
	return nil
}

// GetGlobalManager returns the process-wide manager.
// It panics if InitGlobalManager has not been called.
func GetGlobalManager() *WorkRenderTaskManager {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalManager == nil {
		panic("GlobalManager not initialized. Call InitGlobalManager() first.")
	}
	return globalManager
}

// ShutdownGlobalManager clears and drops the process-wide manager.
func ShutdownGlobalManager() {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalManager != nil {
		globalManager.Clear()
		globalManager = nil
	}
}

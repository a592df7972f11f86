// Package ebitengine drives a core.WorkRenderTaskManager from an Ebitengine
// game loop.
//
// Update runs one work pass and Draw runs one render pass. Render functions
// find the target image with Screen(ctx).
package ebitengine

import (
	"context"
	"image/color"

	"github.com/Swind/go-frame-scheduler/core"
	"github.com/hajimehoshi/ebiten/v2"
)

type screenKey struct{}

func withScreen(ctx context.Context, screen *ebiten.Image) context.Context {
	return context.WithValue(ctx, screenKey{}, screen)
}

// Screen returns the image being drawn in the current render pass.
func Screen(ctx context.Context) (*ebiten.Image, bool) {
	screen, _ := ctx.Value(screenKey{}).(*ebiten.Image)
	return screen, screen != nil
}

// RunConfig configures the window and loop.
type RunConfig struct {
	Title  string
	Width  int
	Height int

	// TPS is the work pass rate. Zero keeps Ebitengine's default.
	TPS int

	Logger core.Logger
}

func DefaultRunConfig() *RunConfig {
	return &RunConfig{
		Title:  "framesched",
		Width:  640,
		Height: 480,
		Logger: core.NewDefaultLogger(),
	}
}

// Game implements ebiten.Game.
type Game struct {
	ctx     context.Context
	manager *core.WorkRenderTaskManager
	width   int
	height  int
	logger  core.Logger
}

var _ ebiten.Game = (*Game)(nil)

// NewGame wraps m. The game terminates once ctx is cancelled.
func NewGame(ctx context.Context, m *core.WorkRenderTaskManager, cfg *RunConfig) *Game {
	if cfg == nil {
		cfg = DefaultRunConfig()
	}
	defaults := DefaultRunConfig()
	g := &Game{
		ctx:     ctx,
		manager: m,
		width:   cfg.Width,
		height:  cfg.Height,
		logger:  cfg.Logger,
	}
	if g.width <= 0 {
		g.width = defaults.Width
	}
	if g.height <= 0 {
		g.height = defaults.Height
	}
	if g.logger == nil {
		g.logger = defaults.Logger
	}
	return g
}

func (g *Game) Update() error {
	if g.ctx.Err() != nil {
		return ebiten.Termination
	}
	return g.manager.CallWorkFunction(g.ctx)
}

func (g *Game) Draw(screen *ebiten.Image) {
	if err := g.manager.CallRenderFunction(withScreen(g.ctx, screen)); err != nil {
		g.logger.Error("Render pass failed", core.F("manager", g.manager.Name()), core.F("error", err))
	}
}

func (g *Game) Layout(_, _ int) (int, int) {
	return g.width, g.height
}

// Run opens a window and blocks until it is closed, ctx is cancelled or a
// work pass fails.
func Run(ctx context.Context, m *core.WorkRenderTaskManager, cfg *RunConfig) error {
	if cfg == nil {
		cfg = DefaultRunConfig()
	}
	g := NewGame(ctx, m, cfg)

	ebiten.SetWindowTitle(cfg.Title)
	ebiten.SetWindowSize(g.width, g.height)
	if cfg.TPS > 0 {
		ebiten.SetTPS(cfg.TPS)
	}

	g.logger.Info("Starting game loop",
		core.F("manager", m.Name()),
		core.F("width", g.width),
		core.F("height", g.height))
	return ebiten.RunGame(g)
}

// Fill returns a render body that fills the screen with c.
func Fill(c color.Color) core.FunctionBody {
	return func(ctx context.Context) {
		if screen, ok := Screen(ctx); ok {
			screen.Fill(c)
		}
	}
}

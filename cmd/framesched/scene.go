package main

import (
	"context"
	"fmt"
	"image"
	"image/color"

	"github.com/Swind/go-frame-scheduler/core"
	"github.com/Swind/go-frame-scheduler/driver/ebitengine"
	"github.com/Swind/go-frame-scheduler/tween"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/tanema/gween/ease"
)

const (
	kindCamera  core.Kind = "camera"
	kindSprite  core.Kind = "sprite"
	kindCounter core.Kind = "counter"

	groupSprites core.GroupID = 1

	sceneWidth  = 640
	sceneHeight = 480
	spriteSize  = 16

	priorityCamera     = 0
	prioritySprite     = 1
	priorityHUD        = 2
	priorityBackground = 0
	priorityOverlay    = 2

	workPriorities   = 3
	renderPriorities = 3
)

type camera struct {
	core.TaskBase
	x    float32
	zoom float32
}

func (c *camera) Info() string {
	return fmt.Sprintf("camera x=%.0f zoom=%.2f", c.x, c.zoom)
}

type sprite struct {
	core.TaskBase
	x, y  float32
	vx    float32
	color color.RGBA
	cam   *camera
	draws int
}

func (s *sprite) Info() string {
	return fmt.Sprintf("sprite#%d (%.0f,%.0f)", s.Index(), s.x, s.y)
}

func (s *sprite) move(ctx context.Context) {
	s.x += s.vx
	if s.x > sceneWidth {
		s.x -= sceneWidth
	}
}

func (s *sprite) draw(ctx context.Context) {
	s.draws++
	screen, ok := ebitengine.Screen(ctx)
	if !ok {
		return
	}
	size := int(spriteSize * s.cam.zoom)
	x := int(s.x-s.cam.x) % sceneWidth
	if x < 0 {
		x += sceneWidth
	}
	rect := image.Rect(x, int(s.y), x+size, int(s.y)+size)
	screen.SubImage(rect).(*ebiten.Image).Fill(s.color)
}

type counter struct {
	core.TaskBase
	ticks int
}

func (c *counter) Info() string { return fmt.Sprintf("counter ticks=%d", c.ticks) }

// scene is the demo shared by simulate and window.
type scene struct {
	manager *core.WorkRenderTaskManager
	hud     *core.TaskManager
	camera  *camera
	zoom    *tween.Tween
	sprites []*sprite
	counter *counter
}

var spritePalette = []color.RGBA{
	{0xe0, 0x6c, 0x75, 0xff},
	{0x98, 0xc3, 0x79, 0xff},
	{0x61, 0xaf, 0xef, 0xff},
	{0xe5, 0xc0, 0x7b, 0xff},
}

func buildScene(config *core.TaskManagerConfig, sprites int) (*scene, error) {
	m := core.NewWorkRenderTaskManagerWithConfig(config)
	if err := m.InitializeFunctionDivision(workPriorities, renderPriorities); err != nil {
		return nil, err
	}
	s := &scene{manager: m}

	s.camera = &camera{TaskBase: core.NewTaskBase(kindCamera), zoom: 1}
	m.AddTask(s.camera)
	pan := core.NewNamedFunction(s.camera, "camera.pan", func(ctx context.Context) { s.camera.x += 0.5 })
	if err := m.AddWorkFunction(pan, priorityCamera, 0); err != nil {
		return nil, err
	}

	s.zoom = tween.New(1, 2, 2, ease.InOutQuad, func(v float32) { s.camera.zoom = v })
	if err := s.zoom.Start(m, priorityCamera); err != nil {
		return nil, err
	}

	for i := range sprites {
		sp := &sprite{
			TaskBase: core.NewTaskBase(kindSprite),
			x:        float32(i * 48 % sceneWidth),
			y:        float32(32 + i*24%(sceneHeight-64)),
			vx:       float32(1 + i%3),
			color:    spritePalette[i%len(spritePalette)],
			cam:      s.camera,
		}
		sp.SetID(core.TaskID(100 + i))
		sp.SetGroupID(groupSprites)
		m.AddTask(sp)
		if err := m.AddWorkFunction(core.NewNamedFunction(sp, "sprite.move", sp.move), prioritySprite, 0); err != nil {
			return nil, err
		}
		if err := m.AddRenderFunction(core.NewNamedFunction(sp, "sprite.draw", sp.draw), prioritySprite, 0); err != nil {
			return nil, err
		}
		s.sprites = append(s.sprites, sp)
	}

	hudConfig := *config
	hudConfig.Name = config.Name + "/hud"
	hudConfig.Debug = nil
	s.hud = core.NewTaskManagerWithConfig(&hudConfig)
	if err := s.hud.InitializeFunctionDivision(core.DivisionWork, 1); err != nil {
		return nil, err
	}
	s.counter = &counter{TaskBase: core.NewTaskBase(kindCounter)}
	s.hud.AddTask(s.counter)
	tick := core.NewNamedFunction(s.counter, "counter.tick", func(ctx context.Context) { s.counter.ticks++ })
	if err := s.hud.AddFunction(core.DivisionWork, tick, 0, 0); err != nil {
		return nil, err
	}

	m.AddTask(s.hud)
	logger := config.Logger
	step := core.NewNamedFunction(s.hud, "hud.step", func(ctx context.Context) {
		if err := s.hud.CallFunction(ctx, core.DivisionWork); err != nil && logger != nil {
			logger.Warn("HUD pass failed", core.F("error", err))
		}
	})
	if err := m.AddWorkFunction(step, priorityHUD, 0); err != nil {
		return nil, err
	}
	return s, nil
}

// frame runs one work pass followed by one render pass.
func (s *scene) frame(ctx context.Context) error {
	if err := s.manager.CallWorkFunction(ctx); err != nil {
		return err
	}
	return s.manager.CallRenderFunction(ctx)
}

// dropSprites removes the sprite group and returns how many were removed.
func (s *scene) dropSprites() int {
	return s.manager.RemoveTaskGroup(groupSprites)
}

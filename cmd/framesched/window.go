package main

import (
	"fmt"
	"image/color"

	"github.com/Swind/go-frame-scheduler/core"
	"github.com/Swind/go-frame-scheduler/driver/ebitengine"
	"github.com/urfave/cli/v2"
)

var backgroundColor = color.RGBA{0x28, 0x2c, 0x34, 0xff}

func windowCommand() *cli.Command {
	return &cli.Command{
		Name:  "window",
		Usage: "Run the demo scene in an Ebitengine window",

		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "sprites",
				Value: 8,
				Usage: "Number of sprite tasks",
			},
			&cli.IntFlag{
				Name:  "tps",
				Value: 60,
				Usage: "Work passes per second",
			},
			&cli.BoolFlag{
				Name:  "overlay",
				Value: true,
				Usage: "Draw the stats overlay",
			},
			logLevelFlag(),
		},

		Action: windowAction,
	}
}

func windowAction(c *cli.Context) error {
	level, err := core.ParseLevel(c.String("log-level"))
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	logger := core.NewLeveledLogger(nil, level)

	config := core.DefaultTaskManagerConfig()
	config.Name = "stage"
	config.Logger = logger
	config.PanicHandler = &core.DefaultPanicHandler{Logger: logger}

	s, err := buildScene(config, c.Int("sprites"))
	if err != nil {
		return cli.Exit(fmt.Sprintf("Failed: %v", err), 1)
	}

	background := core.NewNamedFunction(s.camera, "background", ebitengine.Fill(backgroundColor))
	if err := s.manager.AddRenderFunction(background, priorityBackground, 0); err != nil {
		return cli.Exit(fmt.Sprintf("Failed: %v", err), 1)
	}
	if c.Bool("overlay") {
		if err := ebitengine.NewStatsOverlay().Attach(s.manager, priorityOverlay, priorityOverlay); err != nil {
			return cli.Exit(fmt.Sprintf("Failed: %v", err), 1)
		}
	}

	err = ebitengine.Run(c.Context, s.manager, &ebitengine.RunConfig{
		Title:  "framesched",
		Width:  sceneWidth,
		Height: sceneHeight,
		TPS:    c.Int("tps"),
		Logger: logger,
	})
	if err != nil {
		return cli.Exit(fmt.Sprintf("Failed: %v", err), 1)
	}
	return nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	framescheduler "github.com/Swind/go-frame-scheduler"
	"github.com/Swind/go-frame-scheduler/core"
	"github.com/Swind/go-frame-scheduler/debugview"
	obs "github.com/Swind/go-frame-scheduler/observability/prometheus"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"
)

const metricsNamespace = "framesched"

func simulateCommand() *cli.Command {
	return &cli.Command{
		Name:    "simulate",
		Aliases: []string{"sim"},
		Usage:   "Run the demo scene headless for a number of frames",

		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "frames",
				Aliases: []string{"n"},
				Value:   120,
				Usage:   "Number of frames to run",
			},
			&cli.IntFlag{
				Name:  "sprites",
				Value: 8,
				Usage: "Number of sprite tasks",
			},
			&cli.IntFlag{
				Name:  "tps",
				Usage: "Frames per second (0 runs unthrottled)",
			},
			&cli.IntFlag{
				Name:  "drop-at",
				Value: -1,
				Usage: "Frame at which the sprite group is removed (-1 keeps it)",
			},
			&cli.IntFlag{
				Name:  "history",
				Value: 10,
				Usage: "Number of recent calls to print",
			},
			logLevelFlag(),
			&cli.StringFlag{
				Name:  "metrics-addr",
				Usage: "Serve /metrics and /debug/tasks on this address, e.g. :2112",
			},
			&cli.DurationFlag{
				Name:  "linger",
				Usage: "Keep the HTTP server up for this long after the last frame",
			},
		},

		Action: simulateAction,
	}
}

type simulateOptions struct {
	Frames      int
	Sprites     int
	TPS         int
	DropAt      int
	History     int
	Level       core.Level
	MetricsAddr string
	Linger      time.Duration
}

func simulateAction(c *cli.Context) error {
	opts := simulateOptions{
		Frames:      c.Int("frames"),
		Sprites:     c.Int("sprites"),
		TPS:         c.Int("tps"),
		DropAt:      c.Int("drop-at"),
		History:     c.Int("history"),
		MetricsAddr: c.String("metrics-addr"),
		Linger:      c.Duration("linger"),
	}
	if opts.Frames < 0 || opts.Sprites < 0 || opts.TPS < 0 {
		return cli.Exit("frames, sprites and tps must not be negative", 1)
	}
	level, err := core.ParseLevel(c.String("log-level"))
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	opts.Level = level

	if err := runSimulation(c.Context, opts, c.App.Writer); err != nil {
		return cli.Exit(fmt.Sprintf("Failed: %v", err), 1)
	}
	return nil
}

func runSimulation(ctx context.Context, opts simulateOptions, w io.Writer) error {
	logger := core.NewLeveledLogger(nil, opts.Level)

	reg := prom.NewRegistry()
	exporter, err := obs.NewMetricsExporter(metricsNamespace, reg, obs.ExporterOptions{})
	if err != nil {
		return err
	}
	poller, err := obs.NewSnapshotPoller(reg, 250*time.Millisecond)
	if err != nil {
		return err
	}
	panel := debugview.New(debugview.Options{Interval: 250 * time.Millisecond})

	config := core.DefaultTaskManagerConfig()
	config.Name = "stage"
	config.Logger = logger
	config.PanicHandler = &core.DefaultPanicHandler{Logger: logger}
	config.Metrics = exporter
	config.Debug = panel

	s, err := buildScene(config, opts.Sprites)
	if err != nil {
		return err
	}

	poller.AddManager("stage", s.manager)
	poller.AddManager("hud", s.hud)
	poller.Start(ctx)
	defer poller.Stop()

	if opts.MetricsAddr != "" {
		stop := serveDiagnostics(opts.MetricsAddr, reg, panel, logger)
		defer stop()
	}

	if opts.Frames > 0 {
		loop := framescheduler.NewFrameLoop(s.manager, &framescheduler.FrameLoopConfig{
			Name:      "stage",
			TPS:       opts.TPS,
			MaxFrames: opts.Frames,
			Logger:    logger,
			BeforeFrame: func(_ *framescheduler.WorkRenderTaskManager, frame int) {
				if frame == opts.DropAt {
					n := s.dropSprites()
					logger.Info("Dropped sprite group", core.F("frame", frame), core.F("tasks", n))
				}
			},
		})
		loop.Start(ctx)
		if err := loop.Wait(); err != nil {
			return err
		}
	}

	printReport(w, s, opts.History)

	if opts.MetricsAddr != "" && opts.Linger > 0 {
		fmt.Fprintf(w, "serving http://%s/metrics and /debug/tasks for %s\n", opts.MetricsAddr, opts.Linger)
		select {
		case <-ctx.Done():
		case <-time.After(opts.Linger):
		}
	}
	return nil
}

func serveDiagnostics(addr string, reg *prom.Registry, panel *debugview.Panel, logger core.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	mux.Handle("/debug/tasks", panel)
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Diagnostics server failed", core.F("addr", addr), core.F("error", err))
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = server.Shutdown(ctx)
	}
}

func printReport(w io.Writer, s *scene, history int) {
	stats := s.manager.Stats()
	fmt.Fprintf(w, "%s: frame %d, %d tasks, %d functions\n", stats.Name, stats.Frame, stats.Tasks, stats.Functions())
	for _, d := range stats.Divisions {
		fmt.Fprintf(w, "  %-6s priorities=%d functions=%d disabled=%d delayed=%d\n",
			d.Division, d.Priorities, d.Functions, d.Disabled, d.Delayed)
	}
	fmt.Fprintf(w, "camera: %s, hud ticks: %d\n", s.camera.Info(), s.counter.ticks)

	if history <= 0 {
		return
	}
	fmt.Fprintln(w, "recent calls:")
	for _, r := range s.manager.RecentCalls(history) {
		status := "ok"
		if r.Panicked {
			status = "panic"
		}
		fmt.Fprintf(w, "  frame=%d %s/%d %-14s task=%d %s %s\n",
			r.Frame, r.Division, r.Priority, r.Name, r.TaskIndex, r.Duration, status)
	}
}

func logLevelFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "log-level",
		Aliases: []string{"l"},
		Value:   "info",
		Usage:   "Log level: debug, info, warn or error",
	}
}

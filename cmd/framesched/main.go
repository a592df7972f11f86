// Command framesched runs a demo scene on the frame scheduler, either headless
// or in an Ebitengine window.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/urfave/cli/v2"
)

func newApp() *cli.App {
	return &cli.App{
		Name:  "framesched",
		Usage: "Cooperative work/render frame scheduler demo",
		Commands: []*cli.Command{
			simulateCommand(),
			windowCommand(),
		},
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

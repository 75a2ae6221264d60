// Command demo generates fake agent activity against a running server so the
// office can be watched without real agents attached.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/inconshreveable/log15/v3"
	"github.com/urfave/cli/v3"
)

func newCommand() *cli.Command {
	return &cli.Command{
		Name:  "demo",
		Usage: "drive an office with random agent activity",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "server",
				Value:   "http://localhost:8080",
				Usage:   "base URL of the office server",
				Sources: cli.EnvVars("SERVER_URL"),
			},
			&cli.StringFlag{
				Name:  "office",
				Usage: "existing office ID (a new office is created when empty)",
			},
			&cli.StringFlag{
				Name:  "layout",
				Usage: "stored layout for a new office",
			},
			&cli.IntFlag{
				Name:  "agents",
				Value: 4,
				Usage: "number of agents to spawn",
			},
			&cli.DurationFlag{
				Name:  "interval",
				Value: 2 * time.Second,
				Usage: "delay between activity events",
			},
			&cli.IntFlag{
				Name:  "events",
				Usage: "stop after this many events (0 runs until interrupted)",
			},
			&cli.Int64Flag{
				Name:  "seed",
				Usage: "random seed (0 picks one from the clock)",
			},
		},
		Action: run,
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	if cmd.Int("agents") < 1 {
		return cli.Exit("--agents must be at least 1", 1)
	}

	seed := cmd.Int64("seed")
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	d := NewDemo(cmd.String("server"), seed)
	if err := d.Setup(ctx, cmd.String("office"), cmd.String("layout"), cmd.Int("agents")); err != nil {
		return cli.Exit(fmt.Sprintf("setup failed: %v", err), 1)
	}
	fmt.Fprintf(cmd.Root().Writer, "Driving office %s with %d agents (seed %d)\n", d.OfficeID(), cmd.Int("agents"), seed)
	fmt.Fprintf(cmd.Root().Writer, "Watch it at %s/ws?office=%s\n", cmd.String("server"), d.OfficeID())

	return d.Run(ctx, cmd.Duration("interval"), cmd.Int("events"))
}

func main() {
	log15.Root().SetHandler(log15.LvlFilterHandler(log15.LvlInfo, log15.StreamHandler(os.Stderr, log15.TerminalFormat())))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newCommand().Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

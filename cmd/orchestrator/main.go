// Command orchestrator runs the L-system turtle rendering coordinator
// described in spec §1: it expands a grammar file once, then reactively
// drives chunk requests, handovers, and uploads from four quadrant
// workers. It reports the render once every upload has arrived and keeps
// serving until SIGINT/SIGTERM or a receive error.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli"
	"golang.org/x/sync/errgroup"

	"github.com/NVIDIA/lstile/internal/grammar"
	"github.com/NVIDIA/lstile/internal/metrics"
	"github.com/NVIDIA/lstile/internal/obslog"
	"github.com/NVIDIA/lstile/internal/server"
)

const defaultServerPort = 5000

func main() {
	app := cli.NewApp()
	app.Name = "orchestrator"
	app.Usage = "coordinate a distributed L-system turtle render"
	app.ArgsUsage = "<lsystem_file>"
	app.Flags = []cli.Flag{
		cli.IntFlag{Name: "port", Value: defaultServerPort, Usage: "UDP port to listen on"},
		cli.StringFlag{Name: "metrics-addr", Usage: "optional address to serve Prometheus metrics on, e.g. :9090"},
		cli.BoolFlag{Name: "verbose", Usage: "enable debug logging"},
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	if c.NArg() != 1 {
		cli.ShowAppHelp(c)
		os.Exit(1)
	}
	obslog.SetVerbose(c.Bool("verbose"))

	path := c.Args().Get(0)
	f, err := os.Open(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "orchestrator: cannot open grammar file %s: %v\n", path, err)
		os.Exit(1)
	}
	defer f.Close()

	g, err := grammar.Parse(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "orchestrator: invalid grammar file %s: %v\n", path, err)
		os.Exit(1)
	}

	var met *metrics.Metrics
	var promReg *prometheus.Registry
	if addr := c.String("metrics-addr"); addr != "" {
		promReg = prometheus.NewRegistry()
		met = metrics.New(promReg)
	}

	o, err := server.New(g, met)
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	defer o.Close()

	if err := o.Listen(c.Int("port")); err != nil {
		return cli.NewExitError(err.Error(), 1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	g2, gctx := errgroup.WithContext(ctx)

	if promReg != nil {
		metricsAddr := c.String("metrics-addr")
		g2.Go(func() error {
			return metrics.Serve(gctx, metricsAddr, promReg)
		})
	}

	g2.Go(func() error {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigCh)
		select {
		case <-sigCh:
			obslog.Infof("shutting down")
			return o.Close()
		case <-gctx.Done():
			return nil
		}
	})

	g2.Go(func() error {
		defer cancel()
		return o.Serve()
	})

	if err := g2.Wait(); err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	return nil
}

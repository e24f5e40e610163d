package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/wippyai/enginecore/boundary"
	"github.com/wippyai/enginecore/config"
	"github.com/wippyai/enginecore/engine"
	"github.com/wippyai/enginecore/errors"
)

var (
	configFlag = &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Engine configuration file (.json or .toml)",
	}
	logLevelFlag = &cli.StringFlag{
		Name:  "log-level",
		Usage: "Log level (debug, info, warn, error)",
		Value: "info",
	}
	ticksFlag = &cli.IntFlag{
		Name:  "ticks",
		Usage: "Ticks to simulate (0 runs until interrupted)",
		Value: 100,
	}
	workersFlag = &cli.IntFlag{
		Name:  "workers",
		Usage: "Mesh workers per tick (0 uses meshThreads from config)",
	}
	blockSizeFlag = &cli.IntFlag{
		Name:  "block-size",
		Usage: "Mesh buffer size in bytes",
		Value: 64 << 10,
	}
	leakEveryFlag = &cli.IntFlag{
		Name:  "leak-every",
		Usage: "Skip the release of every n-th buffer (0 never leaks)",
	}
	intervalFlag = &cli.DurationFlag{
		Name:  "interval",
		Usage: "Tick interval (0 uses the config frame budget)",
	}
	wasmFlag = &cli.StringFlag{
		Name:  "wasm",
		Usage: "Guest module that imports \"enginecore\"; run it instead of the simulated workload",
	}
	funcFlag = &cli.StringFlag{
		Name:  "func",
		Usage: "Guest export to call (default: _start, run or main)",
	}
)

func main() {
	app := &cli.App{
		Name:  "enginectl",
		Usage: "drive and inspect the engine core",
		Flags: []cli.Flag{configFlag, logLevelFlag},
		Before: func(ctx *cli.Context) error {
			return setupLogging(ctx.String(logLevelFlag.Name))
		},
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "Run a simulated engine session and print the shutdown report",
				Flags:  []cli.Flag{ticksFlag, workersFlag, blockSizeFlag, leakEveryFlag, intervalFlag, wasmFlag, funcFlag},
				Action: runCmd,
			},
			{
				Name:   "dumpconfig",
				Usage:  "Print the effective configuration as TOML",
				Action: dumpConfigCmd,
			},
			{
				Name:   "monitor",
				Usage:  "Run a session with a live terminal dashboard",
				Flags:  []cli.Flag{workersFlag, blockSizeFlag, leakEveryFlag, intervalFlag},
				Action: monitorCmd,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func setupLogging(level string) error {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = lvl
	cfg.OutputPaths = []string{"stderr"}
	l, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	engine.SetLogger(l)
	boundary.SetLogger(l.Named("boundary"))
	return nil
}

func loadConfig(ctx *cli.Context) (*config.Config, error) {
	path := ctx.String(configFlag.Name)
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

func workloadFromFlags(ctx *cli.Context, cfg *config.Config) engine.Workload {
	interval := ctx.Duration(intervalFlag.Name)
	if interval == 0 {
		interval = cfg.FrameBudget()
	}
	return engine.Workload{
		Ticks:        ctx.Int(ticksFlag.Name),
		Workers:      ctx.Int(workersFlag.Name),
		BlockSize:    ctx.Int(blockSizeFlag.Name),
		LeakEvery:    ctx.Int(leakEveryFlag.Name),
		TickInterval: interval,
	}
}

func runCmd(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	e, err := engine.New(cfg)
	if err != nil {
		return err
	}

	sigCtx, stop := signal.NotifyContext(ctx.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	if path := ctx.String(wasmFlag.Name); path != "" {
		err = runGuest(sigCtx, e, path, ctx.String(funcFlag.Name))
	} else {
		err = e.Run(sigCtx, workloadFromFlags(ctx, cfg))
		if errors.Is(err, context.Canceled) {
			err = nil
		}
	}
	if err != nil {
		e.Fail(err)
	}

	report := e.Shutdown()
	snap := e.State().Snapshot()

	fmt.Printf("Run:         %s\n", snap.RunID)
	fmt.Printf("Phase:       %s\n", snap.Phase)
	fmt.Printf("Elapsed:     %s\n", time.Since(start).Round(time.Millisecond))
	fmt.Printf("Ticks:       %d\n", snap.Ticks)
	fmt.Printf("Frames:      %d\n", snap.Frames)
	fmt.Printf("Entities:    %d\n", snap.Entities)
	fmt.Printf("Chunks:      %d\n", snap.Chunks)
	fmt.Printf("Allocator:   %s\n", e.Allocator().Mode())
	if report.Leaked() {
		fmt.Printf("Leaked:      %d allocations, %d bytes\n", report.AllocationCount, report.AllocatedBytes)
	} else {
		fmt.Printf("Leaked:      none\n")
	}
	return err
}

func dumpConfigCmd(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	out, err := config.MarshalTOML(cfg)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(out)
	return err
}

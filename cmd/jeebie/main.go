package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gdamore/tcell/v2"
	"github.com/urfave/cli"
	"github.com/valerio/jeebie-core/jeebie"
	"github.com/valerio/jeebie-core/jeebie/disasm"
	"github.com/valerio/jeebie-core/jeebie/memory"
	"github.com/valerio/jeebie-core/jeebie/tui"
)

var imageFlags = []cli.Flag{
	cli.StringFlag{
		Name:  "image",
		Usage: "Path to the raw program image",
	},
	cli.StringFlag{
		Name:  "origin",
		Usage: "Address the image is loaded at",
		Value: "0x0100",
	},
	cli.StringFlag{
		Name:  "pc",
		Usage: "Initial program counter",
		Value: "0x0100",
	},
	cli.StringSliceFlag{
		Name:  "break",
		Usage: "Stop before executing the given address (repeatable)",
	},
}

func main() {
	app := cli.NewApp()
	app.Name = "jeebie"
	app.Usage = "run, trace and debug LR35902 programs"
	app.Version = "1.0.0"
	app.Commands = []cli.Command{
		{
			Name:      "run",
			Usage:     "Execute a program image headless",
			ArgsUsage: "[image]",
			Flags: append([]cli.Flag{
				cli.Uint64Flag{
					Name:  "steps",
					Usage: "Maximum number of instructions to execute (0 = no limit)",
				},
				cli.BoolFlag{
					Name:  "until-halt",
					Usage: "Stop when the CPU halts with no interrupt pending",
				},
				cli.BoolFlag{
					Name:  "trace",
					Usage: "Log every executed instruction",
				},
				cli.StringFlag{
					Name:  "profile",
					Usage: "Write a cpu or mem profile to the current directory",
				},
			}, imageFlags...),
			Action: runProgram,
		},
		{
			Name:      "disasm",
			Usage:     "Disassemble a program image",
			ArgsUsage: "[image]",
			Flags: append([]cli.Flag{
				cli.IntFlag{
					Name:  "count",
					Usage: "Number of instructions to print",
					Value: 32,
				},
			}, imageFlags...),
			Action: disassemble,
		},
		{
			Name:      "debug",
			Usage:     "Step through a program image in the terminal debugger",
			ArgsUsage: "[image]",
			Flags:     imageFlags,
			Action:    runDebugger,
		},
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("Error running jeebie", "error", err)
		os.Exit(1)
	}
}

type imageConfig struct {
	path        string
	origin      uint16
	pc          uint16
	breakpoints []uint16
}

func parseImageConfig(c *cli.Context) (imageConfig, error) {
	var cfg imageConfig

	cfg.path = c.String("image")
	if cfg.path == "" {
		if c.NArg() == 0 {
			return cfg, errors.New("no image path provided")
		}
		cfg.path = c.Args().First()
	}

	var err error
	if cfg.origin, err = parseAddress(c.String("origin")); err != nil {
		return cfg, fmt.Errorf("invalid origin: %w", err)
	}
	if cfg.pc, err = parseAddress(c.String("pc")); err != nil {
		return cfg, fmt.Errorf("invalid pc: %w", err)
	}
	if cfg.breakpoints, err = parseAddresses(c.StringSlice("break")); err != nil {
		return cfg, fmt.Errorf("invalid breakpoint: %w", err)
	}
	return cfg, nil
}

func runProgram(c *cli.Context) error {
	cfg, err := parseImageConfig(c)
	if err != nil {
		return err
	}

	if mode := c.String("profile"); mode != "" {
		prof, err := startProfile(mode)
		if err != nil {
			return err
		}
		defer prof.Stop()
	}

	level := slog.LevelInfo
	if c.Bool("trace") {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	m, err := jeebie.NewWithFile(cfg.path, cfg.origin, cfg.pc,
		jeebie.WithLogger(logger),
		jeebie.WithTrace(c.Bool("trace")),
		jeebie.WithUntilHalt(c.Bool("until-halt")),
		jeebie.WithBreakpoints(cfg.breakpoints...),
	)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reason, runErr := m.Run(ctx, c.Uint64("steps"))

	if out := m.SerialOutput(); len(out) > 0 {
		fmt.Fprintf(c.App.Writer, "%s\n", out)
	}
	fmt.Fprintln(c.App.Writer, m.CPU().Registers.String())
	logger.Info("Execution stopped",
		"reason", reason,
		"steps", m.Steps(),
		"cycles", m.CPU().GetCycles(),
		"fingerprint", fmt.Sprintf("%016x", m.Fingerprint()),
	)

	if reason == jeebie.StopError {
		return runErr
	}
	return nil
}

func disassemble(c *cli.Context) error {
	cfg, err := parseImageConfig(c)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(cfg.path)
	if err != nil {
		return err
	}
	mem := memory.New()
	if err := mem.Load(cfg.origin, data); err != nil {
		return err
	}

	for _, line := range disasm.DisassembleRange(cfg.pc, c.Int("count"), mem) {
		fmt.Fprintln(c.App.Writer, disasm.FormatDisassemblyLine(line, false))
	}
	return nil
}

func runDebugger(c *cli.Context) error {
	cfg, err := parseImageConfig(c)
	if err != nil {
		return err
	}

	logs := tui.NewLogBuffer(200)
	logger := slog.New(tui.NewLogBufferHandler(logs, slog.LevelDebug))
	slog.SetDefault(logger)

	m, err := jeebie.NewWithFile(cfg.path, cfg.origin, cfg.pc,
		jeebie.WithLogger(logger),
		jeebie.WithBreakpoints(cfg.breakpoints...),
	)
	if err != nil {
		return err
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("failed to initialize terminal: %v", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("failed to initialize terminal: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = tui.NewDebugger(screen, m, logs, logger).Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

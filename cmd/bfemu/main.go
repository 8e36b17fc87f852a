// Command bfemu runs a tape machine program from a source file.
//
//	bfemu [flags] <source>
//
// Flags override the config file, which overrides the defaults. The config
// file is taken from --config or from the BFEMU_CONFIG environment variable.
package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/tebeka/atexit"
	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/sarchlab/bfemu/config"
	"github.com/sarchlab/bfemu/core"
	"github.com/sarchlab/bfemu/program"
	"github.com/sarchlab/bfemu/verify"
)

var errUsage = errors.New("usage: bfemu [flags] <source>")

type options struct {
	configPath string
	compileTo  string
	lint       bool
	image      bool
}

func main() {
	code := 0
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		code = 1
	}
	atexit.Exit(code)
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	cfg, opts, path, err := parseArgs(args, stderr)
	if err != nil {
		return err
	}

	if err := setupLogging(cfg, stderr); err != nil {
		return err
	}

	src, err := readSource(path)
	if err != nil {
		return err
	}

	switch {
	case opts.lint:
		return lint(src, cfg, stdout)
	case opts.compileTo != "":
		return compile(src, cfg, opts.compileTo)
	}

	p := config.NewPlatformBuilder().
		WithConfig(cfg).
		WithInput(bufio.NewReader(stdin)).
		WithOutput(stdout).
		Build("BF")

	if opts.image {
		img, err := program.UnmarshalImage(src)
		if err != nil {
			return err
		}
		p.LoadImage(img)
	} else if err := p.Load(src); err != nil {
		return err
	}

	if p.Monitor != nil {
		p.Monitor.StartServer()
	}

	err = p.Run()

	slog.Info("RunFinished",
		"Source", path,
		"Cycles", p.Cycles(),
		"Steps", p.Core.Steps(),
		"Failed", err != nil,
	)

	if cfg.DumpCells > 0 {
		core.PrintTape(stderr, p.Core, 0, cfg.DumpCells)
	}

	if p.Monitor != nil {
		fmt.Fprintln(stderr, "run finished, monitor still serving; interrupt to exit")
		waitForInterrupt()
	}

	return err
}

func waitForInterrupt() {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
}

func parseArgs(args []string, stderr io.Writer) (config.Config, options, string, error) {
	var (
		opts      options
		overrides []func(*config.Config)

		strict, optimize, noOpt, raw, simulate, monitor bool

		trace string
		dump  int
		path  string
	)

	// Flags given on the command line are applied over the config file in
	// the order they appear.
	override := func(set func(*config.Config)) kingpin.Action {
		return func(*kingpin.ParseContext) error {
			overrides = append(overrides, set)
			return nil
		}
	}

	app := kingpin.New("bfemu", "Runs a tape machine program.")
	app.UsageWriter(stderr)
	app.ErrorWriter(stderr)
	app.Terminate(nil)

	app.Flag("config", "YAML or TOML config file.").
		PlaceHolder("FILE").StringVar(&opts.configPath)

	app.Flag("strict", "Reject bytes that are not instructions.").
		Action(override(func(c *config.Config) {
			c.ParseMode = program.Permissive.String()
			if strict {
				c.ParseMode = program.Strict.String()
			}
		})).BoolVar(&strict)

	app.Flag("optimize", "Fuse Move/Add runs.").Short('O').
		Action(override(func(c *config.Config) {
			c.Optimize = optimize
		})).BoolVar(&optimize)

	app.Flag("no-opt", "Do not fuse Move/Add runs.").
		Action(override(func(c *config.Config) {
			c.Optimize = !noOpt
		})).BoolVar(&noOpt)

	app.Flag("raw", "Write cells as raw bytes instead of UTF-8.").
		Action(override(func(c *config.Config) {
			c.OutputEncoding = core.UTF8.String()
			if raw {
				c.OutputEncoding = core.Raw.String()
			}
		})).BoolVar(&raw)

	app.Flag("sim", "Run on the akita engine, one instruction per cycle.").
		Action(override(func(c *config.Config) {
			c.Simulate = simulate
		})).BoolVar(&simulate)

	app.Flag("monitor", "Start the akita web monitor. Implies --sim.").
		Action(override(func(c *config.Config) {
			c.Monitor = monitor
		})).BoolVar(&monitor)

	app.Flag("trace", "Write JSON trace records to this file.").PlaceHolder("FILE").
		Action(override(func(c *config.Config) {
			c.TraceLog = trace
		})).StringVar(&trace)

	app.Flag("dump", "Print this many tape cells to stderr after the run.").PlaceHolder("N").
		Action(override(func(c *config.Config) {
			c.DumpCells = dump
		})).IntVar(&dump)

	app.Flag("lint", "Report lint issues instead of running.").BoolVar(&opts.lint)
	app.Flag("compile", "Write a compiled image to this file instead of running.").
		PlaceHolder("FILE").StringVar(&opts.compileTo)
	app.Flag("image", "Treat the source as a compiled image.").BoolVar(&opts.image)

	app.Arg("source", "The source file of the program to execute.").
		Required().StringVar(&path)

	if _, err := app.Parse(args); err != nil {
		app.Usage(args)
		return config.Config{}, opts, "", fmt.Errorf("%w: %v", errUsage, err)
	}

	var (
		cfg config.Config
		err error
	)
	if opts.configPath != "" {
		cfg, err = config.Load(opts.configPath)
	} else {
		cfg, err = config.FromEnv()
	}
	if err != nil {
		return config.Config{}, opts, "", err
	}

	for _, set := range overrides {
		set(&cfg)
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, opts, "", err
	}

	return cfg, opts, path, nil
}

// setupLogging sends trace records to the configured file as JSON, or
// warnings and above to stderr as text.
func setupLogging(cfg config.Config, stderr io.Writer) error {
	if cfg.TraceLog == "" {
		handler := slog.NewTextHandler(stderr, &slog.HandlerOptions{
			Level: slog.LevelWarn,
		})
		slog.SetDefault(slog.New(handler))
		return nil
	}

	f, err := os.Create(cfg.TraceLog)
	if err != nil {
		return fmt.Errorf("trace log: %w", err)
	}
	atexit.Register(func() { f.Close() })

	handler := slog.NewJSONHandler(f, &slog.HandlerOptions{
		Level: core.LevelTrace,
	})
	slog.SetDefault(slog.New(handler))

	return nil
}

func readSource(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("source file error: %w", err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("source file error: %s is not a regular file", path)
	}

	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("source file error: %w", err)
	}

	return src, nil
}

func lint(src []byte, cfg config.Config, stdout io.Writer) error {
	issues := verify.RunLint(src, cfg.Mode())

	report := verify.GenerateReport(issues, nil)
	report.WriteReport(stdout)

	if !report.Passed() {
		return fmt.Errorf("lint: %d structural issues", len(report.StructIssues))
	}
	return nil
}

func compile(src []byte, cfg config.Config, out string) error {
	img, err := program.Compile(src, cfg.Mode(), cfg.Optimize)
	if err != nil {
		return err
	}

	data, err := program.MarshalImage(img)
	if err != nil {
		return err
	}

	return os.WriteFile(out, data, 0o644)
}

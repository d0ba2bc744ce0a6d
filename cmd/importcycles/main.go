package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"importcycles/internal/core/app"
	"importcycles/internal/core/config"
	"importcycles/internal/core/errors"
	"importcycles/internal/engine/graph"
	"importcycles/internal/shared/observability"
	"importcycles/internal/ui/monitor"
	"importcycles/internal/ui/report"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"
)

const VERSION = "1.0.0"

const (
	exitOK     = 0
	exitCycles = 1
	exitFatal  = 2
	exitUsage  = 64
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := pflag.NewFlagSet("importcycles", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	config.RegisterFlags(fs)
	configPath := fs.String("config", "", "path to a TOML config file (default ./"+config.DefaultFile+" when present)")
	trace := fs.Bool("trace", false, "print the shortest import chain: importcycles --trace FROM TO [ROOT...]")
	ui := fs.Bool("ui", false, "watch the roots and show the current cycles in a terminal UI")
	historyReport := fs.Int("history-report", 0, "print the last N recorded runs (all when N <= 0) and the files most often in cycles, then exit")
	printConfig := fs.Bool("print-config", false, "print the effective configuration as TOML and exit")
	version := fs.Bool("version", false, "print version and exit")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "usage: importcycles [flags] ROOT...\n\n%s", fs.FlagUsages())
	}

	if err := fs.Parse(args); err != nil {
		if stderrors.Is(err, pflag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	if *version {
		fmt.Fprintf(stdout, "importcycles v%s\n", VERSION)
		return exitOK
	}

	reporter := report.New(stdout, stderr)

	cfg, err := config.Load(fs, *configPath)
	if err != nil {
		reporter.Error(err)
		return exitUsage
	}
	if *printConfig {
		if err := cfg.WriteTOML(stdout); err != nil {
			reporter.Error(err)
			return exitFatal
		}
		return exitOK
	}

	positional := fs.Args()
	showHistory := fs.Changed("history-report")
	switch {
	case *ui && (*trace || showHistory):
		fmt.Fprintln(stderr, "--ui cannot be combined with --trace or --history-report")
		return exitUsage
	case *trace && showHistory:
		fmt.Fprintln(stderr, "--trace cannot be combined with --history-report")
		return exitUsage
	case *trace && len(positional) < 2:
		fmt.Fprintln(stderr, "trace mode requires two files: importcycles --trace FROM TO [ROOT...]")
		return exitUsage
	case !*trace && !showHistory && len(positional) == 0:
		fs.Usage()
		return exitUsage
	}

	logOutput := stderr
	if *ui {
		// The monitor owns the terminal.
		out, closeLog := uiLogOutput()
		defer closeLog()
		logOutput = out
	}
	logLevel := slog.LevelInfo
	if cfg.Verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(logOutput, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	shutdown, err := observability.SetupTracing(ctx, cfg.Tracing.Endpoint, VERSION)
	if err != nil {
		logger.Warn("tracing disabled", "error", err)
	} else {
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				logger.Warn("failed to flush traces", "error", err)
			}
		}()
	}

	a, err := app.New(cfg, logger)
	if err != nil {
		reporter.Error(err)
		return exitCodeFor(err)
	}
	defer a.Close()

	switch {
	case showHistory:
		return runHistory(a, reporter, *historyReport)
	case *trace:
		return runTrace(ctx, a, reporter, positional[0], positional[1], positional[2:])
	case *ui:
		return runUI(ctx, a, logger, reporter, positional)
	case cfg.Watch:
		err := a.Watch(ctx, positional, func(result *app.Result, err error) {
			printResult(reporter, result, err)
			reporter.Status("Waiting for changes...")
		})
		if err != nil {
			reporter.Error(err)
			return exitCodeFor(err)
		}
		return exitOK
	default:
		result, err := a.Analyze(ctx, positional)
		return printResult(reporter, result, err)
	}
}

func runTrace(ctx context.Context, a *app.App, reporter *report.Reporter, from, to string, roots []string) int {
	chain, ok, err := a.Trace(ctx, roots, from, to)
	if err != nil {
		reporter.Error(err)
		return exitCodeFor(err)
	}
	if !ok {
		_ = reporter.NoChain(from, to)
		return exitCycles
	}
	_ = reporter.Chain(chain)
	return exitOK
}

func runHistory(a *app.App, reporter *report.Reporter, limit int) int {
	h, err := a.History(limit)
	if err != nil {
		reporter.Error(err)
		return exitCodeFor(err)
	}
	if err := reporter.History(h.Runs, h.Recurring); err != nil {
		return exitFatal
	}
	return exitOK
}

// runUI watches roots and feeds every run into the monitor until the user
// quits or ctx is done.
func runUI(ctx context.Context, a *app.App, logger *slog.Logger, reporter *report.Reporter, roots []string) int {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	mon := monitor.New(tea.WithContext(ctx), tea.WithAltScreen())
	watchErr := make(chan error, 1)
	go func() {
		err := a.Watch(ctx, roots, func(result *app.Result, err error) {
			mon.Send(monitorUpdate(a, logger, result, err))
		})
		if err != nil {
			mon.Send(monitor.Update{Err: err, At: time.Now()})
		}
		watchErr <- err
	}()

	runErr := mon.Run()
	cancel()
	err := <-watchErr
	if runErr != nil && !stderrors.Is(runErr, tea.ErrProgramKilled) {
		reporter.Error(runErr)
		return exitFatal
	}
	if err != nil {
		reporter.Error(err)
		return exitCodeFor(err)
	}
	return exitOK
}

func monitorUpdate(a *app.App, logger *slog.Logger, result *app.Result, err error) monitor.Update {
	u := monitor.Update{Err: err, At: time.Now()}
	if err != nil {
		return u
	}
	u.Files = result.Files()
	u.Edges = result.Graph.EdgeCount()
	u.Cycles = cyclePaths(result.Cycles)
	recurrence, err := a.CycleRecurrence(result.Cycles)
	if err != nil {
		logger.Warn("failed to read cycle history", "error", err)
	}
	u.Recurrence = recurrence
	return u
}

func cyclePaths(cycles []graph.Cycle) [][]string {
	out := make([][]string, 0, len(cycles))
	for _, c := range cycles {
		out = append(out, []string(c))
	}
	return out
}

// uiLogOutput opens the log file used while the monitor runs. Logs are
// dropped when it cannot be opened.
func uiLogOutput() (io.Writer, func()) {
	path := uiLogPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return io.Discard, func() {}
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return io.Discard, func() {}
	}
	return f, func() { _ = f.Close() }
}

func uiLogPath() string {
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		return filepath.Join(xdg, "importcycles", "importcycles.log")
	}
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		return filepath.Join(home, ".local", "state", "importcycles", "importcycles.log")
	}
	return "importcycles.log"
}

// printResult reports one run and returns its exit code.
func printResult(reporter *report.Reporter, result *app.Result, err error) int {
	if err != nil {
		reporter.Error(err)
		return exitCodeFor(err)
	}
	if result.HasCycles() {
		if err := reporter.Cycles(result.Cycles); err != nil {
			return exitFatal
		}
		return exitCycles
	}
	if err := reporter.NoCycles(result.Files()); err != nil {
		return exitFatal
	}
	return exitOK
}

func exitCodeFor(err error) int {
	if code, ok := errors.CodeOf(err); ok && code == errors.CodeValidationError {
		return exitUsage
	}
	return exitFatal
}

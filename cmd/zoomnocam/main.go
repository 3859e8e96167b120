// Zoomnocam watches a Zoom meeting from the host's desktop and enforces a
// cameras-on policy: guests whose camera stays off through the warning
// window are removed, and extra pins are stripped. Co-hosts are exempt.
//
// By default it drives the real meeting window. With --script it replays a
// scenario file instead, which is the way to try the rules without a
// meeting. --dry-run keeps the real observer but suppresses all actions.
//
// Configuration comes from ZOOMNOCAM_* environment variables, optionally
// loaded from a .env file. See internal/config for the full list.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/JoeJoeGBoi/ZoomNoCam/internal/clock"
	"github.com/JoeJoeGBoi/ZoomNoCam/internal/config"
	"github.com/JoeJoeGBoi/ZoomNoCam/internal/desktop"
	"github.com/JoeJoeGBoi/ZoomNoCam/internal/dispatcher"
	"github.com/JoeJoeGBoi/ZoomNoCam/internal/engine"
	"github.com/JoeJoeGBoi/ZoomNoCam/internal/observer"
	"github.com/JoeJoeGBoi/ZoomNoCam/internal/runner"
	"github.com/JoeJoeGBoi/ZoomNoCam/internal/session"
	"github.com/JoeJoeGBoi/ZoomNoCam/internal/sim"
	"github.com/JoeJoeGBoi/ZoomNoCam/internal/tui"
	"github.com/JoeJoeGBoi/ZoomNoCam/pkg/scenario"
)

const probeTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "zoomnocam: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		envFile    string
		scriptPath string
		withTUI    bool
		dryRun     bool
		logLevel   string
		logFile    string
	)

	flags := pflag.NewFlagSet("zoomnocam", pflag.ContinueOnError)
	flags.StringVar(&envFile, "env-file", ".env", "env file to load before reading configuration")
	flags.StringVar(&scriptPath, "script", "", "replay a scenario file instead of watching the desktop")
	flags.BoolVar(&withTUI, "tui", false, "show the live dashboard")
	flags.BoolVar(&dryRun, "dry-run", false, "log actions instead of delivering them")
	flags.StringVar(&logLevel, "log-level", "", "override the configured log level")
	flags.StringVar(&logFile, "log-file", "", "write logs to this file instead of stderr")

	if err := flags.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	if err := godotenv.Load(envFile); err != nil {
		// A missing default .env is fine; one named explicitly is not.
		if flags.Changed("env-file") || !os.IsNotExist(err) {
			return fmt.Errorf("env file: %w", err)
		}
	}

	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	if dryRun {
		cfg.DryRun = true
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	log, err := newLogger(cfg.LogLevel, logFile, withTUI)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	log.Info("zoomnocam starting",
		zap.Duration("poll_interval", cfg.PollInterval),
		zap.Duration("warning_window", cfg.WarningWindow),
		zap.String("target", cfg.TargetTitle),
		zap.Bool("dry_run", cfg.DryRun))

	clk := clock.Real()

	var (
		obs  observer.Observer
		disp dispatcher.Dispatcher
	)
	if scriptPath != "" {
		script, err := scenario.Load(scriptPath)
		if err != nil {
			return err
		}
		log.Info("replaying scenario",
			zap.String("script", scriptPath),
			zap.String("name", script.Name),
			zap.Int("frames", len(script.Frames)))
		obs = sim.NewObserver(script, clk, log.Named("sim"))
		disp = dispatcher.NewDryRun(log.Named("dispatch"))
	} else {
		desktopObs, err := desktop.NewObserver(cfg, clk, log.Named("desktop"))
		if err != nil {
			return err
		}
		if err := probe(desktopObs, log); err != nil {
			return err
		}
		obs = desktopObs
		disp = desktop.NewDispatcher(cfg, log.Named("dispatch"))
	}
	if cfg.DryRun {
		disp = dispatcher.NewDryRun(log.Named("dispatch"))
	}

	sess := session.New(context.Background(), engine.NewState(cfg.WarningWindow), log.Named("session"))

	r := runner.New(obs, disp, sess, clk, runner.Config{
		PollInterval:     cfg.PollInterval,
		ScrollToLastPage: cfg.ScrollToLastPage,
		WindowGoneAfter:  cfg.WindowGoneAfter,
	}, log.Named("runner"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var g errgroup.Group
	g.Go(func() error {
		defer cancel() // runner exit takes the dashboard down too
		return r.Run(runCtx)
	})
	if withTUI {
		g.Go(func() error {
			defer cancel() // quitting the dashboard stops enforcement
			return tui.Run(runCtx, sess)
		})
	}

	err = g.Wait()
	sess.Inbox() <- session.Shutdown{}

	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// probe takes one snapshot up front so broken capture or bad templates fail
// the start instead of the first cycle. An unavailable panel is not an
// error: the meeting may simply not have started.
func probe(obs observer.Observer, log *zap.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()

	_, err := obs.Snapshot(ctx)
	switch {
	case err == nil:
		log.Info("meeting window found")
	case errors.Is(err, observer.ErrUnavailable):
		log.Info("meeting window not found yet, waiting for it")
	default:
		return fmt.Errorf("startup probe: %w", err)
	}
	return nil
}

func newLogger(level, file string, quiet bool) (*zap.Logger, error) {
	// The dashboard owns the terminal; without a log file the records have
	// nowhere sensible to go.
	if quiet && file == "" {
		return zap.NewNop(), nil
	}

	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level %q: %w", level, err)
	}

	zcfg := zap.NewDevelopmentConfig()
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	if file != "" {
		zcfg.OutputPaths = []string{file}
		zcfg.ErrorOutputPaths = []string{file}
	}
	return zcfg.Build()
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/riskibarqy/matchthread-sync/internal/app"
	"github.com/riskibarqy/matchthread-sync/internal/config"
	"github.com/riskibarqy/matchthread-sync/internal/observability"
	"github.com/riskibarqy/matchthread-sync/internal/platform/id"
	"github.com/riskibarqy/matchthread-sync/internal/platform/logging"
	"github.com/riskibarqy/matchthread-sync/internal/platform/resilience"
)

const shutdownTimeout = 10 * time.Second

func main() {
	os.Exit(run())
}

func run() int {
	if len(os.Args) < 2 {
		printUsage()
		return 2
	}
	cmd := strings.ToLower(strings.TrimSpace(os.Args[1]))

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		return 1
	}

	logger := newLogger(cfg)
	logger, shutdownObservability, err := initObservability(cfg, logger)
	if err != nil {
		logger.Error("init observability", "error", err)
		return 1
	}
	defer shutdownObservability()

	runID, err := id.NewUUIDGenerator().NewID()
	if err != nil {
		logger.Error("generate run id", "error", err)
		return 1
	}
	logger = logger.With("run_id", runID, "command", cmd)
	logging.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("build app", "error", err)
		return 1
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warn("close app", "error", err)
		}
	}()

	switch cmd {
	case "sync":
		report, err := a.Sync(ctx)
		if err != nil {
			logger.ErrorContext(ctx, "sync run failed", "error", err)
			return 1
		}
		if report.Failed > 0 {
			return 1
		}
	case "publish":
		if len(os.Args) < 3 {
			logger.Error("publish requires a competition key")
			printUsage()
			return 2
		}
		state, err := a.Publish(ctx, os.Args[2])
		if err != nil {
			logger.ErrorContext(ctx, "publish failed", "competition", os.Args[2], "error", err)
			if app.IsUsageError(err) {
				return 2
			}
			return 1
		}
		fmt.Println(state.PostID)
	case "interval":
		fmt.Println(int(a.PollingInterval() / time.Second))
	default:
		printUsage()
		return 2
	}
	return 0
}

func newLogger(cfg config.Config) *logging.Logger {
	if cfg.LogFormat == "console" {
		return logging.NewConsole(cfg.LogLevel)
	}
	return logging.NewJSON(cfg.LogLevel)
}

// initObservability wires tracing, log shipping and profiling. The returned
// func flushes all of them.
func initObservability(cfg config.Config, logger *logging.Logger) (*logging.Logger, func(), error) {
	logger, shutdownUptrace, err := observability.InitUptrace(cfg, logger)
	if err != nil {
		return logger, func() {}, fmt.Errorf("init uptrace: %w", err)
	}
	logger, shutdownBetterStack, err := observability.InitBetterStackLogger(cfg, logger)
	if err != nil {
		return logger, func() {}, fmt.Errorf("init betterstack: %w", err)
	}
	stopProfiler, err := observability.InitPyroscope(cfg, logger)
	if err != nil {
		return logger, func() {}, fmt.Errorf("init pyroscope: %w", err)
	}

	return logger, func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := stopProfiler(); err != nil {
			logger.Warn("stop pyroscope", "error", err)
		}
		if err := shutdownUptrace(ctx); err != nil {
			logger.Warn("shutdown uptrace", "error", err)
		}
		if err := shutdownBetterStack(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "shutdown betterstack: %v\n", err)
		}
		_ = logger.Sync()
	}, nil
}

func printUsage() {
	name := filepath.Base(os.Args[0])
	fmt.Fprintf(os.Stderr, "usage: %s <sync|publish|interval> [args]\n", name)
	fmt.Fprintln(os.Stderr, "commands:")
	fmt.Fprintf(os.Stderr, "  %s sync                  update open threads for today's match-days\n", name)
	fmt.Fprintf(os.Stderr, "  %s publish <competition> open a new thread, e.g. premier_division\n", name)
	fmt.Fprintf(os.Stderr, "  %s interval              print the advised seconds until the next sync (budget %d/day by default)\n", name, resilience.DefaultLimiterConfig().DailyLimit)
}

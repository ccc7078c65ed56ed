package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/riskibarqy/matchthread-sync/internal/app"
	"github.com/riskibarqy/matchthread-sync/internal/config"
	"github.com/riskibarqy/matchthread-sync/internal/platform/logging"
)

func main() {
	os.Exit(run())
}

func run() int {
	if len(os.Args) < 2 {
		printUsage()
		return 2
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		return 1
	}
	logger := logging.NewConsole(cfg.LogLevel)
	defer func() { _ = logger.Sync() }()

	m, err := app.NewMigrator(cfg, logger)
	if err != nil {
		logger.Error("create migrator", "error", err)
		return 1
	}
	defer m.Close()

	switch cmd := strings.ToLower(strings.TrimSpace(os.Args[1])); cmd {
	case "up":
		err = m.Up()
	case "down":
		steps := 1
		if len(os.Args) > 2 {
			steps, err = parsePositive(os.Args[2])
		}
		if err == nil {
			err = m.Down(steps)
		}
	case "version":
		version, dirty, ok, versionErr := m.Version()
		if versionErr != nil {
			err = versionErr
			break
		}
		if !ok {
			fmt.Println("version: none")
			fmt.Println("dirty: false")
			return 0
		}
		fmt.Printf("version: %d\n", version)
		fmt.Printf("dirty: %t\n", dirty)
	case "force":
		if len(os.Args) < 3 {
			logger.Error("force requires a version argument")
			return 2
		}
		var version int
		version, err = parsePositive(os.Args[2])
		if err == nil {
			err = m.Force(version)
		}
	case "goto":
		if len(os.Args) < 3 {
			logger.Error("goto requires a target version argument")
			return 2
		}
		var target uint64
		target, err = strconv.ParseUint(strings.TrimSpace(os.Args[2]), 10, 64)
		if err == nil {
			err = m.Goto(uint(target))
		}
	default:
		printUsage()
		return 2
	}

	if err != nil {
		logger.Error("migration failed", "command", os.Args[1], "error", err)
		return 1
	}
	return 0
}

func parsePositive(raw string) (int, error) {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid number %q: %w", raw, err)
	}
	if value <= 0 {
		return 0, fmt.Errorf("%d must be > 0", value)
	}
	return value, nil
}

func printUsage() {
	name := filepath.Base(os.Args[0])
	fmt.Fprintf(os.Stderr, "usage: %s <up|down|version|force|goto> [args]\n", name)
	fmt.Fprintln(os.Stderr, "examples:")
	fmt.Fprintf(os.Stderr, "  %s up\n", name)
	fmt.Fprintf(os.Stderr, "  %s down 1\n", name)
	fmt.Fprintf(os.Stderr, "  %s version\n", name)
	fmt.Fprintf(os.Stderr, "  %s force 1776297660\n", name)
	fmt.Fprintf(os.Stderr, "  %s goto 1776297600\n", name)
}

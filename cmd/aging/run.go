package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/arloliu/go-aging/aging"
	"github.com/arloliu/go-aging/config"
	"github.com/arloliu/go-aging/logger"
	"github.com/arloliu/go-aging/report"
)

type runFlags struct {
	configPath string
	cycles     int
	logLevel   string
}

func newRunCmd(a *app) *cobra.Command {
	flags := &runFlags{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the aging test",
		Example: `  # Run with a configuration file
  aging run --config aging.yaml

  # Short smoke run with verbose logs
  aging run --config aging.yaml --cycles 1 --log-level debug`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd.Context(), flags)
		},
	}

	cmd.Flags().StringVarP(&flags.configPath, "config", "c", "", "Path to the YAML configuration file (default: built-in defaults)")
	cmd.Flags().IntVar(&flags.cycles, "cycles", 0, "Override test.total_cycles")
	cmd.Flags().StringVar(&flags.logLevel, "log-level", "", "Override log.level (debug, info, warn, error)")

	return cmd
}

func (a *app) run(ctx context.Context, flags *runFlags) error {
	f, err := loadConfig(flags.configPath)
	if err != nil {
		return err
	}
	if flags.cycles > 0 {
		f.Test.TotalCycles = flags.cycles
	}
	if flags.logLevel != "" {
		if _, err := logger.ParseLevel(flags.logLevel); err != nil {
			return err
		}
		f.Log.Level = flags.logLevel
	}

	opts, err := f.AgingOptions()
	if err != nil {
		return err
	}
	table, err := f.CommandTable()
	if err != nil {
		return err
	}
	if err := table.Validate(); err != nil {
		return err
	}

	start := time.Now()
	l, closeLog, err := a.openLog(f, start)
	if err != nil {
		return err
	}
	defer closeLog()

	opts = append(opts,
		aging.WithLogger(l),
		aging.WithReporter(report.NewFileReporter(f.Output.ReportDir, l)),
	)
	cfg, err := aging.NewConfig(opts...)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	left, right := f.Endpoints()
	l.Info("starting aging test",
		"device", f.Output.DeviceID,
		"leftPort", left.Name,
		"rightPort", right.Name,
		"baudRate", left.BaudRate,
	)

	summary, err := aging.RunWithPorts(ctx, cfg, a.opener, left, right)
	if err != nil && !errors.Is(err, context.Canceled) {
		l.Error("aging test failed", "error", err)
		return err
	}

	fmt.Fprintln(a.stdout, renderSummary(summary, time.Since(start)))

	return nil
}

// openLog creates the per-run log file and a logger writing to it and to stdout.
func (a *app) openLog(f *config.File, start time.Time) (logger.Logger, func(), error) {
	path := f.LogFilePath(start)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}

	l := logger.NewSlogWithOptions(logger.Options{
		Level:   f.LogLevel(),
		Console: f.Log.Console,
		Output:  io.MultiWriter(a.stdout, file),
	})
	logger.SetDefault(l)
	l.Info("logging to file", "path", path)

	return l, func() { _ = file.Close() }, nil
}

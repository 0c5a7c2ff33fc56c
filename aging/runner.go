package aging

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/arloliu/go-aging/frame"
	"github.com/arloliu/go-aging/internal/pool"
	"github.com/arloliu/go-aging/logger"
	"github.com/arloliu/go-aging/session"
	"github.com/arloliu/go-aging/transport"
)

// Reporter persists the result log of a finished run. It must not modify results.
type Reporter interface {
	Report(summary RunSummary, results []CycleResult) error
}

// cycleRunner is implemented by Engine.
type cycleRunner interface {
	RunCycle(ctx context.Context, index int) (CycleResult, error)
}

// Runner repeats cycles for the configured count and accumulates their results.
type Runner struct {
	cfg     *Config
	engine  cycleRunner
	logger  logger.Logger
	runID   string
	results []CycleResult
	metrics *RunMetrics
	now     func() time.Time
}

// NewRunner creates a runner driving the ports of pair.
//
// A *frame.ConfigurationError is returned when the command table is incomplete.
func NewRunner(cfg *Config, pair *transport.Pair) (*Runner, error) {
	if cfg == nil {
		return nil, errors.New("aging: config is nil")
	}

	runID := uuid.NewString()
	l := cfg.logger.With("run", runID)

	engine, err := NewEngine(cfg,
		session.New(frame.Left, pair.Port(frame.Left), l),
		session.New(frame.Right, pair.Port(frame.Right), l),
	)
	if err != nil {
		return nil, err
	}
	engine.logger = l

	return &Runner{
		cfg:     cfg,
		engine:  engine,
		logger:  l,
		runID:   runID,
		metrics: newRunMetrics(),
		now:     time.Now,
	}, nil
}

// RunID returns the unique identifier of the run.
func (r *Runner) RunID() string { return r.runID }

// Metrics returns the live counters of the run.
func (r *Runner) Metrics() *RunMetrics { return r.metrics }

// Results returns a copy of the result log.
func (r *Runner) Results() []CycleResult {
	return slices.Clone(r.results)
}

// Summary derives the run summary from the result log.
func (r *Runner) Summary() RunSummary {
	s := Summarize(r.results)
	s.RunID = r.runID

	return s
}

// Run executes all cycles.
//
// A cycle that panics is recorded as failed and the run continues. When ctx is
// cancelled the run stops at once; the cycle in progress is dropped, the partial
// log is still reported, and ctx.Err() is returned with the interrupted summary.
func (r *Runner) Run(ctx context.Context) (RunSummary, error) {
	total := r.cfg.totalCycles
	r.logger.Info("aging test started",
		"cycles", total,
		"agingPerCycle", r.cfg.agingPerCycle,
		"agingDuration", r.cfg.agingDuration.String(),
		"estimated", fmt.Sprintf("%.2fh", r.cfg.EstimatedDuration().Hours()),
	)

	var runErr error
	for i := 1; i <= total; i++ {
		res, err := r.runCycle(ctx, i)
		if err != nil {
			runErr = err
			r.logger.Warn("aging test interrupted", "cycle", i, "error", err)

			break
		}
		r.record(res)

		if i < total {
			r.logger.Info("waiting before next cycle", "wait", r.cfg.interCycleWait.String())
			if err := pool.Sleep(ctx, r.cfg.interCycleWait); err != nil {
				runErr = err
				r.logger.Warn("aging test interrupted", "cycle", i, "error", err)

				break
			}
		}
	}

	summary := r.Summary()
	summary.Interrupted = runErr != nil
	r.logger.Info("aging test finished",
		"total", summary.Total,
		"succeeded", summary.Succeeded,
		"failed", summary.Failed,
		"successRate", fmt.Sprintf("%.2f%%", summary.SuccessRate()),
		"interrupted", summary.Interrupted,
	)

	if r.cfg.reporter != nil {
		if err := r.cfg.reporter.Report(summary, r.Results()); err != nil {
			r.logger.Error("failed to save report", "error", err)
		}
	}

	return summary, runErr
}

// runCycle runs one cycle, converting a panic into a failed result.
func (r *Runner) runCycle(ctx context.Context, index int) (res CycleResult, err error) {
	defer func() {
		if p := recover(); p != nil {
			r.metrics.PanicCount.Add(1)
			r.logger.Error("cycle aborted", "cycle", index, "panic", p, "stack", string(debug.Stack()))

			msg := fmt.Sprint(p)
			res = CycleResult{
				Index:     index,
				Left:      frame.Failed(frame.ReasonCycleException, msg, nil),
				Right:     frame.Failed(frame.ReasonCycleException, msg, nil),
				State:     StateCycleFailed,
				Timestamp: r.now(),
			}
			err = nil
		}
	}()

	res, err = r.engine.RunCycle(ctx, index)
	if err != nil && !isCancel(err) {
		// State machine faults are not cancellations; score the cycle as failed.
		r.logger.Error("cycle aborted", "cycle", index, "error", err)
		res = CycleResult{
			Index:     index,
			Left:      frame.Failed(frame.ReasonCycleException, err.Error(), nil),
			Right:     frame.Failed(frame.ReasonCycleException, err.Error(), nil),
			State:     StateCycleFailed,
			Timestamp: r.now(),
		}
		err = nil
	}

	return res, err
}

func (r *Runner) record(res CycleResult) {
	r.results = append(r.results, res)
	r.metrics.record(res)

	if r.cfg.observer != nil {
		r.cfg.observer(res)
	}
}

// RunWithPorts opens both endpoints, waits for them to settle, runs the test and
// closes both ports exactly once on every exit path.
//
// The command table is validated before any port is opened.
func RunWithPorts(ctx context.Context, cfg *Config, op transport.Opener, left, right transport.Endpoint) (RunSummary, error) {
	if err := cfg.commands.Validate(); err != nil {
		return RunSummary{}, err
	}

	pair, err := transport.OpenPair(op, left, right, cfg.logger)
	if err != nil {
		return RunSummary{}, err
	}
	defer func() {
		if err := pair.Close(); err != nil {
			cfg.logger.Error("failed to close ports", "error", err)
		}
	}()

	if cfg.portSettle > 0 {
		cfg.logger.Info("waiting for ports to settle", "wait", cfg.portSettle.String())
		if err := pool.Sleep(ctx, cfg.portSettle); err != nil {
			return RunSummary{Interrupted: true}, err
		}
	}

	runner, err := NewRunner(cfg, pair)
	if err != nil {
		return RunSummary{}, err
	}

	return runner.Run(ctx)
}

package aging

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/arloliu/go-aging/frame"
	"github.com/arloliu/go-aging/logger"
	"github.com/arloliu/go-aging/session"
	"github.com/arloliu/go-aging/transport"
	"github.com/arloliu/go-aging/transport/transporttest"
)

func quietLogger() logger.Logger {
	return logger.NewSlogWithOptions(logger.Options{Output: io.Discard})
}

// newTestConfig creates a Config with a complete command table and waits short
// enough for unit tests. opts are applied after the defaults.
func newTestConfig(t *testing.T, opts ...Option) *Config {
	t.Helper()

	defaults := []Option{
		WithCommands(transporttest.FullCommands()),
		WithTotalCycles(1),
		WithAgingPerCycle(1),
		WithAgingDuration(10 * time.Millisecond),
		WithInterCycleWait(time.Millisecond),
		WithResponseWait(time.Millisecond),
		WithProgressInterval(5 * time.Millisecond),
		WithPortSettle(0),
		WithLogger(quietLogger()),
	}

	cfg, err := NewConfig(append(defaults, opts...)...)
	if err != nil {
		t.Fatalf("newTestConfig: %v", err)
	}

	return cfg
}

func newTestEngine(t *testing.T, cfg *Config, left, right transport.Port) *Engine {
	t.Helper()

	e, err := NewEngine(cfg,
		session.New(frame.Left, left, cfg.logger),
		session.New(frame.Right, right, cfg.logger),
	)
	if err != nil {
		t.Fatalf("newTestEngine: %v", err)
	}

	return e
}

// stubEngine replays scripted cycle functions.
type stubEngine struct {
	calls int
	fn    func(ctx context.Context, index int) (CycleResult, error)
}

func (s *stubEngine) RunCycle(ctx context.Context, index int) (CycleResult, error) {
	s.calls++
	return s.fn(ctx, index)
}

func newTestRunner(cfg *Config, engine cycleRunner) *Runner {
	return &Runner{
		cfg:     cfg,
		engine:  engine,
		logger:  cfg.logger,
		runID:   "test-run",
		metrics: newRunMetrics(),
		now:     time.Now,
	}
}

func okResult(index int) CycleResult {
	return CycleResult{
		Index:   index,
		Success: true,
		Left:    frame.Parsed(5, 5, nil),
		Right:   frame.Parsed(5, 4, nil),
		State:   StateDone,
	}
}

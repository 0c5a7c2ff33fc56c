package aging

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/arloliu/go-aging/frame"
	"github.com/arloliu/go-aging/logger"
)

// Default test parameters of the fixture burn-in procedure.
const (
	DefaultTotalCycles      = 203
	DefaultAgingPerCycle    = 5
	DefaultAgingDuration    = 426 * time.Second // one device side aging pass
	DefaultInterCycleWait   = 5 * time.Second
	DefaultResponseWait     = time.Second
	DefaultProgressInterval = 60 * time.Second
	DefaultPortSettle       = 2 * time.Second
)

// Config holds the static configuration of a run, consumed at run start.
type Config struct {
	totalCycles      int
	agingPerCycle    int
	agingDuration    time.Duration
	interCycleWait   time.Duration
	responseWait     time.Duration
	progressInterval time.Duration
	portSettle       time.Duration

	commands *frame.CommandTable
	reporter Reporter
	observer func(CycleResult)

	logger logger.Logger
}

// NewConfig creates a run configuration with the default parameters.
//
// The default command table lacks the fetch-result commands; supply them with
// WithCommands, otherwise NewRunner fails with a *frame.ConfigurationError.
func NewConfig(opts ...Option) (*Config, error) {
	cfg := &Config{
		totalCycles:      DefaultTotalCycles,
		agingPerCycle:    DefaultAgingPerCycle,
		agingDuration:    DefaultAgingDuration,
		interCycleWait:   DefaultInterCycleWait,
		responseWait:     DefaultResponseWait,
		progressInterval: DefaultProgressInterval,
		portSettle:       DefaultPortSettle,
		commands:         frame.DefaultCommands(),
		logger:           logger.GetLogger(),
	}

	for _, opt := range opts {
		if err := opt.apply(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.agingDuration > math.MaxInt64/time.Duration(cfg.agingPerCycle) {
		return nil, fmt.Errorf("aging: aging wait %v x %d overflows", cfg.agingDuration, cfg.agingPerCycle)
	}

	return cfg, nil
}

// --- Getters ---

// TotalCycles returns the number of cycles of a run.
func (cfg *Config) TotalCycles() int { return cfg.totalCycles }

// AgingPerCycle returns how many device side aging passes one cycle covers.
func (cfg *Config) AgingPerCycle() int { return cfg.agingPerCycle }

// AgingDuration returns the duration of one device side aging pass.
func (cfg *Config) AgingDuration() time.Duration { return cfg.agingDuration }

// AgingWait returns the unattended wait of one cycle: AgingDuration × AgingPerCycle.
func (cfg *Config) AgingWait() time.Duration {
	return cfg.agingDuration * time.Duration(cfg.agingPerCycle)
}

// InterCycleWait returns the pause between two cycles.
func (cfg *Config) InterCycleWait() time.Duration { return cfg.interCycleWait }

// ResponseWait returns the fixed wait between a command and reading its response.
func (cfg *Config) ResponseWait() time.Duration { return cfg.responseWait }

// ProgressInterval returns how often the remaining aging time is logged.
func (cfg *Config) ProgressInterval() time.Duration { return cfg.progressInterval }

// PortSettle returns the wait between opening the ports and the first command.
func (cfg *Config) PortSettle() time.Duration { return cfg.portSettle }

// Commands returns the command table.
func (cfg *Config) Commands() *frame.CommandTable { return cfg.commands }

// EstimatedDuration returns the expected duration of a run where every cycle
// reaches the aging wait, ignoring response waits.
func (cfg *Config) EstimatedDuration() time.Duration {
	return time.Duration(cfg.totalCycles) * (cfg.AgingWait() + cfg.interCycleWait)
}

// GetLogger returns the configured logger.
func (cfg *Config) GetLogger() logger.Logger { return cfg.logger }

// --- Option ---

// Option is a functional option for configuring a Config.
type Option interface {
	apply(*Config) error
}

type optFunc func(*Config) error

func (f optFunc) apply(cfg *Config) error { return f(cfg) }

// WithTotalCycles sets the number of cycles. Must be >= 1.
func WithTotalCycles(n int) Option {
	return optFunc(func(cfg *Config) error {
		if n < 1 {
			return fmt.Errorf("aging: total cycles %d must be >= 1", n)
		}
		cfg.totalCycles = n

		return nil
	})
}

// WithAgingPerCycle sets the number of aging passes per cycle. Must be >= 1.
func WithAgingPerCycle(n int) Option {
	return optFunc(func(cfg *Config) error {
		if n < 1 {
			return fmt.Errorf("aging: aging per cycle %d must be >= 1", n)
		}
		cfg.agingPerCycle = n

		return nil
	})
}

// WithAgingDuration sets the duration of one aging pass. Must not be negative.
func WithAgingDuration(d time.Duration) Option {
	return optFunc(func(cfg *Config) error {
		if d < 0 {
			return fmt.Errorf("aging: aging duration %v must not be negative", d)
		}
		cfg.agingDuration = d

		return nil
	})
}

// WithInterCycleWait sets the pause between cycles. Must not be negative.
func WithInterCycleWait(d time.Duration) Option {
	return optFunc(func(cfg *Config) error {
		if d < 0 {
			return fmt.Errorf("aging: inter-cycle wait %v must not be negative", d)
		}
		cfg.interCycleWait = d

		return nil
	})
}

// WithResponseWait sets the wait between sending a command and reading the response.
func WithResponseWait(d time.Duration) Option {
	return optFunc(func(cfg *Config) error {
		if d < 0 {
			return fmt.Errorf("aging: response wait %v must not be negative", d)
		}
		cfg.responseWait = d

		return nil
	})
}

// WithProgressInterval sets how often the remaining aging time is logged.
func WithProgressInterval(d time.Duration) Option {
	return optFunc(func(cfg *Config) error {
		if d <= 0 {
			return errors.New("aging: progress interval must be positive")
		}
		cfg.progressInterval = d

		return nil
	})
}

// WithPortSettle sets the wait between opening the ports and the first command.
// Must not be negative.
func WithPortSettle(d time.Duration) Option {
	return optFunc(func(cfg *Config) error {
		if d < 0 {
			return fmt.Errorf("aging: port settle %v must not be negative", d)
		}
		cfg.portSettle = d

		return nil
	})
}

// WithCommands sets the command table. Completeness is checked by NewRunner.
func WithCommands(t *frame.CommandTable) Option {
	return optFunc(func(cfg *Config) error {
		if t == nil {
			return errors.New("aging: command table must not be nil")
		}
		cfg.commands = t

		return nil
	})
}

// WithReporter sets the reporter receiving the result log at run end.
func WithReporter(r Reporter) Option {
	return optFunc(func(cfg *Config) error {
		cfg.reporter = r
		return nil
	})
}

// WithCycleObserver registers fn to be called with every recorded cycle result.
func WithCycleObserver(fn func(CycleResult)) Option {
	return optFunc(func(cfg *Config) error {
		cfg.observer = fn
		return nil
	})
}

// WithLogger sets the logger of the run.
func WithLogger(l logger.Logger) Option {
	return optFunc(func(cfg *Config) error {
		if l == nil {
			return errors.New("aging: logger must not be nil")
		}
		cfg.logger = l

		return nil
	})
}

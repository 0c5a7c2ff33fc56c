// Package config loads the YAML configuration of an aging run and converts it into
// run options, a command table and serial endpoints.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/arloliu/go-aging/aging"
	"github.com/arloliu/go-aging/frame"
	"github.com/arloliu/go-aging/logger"
	"github.com/arloliu/go-aging/transport"
)

// ErrInvalidConfig wraps every schema and semantic validation failure.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// File is the on-disk configuration. Durations are in seconds.
type File struct {
	Serial   Serial   `yaml:"serial"`
	Test     Test     `yaml:"test"`
	Commands Commands `yaml:"commands"`
	Output   Output   `yaml:"output"`
	Log      Log      `yaml:"log"`
}

type Serial struct {
	LeftPort  string  `yaml:"left_port"`
	RightPort string  `yaml:"right_port"`
	BaudRate  int     `yaml:"baud_rate"`
	Timeout   float64 `yaml:"timeout"`

	// SettleTime is the wait between opening the ports and the first command.
	SettleTime float64 `yaml:"settle_time"`
}

type Test struct {
	TotalCycles      int     `yaml:"total_cycles"`
	AgingPerCycle    int     `yaml:"aging_per_cycle"`
	AgingDuration    float64 `yaml:"aging_duration"`
	WaitTime         float64 `yaml:"wait_time"`
	ResponseWait     float64 `yaml:"response_wait"`
	ProgressInterval float64 `yaml:"progress_interval"`
}

// SidePair holds one hex command per channel. An empty string means unknown.
type SidePair struct {
	Left  string `yaml:"left"`
	Right string `yaml:"right"`
}

type Commands struct {
	EnterTest   SidePair `yaml:"enter_test"`
	FetchResult SidePair `yaml:"fetch_result"`
}

type Output struct {
	ReportDir string `yaml:"report_dir"`
	LogDir    string `yaml:"log_dir"`
	DeviceID  string `yaml:"device_id"`
}

type Log struct {
	Level   string `yaml:"level"`
	Console bool   `yaml:"console"`
}

// Default returns the configuration used for values absent from a file.
// The fetch-result commands are unknown and left empty.
func Default() *File {
	return &File{
		Serial: Serial{
			LeftPort:   "COM26",
			RightPort:  "COM28",
			BaudRate:   9600,
			Timeout:    5,
			SettleTime: aging.DefaultPortSettle.Seconds(),
		},
		Test: Test{
			TotalCycles:      aging.DefaultTotalCycles,
			AgingPerCycle:    aging.DefaultAgingPerCycle,
			AgingDuration:    aging.DefaultAgingDuration.Seconds(),
			WaitTime:         aging.DefaultInterCycleWait.Seconds(),
			ResponseWait:     aging.DefaultResponseWait.Seconds(),
			ProgressInterval: aging.DefaultProgressInterval.Seconds(),
		},
		Commands: Commands{
			EnterTest: SidePair{
				Left:  frame.NewCommand(frame.OpEnterTest, frame.Left).String(),
				Right: frame.NewCommand(frame.OpEnterTest, frame.Right).String(),
			},
		},
		Output: Output{
			ReportDir: ".",
			LogDir:    "aging_test_logs",
			DeviceID:  "Device1",
		},
		Log: Log{Level: "info"},
	}
}

// Load reads and parses the configuration file at path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return Parse(data)
}

// Parse validates data against the schema and decodes it over the defaults.
func Parse(data []byte) (*File, error) {
	if err := ValidateSchema(data); err != nil {
		return nil, err
	}

	f := Default()
	if err := yaml.Unmarshal(data, f); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}

	return f, nil
}

// Validate checks the semantic constraints the schema cannot express.
//
// An incomplete command table is not an error here; it is reported by
// CommandTable().Validate() so that the caller can fail with a
// *frame.ConfigurationError.
func (f *File) Validate() error {
	var errs []error

	if f.Serial.LeftPort == "" || f.Serial.RightPort == "" {
		errs = append(errs, errors.New("both serial ports are required"))
	}
	if f.Serial.LeftPort != "" && f.Serial.LeftPort == f.Serial.RightPort {
		errs = append(errs, fmt.Errorf("left and right port are both %q", f.Serial.LeftPort))
	}
	if f.Serial.BaudRate <= 0 {
		errs = append(errs, fmt.Errorf("baud rate %d must be positive", f.Serial.BaudRate))
	}
	if f.Test.TotalCycles < 1 {
		errs = append(errs, fmt.Errorf("total cycles %d must be >= 1", f.Test.TotalCycles))
	}
	if f.Test.AgingPerCycle < 1 {
		errs = append(errs, fmt.Errorf("aging per cycle %d must be >= 1", f.Test.AgingPerCycle))
	}
	errs = append(errs, f.validateDurations()...)
	if _, err := logger.ParseLevel(f.Log.Level); err != nil {
		errs = append(errs, err)
	}
	if _, err := f.parseCommands(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}

	return nil
}

// maxSeconds is the longest wait a time.Duration can hold.
var maxSeconds = time.Duration(math.MaxInt64).Seconds()

func (f *File) validateDurations() []error {
	var errs []error

	for _, d := range []struct {
		key string
		val float64
	}{
		{"serial.timeout", f.Serial.Timeout},
		{"serial.settle_time", f.Serial.SettleTime},
		{"test.aging_duration", f.Test.AgingDuration},
		{"test.wait_time", f.Test.WaitTime},
		{"test.response_wait", f.Test.ResponseWait},
		{"test.progress_interval", f.Test.ProgressInterval},
	} {
		if d.val < 0 || d.val >= maxSeconds {
			errs = append(errs, fmt.Errorf("%s %g s is out of range", d.key, d.val))
		}
	}

	// the aging wait of one cycle is aging_duration x aging_per_cycle
	if f.Test.AgingPerCycle > 0 && f.Test.AgingDuration*float64(f.Test.AgingPerCycle) >= maxSeconds {
		errs = append(errs, fmt.Errorf("aging wait %g s x %d is out of range",
			f.Test.AgingDuration, f.Test.AgingPerCycle))
	}

	return errs
}

// CommandTable builds the command table. Empty entries are left out.
func (f *File) CommandTable() (*frame.CommandTable, error) {
	entries, err := f.parseCommands()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	return frame.NewCommandTable(entries), nil
}

func (f *File) parseCommands() (map[frame.CommandKey]frame.Command, error) {
	hexes := map[frame.CommandKey]string{
		{Side: frame.Left, Intent: frame.EnterTest}:    f.Commands.EnterTest.Left,
		{Side: frame.Right, Intent: frame.EnterTest}:   f.Commands.EnterTest.Right,
		{Side: frame.Left, Intent: frame.FetchResult}:  f.Commands.FetchResult.Left,
		{Side: frame.Right, Intent: frame.FetchResult}: f.Commands.FetchResult.Right,
	}

	entries := make(map[frame.CommandKey]frame.Command, len(hexes))
	var errs []error
	for key, s := range hexes {
		if s == "" {
			continue
		}
		cmd, err := frame.ParseCommand(s)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			continue
		}
		entries[key] = cmd
	}

	return entries, errors.Join(errs...)
}

// Endpoints returns the left and right serial endpoints.
func (f *File) Endpoints() (left, right transport.Endpoint) {
	timeout := seconds(f.Serial.Timeout)

	return transport.Endpoint{Name: f.Serial.LeftPort, BaudRate: f.Serial.BaudRate, Timeout: timeout},
		transport.Endpoint{Name: f.Serial.RightPort, BaudRate: f.Serial.BaudRate, Timeout: timeout}
}

// AgingOptions converts the test section and command table into run options.
func (f *File) AgingOptions() ([]aging.Option, error) {
	table, err := f.CommandTable()
	if err != nil {
		return nil, err
	}

	return []aging.Option{
		aging.WithTotalCycles(f.Test.TotalCycles),
		aging.WithAgingPerCycle(f.Test.AgingPerCycle),
		aging.WithAgingDuration(seconds(f.Test.AgingDuration)),
		aging.WithInterCycleWait(seconds(f.Test.WaitTime)),
		aging.WithResponseWait(seconds(f.Test.ResponseWait)),
		aging.WithProgressInterval(seconds(f.Test.ProgressInterval)),
		aging.WithPortSettle(seconds(f.Serial.SettleTime)),
		aging.WithCommands(table),
	}, nil
}

// LogLevel returns the parsed log level.
func (f *File) LogLevel() logger.Level {
	l, err := logger.ParseLevel(f.Log.Level)
	if err != nil {
		return logger.InfoLevel
	}

	return l
}

// LogFilePath returns the per-run log file path for a run started at t.
func (f *File) LogFilePath(t time.Time) string {
	return filepath.Join(f.Output.LogDir,
		fmt.Sprintf("aging_test_%s_%s.log", f.Output.DeviceID, t.Format("20060102_150405")))
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{in: "debug", want: DebugLevel},
		{in: "INFO", want: InfoLevel},
		{in: "", want: InfoLevel},
		{in: "warning", want: WarnLevel},
		{in: " error ", want: ErrorLevel},
		{in: "loud", want: InfoLevel, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			lv, err := ParseLevel(tt.in)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, lv)
		})
	}
}

func TestSlogLogger_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	l := NewSlogWithOptions(Options{Level: InfoLevel, Output: &buf})

	l.With("side", "left").Info("frame received", "bytes", 11)
	l.Debug("suppressed")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &rec))
	assert.Equal(t, "frame received", rec["msg"])
	assert.Equal(t, "left", rec["side"])
	assert.InDelta(t, 11, rec["bytes"], 0)
	assert.Contains(t, rec, "ts")
}

func TestSlogLogger_SetLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewSlogWithOptions(Options{Level: ErrorLevel, Output: &buf})
	assert.Equal(t, ErrorLevel, l.Level())

	l.Info("hidden")
	assert.Zero(t, buf.Len())

	l.SetLevel(DebugLevel)
	assert.Equal(t, DebugLevel, l.Level())
	l.Debug("visible")
	assert.Contains(t, buf.String(), "visible")
}

func TestSlogLogger_ChildSharesLevel(t *testing.T) {
	var buf bytes.Buffer
	parent := NewSlogWithOptions(Options{Level: InfoLevel, Output: &buf})
	child := parent.With("cycle", 1)

	parent.SetLevel(WarnLevel)
	child.Info("hidden")
	assert.Zero(t, buf.Len())

	child.Warn("shown")
	assert.Contains(t, buf.String(), `"cycle":1`)
}

func TestSlogLogger_Console(t *testing.T) {
	var buf bytes.Buffer
	l := NewSlogWithOptions(Options{Level: InfoLevel, Console: true, Output: &buf})

	l.Info("aging started", "cycles", 3)
	assert.Contains(t, buf.String(), "aging started")
	assert.Contains(t, buf.String(), "cycles")
}

func TestSetDefault(t *testing.T) {
	orig := GetLogger()
	t.Cleanup(func() { SetDefault(orig) })

	var buf bytes.Buffer
	l := NewSlogWithOptions(Options{Output: &buf})
	SetDefault(l)
	assert.Same(t, l, GetLogger())

	SetDefault(nil)
	assert.Same(t, l, GetLogger(), "nil is ignored")

	GetLogger().Info("via default")
	assert.Contains(t, buf.String(), "via default")
}

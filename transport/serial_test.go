package transport

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial"
)

// fakeRaw is an in-memory rawPort returning queued chunks, then zero-byte reads.
type fakeRaw struct {
	chunks      [][]byte
	written     []byte
	maxWrite    int
	readErr     error
	resets      int
	closes      int
	readTimeout time.Duration
}

func (f *fakeRaw) Read(p []byte) (int, error) {
	if f.readErr != nil {
		return 0, f.readErr
	}
	if len(f.chunks) == 0 {
		return 0, nil
	}
	n := copy(p, f.chunks[0])
	if n < len(f.chunks[0]) {
		f.chunks[0] = f.chunks[0][n:]
	} else {
		f.chunks = f.chunks[1:]
	}

	return n, nil
}

func (f *fakeRaw) Write(p []byte) (int, error) {
	n := len(p)
	if f.maxWrite > 0 && n > f.maxWrite {
		n = f.maxWrite
	}
	f.written = append(f.written, p[:n]...)

	return n, nil
}

func (f *fakeRaw) ResetInputBuffer() error {
	f.resets++
	f.chunks = nil

	return nil
}

func (f *fakeRaw) SetReadTimeout(t time.Duration) error {
	f.readTimeout = t
	return nil
}

func (f *fakeRaw) Close() error {
	f.closes++
	return nil
}

func openFake(t *testing.T, raw *fakeRaw) *SerialPort {
	t.Helper()

	var gotMode *serial.Mode
	op := &SerialOpener{open: func(name string, mode *serial.Mode) (rawPort, error) {
		gotMode = mode
		return raw, nil
	}}

	port, err := op.Open("COM26", 9600, time.Second)
	require.NoError(t, err)
	require.NotNil(t, gotMode)
	assert.Equal(t, 9600, gotMode.BaudRate)
	assert.Equal(t, 8, gotMode.DataBits)
	assert.Equal(t, DefaultPollTimeout, raw.readTimeout)

	sp, ok := port.(*SerialPort)
	require.True(t, ok)
	assert.Equal(t, "COM26", sp.Name())

	return sp
}

func TestSerialPort_ReadAvailableDrainsChunks(t *testing.T) {
	raw := &fakeRaw{chunks: [][]byte{{0x55, 0xBB}, {0xFF, 0x03, 0x09}, {0x01, 0x00}}}
	p := openFake(t, raw)

	got, err := p.ReadAvailable()
	require.NoError(t, err)
	assert.Equal(t, []byte{0x55, 0xBB, 0xFF, 0x03, 0x09, 0x01, 0x00}, got)

	got, err = p.ReadAvailable()
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSerialPort_ReadAvailableBounded(t *testing.T) {
	big := make([]byte, readChunkSize)
	raw := &fakeRaw{}
	for i := 0; i < 2*maxDrainSize/readChunkSize; i++ {
		raw.chunks = append(raw.chunks, big)
	}
	p := openFake(t, raw)

	got, err := p.ReadAvailable()
	require.NoError(t, err)
	assert.Len(t, got, maxDrainSize)
}

func TestSerialPort_WriteLoopsOnShortWrites(t *testing.T) {
	raw := &fakeRaw{maxWrite: 4}
	p := openFake(t, raw)

	n, err := p.Write([]byte{0x55, 0xAA, 0xFF, 0x02, 0x09, 0x01})
	require.NoError(t, err)
	assert.Equal(t, 6, n)
	assert.Equal(t, []byte{0x55, 0xAA, 0xFF, 0x02, 0x09, 0x01}, raw.written)
}

func TestSerialPort_ReadError(t *testing.T) {
	raw := &fakeRaw{readErr: errors.New("device unplugged")}
	p := openFake(t, raw)

	_, err := p.ReadAvailable()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "COM26")
	assert.Contains(t, err.Error(), "device unplugged")
}

func TestSerialPort_CloseOnce(t *testing.T) {
	raw := &fakeRaw{}
	p := openFake(t, raw)

	require.NoError(t, p.ResetInputBuffer())
	assert.Equal(t, 1, raw.resets)

	require.NoError(t, p.Close())
	require.NoError(t, p.Close())
	assert.Equal(t, 1, raw.closes)

	_, err := p.Write([]byte{1})
	require.ErrorIs(t, err, ErrPortClosed)
	_, err = p.ReadAvailable()
	require.ErrorIs(t, err, ErrPortClosed)
	require.ErrorIs(t, p.ResetInputBuffer(), ErrPortClosed)
}

func TestSerialOpener_OpenError(t *testing.T) {
	op := &SerialOpener{open: func(string, *serial.Mode) (rawPort, error) {
		return nil, errors.New("no such device")
	}}

	_, err := op.Open("COM99", 9600, time.Second)
	require.Error(t, err)
}

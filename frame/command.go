package frame

import (
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// CommandSize is the size of every command on the wire.
const CommandSize = 6

// Command header bytes: 55 AA FF followed by the payload length byte 02.
var commandHeader = [4]byte{0x55, 0xAA, 0xFF, 0x02}

// Opcodes documented for the fixture firmware.
const (
	// OpEnterTest puts the addressed channel into aging test mode.
	OpEnterTest byte = 0x09
	// OpFetchResult requests the counters of the last aging session.
	//
	// The device notes list this opcode only as a disabled entry, so it is not part
	// of DefaultCommands. Enable it through configuration once confirmed.
	OpFetchResult byte = 0x41
)

// Side identifies one of the two device facing channels.
type Side uint8

const (
	Left Side = iota
	Right
)

// Sides lists both channels in the fixed issue order.
var Sides = [2]Side{Left, Right}

func (s Side) String() string {
	switch s {
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return fmt.Sprintf("side(%d)", uint8(s))
	}
}

// Selector returns the channel selector byte carried in the last command byte.
func (s Side) Selector() byte {
	if s == Left {
		return 0x01
	}

	return 0x00
}

// Intent is the purpose of a command.
type Intent uint8

const (
	EnterTest Intent = iota
	FetchResult
)

// Intents lists every intent a complete CommandTable must map.
var Intents = [2]Intent{EnterTest, FetchResult}

func (i Intent) String() string {
	switch i {
	case EnterTest:
		return "enter-test"
	case FetchResult:
		return "fetch-result"
	default:
		return fmt.Sprintf("intent(%d)", uint8(i))
	}
}

// Command is an immutable six byte command.
type Command [CommandSize]byte

// NewCommand builds the command for opcode addressed to side.
func NewCommand(op byte, side Side) Command {
	var c Command
	copy(c[:], commandHeader[:])
	c[4] = op
	c[5] = side.Selector()

	return c
}

// ParseCommand parses a hex string such as "55 AA FF 02 09 01".
// Spaces, colons and dashes between bytes are ignored.
func ParseCommand(s string) (Command, error) {
	var c Command

	clean := strings.NewReplacer(" ", "", ":", "", "-", "").Replace(strings.TrimSpace(s))
	raw, err := hex.DecodeString(clean)
	if err != nil {
		return c, fmt.Errorf("frame: invalid command %q: %w", s, err)
	}
	if len(raw) != CommandSize {
		return c, fmt.Errorf("frame: invalid command %q: got %d bytes, want %d", s, len(raw), CommandSize)
	}
	copy(c[:], raw)

	return c, nil
}

// Bytes returns a copy of the command bytes, ready to be written to a transport.
func (c Command) Bytes() []byte {
	out := make([]byte, CommandSize)
	copy(out, c[:])

	return out
}

// String returns the command as upper-case spaced hex.
func (c Command) String() string {
	return Hex(c[:])
}

// CommandKey addresses one entry of a CommandTable.
type CommandKey struct {
	Side   Side
	Intent Intent
}

func (k CommandKey) String() string {
	return k.Side.String() + "/" + k.Intent.String()
}

// CommandTable maps (side, intent) pairs to commands. It is immutable once built.
type CommandTable struct {
	cmds map[CommandKey]Command
}

// NewCommandTable creates a table from entries. The entries map is copied.
func NewCommandTable(entries map[CommandKey]Command) *CommandTable {
	t := &CommandTable{cmds: make(map[CommandKey]Command, len(entries))}
	for k, v := range entries {
		t.cmds[k] = v
	}

	return t
}

// DefaultCommands returns the table documented for the fixture firmware.
//
// Only the enter-test commands are known; the fetch-result entries are absent,
// so the table fails Validate until they are supplied.
func DefaultCommands() *CommandTable {
	return NewCommandTable(map[CommandKey]Command{
		{Left, EnterTest}:  NewCommand(OpEnterTest, Left),
		{Right, EnterTest}: NewCommand(OpEnterTest, Right),
	})
}

// Lookup returns the command for side and intent.
func (t *CommandTable) Lookup(side Side, intent Intent) (Command, bool) {
	if t == nil {
		return Command{}, false
	}
	c, ok := t.cmds[CommandKey{Side: side, Intent: intent}]

	return c, ok
}

// Encode returns the command bytes for side and intent.
//
// On a validated table Encode never fails.
func (t *CommandTable) Encode(side Side, intent Intent) ([]byte, error) {
	c, ok := t.Lookup(side, intent)
	if !ok {
		return nil, &ConfigurationError{Missing: []CommandKey{{Side: side, Intent: intent}}}
	}

	return c.Bytes(), nil
}

// With returns a copy of the table with key mapped to cmd.
func (t *CommandTable) With(side Side, intent Intent, cmd Command) *CommandTable {
	var entries map[CommandKey]Command
	if t != nil {
		entries = t.cmds
	}
	nt := NewCommandTable(entries)
	nt.cmds[CommandKey{Side: side, Intent: intent}] = cmd

	return nt
}

// Validate reports every (side, intent) pair without a command as a *ConfigurationError.
func (t *CommandTable) Validate() error {
	var missing []CommandKey
	for _, side := range Sides {
		for _, intent := range Intents {
			if _, ok := t.Lookup(side, intent); !ok {
				missing = append(missing, CommandKey{Side: side, Intent: intent})
			}
		}
	}
	if len(missing) == 0 {
		return nil
	}

	return &ConfigurationError{Missing: missing}
}

// ConfigurationError lists command mappings a run cannot start without.
type ConfigurationError struct {
	Missing []CommandKey
}

func (e *ConfigurationError) Error() string {
	names := make([]string, 0, len(e.Missing))
	for _, k := range e.Missing {
		names = append(names, k.String())
	}
	sort.Strings(names)

	return "frame: no command configured for " + strings.Join(names, ", ")
}

// Is makes errors.Is(err, ErrMissingCommand) match a ConfigurationError.
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrMissingCommand
}

package frame

import "errors"

var (
	// ErrNoFrame indicates that the response header 55 BB FF does not occur in the buffer.
	ErrNoFrame = errors.New("frame: no frame header found")

	// ErrMalformedFrame indicates that the header is present but no recognized
	// frame shape follows it and the buffer is too short for a best-effort slice.
	ErrMalformedFrame = errors.New("frame: malformed frame")

	// ErrDecode indicates a failure while interpreting the payload of a frame.
	ErrDecode = errors.New("frame: decode error")

	// ErrMissingCommand indicates that no command is configured for a (side, intent) pair.
	ErrMissingCommand = errors.New("frame: missing command mapping")
)

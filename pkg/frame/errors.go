package frame

import (
	"errors"
	"fmt"
)

var (
	// ErrOverflow indicates an append past the payload capacity.
	ErrOverflow = errors.New("frame: payload overflow")
	// ErrBusy indicates the framer is still transmitting the previous frame.
	ErrBusy = errors.New("frame: framer busy")
	// ErrEmptyPayload indicates a payload without bytes where at least one is required.
	ErrEmptyPayload = errors.New("frame: empty payload")
	// ErrPayloadTooLarge indicates a payload can't be encoded in one frame.
	ErrPayloadTooLarge = errors.New("frame: payload too large")
	// ErrFraming indicates the end marker didn't match.
	ErrFraming = errors.New("frame: framing error")
	// ErrChecksum indicates the received checksum didn't match the payload.
	ErrChecksum = errors.New("frame: checksum mismatch")
	// ErrLength indicates a declared length above the deframer capacity.
	ErrLength = errors.New("frame: length exceeds capacity")
	// ErrTimeout indicates the byte source went quiet in the middle of a frame.
	ErrTimeout = errors.New("frame: timeout in frame")
)

// FramingError reports the byte found in place of the end marker.
type FramingError struct {
	Got byte
}

// Error implements error.
func (e *FramingError) Error() string {
	return fmt.Sprintf("%v: got 0x%02x, want 0x%02x", ErrFraming, e.Got, EndMarker)
}

// Unwrap returns ErrFraming.
func (e *FramingError) Unwrap() error { return ErrFraming }

// ChecksumError reports a checksum mismatch.
type ChecksumError struct {
	Computed byte
	Received byte
}

// Error implements error.
func (e *ChecksumError) Error() string {
	return fmt.Sprintf("%v: computed 0x%02x, received 0x%02x", ErrChecksum, e.Computed, e.Received)
}

// Unwrap returns ErrChecksum.
func (e *ChecksumError) Unwrap() error { return ErrChecksum }

// LengthError reports a declared length the deframer can't hold.
type LengthError struct {
	Length byte
	Max    int
}

// Error implements error.
func (e *LengthError) Error() string {
	return fmt.Sprintf("%v: %d > %d", ErrLength, e.Length, e.Max)
}

// Unwrap returns ErrLength.
func (e *LengthError) Unwrap() error { return ErrLength }

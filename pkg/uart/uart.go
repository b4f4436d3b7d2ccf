package uart

import (
	"errors"
	"fmt"
)

// Level is the logical level of a line.
type Level bool

// Line levels.
const (
	Low  Level = false
	High Level = true
)

// String implements fmt.Stringer.
func (l Level) String() string {
	if l {
		return "1"
	}
	return "0"
}

// BitsPerChar is the number of bit periods of one character on the line.
const BitsPerChar = 10

var (
	// ErrBitPeriod indicates tick rate and bit rate don't form a valid bit period.
	ErrBitPeriod = errors.New("uart: invalid bit period")
)

// BitPeriod computes the number of ticks per bit.
func BitPeriod(tickRate, bitRate int) (int, error) {
	if tickRate <= 0 || bitRate <= 0 {
		return 0, fmt.Errorf("%w: tick rate %d, bit rate %d", ErrBitPeriod, tickRate, bitRate)
	}
	period := tickRate / bitRate
	if period < 1 {
		return 0, fmt.Errorf("%w: tick rate %d below bit rate %d", ErrBitPeriod, tickRate, bitRate)
	}
	return period, nil
}

// Config defines the timing of a transceiver.
type Config struct {
	TickRate int
	BitRate  int
	// Timeout is the number of ticks the receiver tolerates a line stuck
	// low after a character before reporting it, 0 disables the report.
	Timeout int
}

// Period returns the bit period of the config.
func (c Config) Period() (int, error) {
	return BitPeriod(c.TickRate, c.BitRate)
}

// NewTransmitter creates a Transmitter from the config.
func (c Config) NewTransmitter() (*Transmitter, error) {
	period, err := c.Period()
	if err != nil {
		return nil, err
	}
	return NewTransmitter(period), nil
}

// NewReceiver creates a Receiver from the config.
func (c Config) NewReceiver() (*Receiver, error) {
	period, err := c.Period()
	if err != nil {
		return nil, err
	}
	r := NewReceiver(period)
	r.Timeout = c.Timeout
	return r, nil
}

func mustPeriod(period int) int {
	if period < 1 {
		panic(fmt.Sprintf("uart: bit period %d must be at least 1", period))
	}
	return period
}

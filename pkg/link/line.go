package link

import (
	"strings"

	"github.com/robotalks/seriallink/pkg/uart"
)

// Fault alters the level driven onto a line at a tick.
type Fault interface {
	Apply(tick uint64, level uart.Level) uart.Level
}

// FaultFunc is the func form of Fault.
type FaultFunc func(uint64, uart.Level) uart.Level

// Apply implements Fault.
func (f FaultFunc) Apply(tick uint64, level uart.Level) uart.Level {
	return f(tick, level)
}

// FlipAt inverts the line at the given ticks.
func FlipAt(ticks ...uint64) Fault {
	set := make(map[uint64]bool, len(ticks))
	for _, t := range ticks {
		set[t] = true
	}
	return FaultFunc(func(tick uint64, level uart.Level) uart.Level {
		if set[tick] {
			return !level
		}
		return level
	})
}

// GlitchAt pulls the line low for n ticks starting at tick start.
func GlitchAt(start uint64, n int) Fault {
	return FaultFunc(func(tick uint64, level uart.Level) uart.Level {
		if tick >= start && tick < start+uint64(n) {
			return uart.Low
		}
		return level
	})
}

// HoldLowFrom pulls the line low from tick start on, like a broken wire.
func HoldLowFrom(start uint64) Fault {
	return FaultFunc(func(tick uint64, level uart.Level) uart.Level {
		if tick >= start {
			return uart.Low
		}
		return level
	})
}

// Trace records line levels.
type Trace struct {
	// Max bounds the number of recorded levels, 0 means unbounded.
	Max    int
	Levels []uart.Level
}

// Record appends one level.
func (t *Trace) Record(level uart.Level) {
	if t.Max > 0 && len(t.Levels) >= t.Max {
		return
	}
	t.Levels = append(t.Levels, level)
}

// String renders levels as 0/1 characters.
func (t *Trace) String() string {
	var sb strings.Builder
	sb.Grow(len(t.Levels))
	for _, l := range t.Levels {
		sb.WriteString(l.String())
	}
	return sb.String()
}

// Line is the single-slot wire between a transmitter and a receiver.
type Line struct {
	Faults []Fault
	Trace  *Trace

	level uart.Level
}

// NewLine creates an idle Line.
func NewLine() *Line {
	return &Line{level: uart.High}
}

// Level returns the level last driven.
func (l *Line) Level() uart.Level {
	return l.level
}

// Drive sets the level for a tick and returns what the receiver sees.
func (l *Line) Drive(tick uint64, level uart.Level) uart.Level {
	for _, f := range l.Faults {
		level = f.Apply(tick, level)
	}
	l.level = level
	if l.Trace != nil {
		l.Trace.Record(level)
	}
	return level
}

// BitTicks returns the ticks carrying one bit of the byteIndex-th byte of
// a frame whose start marker goes out at tick start. bit is -1 for the
// start bit, 0 to 7 for data bits and 8 for the stop bit.
func BitTicks(start uint64, period, byteIndex, bit int) []uint64 {
	first := start + uint64(byteIndex*(uart.BitsPerChar*period+1)+(bit+1)*period)
	ticks := make([]uint64, period)
	for n := range ticks {
		ticks[n] = first + uint64(n)
	}
	return ticks
}

package uart

// RxOutput is the output of a Receiver for one tick.
type RxOutput struct {
	// Done pulses for one tick when Data holds a received byte.
	Done bool
	Data byte
	// Timeout pulses when the line stays low past Receiver.Timeout
	// after a character whose stop bit was low.
	Timeout bool
}

type rxState int

const (
	rxIdle     rxState = iota // waiting for a falling edge
	rxStart                   // waiting for the start bit resample
	rxData                    // sampling data bits
	rxStop                    // waiting for the stop bit
	rxWaitIdle                // stop bit was low, waiting for the line to rise
)

type rxRegs struct {
	state rxState
	bit   uint8
	count int
	shift byte
	out   RxOutput
}

// Receiver deserializes one byte at a time from a line.
//
// A falling edge while idle anchors the character. The start bit is
// resampled half a bit period later; if the line is high by then, it
// was a glitch and the receiver returns idle. Each data bit is then
// sampled one full bit period after the previous sample, and the byte
// is delivered one bit period after the last data bit.
type Receiver struct {
	// Timeout in ticks, see RxOutput.Timeout. 0 disables it.
	Timeout int

	period int
	half   int
	regs   rxRegs
}

// NewReceiver creates a Receiver sampling bits of period ticks.
func NewReceiver(period int) *Receiver {
	period = mustPeriod(period)
	return &Receiver{period: period, half: period / 2}
}

// Period returns the bit period in ticks.
func (r *Receiver) Period() int {
	return r.period
}

// Reset forces the receiver idle and clears all counters.
func (r *Receiver) Reset() {
	r.regs = rxRegs{}
}

// Idle indicates no character is being received.
func (r *Receiver) Idle() bool {
	return r.regs.state == rxIdle
}

// Step samples the line for one tick.
func (r *Receiver) Step(line Level) RxOutput {
	r.regs = r.regs.next(line, r.period, r.half, r.Timeout)
	return r.regs.out
}

func (s rxRegs) next(line Level, period, half, timeout int) rxRegs {
	s.out = RxOutput{}
	switch s.state {
	case rxIdle:
		if line == Low {
			s.state, s.count, s.bit, s.shift = rxStart, 0, 0, 0
			return s.resample(line, half)
		}
	case rxStart:
		s.count++
		return s.resample(line, half)
	case rxData:
		if s.count++; s.count < period {
			return s
		}
		s.count = 0
		if line == High {
			s.shift |= 1 << s.bit
		}
		if s.bit++; s.bit == 8 {
			s.state = rxStop
		}
	case rxStop:
		if s.count++; s.count < period {
			return s
		}
		s.out = RxOutput{Done: true, Data: s.shift}
		s.count = 0
		if line == High {
			s.state = rxIdle
		} else {
			s.state = rxWaitIdle
		}
	case rxWaitIdle:
		if line == High {
			s.state, s.count = rxIdle, 0
			return s
		}
		s.count++
		if timeout > 0 && s.count >= timeout {
			s.out.Timeout = true
			s.count = 0
		}
	}
	return s
}

func (s rxRegs) resample(line Level, half int) rxRegs {
	if s.count < half {
		return s
	}
	if line == Low {
		s.state, s.count = rxData, 0
	} else {
		s.state = rxIdle
	}
	return s
}

package frame

// FramerStage is the stage of a Framer.
type FramerStage int

// Framer stages.
const (
	// FramerAccumulate accepts payload bytes.
	FramerAccumulate FramerStage = iota
	FramerSendStart
	FramerSendLength
	FramerSendPayload
	FramerSendChecksum
	FramerSendEnd
)

var framerStageNames = [...]string{"accumulate", "start", "length", "payload", "checksum", "end"}

// String implements fmt.Stringer.
func (s FramerStage) String() string {
	if s >= 0 && int(s) < len(framerStageNames) {
		return framerStageNames[s]
	}
	return "unknown"
}

// Framer buffers a payload and drives a transmitter to emit its frame.
type Framer struct {
	buf    [MaxPayload + 1]byte
	length int
	sum    byte
	cursor int
	stage  FramerStage
	issued bool
}

// Ready indicates the framer accepts payload bytes.
func (f *Framer) Ready() bool {
	return f.stage == FramerAccumulate
}

// Stage returns the current stage.
func (f *Framer) Stage() FramerStage {
	return f.stage
}

// Len returns the number of buffered payload bytes.
func (f *Framer) Len() int {
	return f.length
}

// Reset drops the buffered payload and any frame in transmission.
func (f *Framer) Reset() {
	*f = Framer{}
}

// Append stores one payload byte. When last is set, the frame is
// transmitted by subsequent calls to Step. Once MaxPayload bytes are
// buffered, Append fails with ErrOverflow and the frame is sent with
// Finish, or dropped with Reset.
func (f *Framer) Append(b byte, last bool) error {
	if f.stage != FramerAccumulate {
		return ErrBusy
	}
	if f.length >= MaxPayload {
		return ErrOverflow
	}
	f.buf[f.length] = b
	f.sum ^= b
	f.length++
	if last {
		f.stage, f.cursor = FramerSendStart, 0
	}
	return nil
}

// Finish marks the buffered payload complete without adding a byte.
func (f *Framer) Finish() error {
	if f.stage != FramerAccumulate {
		return ErrBusy
	}
	if f.length == 0 {
		return ErrEmptyPayload
	}
	f.stage, f.cursor = FramerSendStart, 0
	return nil
}

// Step runs one tick after the transmitter stepped. It returns the byte
// to hand to the transmitter when start is set. A byte is only handed
// over while the transmitter isn't busy, and never on consecutive ticks.
func (f *Framer) Step(txBusy bool) (b byte, start bool) {
	if f.stage == FramerAccumulate || txBusy || f.issued {
		f.issued = false
		return 0, false
	}
	switch f.stage {
	case FramerSendStart:
		b, f.stage = StartMarker, FramerSendLength
	case FramerSendLength:
		b = byte(f.length)
		f.stage = FramerSendPayload
	case FramerSendPayload:
		b = f.buf[f.cursor]
		if f.cursor++; f.cursor >= f.length {
			f.stage = FramerSendChecksum
		}
	case FramerSendChecksum:
		b, f.stage = f.sum, FramerSendEnd
	case FramerSendEnd:
		f.Reset()
		b = EndMarker
	}
	f.issued = true
	return b, true
}

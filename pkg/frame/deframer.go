package frame

// Stage is the parse stage of a Deframer.
type Stage int

// Deframer stages.
const (
	StageSeek     Stage = iota // waiting for start marker
	StageLength                // waiting for length
	StagePayload               // waiting for payload bytes
	StageChecksum              // waiting for checksum
	StageEnd                   // waiting for end marker
)

var stageNames = [...]string{"seek", "length", "payload", "checksum", "end"}

// String implements fmt.Stringer.
func (s Stage) String() string {
	if s >= 0 && int(s) < len(stageNames) {
		return stageNames[s]
	}
	return "unknown"
}

// ParseResult is the result of one parsing step. At most one of
// Packet and Err is set; both nil means no frame completed.
type ParseResult struct {
	Packet *Packet
	Err    error
}

// Valid indicates a packet was accepted.
func (r ParseResult) Valid() bool {
	return r.Packet != nil
}

// Deframer reconstructs payloads from a byte stream.
type Deframer struct {
	// MaxPayload caps accepted lengths, 0 means the protocol maximum.
	MaxPayload int

	stage    Stage
	buf      [MaxPayload]byte
	length   int
	recvLen  int
	sum      byte
	received byte
}

// NewDeframer creates a Deframer accepting payloads up to max bytes.
func NewDeframer(max int) *Deframer {
	return &Deframer{MaxPayload: max}
}

// Stage returns the current parse stage.
func (d *Deframer) Stage() Stage {
	return d.stage
}

// Reset drops any frame in progress.
func (d *Deframer) Reset() {
	d.stage, d.length, d.recvLen, d.sum = StageSeek, 0, 0, 0
}

// Timeout notifies the byte source went quiet. A frame in progress is
// dropped with ErrTimeout.
func (d *Deframer) Timeout() (pr ParseResult) {
	if d.stage != StageSeek {
		d.Reset()
		pr.Err = ErrTimeout
	}
	return
}

// Parse consumes one byte.
func (d *Deframer) Parse(b byte) (pr ParseResult) {
	switch d.stage {
	case StageSeek:
		if b == StartMarker {
			d.stage, d.sum, d.recvLen = StageLength, 0, 0
		}
	case StageLength:
		if max := d.capacity(); int(b) > max {
			d.Reset()
			pr.Err = &LengthError{Length: b, Max: max}
			return
		}
		d.length = int(b)
		if d.length == 0 {
			d.stage = StageChecksum
		} else {
			d.stage = StagePayload
		}
	case StagePayload:
		d.buf[d.recvLen] = b
		d.sum ^= b
		if d.recvLen++; d.recvLen >= d.length {
			d.stage = StageChecksum
		}
	case StageChecksum:
		d.received, d.stage = b, StageEnd
	case StageEnd:
		return d.finish(b)
	}
	return
}

func (d *Deframer) finish(b byte) (pr ParseResult) {
	defer d.Reset()
	if b != EndMarker {
		pr.Err = &FramingError{Got: b}
		return
	}
	if d.sum != d.received {
		pr.Err = &ChecksumError{Computed: d.sum, Received: d.received}
		return
	}
	payload := make([]byte, d.length)
	copy(payload, d.buf[:d.length])
	pr.Packet = &Packet{Payload: payload}
	return
}

func (d *Deframer) capacity() int {
	if d.MaxPayload <= 0 || d.MaxPayload > MaxPayload {
		return MaxPayload
	}
	return d.MaxPayload
}

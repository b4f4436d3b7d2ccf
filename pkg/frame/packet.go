package frame

import (
	"fmt"
	"io"
)

// Protocol constants.
const (
	StartMarker byte = 0xAA
	EndMarker   byte = 0x55
	// MaxPayload is the largest payload a length byte can describe.
	MaxPayload = 255
	// Overhead is the number of frame bytes besides the payload.
	Overhead = 4
)

// Checksum computes the XOR of all payload bytes.
func Checksum(payload []byte) byte {
	var sum byte
	for _, b := range payload {
		sum ^= b
	}
	return sum
}

// Packet is a received payload.
type Packet struct {
	Payload []byte
}

// Len returns the payload length.
func (p *Packet) Len() int {
	return len(p.Payload)
}

// Bytes returns the encoded frame.
func (p *Packet) Bytes() ([]byte, error) {
	return Encode(p.Payload)
}

// WriteTo writes the encoded frame.
func (p *Packet) WriteTo(w io.Writer) (int64, error) {
	b, err := p.Bytes()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(b)
	return int64(n), err
}

// Encode wraps payload into a frame.
func Encode(payload []byte) ([]byte, error) {
	if len(payload) > MaxPayload {
		return nil, fmt.Errorf("%w: %d bytes", ErrPayloadTooLarge, len(payload))
	}
	b := make([]byte, len(payload)+Overhead)
	b[0], b[1] = StartMarker, byte(len(payload))
	copy(b[2:], payload)
	b[len(b)-2], b[len(b)-1] = Checksum(payload), EndMarker
	return b, nil
}

// Package frame provides the packet framing protocol.
package frame

// A frame carries 0 to 255 payload bytes over any reliable byte source:
//
//	0xAA | length | payload[length] | xor(payload) | 0x55
//
// Framer drives a bit-level transmitter one byte at a time, waiting on
// its busy signal. Deframer consumes one byte per call and reports each
// completed frame, or the reason it was rejected. There is no
// acknowledgment or retransmission; a rejected frame is dropped and the
// deframer searches for the next start marker.
//
// Stream carries frames over an io.ReadWriter such as a serial port.

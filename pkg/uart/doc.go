// Package uart provides the bit-level asynchronous transceiver.
package uart

// Bytes are carried on an idle-high line as 8N1 characters: one low
// start bit, 8 data bits LSB first, and one high stop bit, each held
// for a fixed number of ticks (the bit period).
//
// Transmitter and Receiver are clocked state machines. They never
// block and never fail: every call to Step advances exactly one tick.
// Callers drive them from a shared time base (see package link).

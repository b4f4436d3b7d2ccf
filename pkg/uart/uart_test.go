package uart

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

// charLevels renders the line levels of one character, period ticks per bit.
func charLevels(period int, data byte) []Level {
	levels := make([]Level, 0, BitsPerChar*period)
	hold := func(l Level) {
		for i := 0; i < period; i++ {
			levels = append(levels, l)
		}
	}
	hold(Low)
	for i := uint(0); i < 8; i++ {
		hold(Level((data>>i)&1 != 0))
	}
	hold(High)
	return levels
}

func idleLevels(n int) []Level {
	levels := make([]Level, n)
	for i := range levels {
		levels[i] = High
	}
	return levels
}

func TestBitPeriod(t *testing.T) {
	testCases := []struct {
		tick, bit int
		expect    int
		err       bool
	}{
		{16, 1, 16, false},
		{50000000, 115200, 434, false},
		{9600, 9600, 1, false},
		{9599, 9600, 0, true},
		{0, 9600, 0, true},
		{9600, 0, 0, true},
		{-1, 1, 0, true},
	}
	for _, tc := range testCases {
		t.Run(fmt.Sprintf("%d/%d", tc.tick, tc.bit), func(t *testing.T) {
			p, err := BitPeriod(tc.tick, tc.bit)
			if tc.err {
				require.Error(t, err)
				require.True(t, errors.Is(err, ErrBitPeriod))
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.expect, p)
		})
	}
}

func TestConfig(t *testing.T) {
	conf := Config{TickRate: 64, BitRate: 4, Timeout: 100}
	tx, err := conf.NewTransmitter()
	require.NoError(t, err)
	require.Equal(t, 16, tx.Period())
	rx, err := conf.NewReceiver()
	require.NoError(t, err)
	require.Equal(t, 16, rx.Period())
	require.Equal(t, 100, rx.Timeout)

	_, err = Config{TickRate: 1, BitRate: 4}.NewTransmitter()
	require.Error(t, err)
	_, err = Config{TickRate: 1, BitRate: 4}.NewReceiver()
	require.Error(t, err)
}

func TestTransmitterIdle(t *testing.T) {
	tx := NewTransmitter(4)
	for i := 0; i < 10; i++ {
		out := tx.Step(TxInput{})
		require.Equal(t, TxOutput{Line: High}, out)
	}
}

func TestTransmitterTiming(t *testing.T) {
	for _, period := range []int{1, 2, 3, 7, 16} {
		for _, data := range []byte{0x00, 0xff, 0x55, 0xaa, 0x48, 0x01, 0x80} {
			t.Run(fmt.Sprintf("P%d %02x", period, data), func(t *testing.T) {
				tx := NewTransmitter(period)
				expect := charLevels(period, data)
				out := tx.Step(TxInput{Start: true, Data: data})
				got := []Level{out.Line}
				require.True(t, out.Busy)
				for len(got) < len(expect) {
					out = tx.Step(TxInput{})
					require.True(t, out.Busy, "busy dropped at tick %d", len(got))
					got = append(got, out.Line)
				}
				require.Equal(t, expect, got)
				out = tx.Step(TxInput{})
				require.Equal(t, TxOutput{Line: High}, out)
			})
		}
	}
}

func TestTransmitterBusyDiscipline(t *testing.T) {
	const period = 5
	tx := NewTransmitter(period)
	expect := charLevels(period, 0x3c)
	got := []Level{tx.Step(TxInput{Start: true, Data: 0x3c}).Line}
	for len(got) < len(expect) {
		out := tx.Step(TxInput{Start: true, Data: 0xc3})
		got = append(got, out.Line)
	}
	require.Equal(t, expect, got)
	require.True(t, tx.Busy())

	// The stop bit ends and the line idles for one tick.
	out := tx.Step(TxInput{Start: true, Data: 0xc3})
	require.Equal(t, TxOutput{Line: High}, out)
	out = tx.Step(TxInput{Start: true, Data: 0xc3})
	require.True(t, out.Busy)
	require.Equal(t, Low, out.Line)
}

func TestTransmitterReset(t *testing.T) {
	tx := NewTransmitter(3)
	tx.Step(TxInput{Start: true, Data: 0})
	tx.Step(TxInput{})
	require.True(t, tx.Busy())
	require.Equal(t, Low, tx.Line())
	tx.Reset()
	require.False(t, tx.Busy())
	require.Equal(t, High, tx.Line())
	require.Equal(t, TxOutput{Line: High}, tx.Step(TxInput{}))
}

func TestNewTransmitterInvalidPeriod(t *testing.T) {
	require.Panics(t, func() { NewTransmitter(0) })
	require.Panics(t, func() { NewReceiver(-1) })
}

// feed steps the receiver over levels and collects delivered bytes.
func feed(rx *Receiver, levels []Level) (data []byte, timeouts int) {
	for _, l := range levels {
		out := rx.Step(l)
		if out.Done {
			data = append(data, out.Data)
		}
		if out.Timeout {
			timeouts++
		}
	}
	return
}

func TestReceiverAllBytes(t *testing.T) {
	for _, period := range []int{1, 2, 3, 8, 16} {
		t.Run(fmt.Sprintf("P%d", period), func(t *testing.T) {
			var levels []Level
			var expect []byte
			levels = append(levels, idleLevels(3)...)
			for b := 0; b < 256; b++ {
				levels = append(levels, charLevels(period, byte(b))...)
				expect = append(expect, byte(b))
			}
			levels = append(levels, idleLevels(period)...)
			rx := NewReceiver(period)
			data, timeouts := feed(rx, levels)
			require.Equal(t, expect, data)
			require.Zero(t, timeouts)
			require.True(t, rx.Idle())
		})
	}
}

func TestReceiverDonePulse(t *testing.T) {
	const period = 8
	rx := NewReceiver(period)
	levels := append(charLevels(period, 0x5a), idleLevels(2*period)...)
	var pulses []int
	for i, l := range levels {
		if out := rx.Step(l); out.Done {
			require.Equal(t, byte(0x5a), out.Data)
			pulses = append(pulses, i)
		}
	}
	// Done at half-bit offset into the stop bit.
	require.Equal(t, []int{period/2 + 9*period}, pulses)
}

func TestReceiverFromTransmitter(t *testing.T) {
	const period = 6
	tx, rx := NewTransmitter(period), NewReceiver(period)
	payload := []byte("HI\x00\xff\xaa\x55")
	var got []byte
	var next int
	for tick := 0; tick < 20*BitsPerChar*period && len(got) < len(payload); tick++ {
		var in TxInput
		if !tx.Busy() && next < len(payload) {
			in = TxInput{Start: true, Data: payload[next]}
			next++
		}
		out := rx.Step(tx.Step(in).Line)
		if out.Done {
			got = append(got, out.Data)
		}
	}
	require.Equal(t, payload, got)
}

func TestReceiverGlitch(t *testing.T) {
	testCases := []struct {
		name   string
		period int
		low    int
	}{
		{"single tick", 16, 1},
		{"just before resample", 16, 7},
		{"short glitch", 4, 1},
		{"half bit P=2", 2, 1},
		{"half bit P=4", 4, 2},
		{"half bit P=8", 8, 4},
		{"half bit P=16", 16, 8},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rx := NewReceiver(tc.period)
			var levels []Level
			for i := 0; i < tc.low; i++ {
				levels = append(levels, Low)
			}
			levels = append(levels, idleLevels(BitsPerChar*tc.period)...)
			var idleAfterResample bool
			for i, l := range levels {
				out := rx.Step(l)
				require.False(t, out.Done)
				if i == tc.period/2 {
					idleAfterResample = rx.Idle()
				}
			}
			require.True(t, idleAfterResample)
			require.True(t, rx.Idle())
		})
	}
}

func TestReceiverGlitchThenChar(t *testing.T) {
	const period = 16
	rx := NewReceiver(period)
	levels := []Level{Low, Low, High, High, High, High, High, High, High, High}
	levels = append(levels, charLevels(period, 0x42)...)
	levels = append(levels, idleLevels(period)...)
	data, _ := feed(rx, levels)
	require.Equal(t, []byte{0x42}, data)
}

func TestReceiverStuckLow(t *testing.T) {
	const period = 4
	rx := NewReceiver(period)
	rx.Timeout = 10
	levels := charLevels(period, 0x00)
	// stop bit low, then the line stays low
	for i := len(levels) - period; i < len(levels); i++ {
		levels[i] = Low
	}
	for i := 0; i < 35; i++ {
		levels = append(levels, Low)
	}
	data, timeouts := feed(rx, levels)
	require.Equal(t, []byte{0x00}, data)
	require.Equal(t, 3, timeouts)
	require.False(t, rx.Idle())

	data, _ = feed(rx, append(idleLevels(1), charLevels(period, 0x81)...))
	require.Equal(t, []byte{0x81}, data)
}

func TestReceiverReset(t *testing.T) {
	rx := NewReceiver(4)
	rx.Step(Low)
	require.False(t, rx.Idle())
	rx.Reset()
	require.True(t, rx.Idle())
}

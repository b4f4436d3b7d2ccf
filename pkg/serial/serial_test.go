package serial

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.bug.st/serial"

	"github.com/robotalks/seriallink/pkg/frame"
)

type fakePort struct {
	bytes.Buffer
	timeout time.Duration
	closed  bool
}

func (p *fakePort) SetReadTimeout(t time.Duration) error {
	p.timeout = t
	return nil
}

func (p *fakePort) Close() error {
	p.closed = true
	return nil
}

func withFakeOpen(t *testing.T, port Port, err error) *serial.Mode {
	var mode serial.Mode
	saved := open
	open = func(device string, m *serial.Mode) (Port, error) {
		mode = *m
		return port, err
	}
	t.Cleanup(func() { open = saved })
	return &mode
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name string
		conf Config
		err  bool
	}{
		{"ok", Config{Device: "/dev/ttyUSB0", Baud: 9600}, false},
		{"no device", Config{Baud: 9600}, true},
		{"bad baud", Config{Device: "/dev/ttyUSB0"}, true},
		{"bad timeout", Config{Device: "/dev/ttyUSB0", Baud: 9600, ReadTimeout: -1}, true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.conf.Validate()
			if tc.err {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
	require.Equal(t, ErrNoDevice, (&Config{Baud: 1}).Validate())
}

func TestOpen(t *testing.T) {
	port := &fakePort{}
	mode := withFakeOpen(t, port, nil)
	conf := &Config{Device: "/dev/ttyS9", Baud: 57600, ReadTimeout: 50 * time.Millisecond}
	p, err := conf.Open()
	require.NoError(t, err)
	require.Equal(t, port, p)
	require.Equal(t, serial.Mode{BaudRate: 57600, DataBits: 8, Parity: serial.NoParity, StopBits: serial.OneStopBit}, *mode)
	require.Equal(t, 50*time.Millisecond, port.timeout)
}

func TestOpenError(t *testing.T) {
	cause := errors.New("no such device")
	withFakeOpen(t, nil, cause)
	_, err := (&Config{Device: "/dev/ttyS9", Baud: 9600}).Open()
	require.Error(t, err)
	require.True(t, errors.Is(err, cause))
	require.Contains(t, err.Error(), "/dev/ttyS9")
}

func TestNewStream(t *testing.T) {
	port := &fakePort{}
	conf := &Config{Device: "x", Baud: 9600, ReadTimeout: time.Millisecond}
	s := conf.NewStream(port)
	require.True(t, s.ReadTimeout)

	require.NoError(t, s.WritePacket([]byte("HI")))
	require.Equal(t, []byte{0xaa, 0x02, 'H', 'I', 0x01, 0x55}, port.Bytes())

	// the fake port returns EOF once drained
	var got [][]byte
	s.Handler = frame.HandlePacketFunc(func(_ context.Context, pkt *frame.Packet) {
		got = append(got, pkt.Payload)
	})
	err := s.Run(context.Background())
	require.Error(t, err)
	require.Equal(t, [][]byte{[]byte("HI")}, got)
}

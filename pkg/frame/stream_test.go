package frame

import (
	"context"
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type streamTestCtx struct {
	t        *testing.T
	stream   *Stream
	peer     net.Conn
	packetCh chan *Packet
	rejectCh chan error
	errCh    chan error
	cancel   func()
}

func newStreamTestCtx(t *testing.T) *streamTestCtx {
	local, peer := net.Pipe()
	c := &streamTestCtx{
		t:        t,
		stream:   NewStream(local),
		peer:     peer,
		packetCh: make(chan *Packet, 4),
		rejectCh: make(chan error, 4),
		errCh:    make(chan error, 1),
	}
	c.stream.Timeout = 50 * time.Millisecond
	c.stream.Handler = HandlePacketFunc(func(ctx context.Context, pkt *Packet) {
		c.packetCh <- pkt
	})
	c.stream.Rejects = HandleRejectFunc(func(ctx context.Context, err error) {
		c.rejectCh <- err
	})
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	go func() {
		c.errCh <- c.stream.Run(ctx)
	}()
	return c
}

func (c *streamTestCtx) close() {
	defer c.peer.Close()
	c.cancel()
	select {
	case err := <-c.errCh:
		require.Equal(c.t, context.Canceled, err)
	case <-time.After(time.Second):
		c.t.Fatal("stream didn't stop")
	}
}

func (c *streamTestCtx) inject(b ...byte) *streamTestCtx {
	_, err := c.peer.Write(b)
	require.NoError(c.t, err)
	return c
}

func (c *streamTestCtx) expectPacket(payload ...byte) *streamTestCtx {
	if payload == nil {
		payload = []byte{}
	}
	select {
	case pkt := <-c.packetCh:
		require.Equal(c.t, payload, pkt.Payload)
	case err := <-c.rejectCh:
		c.t.Fatalf("unexpected reject: %v", err)
	case <-time.After(500 * time.Millisecond):
		c.t.Fatal("expect packet timeout")
	}
	return c
}

func (c *streamTestCtx) expectReject(target error) *streamTestCtx {
	select {
	case err := <-c.rejectCh:
		require.True(c.t, errors.Is(err, target), "got %v", err)
	case pkt := <-c.packetCh:
		c.t.Fatalf("unexpected packet: %v", pkt.Payload)
	case <-time.After(500 * time.Millisecond):
		c.t.Fatal("expect reject timeout")
	}
	return c
}

func TestStreamReceive(t *testing.T) {
	c := newStreamTestCtx(t)
	defer c.close()
	c.inject(0xaa, 0x02, 0x48, 0x49, 0x01, 0x55).
		expectPacket(0x48, 0x49).
		inject(0x00, 0xaa, 0x01, 0x07, 0x06, 0x55).
		expectReject(ErrChecksum).
		inject(0xaa, 0x01, 0x07, 0x07, 0x55).
		expectPacket(0x07)
}

func TestStreamTimeout(t *testing.T) {
	c := newStreamTestCtx(t)
	defer c.close()
	c.inject(0xaa, 0x02, 0x48).
		expectReject(ErrTimeout).
		inject(0x49, 0x01, 0x55, 0xaa, 0x00, 0x00, 0x55).
		expectPacket()
}

func TestStreamWritePacket(t *testing.T) {
	local, peer := net.Pipe()
	defer peer.Close()
	s := NewStream(local)
	go func() {
		require.NoError(t, s.WritePacket([]byte("HI")))
		local.Close()
	}()
	b, err := io.ReadAll(peer)
	require.NoError(t, err)
	require.Equal(t, []byte{0xaa, 0x02, 0x48, 0x49, 0x01, 0x55}, b)

	require.True(t, errors.Is(s.WritePacket(make([]byte, 300)), ErrPayloadTooLarge))
}

// timeoutReader returns a timeout-like empty read when no data is queued.
type timeoutReader struct {
	chunks [][]byte
}

func (r *timeoutReader) Read(p []byte) (int, error) {
	if len(r.chunks) == 0 {
		return 0, io.EOF
	}
	chunk := r.chunks[0]
	r.chunks = r.chunks[1:]
	return copy(p, chunk), nil
}

func (r *timeoutReader) Write(p []byte) (int, error) {
	return len(p), nil
}

func TestStreamReadTimeout(t *testing.T) {
	r := &timeoutReader{chunks: [][]byte{
		{0xaa}, {0x01}, {}, // timeout mid frame
		{0xaa}, {0x01}, {0x42}, {0x42}, {0x55},
		{}, // timeout while seeking
	}}
	var packets [][]byte
	var rejects []error
	s := NewStream(r)
	s.ReadTimeout = true
	s.Handler = HandlePacketFunc(func(ctx context.Context, pkt *Packet) {
		packets = append(packets, pkt.Payload)
	})
	s.Rejects = HandleRejectFunc(func(ctx context.Context, err error) {
		rejects = append(rejects, err)
	})
	err := s.Run(context.Background())
	require.Equal(t, io.EOF, err)
	require.Equal(t, [][]byte{{0x42}}, packets)
	require.Equal(t, []error{ErrTimeout}, rejects)
}

func TestStreamMaxPayload(t *testing.T) {
	r := &timeoutReader{chunks: [][]byte{{0xaa}, {0x03}}}
	var rejects []error
	s := NewStream(r).WithMaxPayload(2)
	s.ReadTimeout = true
	s.Rejects = HandleRejectFunc(func(ctx context.Context, err error) {
		rejects = append(rejects, err)
	})
	require.Equal(t, io.EOF, s.Run(context.Background()))
	require.Len(t, rejects, 1)
	require.True(t, errors.Is(rejects[0], ErrLength))
}

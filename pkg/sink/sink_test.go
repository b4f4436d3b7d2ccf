package sink

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/seriallink/pkg/frame"
	"github.com/robotalks/seriallink/pkg/msgs"
	"github.com/robotalks/seriallink/pkg/sink/mqtt"
	"github.com/robotalks/seriallink/pkg/sink/stream"
)

type packetBuffer struct {
	packets [][]byte
	err     error
}

func (b *packetBuffer) WritePacket(pkt []byte) error {
	b.packets = append(b.packets, pkt)
	return b.err
}

func (b *packetBuffer) ReadPacket() ([]byte, error) {
	if len(b.packets) == 0 {
		return nil, errors.New("empty")
	}
	pkt := b.packets[0]
	b.packets = b.packets[1:]
	return pkt, nil
}

func TestPublisher(t *testing.T) {
	var buf packetBuffer
	at := time.Unix(100, 0)
	p := NewPublisher(&buf, "st1", "ttyS0")
	p.Now = func() time.Time { return at }
	ctx := context.Background()

	p.HandlePacket(ctx, &frame.Packet{Payload: []byte("HI")})
	p.HandleReject(ctx, &frame.ChecksumError{Computed: 1, Received: 2})
	require.Len(t, buf.packets, 1)
	p.Rejects = true
	p.HandleReject(ctx, &frame.ChecksumError{Computed: 1, Received: 2})
	require.Len(t, buf.packets, 2)

	ev, err := msgs.Decode(buf.packets[0])
	require.NoError(t, err)
	pkt := ev.(*msgs.PacketEvent)
	require.Equal(t, "st1", pkt.Station)
	require.Equal(t, "ttyS0", pkt.Link)
	require.Equal(t, []byte("HI"), pkt.Payload)
	require.True(t, at.Equal(pkt.Time()))

	ev, err = msgs.Decode(buf.packets[1])
	require.NoError(t, err)
	rej := ev.(*msgs.RejectEvent)
	require.Equal(t, "checksum", rej.Reason)
	require.Equal(t, "frame: checksum mismatch: computed 0x01, received 0x02", rej.Message)
}

func TestReaderSkipsUnknown(t *testing.T) {
	var buf packetBuffer
	p := NewPublisher(&buf, "st1", "sim")
	require.NoError(t, p.Publish(msgs.NewPacketEvent("st1", "sim", []byte{1}, time.Now())))
	buf.packets = append([][]byte{{0xff}}, buf.packets...)
	var events []msgs.Event
	r := NewReader(&buf, HandleEventFunc(func(_ context.Context, ev msgs.Event) error {
		events = append(events, ev)
		return nil
	}))
	err := r.Run(context.Background())
	require.EqualError(t, err, "empty")
	require.Len(t, events, 1)
	require.Equal(t, []byte{1}, events[0].(*msgs.PacketEvent).Payload)
}

func TestOpenTCP(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	accepted := make(chan net.Conn, 1)
	go func() {
		conn, err := ln.Accept()
		if err == nil {
			accepted <- conn
		}
	}()

	rw, err := Open(context.Background(), "tcp://"+ln.Addr().String(), Options{})
	require.NoError(t, err)
	defer rw.(*stream.ReadWriter).Close()
	conn := <-accepted
	defer conn.Close()

	p := NewPublisher(rw, "st1", "sim")
	p.HandlePacket(context.Background(), &frame.Packet{Payload: []byte("HI")})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	evCh := make(chan msgs.Event, 1)
	r := NewReader(stream.New(conn), HandleEventFunc(func(_ context.Context, ev msgs.Event) error {
		evCh <- ev
		return nil
	}))
	errCh := make(chan error, 1)
	go func() { errCh <- r.Run(ctx) }()
	ev := <-evCh
	require.Equal(t, []byte("HI"), ev.(*msgs.PacketEvent).Payload)
	cancel()
	require.Equal(t, context.Canceled, <-errCh)
}

func TestOpenMQTT(t *testing.T) {
	rw, err := Open(context.Background(), "mqtt://localhost:1883/serlink/", Options{Station: "st1", Subscribe: "+/packets"})
	require.NoError(t, err)
	mrw := rw.(*mqtt.ReadWriter)
	require.Equal(t, "st1/packets", mrw.PubTopic)
	require.Equal(t, "+/packets", mrw.SubTopic)
	require.Equal(t, "serlink/", mrw.Queue.TopicPrefix)
}

func TestOpenUnsupported(t *testing.T) {
	_, err := Open(context.Background(), "udp://localhost:1", Options{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "unsupported scheme")
}

func TestMulti(t *testing.T) {
	var a, b packetBuffer
	b.err = errors.New("b failed")
	w := Multi(&a, nil, &b)
	require.Len(t, w, 2)
	err := w.WritePacket([]byte{1})
	require.EqualError(t, err, "b failed")
	require.Len(t, a.packets, 1)
	require.Len(t, b.packets, 1)
	require.NoError(t, Multi().WritePacket([]byte{1}))
}

package mqtt

import (
	"context"
	"io"
	"sync"
)

// TopicPackets is the per-station topic events are published to.
const TopicPackets = "packets"

// ReadWriter implements PacketReadWriter.
type ReadWriter struct {
	Queue    *Queue
	SubTopic string
	PubTopic string

	packetCh  chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

// NewPacketReadWriter creates the ReadWriter.
func NewPacketReadWriter(q *Queue) *ReadWriter {
	return &ReadWriter{Queue: q, packetCh: make(chan []byte, 16), done: make(chan struct{})}
}

// WithTopics specifies the topics.
func (p *ReadWriter) WithTopics(sub, pub string) *ReadWriter {
	p.SubTopic, p.PubTopic = sub, pub
	return p
}

// ForStation publishes to <station>/packets.
func (p *ReadWriter) ForStation(station string) *ReadWriter {
	return p.WithTopics(p.SubTopic, StationTopic(station))
}

// StationTopic returns the topic of a station, "+" matches all stations.
func StationTopic(station string) string {
	return station + "/" + TopicPackets
}

// ReadPacket implements PacketReader.
func (p *ReadWriter) ReadPacket() ([]byte, error) {
	select {
	case pkt := <-p.packetCh:
		return pkt, nil
	case <-p.done:
		return nil, io.EOF
	}
}

// WritePacket implements PacketWriter.
func (p *ReadWriter) WritePacket(pkt []byte) error {
	token := p.Queue.Pub(p.PubTopic, pkt)
	token.Wait()
	return token.Error()
}

// Run implements Runnable. It connects and subscribes SubTopic if set.
func (p *ReadWriter) Run(ctx context.Context) error {
	token := p.Queue.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return err
	}
	defer p.Queue.Close()
	if p.SubTopic != "" {
		sub := p.Queue.Sub(p.SubTopic, Handler(p.handleMsg))
		defer sub.Close()
	}
	<-ctx.Done()
	return ctx.Err()
}

// Close implements io.Closer, unblocking ReadPacket.
func (p *ReadWriter) Close() error {
	p.closeOnce.Do(func() { close(p.done) })
	return nil
}

func (p *ReadWriter) handleMsg(_ string, payload []byte) {
	select {
	case p.packetCh <- payload:
	case <-p.done:
	}
}

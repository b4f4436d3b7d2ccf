package sink

import (
	"context"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/seriallink/pkg/frame"
	"github.com/robotalks/seriallink/pkg/metrics"
	"github.com/robotalks/seriallink/pkg/msgs"
)

// Publisher publishes deframer results as events. It implements
// frame.PacketHandler and frame.RejectHandler.
type Publisher struct {
	Writer  PacketWriter
	Station string
	Link    string
	// Rejects enables publishing RejectEvents.
	Rejects bool
	// Now overrides the clock, for testing.
	Now func() time.Time

	sendLock sync.Mutex
}

// NewPublisher creates a Publisher.
func NewPublisher(w PacketWriter, station, link string) *Publisher {
	return &Publisher{Writer: w, Station: station, Link: link}
}

// HandlePacket implements frame.PacketHandler.
func (p *Publisher) HandlePacket(_ context.Context, pkt *frame.Packet) {
	ev := msgs.NewPacketEvent(p.Station, p.Link, pkt.Payload, p.now())
	if err := p.Publish(ev); err != nil {
		glog.Errorf("publish packet %s: %v", ev.Id, err)
	}
}

// HandleReject implements frame.RejectHandler.
func (p *Publisher) HandleReject(_ context.Context, err error) {
	if !p.Rejects {
		return
	}
	ev := msgs.NewRejectEvent(p.Station, p.Link, metrics.Reason(err), err, p.now())
	if err := p.Publish(ev); err != nil {
		glog.Errorf("publish reject %s: %v", ev.Id, err)
	}
}

// Publish encodes and writes one event.
func (p *Publisher) Publish(ev msgs.Event) error {
	pkt, err := msgs.Encode(ev)
	if err != nil {
		return err
	}
	p.sendLock.Lock()
	defer p.sendLock.Unlock()
	return p.Writer.WritePacket(pkt)
}

func (p *Publisher) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

package sink

import (
	"context"
	"io"

	"github.com/golang/glog"

	fx "github.com/robotalks/seriallink/pkg/framework"
	"github.com/robotalks/seriallink/pkg/msgs"
)

// EventHandler handles a received event.
type EventHandler interface {
	HandleEvent(context.Context, msgs.Event) error
}

// HandleEventFunc is func form of EventHandler.
type HandleEventFunc func(context.Context, msgs.Event) error

// HandleEvent implements EventHandler.
func (f HandleEventFunc) HandleEvent(ctx context.Context, ev msgs.Event) error {
	return f(ctx, ev)
}

// Reader decodes events from a PacketReader.
type Reader struct {
	Reader  PacketReader
	Handler EventHandler
}

// NewReader creates a Reader.
func NewReader(r PacketReader, h EventHandler) *Reader {
	return &Reader{Reader: r, Handler: h}
}

// Run implements Runnable.
func (r *Reader) Run(ctx context.Context) error {
	if closer, ok := r.Reader.(io.Closer); ok {
		return fx.RunWithContextCloser(ctx, closer, func() error { return r.readLoop(ctx) })
	}
	return r.readLoop(ctx)
}

func (r *Reader) readLoop(ctx context.Context) error {
	for {
		pkt, err := r.Reader.ReadPacket()
		if err != nil {
			return err
		}
		ev, err := msgs.Decode(pkt)
		if err != nil {
			// events of unknown types are skipped.
			glog.V(2).Infof("drop event: %v", err)
			continue
		}
		if h := r.Handler; h != nil {
			if err := h.HandleEvent(ctx, ev); err != nil {
				return err
			}
		}
	}
}

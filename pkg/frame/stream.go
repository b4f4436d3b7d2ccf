package frame

import (
	"context"
	"io"
	"os"
	"sync"
	"time"

	"github.com/golang/glog"
)

// PacketHandler is called when a packet is received.
type PacketHandler interface {
	HandlePacket(context.Context, *Packet)
}

// HandlePacketFunc is func type of PacketHandler.
type HandlePacketFunc func(context.Context, *Packet)

// HandlePacket implements PacketHandler.
func (f HandlePacketFunc) HandlePacket(ctx context.Context, pkt *Packet) {
	f(ctx, pkt)
}

// RejectHandler is called when a frame is rejected.
type RejectHandler interface {
	HandleReject(context.Context, error)
}

// HandleRejectFunc is func type of RejectHandler.
type HandleRejectFunc func(context.Context, error)

// HandleReject implements RejectHandler.
func (f HandleRejectFunc) HandleReject(ctx context.Context, err error) {
	f(ctx, err)
}

// DefaultTimeout is the default inter-byte timeout inside a frame.
const DefaultTimeout = 100 * time.Millisecond

// Stream sends and receives frames over a byte stream.
type Stream struct {
	ReadWriter io.ReadWriter
	Handler    PacketHandler
	Rejects    RejectHandler
	// Timeout drops a frame when no byte arrives within it.
	Timeout time.Duration
	// ReadTimeout is set when ReadWriter already times out its Read,
	// e.g. a serial port with a read timeout.
	ReadTimeout bool

	deframer  Deframer
	sendLock  sync.Mutex
	frameTime <-chan time.Time
}

// NewStream creates a Stream.
func NewStream(rw io.ReadWriter) *Stream {
	return &Stream{ReadWriter: rw, Timeout: DefaultTimeout}
}

// WithMaxPayload caps the payload length accepted by the receiving side.
func (s *Stream) WithMaxPayload(max int) *Stream {
	s.deframer.MaxPayload = max
	return s
}

// WritePacket encodes and writes one frame.
func (s *Stream) WritePacket(payload []byte) error {
	b, err := Encode(payload)
	if err != nil {
		return err
	}
	s.sendLock.Lock()
	defer s.sendLock.Unlock()
	_, err = s.ReadWriter.Write(b)
	return err
}

// Run receives frames until ctx is done or reading fails.
func (s *Stream) Run(ctx context.Context) error {
	s.deframer.Reset()
	if s.ReadTimeout {
		buf := make([]byte, 1)
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			n, err := s.ReadWriter.Read(buf)
			switch {
			case err != nil && os.IsTimeout(err), err == nil && n == 0:
				s.apply(ctx, s.deframer.Timeout())
			case err != nil:
				return err
			default:
				s.apply(ctx, s.deframer.Parse(buf[0]))
			}
		}
	}

	byteCh, errCh := make(chan byte), make(chan error, 1)
	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go s.readLoop(subCtx, byteCh, errCh)
	for {
		select {
		case b := <-byteCh:
			s.apply(ctx, s.deframer.Parse(b))
		case err := <-errCh:
			return err
		case <-ctx.Done():
			return ctx.Err()
		case <-s.frameTime:
			s.apply(ctx, s.deframer.Timeout())
		}
	}
}

func (s *Stream) readLoop(ctx context.Context, byteCh chan byte, errCh chan error) {
	buf := make([]byte, 1)
	for {
		n, err := s.ReadWriter.Read(buf)
		if err != nil {
			errCh <- err
			return
		}
		if n == 0 {
			continue
		}
		select {
		case byteCh <- buf[0]:
		case <-ctx.Done():
			return
		}
	}
}

func (s *Stream) apply(ctx context.Context, pr ParseResult) {
	if !s.ReadTimeout {
		if s.deframer.Stage() == StageSeek {
			s.frameTime = nil
		} else {
			timeout := s.Timeout
			if timeout <= 0 {
				timeout = DefaultTimeout
			}
			s.frameTime = time.After(timeout)
		}
	}
	switch {
	case pr.Packet != nil:
		glog.V(2).Infof("frame received: %d bytes", pr.Packet.Len())
		if h := s.Handler; h != nil {
			h.HandlePacket(ctx, pr.Packet)
		}
	case pr.Err != nil:
		if h := s.Rejects; h != nil {
			h.HandleReject(ctx, pr.Err)
		} else {
			glog.Warningf("frame rejected: %v", pr.Err)
		}
	}
}

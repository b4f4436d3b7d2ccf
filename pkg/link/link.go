package link

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang/glog"

	"github.com/robotalks/seriallink/pkg/frame"
	fx "github.com/robotalks/seriallink/pkg/framework"
	"github.com/robotalks/seriallink/pkg/metrics"
	"github.com/robotalks/seriallink/pkg/uart"
)

var (
	// ErrNotDrained indicates the link didn't go idle within the tick budget.
	ErrNotDrained = errors.New("link: not drained")
)

// Tick is the observable state after one tick.
type Tick struct {
	Tick   uint64
	Line   uart.Level
	TxBusy bool
	Rx     uart.RxOutput
	Result frame.ParseResult
}

// Stats counts link activity.
type Stats struct {
	Sent       int
	Received   int
	Rejected   int
	RxTimeouts int
}

// Link is a simulated point-to-point link:
//
//	Framer -> Transmitter -> Line -> Receiver -> Deframer
//
// all advancing on one tick. Within a tick, bit-level components step
// before byte-level ones. The byte the framer hands over is registered
// and reaches the transmitter on the next tick; a byte completed by the
// receiver reaches the deframer in the same tick.
type Link struct {
	Handler frame.PacketHandler
	Rejects frame.RejectHandler

	conf     Config
	tx       *uart.Transmitter
	rx       *uart.Receiver
	line     *Line
	framer   frame.Framer
	deframer *frame.Deframer
	counters *metrics.Link

	frameTimeout uint64
	frameIdle    uint64

	tick    uint64
	txIn    uart.TxInput
	cur     Tick
	results []frame.ParseResult
	stats   Stats
}

// New creates a Link.
func New(conf Config) (*Link, error) {
	uconf := conf.UART()
	tx, err := uconf.NewTransmitter()
	if err != nil {
		return nil, err
	}
	rx, err := uconf.NewReceiver()
	if err != nil {
		return nil, err
	}
	if conf.Name == "" {
		conf.Name = defaultConfig.Name
	}
	return &Link{
		conf:         conf,
		tx:           tx,
		rx:           rx,
		line:         NewLine(),
		deframer:     frame.NewDeframer(conf.MaxPayload),
		counters:     metrics.ForLink(conf.Name),
		frameTimeout: conf.FrameTimeoutTicks(tx.Period()),
	}, nil
}

// Config returns the config of the link.
func (l *Link) Config() Config {
	return l.conf
}

// Period returns the bit period in ticks.
func (l *Link) Period() int {
	return l.tx.Period()
}

// Line returns the wire, to install faults or a trace.
func (l *Link) Line() *Line {
	return l.line
}

// Tick returns the tick Step runs next.
func (l *Link) Tick() uint64 {
	return l.tick
}

// FrameStart returns the tick the start marker of a frame sent now goes
// out, when the link is idle.
func (l *Link) FrameStart() uint64 {
	return l.tick + 1
}

// FrameTimeout returns the ticks of silence after which a partial frame
// is dropped, 0 if disabled.
func (l *Link) FrameTimeout() uint64 {
	return l.frameTimeout
}

// Stats returns the counters.
func (l *Link) Stats() Stats {
	return l.stats
}

// Results returns and clears the parse results delivered so far.
func (l *Link) Results() []frame.ParseResult {
	res := l.results
	l.results = nil
	return res
}

// Append appends one payload byte to the framer.
func (l *Link) Append(b byte, last bool) error {
	return l.framer.Append(b, last)
}

// Finish queues the bytes appended so far as one frame.
func (l *Link) Finish() error {
	return l.framer.Finish()
}

// Send queues a whole payload as one frame.
func (l *Link) Send(payload []byte) error {
	if len(payload) == 0 {
		return frame.ErrEmptyPayload
	}
	if len(payload) > frame.MaxPayload {
		return fmt.Errorf("%w: %d bytes", frame.ErrOverflow, len(payload))
	}
	if !l.framer.Ready() || l.framer.Len() > 0 {
		return frame.ErrBusy
	}
	for i, b := range payload {
		if err := l.framer.Append(b, i == len(payload)-1); err != nil {
			l.framer.Reset()
			return err
		}
	}
	return nil
}

// Idle indicates nothing is in flight.
func (l *Link) Idle() bool {
	return l.framer.Ready() && l.framer.Len() == 0 && !l.txIn.Start &&
		!l.tx.Busy() && l.rx.Idle() && l.deframer.Stage() == frame.StageSeek
}

// Reset forces all components to their initial state.
func (l *Link) Reset() {
	l.tx.Reset()
	l.rx.Reset()
	l.framer.Reset()
	l.deframer.Reset()
	l.txIn = uart.TxInput{}
	l.frameIdle = 0
}

// Step runs one tick.
func (l *Link) Step() Tick {
	l.stepTransmit()
	l.stepLine()
	l.stepReceive()
	l.stepFrame()
	l.deliver(context.Background())
	return l.endTick()
}

// Run steps until the link is idle, at most maxTicks ticks.
func (l *Link) Run(ctx context.Context, maxTicks uint64) error {
	for n := uint64(0); !l.Idle(); n++ {
		if n >= maxTicks {
			return ErrNotDrained
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		l.Step()
	}
	return nil
}

// TicksPerFrame estimates the ticks to carry a frame of payloadLen bytes.
func (l *Link) TicksPerFrame(payloadLen int) uint64 {
	perByte := uint64(uart.BitsPerChar*l.Period() + 2)
	return uint64(payloadLen+frame.Overhead+1) * perByte
}

// AddToClock implements ClockAdder.
func (l *Link) AddToClock(c *fx.Clock) {
	c.AddStepper(fx.PrLvTransmit, fx.StepFunc(func(tc fx.TickContext) error {
		l.tick = tc.Tick()
		l.stepTransmit()
		return nil
	}))
	c.AddStepper(fx.PrLvLine, fx.StepFunc(func(fx.TickContext) error {
		l.stepLine()
		return nil
	}))
	c.AddStepper(fx.PrLvReceive, fx.StepFunc(func(fx.TickContext) error {
		l.stepReceive()
		return nil
	}))
	c.AddStepper(fx.PrLvFrame, fx.StepFunc(func(fx.TickContext) error {
		l.stepFrame()
		return nil
	}))
	c.AddStepper(fx.PrLvDeliver, fx.StepFunc(func(tc fx.TickContext) error {
		l.deliver(tc.Context())
		l.endTick()
		return nil
	}))
}

func (l *Link) stepTransmit() {
	l.cur = Tick{Tick: l.tick}
	out := l.tx.Step(l.txIn)
	l.txIn = uart.TxInput{}
	l.cur.TxBusy = out.Busy
	l.cur.Line = out.Line
}

func (l *Link) stepLine() {
	l.cur.Line = l.line.Drive(l.tick, l.cur.Line)
}

func (l *Link) stepReceive() {
	l.cur.Rx = l.rx.Step(l.cur.Line)
	if l.cur.Rx.Timeout {
		l.stats.RxTimeouts++
		glog.V(2).Infof("%s: line stuck low at tick %d", l.conf.Name, l.tick)
	}
}

func (l *Link) stepFrame() {
	if b, start := l.framer.Step(l.cur.TxBusy); start {
		l.txIn = uart.TxInput{Start: true, Data: b}
		if b == frame.EndMarker && l.framer.Ready() {
			l.stats.Sent++
			l.counters.FrameSent()
		}
	}
	if l.cur.Rx.Done {
		l.frameIdle = 0
		l.cur.Result = l.deframer.Parse(l.cur.Rx.Data)
		return
	}
	if l.frameTimeout == 0 || l.deframer.Stage() == frame.StageSeek {
		l.frameIdle = 0
		return
	}
	if l.frameIdle++; l.frameIdle >= l.frameTimeout {
		l.frameIdle = 0
		l.cur.Result = l.deframer.Timeout()
	}
}

func (l *Link) deliver(ctx context.Context) {
	pr := l.cur.Result
	switch {
	case pr.Packet != nil:
		l.stats.Received++
		l.counters.FrameReceived(pr.Packet.Len())
		if h := l.Handler; h != nil {
			h.HandlePacket(ctx, pr.Packet)
		}
	case pr.Err != nil:
		l.stats.Rejected++
		l.counters.FrameRejected(pr.Err)
		glog.V(2).Infof("%s: frame rejected: %v", l.conf.Name, pr.Err)
		if h := l.Rejects; h != nil {
			h.HandleReject(ctx, pr.Err)
		}
	default:
		return
	}
	l.results = append(l.results, pr)
}

func (l *Link) endTick() Tick {
	l.tick++
	return l.cur
}

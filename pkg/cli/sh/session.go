package sh

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/robotalks/seriallink/pkg/frame"
	"github.com/robotalks/seriallink/pkg/link"
)

// Session is a simulated link driven by shell commands.
type Session struct {
	Link       *link.Link
	Out        io.Writer
	OutputJSON bool

	faults []link.Fault
}

// NewSession creates a Session.
func NewSession(l *link.Link, out io.Writer) *Session {
	return &Session{Link: l, Out: out}
}

type resultJSON struct {
	Payload string `json:"payload,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ParsePayload parses command arguments into a payload, either as text
// joined by spaces or as hex digits.
func ParsePayload(args []string, isHex bool) ([]byte, error) {
	if isHex {
		return hex.DecodeString(strings.Join(args, ""))
	}
	return []byte(strings.Join(args, " ")), nil
}

// Send sends a payload and runs the link until idle.
func (s *Session) Send(ctx context.Context, payload []byte) error {
	if err := s.Link.Send(payload); err != nil {
		return err
	}
	if err := s.Link.Run(ctx, s.Link.TicksPerFrame(len(payload))+s.Link.FrameTimeout()); err != nil {
		return err
	}
	return s.printResults(s.Link.Results())
}

// Step runs n ticks and prints results delivered meanwhile.
func (s *Session) Step(n int) error {
	for i := 0; i < n; i++ {
		s.Link.Step()
	}
	return s.printResults(s.Link.Results())
}

// Flip flips a bit of a byte in the next frame. byteIndex counts from the
// start marker, bit from -1 (start bit) to 8 (stop bit).
func (s *Session) Flip(byteIndex, bit int) error {
	if byteIndex < 0 || byteIndex >= frame.MaxPayload+frame.Overhead {
		return fmt.Errorf("byte index %d out of range", byteIndex)
	}
	if bit < -1 || bit > 8 {
		return fmt.Errorf("bit %d out of range [-1, 8]", bit)
	}
	ticks := link.BitTicks(s.Link.FrameStart(), s.Link.Period(), byteIndex, bit)
	s.addFault(link.FlipAt(ticks...))
	fmt.Fprintf(s.Out, "flip ticks %d-%d\n", ticks[0], ticks[len(ticks)-1])
	return nil
}

// Glitch pulls the line low for n ticks from the next tick.
func (s *Session) Glitch(n int) {
	s.addFault(link.GlitchAt(s.Link.Tick(), n))
}

// ClearFaults removes all injected faults.
func (s *Session) ClearFaults() {
	s.faults = nil
	s.Link.Line().Faults = nil
}

// Trace starts recording up to max line levels, or stops when max < 0.
func (s *Session) Trace(max int) {
	if max < 0 {
		s.Link.Line().Trace = nil
		return
	}
	s.Link.Line().Trace = &link.Trace{Max: max}
}

// PrintTrace prints recorded line levels, one character per bit period.
func (s *Session) PrintTrace() {
	trace := s.Link.Line().Trace
	if trace == nil {
		fmt.Fprintln(s.Out, "trace off")
		return
	}
	period := s.Link.Period()
	var sb strings.Builder
	for i, l := range trace.Levels {
		if i%period == 0 {
			sb.WriteString(l.String())
		}
	}
	fmt.Fprintln(s.Out, sb.String())
}

// PrintStats prints link counters.
func (s *Session) PrintStats() error {
	st := s.Link.Stats()
	if s.OutputJSON {
		out, err := json.Marshal(st)
		if err != nil {
			return err
		}
		fmt.Fprintln(s.Out, string(out))
		return nil
	}
	fmt.Fprintf(s.Out, "tick %d period %d sent %d received %d rejected %d rx-timeouts %d\n",
		s.Link.Tick(), s.Link.Period(), st.Sent, st.Received, st.Rejected, st.RxTimeouts)
	return nil
}

// Reset resets the link and removes faults.
func (s *Session) Reset() {
	s.ClearFaults()
	s.Link.Reset()
	s.Link.Results()
}

func (s *Session) addFault(f link.Fault) {
	s.faults = append(s.faults, f)
	s.Link.Line().Faults = s.faults
}

func (s *Session) printResults(results []frame.ParseResult) error {
	for _, r := range results {
		if s.OutputJSON {
			var res resultJSON
			if r.Packet != nil {
				res.Payload = hex.EncodeToString(r.Packet.Payload)
			} else {
				res.Error = r.Err.Error()
			}
			out, err := json.Marshal(&res)
			if err != nil {
				return err
			}
			fmt.Fprintln(s.Out, string(out))
			continue
		}
		if r.Packet != nil {
			fmt.Fprintf(s.Out, "OK %q % x\n", r.Packet.Payload, r.Packet.Payload)
		} else {
			fmt.Fprintf(s.Out, "ERR %v\n", r.Err)
		}
	}
	return nil
}

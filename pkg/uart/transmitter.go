package uart

// TxInput is the input of a Transmitter for one tick.
type TxInput struct {
	// Start requests transmission of Data. Ignored while busy.
	Start bool
	Data  byte
}

// TxOutput is the registered output of a Transmitter after one tick.
type TxOutput struct {
	Line Level
	Busy bool
}

type txState int

const (
	txIdle  txState = iota // line high, waiting for start
	txStart                // start bit
	txData                 // data bits, LSB first
	txStop                 // stop bit
)

// txRegs is the complete register set of a Transmitter.
type txRegs struct {
	state txState
	data  byte
	bit   uint8
	count int
	line  Level
	busy  bool
}

// Transmitter serializes one byte at a time onto a line.
type Transmitter struct {
	period int
	regs   txRegs
}

// NewTransmitter creates a Transmitter holding each bit for period ticks.
func NewTransmitter(period int) *Transmitter {
	t := &Transmitter{period: mustPeriod(period)}
	t.Reset()
	return t
}

// Period returns the bit period in ticks.
func (t *Transmitter) Period() int {
	return t.period
}

// Reset forces the transmitter idle with the line high.
func (t *Transmitter) Reset() {
	t.regs = txRegs{state: txIdle, line: High}
}

// Busy indicates a character is being shifted out.
func (t *Transmitter) Busy() bool {
	return t.regs.busy
}

// Line returns the current line level.
func (t *Transmitter) Line() Level {
	return t.regs.line
}

// Output returns the current registered output.
func (t *Transmitter) Output() TxOutput {
	return TxOutput{Line: t.regs.line, Busy: t.regs.busy}
}

// Step advances one tick.
func (t *Transmitter) Step(in TxInput) TxOutput {
	t.regs = t.regs.next(in, t.period)
	return t.Output()
}

func (r txRegs) next(in TxInput, period int) txRegs {
	switch r.state {
	case txIdle:
		if in.Start {
			return txRegs{state: txStart, data: in.Data, line: Low, busy: true}
		}
		return txRegs{state: txIdle, line: High}
	case txStart:
		if r.count < period-1 {
			r.count++
			return r
		}
		r.state, r.bit, r.count = txData, 0, 0
		r.line = Level(r.data&1 != 0)
	case txData:
		if r.count < period-1 {
			r.count++
			return r
		}
		r.count = 0
		if r.bit < 7 {
			r.bit++
			r.line = Level((r.data>>r.bit)&1 != 0)
			return r
		}
		r.state, r.line = txStop, High
	case txStop:
		if r.count < period-1 {
			r.count++
			return r
		}
		return txRegs{state: txIdle, line: High}
	}
	return r
}

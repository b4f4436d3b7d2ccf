// Package sh provides an interactive shell over a simulated link.
package sh

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/seriallink/pkg/link"
)

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool

	Shell   *ishell.Shell
	Session *Session
}

const (
	shellKey = "$shell"
	prompt   = "serlink > "
)

var (
	// flags

	evalOnly   bool
	outputJSON bool

	// commands
	commands = []*ishell.Cmd{
		&SendCmd,
		&StepCmd,
		&FlipCmd,
		&GlitchCmd,
		&ClearCmd,
		&TraceCmd,
		&StatsCmd,
		&ResetCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
}

// AddCmds is used by other commands providers during init func.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// New creates a new shell.
func New(l *link.Link) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		Shell:       ishell.New(),
	}
	s.Session = NewSession(l, os.Stdout)
	s.Session.OutputJSON = outputJSON
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(prompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// Run runs the shell. With args, it runs them as a single command.
func (s *Shell) Run(args ...string) {
	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Printf("link period %d ticks/bit\n", s.Session.Link.Period())
		s.Shell.Run()
		return
	}
	log.Fatalln("command expected")
}

func intArg(c *ishell.Context, n int, name string, def int) (int, bool) {
	if len(c.Args) <= n {
		return def, true
	}
	val, err := strconv.Atoi(c.Args[n])
	if err != nil {
		c.Err(fmt.Errorf("invalid %s: %v", name, err))
		return 0, false
	}
	return val, true
}

var (
	// SendCmd sends a frame and runs the link until idle.
	SendCmd = ishell.Cmd{
		Name:    "send",
		Aliases: []string{"s"},
		Help:    "[-x] PAYLOAD...",
		Func: func(c *ishell.Context) {
			args, isHex := c.Args, false
			if len(args) > 0 && args[0] == "-x" {
				args, isHex = args[1:], true
			}
			payload, err := ParsePayload(args, isHex)
			if err != nil {
				c.Err(err)
				return
			}
			if err := ShellFrom(c).Session.Send(context.Background(), payload); err != nil {
				c.Err(err)
			}
		},
	}

	// StepCmd runs ticks.
	StepCmd = ishell.Cmd{
		Name: "step",
		Help: "[TICKS]",
		Func: func(c *ishell.Context) {
			n, ok := intArg(c, 0, "TICKS", 1)
			if !ok {
				return
			}
			if err := ShellFrom(c).Session.Step(n); err != nil {
				c.Err(err)
			}
		},
	}

	// FlipCmd flips a bit in the next frame.
	FlipCmd = ishell.Cmd{
		Name: "flip",
		Help: "BYTE BIT (BYTE from 0 = start marker, BIT -1 = start .. 8 = stop)",
		Func: func(c *ishell.Context) {
			if len(c.Args) < 2 {
				c.Err(fmt.Errorf("BYTE and BIT required"))
				return
			}
			k, ok := intArg(c, 0, "BYTE", 0)
			if !ok {
				return
			}
			bit, ok := intArg(c, 1, "BIT", 0)
			if !ok {
				return
			}
			if err := ShellFrom(c).Session.Flip(k, bit); err != nil {
				c.Err(err)
			}
		},
	}

	// GlitchCmd pulls the line low.
	GlitchCmd = ishell.Cmd{
		Name: "glitch",
		Help: "[TICKS]",
		Func: func(c *ishell.Context) {
			n, ok := intArg(c, 0, "TICKS", 1)
			if !ok {
				return
			}
			ShellFrom(c).Session.Glitch(n)
		},
	}

	// ClearCmd removes faults.
	ClearCmd = ishell.Cmd{
		Name: "clear-faults",
		Func: func(c *ishell.Context) {
			ShellFrom(c).Session.ClearFaults()
		},
	}

	// TraceCmd controls line tracing.
	TraceCmd = ishell.Cmd{
		Name: "trace",
		Help: "on [MAX] | off | show",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c).Session
			if len(c.Args) == 0 || c.Args[0] == "show" {
				s.PrintTrace()
				return
			}
			switch c.Args[0] {
			case "on":
				max, ok := intArg(c, 1, "MAX", 0)
				if ok {
					s.Trace(max)
				}
			case "off":
				s.Trace(-1)
			default:
				c.Err(fmt.Errorf("unknown trace option %q", c.Args[0]))
			}
		},
	}

	// StatsCmd prints counters.
	StatsCmd = ishell.Cmd{
		Name: "stats",
		Func: func(c *ishell.Context) {
			if err := ShellFrom(c).Session.PrintStats(); err != nil {
				c.Err(err)
			}
		},
	}

	// ResetCmd resets the link.
	ResetCmd = ishell.Cmd{
		Name: "reset",
		Func: func(c *ishell.Context) {
			ShellFrom(c).Session.Reset()
		},
	}
)

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	l, err := link.Default().NewLink()
	if err != nil {
		log.Fatalln(err)
	}
	New(l).Run(flag.Args()...)
}

package link

import (
	"flag"

	"github.com/robotalks/seriallink/pkg/frame"
	"github.com/robotalks/seriallink/pkg/uart"
)

// Config defines a simulated link.
type Config struct {
	// Name labels metrics of the link.
	Name string
	// TickRate is the reference tick rate (ticks per second).
	TickRate int
	// BitRate is the line bit rate (bits per second).
	BitRate int
	// MaxPayload caps payloads accepted by the deframer.
	MaxPayload int
	// RxTimeout is the stuck-line timeout of the receiver in ticks.
	RxTimeout int
	// FrameTimeout is the ticks without a received byte after which a
	// partial frame is dropped. 0 means DefaultFrameTimeoutChars
	// characters, negative disables it.
	FrameTimeout int
}

// Defaults
const (
	DefaultTickRate = 1843200
	DefaultBitRate  = 115200

	DefaultFrameTimeoutChars = 4
)

var defaultConfig = Config{
	Name:       "sim",
	TickRate:   DefaultTickRate,
	BitRate:    DefaultBitRate,
	MaxPayload: frame.MaxPayload,
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Name, "link-name", defaultConfig.Name, "Link name used in metrics.")
	flag.IntVar(&defaultConfig.TickRate, "tick-rate", defaultConfig.TickRate, "Reference tick rate (ticks/s).")
	flag.IntVar(&defaultConfig.BitRate, "bit-rate", defaultConfig.BitRate, "Line bit rate (bits/s).")
	flag.IntVar(&defaultConfig.MaxPayload, "max-payload", defaultConfig.MaxPayload, "Largest accepted payload (bytes).")
	flag.IntVar(&defaultConfig.RxTimeout, "rx-timeout", defaultConfig.RxTimeout, "Ticks a stuck-low line is tolerated, 0 disables.")
	flag.IntVar(&defaultConfig.FrameTimeout, "frame-timeout", defaultConfig.FrameTimeout, "Ticks of silence dropping a partial frame, 0 for default, negative disables.")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a config with defaults.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// UART returns the transceiver config.
func (c *Config) UART() uart.Config {
	return uart.Config{TickRate: c.TickRate, BitRate: c.BitRate, Timeout: c.RxTimeout}
}

// FrameTimeoutTicks resolves FrameTimeout for a bit period, 0 if disabled.
func (c *Config) FrameTimeoutTicks(period int) uint64 {
	switch {
	case c.FrameTimeout < 0:
		return 0
	case c.FrameTimeout == 0:
		return uint64(DefaultFrameTimeoutChars * (uart.BitsPerChar*period + 1))
	}
	return uint64(c.FrameTimeout)
}

// NewLink creates a Link from the config.
func (c *Config) NewLink() (*Link, error) {
	return New(*c)
}

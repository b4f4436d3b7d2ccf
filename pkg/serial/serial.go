// Package serial opens UART devices for frame streams.
package serial

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"go.bug.st/serial"

	"github.com/robotalks/seriallink/pkg/frame"
)

// Port is an open serial port.
type Port interface {
	io.ReadWriteCloser
	SetReadTimeout(time.Duration) error
}

// Config defines the serial port.
type Config struct {
	Device      string
	Baud        int
	ReadTimeout time.Duration
}

// DefaultBaud is the default line rate.
const DefaultBaud = 115200

var (
	// ErrNoDevice indicates no device was configured.
	ErrNoDevice = errors.New("serial: no device")

	defaultConfig = Config{
		Baud:        DefaultBaud,
		ReadTimeout: frame.DefaultTimeout,
	}

	// open is replaced in tests.
	open = func(device string, mode *serial.Mode) (Port, error) {
		return serial.Open(device, mode)
	}
)

func init() {
	if dev := os.Getenv("SERLINK_DEVICE"); dev != "" {
		defaultConfig.Device = dev
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	BindFlags(flag.CommandLine, &defaultConfig)
}

// BindFlags binds flags of fs to conf.
func BindFlags(fs *flag.FlagSet, conf *Config) {
	fs.StringVar(&conf.Device, "device", conf.Device, "Serial device, e.g. /dev/ttyUSB0.")
	fs.IntVar(&conf.Baud, "baud", conf.Baud, "Serial baud rate, 8N1.")
	fs.DurationVar(&conf.ReadTimeout, "read-timeout", conf.ReadTimeout, "Serial read timeout, drops a partial frame.")
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

// Mode returns the 8N1 port mode.
func (c *Config) Mode() *serial.Mode {
	return &serial.Mode{
		BaudRate: c.Baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
}

// Validate checks the config.
func (c *Config) Validate() error {
	if c.Device == "" {
		return ErrNoDevice
	}
	if c.Baud <= 0 {
		return fmt.Errorf("serial: invalid baud %d", c.Baud)
	}
	if c.ReadTimeout < 0 {
		return fmt.Errorf("serial: invalid read timeout %v", c.ReadTimeout)
	}
	return nil
}

// Open opens the port.
func (c *Config) Open() (Port, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	port, err := open(c.Device, c.Mode())
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", c.Device, err)
	}
	if c.ReadTimeout > 0 {
		if err := port.SetReadTimeout(c.ReadTimeout); err != nil {
			port.Close()
			return nil, fmt.Errorf("set read timeout %s: %w", c.Device, err)
		}
	}
	return port, nil
}

// NewStream wraps an open port into a frame stream. With a read timeout
// on the port, the stream uses it to drop partial frames.
func (c *Config) NewStream(port Port) *frame.Stream {
	s := frame.NewStream(port)
	if c.ReadTimeout > 0 {
		s.ReadTimeout = true
	}
	return s
}

// Ports lists the serial ports of the system.
func Ports() ([]string, error) {
	return serial.GetPortsList()
}

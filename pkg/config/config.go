// Package config resolves the daemon configuration from built-in
// defaults, an optional TOML file and command line flags, in that order.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/denisbrodbeck/machineid"

	"github.com/robotalks/seriallink/pkg/frame"
	"github.com/robotalks/seriallink/pkg/serial"
)

// Config is the daemon configuration.
type Config struct {
	// File is the TOML file loaded by Resolve.
	File string
	// Station identifies this daemon in published events.
	Station string
	// Link names the serial link in events and metrics.
	Link       string
	MaxPayload int
	Serial     serial.Config
	// SinkURL is where events are published, see sink.Open.
	SinkURL string
	// Rejects enables publishing rejected frames.
	Rejects bool
	// WebsocketListen serves events to websocket clients.
	WebsocketListen string
	// MetricsListen serves prometheus metrics.
	MetricsListen string
}

type fileConfig struct {
	Station    string `toml:"station"`
	Link       string `toml:"link"`
	MaxPayload int    `toml:"max_payload"`
	Serial     struct {
		Device      string `toml:"device"`
		Baud        int    `toml:"baud"`
		ReadTimeout string `toml:"read_timeout"`
	} `toml:"serial"`
	Sink struct {
		URL       string `toml:"url"`
		Rejects   bool   `toml:"rejects"`
		Websocket string `toml:"websocket"`
	} `toml:"sink"`
	Metrics struct {
		Listen string `toml:"listen"`
	} `toml:"metrics"`
}

var (
	// ErrNoStation indicates the station ID is empty.
	ErrNoStation = errors.New("config: no station")

	defaultConfig = Config{
		Link:       "serial",
		MaxPayload: frame.MaxPayload,
		Serial:     *serial.Default(),
	}
)

func init() {
	if val := os.Getenv("SERLINK_MQTT_URL"); val != "" {
		defaultConfig.SinkURL = val
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	BindFlags(flag.CommandLine, &defaultConfig)
}

// BindFlags binds flags of fs to conf.
func BindFlags(fs *flag.FlagSet, conf *Config) {
	fs.StringVar(&conf.File, "config", conf.File, "TOML config file.")
	fs.StringVar(&conf.Station, "station", conf.Station, "Station ID, defaults to one derived from the machine ID.")
	fs.StringVar(&conf.Link, "link", conf.Link, "Link name.")
	fs.IntVar(&conf.MaxPayload, "max-payload", conf.MaxPayload, "Largest accepted payload (bytes).")
	fs.StringVar(&conf.SinkURL, "sink", conf.SinkURL, "Event sink URL: mqtt://, ws:// or tcp://.")
	fs.BoolVar(&conf.Rejects, "rejects", conf.Rejects, "Publish rejected frames.")
	fs.StringVar(&conf.WebsocketListen, "ws-listen", conf.WebsocketListen, "Serve events to websocket clients on this address.")
	fs.StringVar(&conf.MetricsListen, "metrics", conf.MetricsListen, "Serve prometheus metrics on this address.")
	serial.BindFlags(fs, &conf.Serial)
}

// NewConfig resolves the config from the command line.
func NewConfig() (*Config, error) {
	return Resolve(flag.CommandLine, defaultConfig)
}

// Resolve loads base.File over base if set, then re-applies the flags
// explicitly set in parsed fs, and validates the result.
func Resolve(fs *flag.FlagSet, base Config) (*Config, error) {
	conf := base
	if conf.File != "" {
		if err := conf.Load(conf.File); err != nil {
			return nil, err
		}
		override := flag.NewFlagSet("override", flag.ContinueOnError)
		BindFlags(override, &conf)
		var err error
		fs.Visit(func(f *flag.Flag) {
			if override.Lookup(f.Name) != nil && err == nil {
				err = override.Set(f.Name, f.Value.String())
			}
		})
		if err != nil {
			return nil, err
		}
	}
	if conf.Station == "" {
		conf.Station = StationID()
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return &conf, nil
}

// Load applies keys defined in a TOML file.
func (c *Config) Load(path string) error {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return fmt.Errorf("load config %s: %w", path, err)
	}
	if keys := meta.Undecoded(); len(keys) > 0 {
		return fmt.Errorf("load config %s: unknown key %q", path, keys[0].String())
	}
	if meta.IsDefined("station") {
		c.Station = strings.TrimSpace(raw.Station)
	}
	if meta.IsDefined("link") {
		c.Link = strings.TrimSpace(raw.Link)
	}
	if meta.IsDefined("max_payload") {
		c.MaxPayload = raw.MaxPayload
	}
	if meta.IsDefined("serial", "device") {
		c.Serial.Device = raw.Serial.Device
	}
	if meta.IsDefined("serial", "baud") {
		c.Serial.Baud = raw.Serial.Baud
	}
	if meta.IsDefined("serial", "read_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.Serial.ReadTimeout))
		if err != nil {
			return fmt.Errorf("parse serial.read_timeout: %w", err)
		}
		c.Serial.ReadTimeout = d
	}
	if meta.IsDefined("sink", "url") {
		c.SinkURL = raw.Sink.URL
	}
	if meta.IsDefined("sink", "rejects") {
		c.Rejects = raw.Sink.Rejects
	}
	if meta.IsDefined("sink", "websocket") {
		c.WebsocketListen = raw.Sink.Websocket
	}
	if meta.IsDefined("metrics", "listen") {
		c.MetricsListen = raw.Metrics.Listen
	}
	return nil
}

// Validate checks the config.
func (c *Config) Validate() error {
	if c.Station == "" {
		return ErrNoStation
	}
	if c.MaxPayload < 1 || c.MaxPayload > frame.MaxPayload {
		return fmt.Errorf("config: max payload %d out of range [1, %d]", c.MaxPayload, frame.MaxPayload)
	}
	if err := c.Serial.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// StationID derives a stable station ID from the machine ID, falling
// back to the host name.
func StationID() string {
	if id, err := machineid.ProtectedID("seriallink"); err == nil && len(id) >= 12 {
		return id[:12]
	}
	if host, err := os.Hostname(); err == nil {
		return host
	}
	return "unknown"
}

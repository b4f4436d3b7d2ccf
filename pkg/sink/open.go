package sink

import (
	"context"
	"fmt"
	"net"
	"net/url"

	"github.com/robotalks/seriallink/pkg/sink/mqtt"
	"github.com/robotalks/seriallink/pkg/sink/stream"
	"github.com/robotalks/seriallink/pkg/sink/websocket"
)

// Options configures Open.
type Options struct {
	// Station names the publishing station, used in MQTT topics.
	Station string
	// Subscribe is the MQTT topic to read from, e.g. "+/packets".
	Subscribe string
	// Origin is the websocket origin, defaults to http://localhost.
	Origin string
}

// Open connects to a sink by URL:
//
//	mqtt://[user:pass@]host:port/prefix/   publish to <prefix><station>/packets
//	ws://host:port/path                    one websocket message per event
//	tcp://host:port                        4-byte LE length-prefixed stream
func Open(ctx context.Context, rawURL string, opts Options) (PacketReadWriter, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("sink url %q: %w", rawURL, err)
	}
	switch u.Scheme {
	case "mqtt", "mqtts":
		q, err := mqtt.NewQueueFromURL(rawURL)
		if err != nil {
			return nil, err
		}
		rw := mqtt.NewPacketReadWriter(q).ForStation(opts.Station)
		if opts.Subscribe != "" {
			rw.SubTopic = opts.Subscribe
		}
		return rw, nil
	case "ws", "wss":
		origin := opts.Origin
		if origin == "" {
			origin = "http://localhost/"
		}
		return websocket.Dial(ctx, rawURL, origin)
	case "tcp":
		var d net.Dialer
		conn, err := d.DialContext(ctx, "tcp", u.Host)
		if err != nil {
			return nil, fmt.Errorf("sink dial %s: %w", u.Host, err)
		}
		return stream.New(conn), nil
	}
	return nil, fmt.Errorf("sink url %q: unsupported scheme %q", rawURL, u.Scheme)
}

package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	fx "github.com/robotalks/seriallink/pkg/framework"
	"github.com/robotalks/seriallink/pkg/msgs"
	"github.com/robotalks/seriallink/pkg/sink"
	"github.com/robotalks/seriallink/pkg/sink/mqtt"
)

var (
	sinkURL = "mqtt://localhost:1883/serlink/"
	station = "+"
)

func init() {
	if val := os.Getenv("SERLINK_MQTT_URL"); val != "" {
		sinkURL = val
	}
	flag.StringVar(&sinkURL, "sink", sinkURL, "MQTT broker URL, or ws:// of a serlinkd -ws-listen.")
	flag.StringVar(&station, "station", station, "Station to monitor, + for all.")
}

func printEvent(_ context.Context, ev msgs.Event) error {
	switch e := ev.(type) {
	case *msgs.PacketEvent:
		log.Printf("%s/%s: %d bytes %q (id=%s, at %s)", e.Station, e.Link,
			len(e.Payload), e.Payload, e.Id, e.Time().Format(time.RFC3339Nano))
	case *msgs.RejectEvent:
		log.Printf("%s/%s: rejected %s: %s (id=%s)", e.Station, e.Link, e.Reason, e.Message, e.Id)
	default:
		log.Printf("event %x: %s", ev.TypeID(), ev.String())
	}
	return nil
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	runner := fx.NewRunner().HandleSignals()
	rw, err := sink.Open(runner.Context, sinkURL, sink.Options{Subscribe: mqtt.StationTopic(station)})
	if err != nil {
		log.Fatalln(err)
	}
	if r, ok := rw.(fx.Runnable); ok {
		runner.Go(fx.NamedRun("sink", r))
	}
	runner.Go(fx.NamedRun("reader", sink.NewReader(rw, sink.HandleEventFunc(printEvent))))
	if err := runner.Wait(); err != nil {
		log.Fatalln(err)
	}
}

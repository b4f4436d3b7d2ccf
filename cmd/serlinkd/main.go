package main

//go-build: CGO_ENABLED=0

import (
	"context"
	"encoding/hex"
	"flag"
	"log"
	"net/http"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/seriallink/pkg/config"
	"github.com/robotalks/seriallink/pkg/frame"
	fx "github.com/robotalks/seriallink/pkg/framework"
	"github.com/robotalks/seriallink/pkg/metrics"
	"github.com/robotalks/seriallink/pkg/sink"
	"github.com/robotalks/seriallink/pkg/sink/websocket"
)

var (
	sendHex string
)

func init() {
	config.SetupFlags()
	flag.StringVar(&sendHex, "send", sendHex, "Hex payload framed and sent once the port is open.")
}

// httpServer serves handler on addr until ctx is done.
func httpServer(addr string, handler http.Handler) fx.Runnable {
	return fx.RunFunc(func(ctx context.Context) error {
		srv := &http.Server{Addr: addr, Handler: handler}
		errCh := make(chan error, 1)
		go func() { errCh <- srv.ListenAndServe() }()
		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
			return ctx.Err()
		}
	})
}

func main() {
	flag.Parse()

	conf, err := config.NewConfig()
	if err != nil {
		log.Fatalln(err)
	}
	var payload []byte
	if sendHex != "" {
		if payload, err = hex.DecodeString(sendHex); err != nil {
			log.Fatalf("invalid -send: %v", err)
		}
	}

	runner := fx.NewRunner().HandleSignals()

	var writers []sink.PacketWriter
	if conf.SinkURL != "" {
		rw, err := sink.Open(runner.Context, conf.SinkURL, sink.Options{Station: conf.Station})
		if err != nil {
			log.Fatalln(err)
		}
		if r, ok := rw.(fx.Runnable); ok {
			runner.Go(fx.NamedRun("sink", r))
		}
		writers = append(writers, rw)
	}
	if conf.WebsocketListen != "" {
		hub := websocket.NewHub()
		runner.Go(fx.NamedRun("websocket", httpServer(conf.WebsocketListen, hub)))
		writers = append(writers, hub)
	}
	if conf.MetricsListen != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		runner.Go(fx.NamedRun("metrics", httpServer(conf.MetricsListen, mux)))
	}

	port, err := conf.Serial.Open()
	if err != nil {
		log.Fatalln(err)
	}
	glog.Infof("station %s: %s open at %d baud", conf.Station, conf.Serial.Device, conf.Serial.Baud)

	counters := metrics.ForLink(conf.Link)
	pub := sink.NewPublisher(sink.Multi(writers...), conf.Station, conf.Link)
	pub.Rejects = conf.Rejects
	stream := conf.Serial.NewStream(port).WithMaxPayload(conf.MaxPayload)
	stream.Handler = frame.HandlePacketFunc(func(ctx context.Context, pkt *frame.Packet) {
		counters.FrameReceived(pkt.Len())
		pub.HandlePacket(ctx, pkt)
	})
	stream.Rejects = frame.HandleRejectFunc(func(ctx context.Context, err error) {
		counters.FrameRejected(err)
		glog.Warningf("frame rejected: %v", err)
		pub.HandleReject(ctx, err)
	})

	runner.Go(fx.NamedRun("serial", fx.RunFunc(func(ctx context.Context) error {
		return fx.RunWithContextCloser(ctx, port, func() error { return stream.Run(ctx) })
	})))
	if payload != nil {
		if err := stream.WritePacket(payload); err != nil {
			glog.Errorf("send: %v", err)
		} else {
			counters.FrameSent()
		}
	}

	if err := runner.Wait(); err != nil {
		log.Fatalln(err)
	}
}

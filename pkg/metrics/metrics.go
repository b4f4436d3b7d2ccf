// Package metrics exports link counters to prometheus.
package metrics

import (
	"errors"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/robotalks/seriallink/pkg/frame"
)

// Reject reasons.
const (
	ReasonFraming  = "framing"
	ReasonChecksum = "checksum"
	ReasonLength   = "length"
	ReasonTimeout  = "timeout"
	ReasonOther    = "other"
)

var (
	registerOnce sync.Once

	framesSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "seriallink",
			Subsystem: "frames",
			Name:      "sent_total",
			Help:      "Frames handed to the line.",
		},
		[]string{"link"},
	)
	framesReceived = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "seriallink",
			Subsystem: "frames",
			Name:      "received_total",
			Help:      "Frames accepted by the deframer.",
		},
		[]string{"link"},
	)
	framesRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "seriallink",
			Subsystem: "frames",
			Name:      "rejected_total",
			Help:      "Frames dropped by the deframer, by reason.",
		},
		[]string{"link", "reason"},
	)
	payloadBytes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "seriallink",
			Subsystem: "payload",
			Name:      "bytes_total",
			Help:      "Payload bytes of accepted frames.",
		},
		[]string{"link"},
	)
)

// Register registers all collectors with the default registry once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(framesSent, framesReceived, framesRejected, payloadBytes)
	})
}

// Handler serves the registered metrics.
func Handler() http.Handler {
	Register()
	return promhttp.Handler()
}

// Reason classifies a deframer error.
func Reason(err error) string {
	switch {
	case errors.Is(err, frame.ErrFraming):
		return ReasonFraming
	case errors.Is(err, frame.ErrChecksum):
		return ReasonChecksum
	case errors.Is(err, frame.ErrLength):
		return ReasonLength
	case errors.Is(err, frame.ErrTimeout):
		return ReasonTimeout
	}
	return ReasonOther
}

// Link counts frames of one named link.
type Link struct {
	sent     prometheus.Counter
	received prometheus.Counter
	bytes    prometheus.Counter
	name     string
}

// ForLink returns the counters of a link.
func ForLink(name string) *Link {
	return &Link{
		sent:     framesSent.WithLabelValues(name),
		received: framesReceived.WithLabelValues(name),
		bytes:    payloadBytes.WithLabelValues(name),
		name:     name,
	}
}

// FrameSent counts a frame handed to the line.
func (l *Link) FrameSent() {
	l.sent.Inc()
}

// FrameReceived counts an accepted frame.
func (l *Link) FrameReceived(payloadLen int) {
	l.received.Inc()
	l.bytes.Add(float64(payloadLen))
}

// FrameRejected counts a dropped frame.
func (l *Link) FrameRejected(err error) {
	framesRejected.WithLabelValues(l.name, Reason(err)).Inc()
}

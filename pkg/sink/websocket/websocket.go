// Package websocket carries one event per websocket message.
package websocket

import (
	"context"
	"net"
	"net/http"
	"sync"

	"github.com/golang/glog"
	"golang.org/x/net/websocket"
)

// ReadWriter implements PacketReadWriter.
type ReadWriter websocket.Conn

// New wraps websocket.Conn.
func New(conn *websocket.Conn) *ReadWriter {
	return (*ReadWriter)(conn)
}

// Dial connects to a websocket server.
func Dial(ctx context.Context, url, origin string) (*ReadWriter, error) {
	conf, err := websocket.NewConfig(url, origin)
	if err != nil {
		return nil, err
	}
	conf.Dialer = &net.Dialer{}
	if deadline, ok := ctx.Deadline(); ok {
		conf.Dialer.Deadline = deadline
	}
	conn, err := websocket.DialConfig(conf)
	if err != nil {
		return nil, err
	}
	return New(conn), nil
}

// ReadPacket implements PacketReader.
func (p *ReadWriter) ReadPacket() (pkt []byte, err error) {
	err = websocket.Message.Receive((*websocket.Conn)(p), &pkt)
	return
}

// WritePacket implements PacketWriter.
func (p *ReadWriter) WritePacket(pkt []byte) error {
	return websocket.Message.Send((*websocket.Conn)(p), pkt)
}

// Close implements io.Closer.
func (p *ReadWriter) Close() error {
	return (*websocket.Conn)(p).Close()
}

// Hub serves websocket clients and broadcasts each packet to all of them.
type Hub struct {
	lock  sync.RWMutex
	conns map[*websocket.Conn]struct{}
}

// NewHub creates a Hub.
func NewHub() *Hub {
	return &Hub{conns: make(map[*websocket.Conn]struct{})}
}

// ServeHTTP implements http.Handler.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	websocket.Handler(h.serve).ServeHTTP(w, r)
}

// Len returns the number of connected clients.
func (h *Hub) Len() int {
	h.lock.RLock()
	defer h.lock.RUnlock()
	return len(h.conns)
}

// WritePacket implements PacketWriter. Clients failing to receive are
// disconnected.
func (h *Hub) WritePacket(pkt []byte) error {
	h.lock.RLock()
	conns := make([]*websocket.Conn, 0, len(h.conns))
	for conn := range h.conns {
		conns = append(conns, conn)
	}
	h.lock.RUnlock()
	for _, conn := range conns {
		if err := websocket.Message.Send(conn, pkt); err != nil {
			glog.V(2).Infof("websocket client %s: %v", conn.Request().RemoteAddr, err)
			conn.Close()
		}
	}
	return nil
}

func (h *Hub) serve(conn *websocket.Conn) {
	h.lock.Lock()
	h.conns[conn] = struct{}{}
	h.lock.Unlock()
	glog.V(2).Infof("websocket client %s connected", conn.Request().RemoteAddr)
	defer func() {
		h.lock.Lock()
		delete(h.conns, conn)
		h.lock.Unlock()
	}()
	// drain until the client goes away
	for {
		var msg []byte
		if err := websocket.Message.Receive(conn, &msg); err != nil {
			return
		}
	}
}

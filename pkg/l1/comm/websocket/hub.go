package websocket

import (
	"context"
	"io"
	"net/http"
	"sync"

	"github.com/golang/glog"
	"golang.org/x/net/websocket"

	"github.com/robotalks/brick.go/pkg/l1/comm"
)

// Hub serves any number of websocket clients as one
// comm.PacketReadWriter: written packets go to every client and packets
// from all clients are read in arrival order.
type Hub struct {
	lock     sync.Mutex
	clients  map[*client]struct{}
	packetCh chan []byte
	closed   bool
}

type client struct {
	conn comm.PacketReadWriter
	out  chan []byte
}

// clientBacklog is the number of packets queued for a slow client before
// packets are dropped.
const clientBacklog = 8

// NewHub creates a Hub.
func NewHub() *Hub {
	return &Hub{
		clients:  make(map[*client]struct{}),
		packetCh: make(chan []byte, clientBacklog),
	}
}

// Handler returns the http.Handler accepting websocket clients.
func (h *Hub) Handler() http.Handler {
	return websocket.Handler(func(conn *websocket.Conn) {
		h.Serve(New(conn))
	})
}

// Serve runs a connected client until it disconnects.
func (h *Hub) Serve(conn comm.PacketReadWriter) {
	c := &client{conn: conn, out: make(chan []byte, clientBacklog)}
	h.lock.Lock()
	if h.closed {
		h.lock.Unlock()
		return
	}
	h.clients[c] = struct{}{}
	h.lock.Unlock()
	glog.V(1).Infof("websocket client connected")

	go func() {
		for pkt := range c.out {
			if err := conn.WritePacket(pkt); err != nil {
				glog.V(1).Infof("websocket write: %v", err)
			}
		}
	}()
	for {
		pkt, err := conn.ReadPacket()
		if err != nil {
			if err != io.EOF {
				glog.V(1).Infof("websocket read: %v", err)
			}
			break
		}
		h.lock.Lock()
		if !h.closed {
			select {
			case h.packetCh <- pkt:
			default:
				glog.Warning("websocket packet dropped")
			}
		}
		h.lock.Unlock()
	}

	h.lock.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.out)
	}
	h.lock.Unlock()
	glog.V(1).Infof("websocket client disconnected")
}

// Name implements fx.Named.
func (h *Hub) Name() string {
	return "websocket"
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.lock.Lock()
	defer h.lock.Unlock()
	return len(h.clients)
}

// WritePacket implements PacketWriter. It never blocks; a client which
// can't keep up misses packets.
func (h *Hub) WritePacket(pkt []byte) error {
	h.lock.Lock()
	defer h.lock.Unlock()
	for c := range h.clients {
		select {
		case c.out <- pkt:
		default:
		}
	}
	return nil
}

// ReadPacket implements PacketReader.
func (h *Hub) ReadPacket() ([]byte, error) {
	pkt, ok := <-h.packetCh
	if !ok {
		return nil, io.EOF
	}
	return pkt, nil
}

// Run implements Runnable. Once ctx is done, ReadPacket returns io.EOF
// and no further clients are accepted.
func (h *Hub) Run(ctx context.Context) error {
	<-ctx.Done()
	h.lock.Lock()
	h.closed = true
	close(h.packetCh)
	for c := range h.clients {
		delete(h.clients, c)
		close(c.out)
	}
	h.lock.Unlock()
	return ctx.Err()
}

// Package websocket carries L1 packets over websocket connections.
package websocket

import (
	"net/url"

	"golang.org/x/net/websocket"
)

// ReadWriter implements comm.PacketReadWriter over a single connection.
// Each packet is a binary websocket message.
type ReadWriter websocket.Conn

// New wraps websocket.Conn.
func New(conn *websocket.Conn) *ReadWriter {
	return (*ReadWriter)(conn)
}

// Dial connects a websocket server, like the telemetry endpoint of a
// brick host.
func Dial(serverURL string) (*ReadWriter, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return nil, err
	}
	origin := url.URL{Scheme: "http", Host: u.Host}
	if u.Scheme == "wss" {
		origin.Scheme = "https"
	}
	conn, err := websocket.Dial(serverURL, "", origin.String())
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

// Close closes the connection.
func (p *ReadWriter) Close() error {
	return (*websocket.Conn)(p).Close()
}

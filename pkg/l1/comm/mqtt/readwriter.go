package mqtt

import (
	"context"
	"io"
	"sync"

	"github.com/golang/glog"

	"github.com/robotalks/brick.go/pkg/l1"
)

// DefaultBacklog is the number of received packets buffered for
// ReadPacket.
const DefaultBacklog = 16

// ReadWriter implements comm.PacketReadWriter over a pair of topics.
type ReadWriter struct {
	Queue    *Queue
	SubTopic string
	PubTopic string

	packetCh chan []byte
	lock     sync.Mutex
	closed   bool
}

// NewPacketReadWriter creates the ReadWriter.
func NewPacketReadWriter(q *Queue) *ReadWriter {
	return &ReadWriter{Queue: q, packetCh: make(chan []byte, DefaultBacklog)}
}

// WithTopics specifies the topics.
func (p *ReadWriter) WithTopics(sub, pub string) *ReadWriter {
	p.SubTopic, p.PubTopic = sub, pub
	return p
}

// ForHost sets topics of a brick host: it receives commands and
// publishes state.
func (p *ReadWriter) ForHost(ref l1.Ref) *ReadWriter {
	return p.WithTopics(ref.CommandTopic(), ref.StateTopic())
}

// ForOperator sets topics of an operator of a brick host.
func (p *ReadWriter) ForOperator(ref l1.Ref) *ReadWriter {
	return p.WithTopics(ref.StateTopic(), ref.CommandTopic())
}

// Name implements fx.Named.
func (p *ReadWriter) Name() string {
	return "mqtt " + p.SubTopic
}

// ReadPacket implements PacketReader.
func (p *ReadWriter) ReadPacket() ([]byte, error) {
	pkt, ok := <-p.packetCh
	if !ok {
		return nil, io.EOF
	}
	return pkt, nil
}

// WritePacket implements PacketWriter. It doesn't wait for delivery.
func (p *ReadWriter) WritePacket(pkt []byte) error {
	p.Queue.Pub(p.PubTopic, pkt)
	return nil
}

// Run implements Runnable.
func (p *ReadWriter) Run(ctx context.Context) error {
	sub := p.Queue.Sub(p.SubTopic, p.handleMsg)
	<-ctx.Done()
	sub.Close()
	p.lock.Lock()
	p.closed = true
	close(p.packetCh)
	p.lock.Unlock()
	return ctx.Err()
}

func (p *ReadWriter) handleMsg(topic string, payload []byte) {
	p.lock.Lock()
	defer p.lock.Unlock()
	if p.closed {
		return
	}
	select {
	case p.packetCh <- payload:
	default:
		glog.Warningf("packet from %q dropped", topic)
	}
}

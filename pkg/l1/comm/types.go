// Package comm defines the packet transports of the L1 network.
package comm

import fx "github.com/robotalks/brick.go/pkg/framework"

// PacketReader reads packets in bytes.
type PacketReader interface {
	ReadPacket() ([]byte, error)
}

// PacketWriter writes packets in bytes.
type PacketWriter interface {
	WritePacket([]byte) error
}

// PacketReadWriter reads/writes packets in bytes.
type PacketReadWriter interface {
	PacketReader
	PacketWriter
}

// PacketWriters writes every packet to all its writers.
type PacketWriters []PacketWriter

// WritePacket implements PacketWriter. A failed writer doesn't stop the
// others.
func (w PacketWriters) WritePacket(pkt []byte) error {
	var errs fx.AggregatedError
	for _, writer := range w {
		errs.Add(writer.WritePacket(pkt))
	}
	return errs.Aggregate()
}

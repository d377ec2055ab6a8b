package comm

// MaxPayloadSize is the largest payload a single frame can declare.
const MaxPayloadSize = 255

// Bits packs and unpacks integer fields of arbitrary width into a byte
// buffer. Fields start at byte Base and are laid out least significant
// bit first. Each message gets its own Bits, so the cursor never leaks
// from one message into another.
type Bits struct {
	Base int

	buf      []byte
	cursor   uint
	overflow bool
}

// NewBits creates Bits for composing a message. The first base bytes are
// reserved for fixed header fields.
func NewBits(base int) *Bits {
	return &Bits{Base: base, buf: make([]byte, base, MaxPayloadSize)}
}

// BitsOf creates Bits for parsing a received payload. The payload is not
// copied.
func BitsOf(payload []byte, base int) *Bits {
	return &Bits{Base: base, buf: payload}
}

// Reset rewinds the cursor to the first bit after Base.
func (b *Bits) Reset() {
	b.cursor, b.overflow = 0, false
}

// Cursor returns the number of bits consumed since Base.
func (b *Bits) Cursor() uint {
	return b.cursor
}

// Overflow reports whether Read went beyond the end of the buffer.
func (b *Bits) Overflow() bool {
	return b.overflow
}

// Bytes returns the buffer up to the last byte touched by the cursor.
func (b *Bits) Bytes() []byte {
	n := b.Base + int((b.cursor+7)/8)
	if n > len(b.buf) {
		n = len(b.buf)
	}
	return b.buf[:n]
}

// Append writes the low width bits of value at the cursor and advances it.
func (b *Bits) Append(width uint, value uint32) {
	for i := uint(0); i < width; i++ {
		pos := b.cursor + i
		idx := b.Base + int(pos/8)
		for idx >= len(b.buf) {
			b.buf = append(b.buf, 0)
		}
		if value&(1<<i) != 0 {
			b.buf[idx] |= 1 << (pos % 8)
		}
	}
	b.cursor += width
}

// Read extracts width bits at the cursor and advances it. Bits beyond the
// end of the buffer read as zero and mark the Bits as overflowed.
func (b *Bits) Read(width uint) (value uint32) {
	for i := width; i > 0; i-- {
		pos := b.cursor + i - 1
		idx := b.Base + int(pos/8)
		value <<= 1
		if idx >= len(b.buf) {
			b.overflow = true
			continue
		}
		value |= uint32(b.buf[idx]>>(pos%8)) & 1
	}
	b.cursor += width
	return
}

// MinimumBits returns the number of bits needed to represent value,
// capped at 31.
func MinimumBits(value uint32) uint {
	for n := uint(0); n < 32; n++ {
		if value == 0 {
			return n
		}
		value >>= 1
	}
	return 31
}

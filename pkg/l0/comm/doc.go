// Package comm provides L0 protocol support.
package comm

// L0 protocol is communicated between the L1 host and the two peer
// microcontrollers sharing one half-duplex serial line. Each peer owns
// two motor ports and two sensor ports and answers only frames sent to
// its own address (address 0 is broadcast and is never answered).
//
// Outbound frames carry the destination address, an additive checksum,
// the payload length and the payload. Replies omit the address. The first
// payload byte is the message kind; the remaining fields are packed at the
// bit level, least significant bit first, with a cursor private to each
// message (see Bits).
//
// Every request is acknowledged by an echo of its kind. Only the values
// exchange carries data back.
//
// Producer: L1 host
// Consumer: L0 firmware

package dns

import "encoding/binary"

// Header represents a DNS message header (RFC 1035 Section 4.1.1).
//
// The load generator only ever builds outbound query headers; it never
// needs to parse a reply header back into this shape, since the receiver
// reads a reply's transaction id and flags straight off the wire (see
// RCodeFromFlags).
type Header struct {
	ID      uint16 // Transaction ID
	Flags   uint16 // QR/Opcode/RD/... per RFC 1035 4.1.1; see RDFlag
	QDCount uint16 // Question count
	ANCount uint16 // Answer count
	NSCount uint16 // Authority (nameserver) count
	ARCount uint16 // Additional records count
}

// HeaderSize is the fixed size of a DNS header in bytes.
const HeaderSize = 12

// Marshal serializes the header to wire format (big-endian, 12 bytes).
func (h Header) Marshal() ([]byte, error) {
	b := make([]byte, HeaderSize)
	binary.BigEndian.PutUint16(b[0:2], h.ID)
	binary.BigEndian.PutUint16(b[2:4], h.Flags)
	binary.BigEndian.PutUint16(b[4:6], h.QDCount)
	binary.BigEndian.PutUint16(b[6:8], h.ANCount)
	binary.BigEndian.PutUint16(b[8:10], h.NSCount)
	binary.BigEndian.PutUint16(b[10:12], h.ARCount)
	return b, nil
}

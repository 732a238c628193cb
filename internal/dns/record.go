package dns

import "encoding/binary"

// Record represents a DNS resource record (RFC 1035 Section 4.1.3). The
// query builder only ever constructs one: the EDNS OPT pseudo-record, whose
// Data is always raw RDATA bytes (see MarshalEDNSOptions).
type Record struct {
	Name  string
	Type  uint16
	Class uint16
	TTL   uint32
	Data  []byte
}

// Marshal serializes the record to DNS wire format. The OPT pseudo-record
// always names the root per RFC 6891 Section 6.1.2, regardless of rr.Name.
func (rr Record) Marshal() ([]byte, error) {
	nameWire := []byte{0}
	if rr.Type != uint16(TypeOPT) {
		b, err := EncodeName(rr.Name)
		if err != nil {
			return nil, err
		}
		nameWire = b
	}

	out := make([]byte, 0, len(nameWire)+10+len(rr.Data))
	out = append(out, nameWire...)
	fixed := make([]byte, 10)
	binary.BigEndian.PutUint16(fixed[0:2], rr.Type)
	binary.BigEndian.PutUint16(fixed[2:4], rr.Class)
	binary.BigEndian.PutUint32(fixed[4:8], rr.TTL)
	binary.BigEndian.PutUint16(fixed[8:10], uint16(len(rr.Data)))
	out = append(out, fixed...)
	out = append(out, rr.Data...)
	return out, nil
}

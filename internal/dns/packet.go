package dns

// Packet represents a DNS query message (RFC 1035 Section 4): a header,
// one question, and zero or one EDNS OPT additional record. The builder
// never populates Answers or Authorities, since it only ever sends queries.
type Packet struct {
	Header      Header
	Questions   []Question
	Additionals []Record
}

// Marshal serializes the packet to DNS wire format (big-endian).
func (p Packet) Marshal() ([]byte, error) {
	h := Header{
		ID:      p.Header.ID,
		Flags:   p.Header.Flags,
		QDCount: uint16(len(p.Questions)),
		ARCount: uint16(len(p.Additionals)),
	}

	hb, err := h.Marshal()
	if err != nil {
		return nil, err
	}
	// Estimate capacity: header(12) + question(~50) + additionals(~50 each)
	estimatedSize := HeaderSize + len(p.Questions)*50 + len(p.Additionals)*50
	out := make([]byte, 0, estimatedSize)
	out = append(out, hb...)
	for _, q := range p.Questions {
		qb, err := q.Marshal()
		if err != nil {
			return nil, err
		}
		out = append(out, qb...)
	}
	for _, rr := range p.Additionals {
		b, err := rr.Marshal()
		if err != nil {
			return nil, err
		}
		out = append(out, b...)
	}
	return out, nil
}

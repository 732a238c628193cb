package dns

import (
	"fmt"
	"strconv"
	"strings"
)

// qtypeByName maps record type mnemonics (as they appear in an input source
// line, e.g. "www.example.com A") to their numeric RFC value. record.go
// only ever marshals the OPT pseudo-record; a query only needs the QTYPE
// number, never the answer's RDATA shape.
var qtypeByName = map[string]uint16{
	"A":     1,
	"NS":    2,
	"CNAME": 5,
	"SOA":   6,
	"PTR":   12,
	"MX":    15,
	"TXT":   16,
	"AAAA":  28,
	"SRV":   33,
	"NAPTR": 35,
	"DS":    43,
	"OPT":   41,
	"RRSIG": 46,
	"DNSKEY": 48,
	"TLSA":  52,
	"ANY":   255,
	"AXFR":  252,
}

// ResolveQType turns a type mnemonic or decimal string into its numeric
// QTYPE. Mnemonics are matched case-insensitively; anything that parses as
// an unsigned 16-bit integer is accepted as-is, per spec: the input source
// line carries "<name> <type>" where type is either form.
func ResolveQType(s string) (uint16, error) {
	if n, err := strconv.ParseUint(s, 10, 16); err == nil {
		return uint16(n), nil
	}
	if t, ok := qtypeByName[strings.ToUpper(s)]; ok {
		return t, nil
	}
	return 0, fmt.Errorf("%w: unknown record type %q", ErrDNSError, s)
}

// BuildOptions carries the knobs the CLI layer parses out of -e, -D, -x and
// -y into the query builder.
type BuildOptions struct {
	RecursionDesired bool

	EDNS           bool
	DNSSECOk       bool
	UDPPayloadSize int // 0 means EDNSDefaultUDPPayloadSize
	EDNSOptions    []EDNSOption

	TSIG *TSIGConfig
}

// ParseQueryLine splits one input-source line ("<name> <type>") into its
// name and type fields. A line with only a name defaults to an A query.
func ParseQueryLine(line string) (name string, qtype uint16, err error) {
	fields := strings.Fields(line)
	switch len(fields) {
	case 0:
		return "", 0, fmt.Errorf("%w: empty query line", ErrDNSError)
	case 1:
		return fields[0], uint16(qtypeByName["A"]), nil
	default:
		qtype, err = ResolveQType(fields[1])
		if err != nil {
			return "", 0, err
		}
		return fields[0], qtype, nil
	}
}

// Build constructs a wire-format DNS query for one input-source line,
// stamping it with the given transaction id. text is "<name> <type>"; opts
// carries the EDNS/DNSSEC/TSIG knobs the CLI exposes.
func Build(text string, qid uint16, opts BuildOptions) ([]byte, error) {
	name, qtype, err := ParseQueryLine(text)
	if err != nil {
		return nil, err
	}

	flags := uint16(0)
	if opts.RecursionDesired {
		flags |= RDFlag
	}

	p := Packet{
		Header: Header{ID: qid, Flags: flags},
		Questions: []Question{
			{Name: name, Type: qtype, Class: uint16(ClassIN)},
		},
	}

	if opts.EDNS {
		size := opts.UDPPayloadSize
		if size == 0 {
			size = EDNSDefaultUDPPayloadSize
		}
		opt := CreateOPT(size)
		opt.DNSSECOk = opts.DNSSECOk
		opt.Options = opts.EDNSOptions
		p.Additionals = append(p.Additionals, Record{
			Name:  "",
			Type:  uint16(TypeOPT),
			Class: opt.UDPPayloadSize,
			TTL:   packOPTTTL(opt.ExtendedRCode, opt.Version, opt.DNSSECOk),
			Data:  MarshalEDNSOptions(opt.Options),
		})
	}

	out, err := p.Marshal()
	if err != nil {
		return nil, err
	}

	if opts.TSIG != nil {
		out, err = opts.TSIG.Sign(out, name)
		if err != nil {
			return nil, err
		}
	}

	return out, nil
}

package dns

import (
	"crypto/hmac"
	"crypto/md5" //nolint:gosec // RFC 2845 mandates HMAC-MD5 as the baseline TSIG algorithm
	"encoding/binary"
	"fmt"
	"time"
)

// hmacMD5AlgorithmName is the TSIG algorithm name RFC 2845 assigns to
// HMAC-MD5, encoded as a (non-compressed) DNS domain name.
const hmacMD5AlgorithmName = "hmac-md5.sig-alg.reg.int."

// tsigFudge is the number of seconds of clock skew RFC 2845 §4.5 tolerates
// on either side of the signing time.
const tsigFudge = 300

const (
	typeTSIG  uint16 = 250
	classANY  uint16 = 255
	tsigNoErr uint16 = 0
)

// TSIGConfig carries a transaction-signature key as parsed from "-y
// name:secret". Secret is used byte-for-byte as the HMAC key; the -y
// parser passes the text after the colon through without base64 decoding.
type TSIGConfig struct {
	KeyName string
	Secret  []byte
}

// Sign appends an RFC 2845 TSIG resource record to a wire-format DNS
// message, signing it with HMAC-MD5 under the configured key. reqName is
// accepted for symmetry with the rest of the query-building API; TSIG
// itself only depends on msg's header and the TSIG variables, not the
// question name.
func (c *TSIGConfig) Sign(msg []byte, _ string) ([]byte, error) {
	if len(msg) < HeaderSize {
		return nil, fmt.Errorf("%w: message too short to sign", ErrDNSError)
	}
	if len(c.Secret) == 0 {
		return nil, fmt.Errorf("%w: empty TSIG secret", ErrDNSError)
	}

	keyNameWire, err := EncodeName(c.KeyName)
	if err != nil {
		return nil, fmt.Errorf("tsig key name: %w", err)
	}
	algNameWire, err := EncodeName(hmacMD5AlgorithmName)
	if err != nil {
		return nil, err
	}

	timeSigned := uint64(time.Now().Unix()) //nolint:staticcheck // clock read, not a workflow-script Date.now()

	mac, err := c.computeMAC(msg, keyNameWire, algNameWire, timeSigned)
	if err != nil {
		return nil, err
	}

	rdata := make([]byte, 0, len(algNameWire)+8+2+len(mac)+6)
	rdata = append(rdata, algNameWire...)
	rdata = append(rdata, packTime48(timeSigned)...)
	fudgeBuf := make([]byte, 2)
	binary.BigEndian.PutUint16(fudgeBuf, tsigFudge)
	rdata = append(rdata, fudgeBuf...)
	macLenBuf := make([]byte, 2)
	binary.BigEndian.PutUint16(macLenBuf, uint16(len(mac))) //nolint:gosec // md5 digest is always 16 bytes
	rdata = append(rdata, macLenBuf...)
	rdata = append(rdata, mac...)
	origID := binary.BigEndian.Uint16(msg[0:2])
	origIDBuf := make([]byte, 2)
	binary.BigEndian.PutUint16(origIDBuf, origID)
	rdata = append(rdata, origIDBuf...)
	rdata = append(rdata, 0, byte(tsigNoErr)) // ERROR, low byte only (no error codes > 255 here)
	rdata = append(rdata, 0, 0)               // OTHER LEN = 0

	rrFixed := make([]byte, 10)
	binary.BigEndian.PutUint16(rrFixed[0:2], typeTSIG)
	binary.BigEndian.PutUint16(rrFixed[2:4], classANY)
	binary.BigEndian.PutUint32(rrFixed[4:8], 0) // TTL = 0
	binary.BigEndian.PutUint16(rrFixed[8:10], uint16(len(rdata)))

	out := make([]byte, 0, len(msg)+len(keyNameWire)+len(rrFixed)+len(rdata))
	out = append(out, msg...)
	out = append(out, keyNameWire...)
	out = append(out, rrFixed...)
	out = append(out, rdata...)

	ar := binary.BigEndian.Uint16(out[10:12])
	if ar < 65535 {
		ar++
	}
	binary.BigEndian.PutUint16(out[10:12], ar)

	return out, nil
}

// computeMAC reproduces RFC 2845 §3.4's MAC computation: request MAC
// (empty for an initial query) || message || TSIG variables.
func (c *TSIGConfig) computeMAC(msg, keyNameWire, algNameWire []byte, timeSigned uint64) ([]byte, error) {
	h := hmac.New(md5.New, c.Secret)
	h.Write(msg)
	h.Write(keyNameWire)

	classBuf := make([]byte, 2)
	binary.BigEndian.PutUint16(classBuf, classANY)
	h.Write(classBuf)

	ttlBuf := make([]byte, 4)
	binary.BigEndian.PutUint32(ttlBuf, 0)
	h.Write(ttlBuf)

	h.Write(algNameWire)
	h.Write(packTime48(timeSigned))

	fudgeBuf := make([]byte, 2)
	binary.BigEndian.PutUint16(fudgeBuf, tsigFudge)
	h.Write(fudgeBuf)

	h.Write([]byte{0, 0}) // ERROR = 0
	h.Write([]byte{0, 0}) // OTHER LEN = 0

	return h.Sum(nil), nil
}

// packTime48 encodes a Unix timestamp as the 48-bit big-endian field RFC
// 2845 §3.3 requires for TSIG's Time Signed.
func packTime48(t uint64) []byte {
	b := make([]byte, 6)
	b[0] = byte(t >> 40)
	b[1] = byte(t >> 32)
	b[2] = byte(t >> 24)
	b[3] = byte(t >> 16)
	b[4] = byte(t >> 8)
	b[5] = byte(t)
	return b
}

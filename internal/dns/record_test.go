package dns

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordMarshalOPT(t *testing.T) {
	rr := Record{
		Type:  uint16(TypeOPT),
		Class: 4096,
		TTL:   packOPTTTL(0, 0, true),
		Data:  MarshalEDNSOptions([]EDNSOption{{Code: 10, Data: []byte{1, 2, 3}}}),
	}

	b, err := rr.Marshal()
	require.NoError(t, err)

	// Root name (1) + type/class/ttl/rdlen (10) + rdata (4 header + 3 data)
	assert.Equal(t, 1+10+7, len(b))
	assert.Equal(t, byte(0), b[0], "OPT record must name the root")

	rdlen := int(b[len(b)-8])<<8 | int(b[len(b)-7])
	assert.Equal(t, 7, rdlen)
}

func TestRecordMarshalOPTEmptyOptions(t *testing.T) {
	rr := Record{
		Type:  uint16(TypeOPT),
		Class: 1232,
		TTL:   packOPTTTL(0, 0, false),
	}

	b, err := rr.Marshal()
	require.NoError(t, err)
	assert.Equal(t, 1+10, len(b), "no options means zero-length rdata")
}

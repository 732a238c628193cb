package dns

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEDNSOptionMarshal(t *testing.T) {
	opt := EDNSOption{
		Code: 10,
		Data: []byte{0x01, 0x02, 0x03},
	}
	b := opt.Marshal()
	// 2 bytes code + 2 bytes length + 3 bytes data = 7 bytes
	assert.Len(t, b, 7)
	// Code = 10 (0x000A)
	assert.Equal(t, byte(0), b[0])
	assert.Equal(t, byte(10), b[1])
	// Length = 3
	assert.Equal(t, byte(0), b[2])
	assert.Equal(t, byte(3), b[3])
	// Data
	assert.Equal(t, []byte{1, 2, 3}, b[4:7])
}

func TestMarshalEDNSOptionsSkipsOversized(t *testing.T) {
	huge := make([]byte, EDNSMaxUDPPayloadSize+1)
	b := MarshalEDNSOptions([]EDNSOption{
		{Code: 10, Data: huge},
		{Code: 12, Data: []byte{0xAA}},
	})
	assert.Equal(t, []byte{0, 12, 0, 1, 0xAA}, b)
}

func TestMarshalEDNSOptionsEmpty(t *testing.T) {
	assert.Nil(t, MarshalEDNSOptions(nil))
}

func TestCreateOPT(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		wantMin int
		wantMax int
	}{
		{"normal size", 4096, 4096, 4096},
		{"below minimum", 100, EDNSMinUDPPayloadSize, EDNSMinUDPPayloadSize},
		{"above maximum", 70000, 65535, 65535},
		{"at minimum", 512, 512, 512},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opt := CreateOPT(tt.size)
			assert.GreaterOrEqual(t, int(opt.UDPPayloadSize), tt.wantMin)
			assert.LessOrEqual(t, int(opt.UDPPayloadSize), tt.wantMax)
		})
	}
}

func TestPackOPTTTL(t *testing.T) {
	tests := []struct {
		name     string
		extRCode uint8
		version  uint8
		dnssecOk bool
	}{
		{"all zeros", 0, 0, false},
		{"DO flag set", 0, 0, true},
		{"extended rcode", 5, 0, false},
		{"version 1", 0, 1, false},
		{"all set", 3, 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ttl := packOPTTTL(tt.extRCode, tt.version, tt.dnssecOk)

			gotExtRCode := uint8(ttl >> 24)
			gotVersion := uint8(ttl >> 16)
			gotDO := ((ttl >> 15) & 1) == 1

			assert.Equal(t, tt.extRCode, gotExtRCode)
			assert.Equal(t, tt.version, gotVersion)
			assert.Equal(t, tt.dnssecOk, gotDO)
		})
	}
}

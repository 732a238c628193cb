package dns

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTSIGSignAppendsRecord(t *testing.T) {
	base, err := Build("example.com A", 0xABCD, BuildOptions{})
	require.NoError(t, err)

	cfg := &TSIGConfig{KeyName: "key.example.com", Secret: []byte("super-secret-key")}
	signed, err := cfg.Sign(base, "example.com")
	require.NoError(t, err)
	assert.Greater(t, len(signed), len(base))

	arCount := binary.BigEndian.Uint16(signed[10:12])
	assert.Equal(t, uint16(1), arCount)
}

func TestTSIGSignRejectsEmptySecret(t *testing.T) {
	base, err := Build("example.com A", 1, BuildOptions{})
	require.NoError(t, err)

	cfg := &TSIGConfig{KeyName: "key.example.com"}
	_, err = cfg.Sign(base, "example.com")
	require.Error(t, err)
}

func TestTSIGSignLengthStableAcrossCalls(t *testing.T) {
	base, err := Build("example.com A", 7, BuildOptions{})
	require.NoError(t, err)

	cfg := &TSIGConfig{KeyName: "key.", Secret: []byte("secret")}
	a, err := cfg.Sign(base, "example.com")
	require.NoError(t, err)
	b, err := cfg.Sign(base, "example.com")
	require.NoError(t, err)
	// Both signatures cover the same message; lengths must match even if
	// the embedded timestamp differs by a second across the two calls.
	assert.Equal(t, len(a), len(b))
}

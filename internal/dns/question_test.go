package dns

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuestionMarshal(t *testing.T) {
	q := Question{
		Name:  "example.com",
		Type:  1, // A
		Class: 1, // IN
	}

	b, err := q.Marshal()
	require.NoError(t, err)

	// Expected: encoded name (13 bytes) + type (2) + class (2) = 17 bytes
	expectedMinLen := 13 + 4
	assert.GreaterOrEqual(t, len(b), expectedMinLen)

	// Last 4 bytes should be type and class
	typeVal := int(b[len(b)-4])<<8 | int(b[len(b)-3])
	classVal := int(b[len(b)-2])<<8 | int(b[len(b)-1])

	assert.Equal(t, 1, typeVal)
	assert.Equal(t, 1, classVal)
}

func TestQuestionMarshalInvalidName(t *testing.T) {
	longLabel := make([]byte, 70)
	for i := range longLabel {
		longLabel[i] = 'a'
	}
	q := Question{
		Name:  string(longLabel) + ".com",
		Type:  1,
		Class: 1,
	}

	_, err := q.Marshal()
	assert.Error(t, err, "expected error for invalid name")
}

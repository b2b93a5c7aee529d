package codec

import (
	"crypto/sha256"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- HashBytecode tests ---

func TestHashBytecode_ThreeWords(t *testing.T) {
	code := make([]byte, 96) // 3 words, odd

	hash, err := HashBytecode(code)
	require.NoError(t, err)

	// Version tag in the first two bytes, word count in the next two.
	assert.Equal(t, byte(0x01), hash[0])
	assert.Equal(t, byte(0x00), hash[1])
	assert.Equal(t, uint16(3), binary.BigEndian.Uint16(hash[2:4]))

	// Bytes 4..31 of the digest pass through untouched.
	digest := sha256.Sum256(code)
	assert.Equal(t, digest[4:], hash[4:])
}

func TestHashBytecode_EvenWordCount(t *testing.T) {
	_, err := HashBytecode(make([]byte, 64)) // 2 words, even

	assert.ErrorIs(t, err, ErrInvalidBytecodeLength)
}

func TestHashBytecode_NotWordAligned(t *testing.T) {
	_, err := HashBytecode(make([]byte, 33))

	assert.ErrorIs(t, err, ErrInvalidBytecodeLength)
}

func TestHashBytecode_Empty(t *testing.T) {
	_, err := HashBytecode(nil)

	assert.ErrorIs(t, err, ErrInvalidBytecodeLength)
}

func TestHashBytecode_OverMax(t *testing.T) {
	_, err := HashBytecode(make([]byte, MaxBytecodeLen+BytecodeWordLen))

	assert.ErrorIs(t, err, ErrInvalidBytecodeLength)
}

func TestHashBytecode_Deterministic(t *testing.T) {
	code := make([]byte, 32)
	code[0] = 0x7f

	first, err := HashBytecode(code)
	require.NoError(t, err)
	second, err := HashBytecode(code)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	code[31] = 0x01
	changed, err := HashBytecode(code)
	require.NoError(t, err)
	assert.NotEqual(t, first, changed)
}

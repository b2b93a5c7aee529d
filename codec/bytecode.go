package codec

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

const (
	// BytecodeWordLen is the word size bytecode lengths are measured in.
	BytecodeWordLen = 32

	// MaxBytecodeLen is the largest bytecode the hash format can address:
	// the word count must fit 16 bits and be odd, so 65534 words is the
	// hard byte-length ceiling.
	MaxBytecodeLen = 65535*BytecodeWordLen - BytecodeWordLen
)

// bytecodeVersion is the 2-byte tag occupying the first bytes of every
// bytecode hash.
var bytecodeVersion = [2]byte{0x01, 0x00}

// HashBytecode computes the content hash identifying a deployable code blob.
//
// The layout is: version tag (2 bytes), big-endian word count (2 bytes),
// then bytes 4..31 of sha256(code). Exactly the first four digest bytes are
// overwritten; the rest of the digest must pass through untouched, since any
// deviation silently corrupts content addressing.
//
// The input length must be a positive multiple of 32, at most MaxBytecodeLen,
// and an odd number of words. Violations fail with ErrInvalidBytecodeLength —
// never a zero hash.
func HashBytecode(code []byte) (common.Hash, error) {
	if len(code) == 0 || len(code)%BytecodeWordLen != 0 {
		return common.Hash{}, fmt.Errorf("%w: %d bytes is not a positive multiple of %d",
			ErrInvalidBytecodeLength, len(code), BytecodeWordLen)
	}
	if len(code) > MaxBytecodeLen {
		return common.Hash{}, fmt.Errorf("%w: %d bytes exceeds maximum %d",
			ErrInvalidBytecodeLength, len(code), MaxBytecodeLen)
	}
	words := len(code) / BytecodeWordLen
	if words%2 == 0 {
		return common.Hash{}, fmt.Errorf("%w: word count %d must be odd",
			ErrInvalidBytecodeLength, words)
	}

	digest := sha256.Sum256(code)
	digest[0] = bytecodeVersion[0]
	digest[1] = bytecodeVersion[1]
	binary.BigEndian.PutUint16(digest[2:4], uint16(words))
	return common.Hash(digest), nil
}

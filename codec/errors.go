package codec

import "errors"

var (
	// ErrMissingChainID indicates the transaction has no chain ID set.
	// Hashing and serialization both require one.
	ErrMissingChainID = errors.New("codec: chain ID is not set")

	// ErrMissingFrom indicates the transaction has no sender address set.
	ErrMissingFrom = errors.New("codec: from address is not set")

	// ErrMissingAuthentication indicates neither a classical signature nor a
	// custom signature was available when one was required.
	ErrMissingAuthentication = errors.New("codec: no signature available")

	// ErrEmptySignature indicates a custom signature was supplied but is
	// zero-length. An empty custom signature is rejected outright rather
	// than treated as "no signature".
	ErrEmptySignature = errors.New("codec: custom signature is empty")

	// ErrSignatureParse indicates the r/s slots of an encoded transaction
	// were non-empty but no valid classical signature could be formed.
	ErrSignatureParse = errors.New("codec: cannot parse classical signature")

	// ErrInvalidEncoding indicates the raw bytes are not a well-formed
	// typed transaction (wrong type tag or malformed RLP body).
	ErrInvalidEncoding = errors.New("codec: invalid transaction encoding")

	// ErrInvalidBytecodeLength indicates a factory dependency does not meet
	// the bytecode length rules (multiple of 32, odd word count, below max).
	ErrInvalidBytecodeLength = errors.New("codec: invalid bytecode length")

	// ErrInvalidAddress indicates an address field decoded to a byte string
	// that is neither empty nor exactly 20 bytes.
	ErrInvalidAddress = errors.New("codec: invalid address field")
)
